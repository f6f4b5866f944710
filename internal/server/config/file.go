package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/orgvote/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of a JSON or YAML config file. It uses
// timex.Duration for intervals, which accepts both "24h" and integer
// nanoseconds. Zero values leave the current setting untouched.
type FileConfig struct {
	DatabaseDSN             string         `json:"database_dsn"               yaml:"database_dsn"`
	LogLevel                string         `json:"log_level"                  yaml:"log_level"`
	LogFile                 string         `json:"log_file"                   yaml:"log_file"`
	MaxQuestionLength       int            `json:"max_question_length"        yaml:"max_question_length"`
	MaxCandidateTitleLength int            `json:"max_candidate_title_length" yaml:"max_candidate_title_length"`
	MinTermAcceptancePeriod timex.Duration `json:"min_term_acceptance_period" yaml:"min_term_acceptance_period"`
	CooldownPeriod          timex.Duration `json:"cooldown_period"            yaml:"cooldown_period"`
	S3RootUser              string         `json:"s3_root_user"               yaml:"s3_root_user"`
	S3RootPassword          string         `json:"s3_root_password"           yaml:"s3_root_password"`
	S3Bucket                string         `json:"s3_bucket"                  yaml:"s3_bucket"`
	S3Region                string         `json:"s3_region"                  yaml:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint"           yaml:"s3_base_endpoint"`
}

// parseFile overlays the values found in path onto config. The format is
// chosen by extension: .yaml and .yml are YAML, anything else is JSON.
func parseFile(config *Config, path string) error {
	// nothing to load
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFile, c.LogFile)
	if c.MaxQuestionLength != 0 {
		config.MaxQuestionLength = c.MaxQuestionLength
	}
	if c.MaxCandidateTitleLength != 0 {
		config.MaxCandidateTitleLength = c.MaxCandidateTitleLength
	}
	if c.MinTermAcceptancePeriod.Duration != 0 {
		config.MinTermAcceptancePeriod = c.MinTermAcceptancePeriod.Duration
	}
	if c.CooldownPeriod.Duration != 0 {
		config.CooldownPeriod = c.CooldownPeriod.Duration
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
