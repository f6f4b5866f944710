package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment variable read by parseEnv,
// e.g. ORGVOTE_DATABASE_DSN or ORGVOTE_COOLDOWN_PERIOD.
const EnvPrefix = "orgvote"

const defaultEnvFile = ".env"

// loadDotEnv exports the variables of a dotenv file into the process
// environment without overriding variables that are already set. A missing
// default file is not an error; a missing explicit file is.
func loadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("error loading env file %s: %w", path, err)
}

// parseEnv overlays ORGVOTE_* variables onto config. Unset variables leave
// the current value untouched.
func parseEnv(config *Config) error {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return fmt.Errorf("error processing environment: %w", err)
	}
	return nil
}
