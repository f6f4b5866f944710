// Package archive publishes immutable result snapshots of closed ballots to
// an S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/orgvote/internal/server/config"
	"github.com/dmitrijs2005/orgvote/internal/tally"
)

// Snapshot is the archived form of a ballot's final tally.
type Snapshot struct {
	BallotID     string         `json:"ballot_id"`
	OrgID        string         `json:"org_id"`
	Category     string         `json:"category"`
	Office       string         `json:"office,omitempty"`
	VotingEndsAt time.Time      `json:"voting_ends_at"`
	ArchivedAt   time.Time      `json:"archived_at"`
	VoteCount    int            `json:"vote_count"`
	InputsHash   string         `json:"inputs_hash"`
	Results      []tally.Result `json:"results"`
	Winners      []tally.Result `json:"winners"`
}

// Key is the object key of a snapshot taken at at.
func Key(orgID, ballotID string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("orgs/%s/ballots/%s/%d/%02d/%02d/%s.json",
		orgID, ballotID, at.Year(), at.Month(), at.Day(), at.Format("20060102T150405.000000000Z"))
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Publisher writes snapshots as JSON objects.
type S3Publisher struct {
	bucket string
	client objectPutter
}

// NewS3Publisher builds a client for the bucket and endpoint in cfg using
// static credentials.
func NewS3Publisher(ctx context.Context, cfg *sc.Config) (*S3Publisher, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("error loading s3 config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			// MinIO and friends serve buckets by path.
			o.UsePathStyle = true
		}
	})

	return &S3Publisher{bucket: cfg.S3Bucket, client: client}, nil
}

// Publish uploads s and returns its object key.
func (p *S3Publisher) Publish(ctx context.Context, s Snapshot) (string, error) {
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}

	key := Key(s.OrgID, s.BallotID, s.ArchivedAt)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading snapshot: %w", err)
	}
	return key, nil
}
