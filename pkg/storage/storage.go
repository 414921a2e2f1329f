package storage

import (
	"context"
	"io"
)

// Storage is a read-side file store addressed by key.
// Keys are slash-separated paths; backends map them to files or objects.
type Storage interface {
	// Get opens the file stored under key.
	// The caller is responsible for closing the returned reader.
	// Returns an error wrapping ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether key exists without reading its content.
	Exists(ctx context.Context, key string) (bool, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string `yaml:"bucket" env:"S3_BUCKET"`

	// AccessKey is the AWS access key ID (required).
	AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`

	// SecretKey is the AWS secret access key (required).
	SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`

	// Endpoint is the custom S3 endpoint URL (optional, for MinIO or other S3-compatible services).
	Endpoint string `yaml:"endpoint" env:"S3_ENDPOINT"`

	// Region is the AWS region (default: us-east-1).
	Region string `yaml:"region" env:"S3_REGION" envDefault:"us-east-1"`

	// Prefix is prepended to every key (optional), e.g. "batches/2024-06".
	Prefix string `yaml:"prefix" env:"S3_PREFIX"`

	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool `yaml:"path_style" env:"S3_PATH_STYLE"`
}

// FileInfo contains metadata about a stored file.
type FileInfo struct {
	Key         string
	ContentType string
	Size        int64
}

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" {
		return ErrInvalidConfig
	}
	if c.AccessKey == "" {
		return ErrInvalidConfig
	}
	if c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}
