package storage

import (
	"github.com/meishibox/meishibox/internal/pkg/env"
)

// Config holds the S3 connection settings for card image storage
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	EndpointURL     string
}

// LoadConfig reads the S3 settings from the environment
func LoadConfig() *Config {
	return &Config{
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Bucket:          env.GetEnv("S3_BUCKET", "meishibox-cards"),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
	}
}

// IsEnabled reports whether credentials are configured
func (c *Config) IsEnabled() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}
