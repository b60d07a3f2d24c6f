// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"time"

	"github.com/postbridge/postbridge/internal/targets"
)

// Config holds runtime settings for the Postbridge server.
//
// Fields:
//   - EndpointAddr: bind address for the public HTTP endpoint.
//   - DatabasePath: path of the SQLite database file.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - AdminUsername / AdminPassword: credentials seeded into a fresh database.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible media backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//   - Targets: publish destinations keyed by target name.
type Config struct {
	EndpointAddr                 string
	DatabasePath                 string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	AdminUsername                string
	AdminPassword                string
	S3RootUser                   string
	S3RootPassword               string
	S3Bucket                     string
	S3Region                     string
	S3BaseEndpoint               string
	Targets                      map[string]targets.Config
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabasePath = "postbridge.db"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 168 * time.Hour
	c.AdminUsername = "admin"
	c.AdminPassword = "admin"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "media"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.Targets = map[string]targets.Config{}
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
