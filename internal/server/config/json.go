package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/postbridge/postbridge/internal/flagx"
	"github.com/postbridge/postbridge/internal/targets"
	"github.com/postbridge/postbridge/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "15m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr                 string                    `json:"endpoint_addr"`
	DatabasePath                 string                    `json:"database_path"`
	SecretKey                    string                    `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration            `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration            `json:"refresh_token_validity_duration"`
	AdminUsername                string                    `json:"admin_username"`
	AdminPassword                string                    `json:"admin_password"`
	S3RootUser                   string                    `json:"s3_root_user"`
	S3RootPassword               string                    `json:"s3_root_password"`
	S3Bucket                     string                    `json:"s3_bucket"`
	S3Region                     string                    `json:"s3_region"`
	S3BaseEndpoint               string                    `json:"s3_base_endpoint"`
	Targets                      map[string]targets.Config `json:"targets"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; if neither
// is set, no JSON file is loaded and the Config is left untouched. A JSON
// file is treated as a complete configuration: its values replace every
// field, so partial files fall back to zero values rather than defaults.
//
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabasePath = c.DatabasePath
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	config.AdminUsername = c.AdminUsername
	config.AdminPassword = c.AdminPassword
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.Targets = c.Targets
}
