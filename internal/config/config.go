package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gtcs8803/submit/internal/logger"
	"github.com/gtcs8803/submit/internal/types"
	"github.com/gtcs8803/submit/internal/validator"
)

type Credentials struct {
	APIKeyID    string `mapstructure:"api_key_id"`
	APIKeyToken string `mapstructure:"api_key_token"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type SlogConfig struct {
	Level int `mapstructure:"level"`
}

type LoggingConfig struct {
	App     SlogConfig `mapstructure:"app"`
	UseOTLP bool       `mapstructure:"use_otlp"`
}

type TelemetryConfig struct {
	Exporter string `mapstructure:"exporter" validate:"oneof=none stdout otlp"`
}

type MinioArchiveConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	SSLEnabled      bool   `mapstructure:"ssl_enabled"`
}

type AzureArchiveConfig struct {
	AccountName string `mapstructure:"account_name"`
	AccountKey  string `mapstructure:"account_key"`
	ServiceURL  string `mapstructure:"service_url"`
	Container   string `mapstructure:"container"`
}

type ArchiveConfig struct {
	Enabled bool               `mapstructure:"enabled"`
	Backend string             `mapstructure:"backend" validate:"oneof=minio azure"`
	Minio   MinioArchiveConfig `mapstructure:"minio"`
	Azure   AzureArchiveConfig `mapstructure:"azure"`
}

type AuditConfig struct {
	// JSON lines file; empty disables the audit trail
	Path string `mapstructure:"path"`
}

type ExitCodesConfig struct {
	// Map outcomes to distinct exit codes instead of always exiting 0
	Distinct bool `mapstructure:"distinct"`
}

// See submit.yaml for an example config
type Config struct {
	CourseID    string                       `mapstructure:"course_id"   validate:"required"`
	Credentials Credentials                  `mapstructure:"credentials"`
	Endpoints   map[string]map[string]string `mapstructure:"endpoints"   validate:"required"`
	HTTP        HTTPConfig                   `mapstructure:"http"`
	Logging     LoggingConfig                `mapstructure:"logging"`
	Telemetry   TelemetryConfig              `mapstructure:"telemetry"`
	Archive     ArchiveConfig                `mapstructure:"archive"`
	Audit       AuditConfig                  `mapstructure:"audit"`
	ExitCodes   ExitCodesConfig              `mapstructure:"exit_codes"`
}

const (
	AppLogLevel            string = "logging.app.level"
	ArchiveAzureAccountKey string = "archive.azure.account_key" // #nosec
	ArchiveBackend         string = "archive.backend"
	ArchiveEnabled         string = "archive.enabled"
	ArchiveMinioKeyID      string = "archive.minio.access_key_id"
	ArchiveMinioSecret     string = "archive.minio.secret_access_key" // #nosec
	ArchiveMinioSSL        string = "archive.minio.ssl_enabled"
	AuditPath              string = "audit.path"
	CourseID               string = "course_id"
	CredentialsKeyID       string = "credentials.api_key_id"
	CredentialsKeyToken    string = "credentials.api_key_token" // #nosec
	EnvPrefix              string = "submit"
	ExitCodesDistinct      string = "exit_codes.distinct"
	HTTPTimeout            string = "http.timeout"
	TelemetryExporter      string = "telemetry.exporter"
	UseOTLP                string = "logging.use_otlp"
)

// Address of the local mock grading service
const LocalEndpoint = "http://localhost:1323"

var ErrNoEndpoint = errors.New("no endpoint configured")

// Loads configuration from `path`, or from submit.yaml in the usual places when `path` is empty.
//
// Environment variables prefixed with SUBMIT_ override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("submit")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "submit"))
		}
		v.AddConfigPath("/etc/submit/")
		v.AddConfigPath(".")
	}

	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.AutomaticEnv()

	// workaround for https://github.com/spf13/viper/issues/761
	// bind env vars explicitly so they unmarshal into the nested struct
	for _, key := range []string{
		CredentialsKeyID,
		CredentialsKeyToken,
		ArchiveMinioKeyID,
		ArchiveMinioSecret,
		ArchiveAzureAccountKey,
		AuditPath,
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	v.SetDefault(CourseID, "cs8803-02")
	for _, provider := range types.Providers {
		v.SetDefault(fmt.Sprintf("endpoints.%s.%s", types.EnvironmentLocal, provider), LocalEndpoint)
	}
	v.SetDefault(HTTPTimeout, 30*time.Second)
	v.SetDefault(AppLogLevel, int(slog.LevelInfo))
	v.SetDefault(UseOTLP, false)
	v.SetDefault(TelemetryExporter, "none")
	v.SetDefault(ArchiveEnabled, false)
	v.SetDefault(ArchiveBackend, "minio")
	v.SetDefault(ArchiveMinioSSL, true)
	v.SetDefault(ExitCodesDistinct, false)

	if err := v.ReadInConfig(); err != nil {
		// a missing default config file is fine, everything has a default or comes from env
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.Logger.Debug("no config file found, using defaults and environment")
	} else {
		logger.Logger.Debug("loaded config", "file", v.ConfigFileUsed())
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	valid := validator.Create()
	if err := valid.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := config.Archive.check(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Base URL of the grading service for the target
func (c *Config) Endpoint(env types.Environment, provider types.Provider) (string, error) {
	url := c.Endpoints[string(env)][string(provider)]
	if url == "" {
		return "", fmt.Errorf("%w for environment %q and provider %q", ErrNoEndpoint, env, provider)
	}

	return url, nil
}

func (a *ArchiveConfig) check() error {
	if !a.Enabled {
		return nil
	}

	var missing []string
	switch a.Backend {
	case "minio":
		for key, value := range map[string]string{
			"archive.minio.endpoint":          a.Minio.Endpoint,
			"archive.minio.access_key_id":     a.Minio.AccessKeyID,
			"archive.minio.secret_access_key": a.Minio.SecretAccessKey,
			"archive.minio.bucket":            a.Minio.Bucket,
		} {
			if value == "" {
				missing = append(missing, key)
			}
		}
	case "azure":
		for key, value := range map[string]string{
			"archive.azure.account_name": a.Azure.AccountName,
			"archive.azure.account_key":  a.Azure.AccountKey,
			"archive.azure.service_url":  a.Azure.ServiceURL,
			"archive.azure.container":    a.Azure.Container,
		} {
			if value == "" {
				missing = append(missing, key)
			}
		}
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("archive enabled but missing %s", strings.Join(missing, ", "))
	}

	return nil
}
