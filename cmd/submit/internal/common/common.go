package common

import (
	"errors"
	"fmt"
	"io"

	"github.com/gtcs8803/submit/internal/archive"
	"github.com/gtcs8803/submit/internal/audit"
	"github.com/gtcs8803/submit/internal/config"
	"github.com/gtcs8803/submit/internal/submission"
	"github.com/gtcs8803/submit/internal/types"
	"github.com/gtcs8803/submit/internal/upload"
)

var ErrUnknownBackend = errors.New("unknown archive backend")

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Grading service for the selected environment and provider
func GetService(cfg *config.Config, env types.Environment, provider types.Provider) (submission.Service, error) {
	baseURL, err := cfg.Endpoint(env, provider)
	if err != nil {
		return submission.Service{}, err
	}

	return submission.Service{
		BaseURL:     baseURL,
		APIKeyID:    cfg.Credentials.APIKeyID,
		APIKeyToken: cfg.Credentials.APIKeyToken,
		Client:      submission.NewHTTPClient(cfg.HTTP.Timeout),
	}, nil
}

// Audit trail from config; Discard when no path is set. The caller closes the returned closer.
func GetAuditTrail(cfg *config.Config) (*audit.Trail, io.Closer, error) {
	if cfg.Audit.Path == "" {
		return audit.Discard, nopCloser{}, nil
	}

	return audit.Open(cfg.Audit.Path)
}

func GetUploader(cfg *config.ArchiveConfig) (upload.Uploader, error) {
	switch cfg.Backend {
	case "minio":
		return upload.NewMinioUploader(
			cfg.Minio.Endpoint,
			cfg.Minio.AccessKeyID,
			cfg.Minio.SecretAccessKey,
			cfg.Minio.SSLEnabled,
			cfg.Minio.Bucket,
		)
	case "azure":
		return upload.NewAzureUploader(
			cfg.Azure.AccountName,
			cfg.Azure.AccountKey,
			cfg.Azure.ServiceURL,
			cfg.Azure.Container,
		)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Archiver from config; nil when archiving is disabled
func GetArchiver(cfg *config.Config, trail *audit.Trail) (*archive.Archiver, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}

	uploader, err := GetUploader(&cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("failed to make %s uploader: %w", cfg.Archive.Backend, err)
	}

	return archive.New(upload.NewRetryUploader(uploader), trail), nil
}
