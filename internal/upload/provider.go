package upload

import (
	"fmt"

	"github.com/formbridge/formbridge/internal/config"
)

// Retrying uploader for the configured archive provider. nil when archiving is
// not configured.
func FromConfig(cfg *config.ArchiveConfig) (Uploader, error) {
	if cfg == nil || cfg.Provider == "" {
		return nil, nil
	}

	var (
		u   Uploader
		err error
	)
	switch cfg.Provider {
	case "s3":
		if cfg.S3 == nil {
			return nil, fmt.Errorf("archive provider s3 requires an s3 block")
		}
		u, err = NewMinioUploader(
			cfg.S3.Endpoint,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.SSLEnabled,
			cfg.S3.BucketName,
		)
	case "azure":
		if cfg.Azure == nil {
			return nil, fmt.Errorf("archive provider azure requires an azure block")
		}
		u, err = NewAzureUploader(
			cfg.Azure.AccountName,
			cfg.Azure.AccountKey,
			cfg.Azure.ContainerURL,
			cfg.Azure.Container,
		)
	default:
		return nil, fmt.Errorf("unknown archive provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s uploader: %w", cfg.Provider, err)
	}

	return NewRetryUploader(u), nil
}
