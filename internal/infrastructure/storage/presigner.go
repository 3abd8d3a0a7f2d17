package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/wardenlink/pkg/config"
)

// ErrDisabled is returned when no object storage is configured.
var ErrDisabled = errors.New("object storage is not configured")

// Presigner issues short-lived upload URLs for direct-to-bucket uploads.
// Implementations: S3Presigner, GCSPresigner.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	PublicURL(key string) string
	Bucket() string
}

// New builds the presigner selected by STORAGE_PROVIDER. It returns
// ErrDisabled for "none".
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Presigner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		p   Presigner
		err error
	)
	switch cfg.Provider {
	case "s3":
		p, err = NewS3Presigner(cfg)
	case "gcs":
		p, err = NewGCSPresigner(ctx, cfg)
	case "", "none":
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("object storage configured",
		slog.String("provider", cfg.Provider),
		slog.String("bucket", p.Bucket()),
	)
	return p, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
