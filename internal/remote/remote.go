// Package remote mirrors the settings store file to and from an
// S3-compatible bucket, so one store can be shared between machines.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/klauern/synkron/internal/logging"
)

var (
	// ErrNotConfigured is returned when the remote section is incomplete.
	ErrNotConfigured = errors.New("remote mirror is not configured")
	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrObjectNotFound is returned by Pull when nothing was pushed yet.
	ErrObjectNotFound = errors.New("remote store not found")
)

// Config describes where the store is mirrored.
type Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Object    string `yaml:"object,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Region    string `yaml:"region,omitempty"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Validate reports whether the config names an endpoint and a bucket.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrNotConfigured)
	}
	if c.Bucket == "" {
		return fmt.Errorf("%w: bucket is required", ErrNotConfigured)
	}
	return nil
}

// ObjectName returns the object key for localPath. An explicit Object wins;
// otherwise the base name of the store file is used.
func (c Config) ObjectName(localPath string) string {
	if c.Object != "" {
		return c.Object
	}
	return filepath.Base(localPath)
}

// Mirror copies a store file to and from one bucket.
type Mirror struct {
	client *minio.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a Mirror. No request is made until Push or Pull.
func New(cfg Config, logger *slog.Logger) (*Mirror, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupAuto,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	return &Mirror{client: client, cfg: cfg, logger: logger}, nil
}

// Push uploads localPath and returns the number of bytes written.
func (m *Mirror) Push(ctx context.Context, localPath string) (int64, error) {
	start := time.Now()
	if err := m.checkBucket(ctx); err != nil {
		return 0, err
	}

	object := m.cfg.ObjectName(localPath)
	info, err := m.client.FPutObject(ctx, m.cfg.Bucket, object, localPath, minio.PutObjectOptions{
		ContentType: contentType(localPath),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upload %s to %s/%s: %w", localPath, m.cfg.Bucket, object, err)
	}

	m.logger.Info("store pushed",
		logging.Path(localPath),
		slog.String("object", m.cfg.Bucket+"/"+object),
		slog.Int64("bytes", info.Size),
		logging.Duration(time.Since(start)),
	)
	return info.Size, nil
}

// Pull downloads the mirrored store into localPath, replacing it, and
// returns the number of bytes read.
func (m *Mirror) Pull(ctx context.Context, localPath string) (int64, error) {
	start := time.Now()
	if err := m.checkBucket(ctx); err != nil {
		return 0, err
	}

	object := m.cfg.ObjectName(localPath)
	info, err := m.client.StatObject(ctx, m.cfg.Bucket, object, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return 0, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, m.cfg.Bucket, object)
		}
		return 0, fmt.Errorf("failed to stat %s/%s: %w", m.cfg.Bucket, object, err)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o750); err != nil {
		return 0, fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := m.client.FGetObject(ctx, m.cfg.Bucket, object, localPath, minio.GetObjectOptions{}); err != nil {
		return 0, fmt.Errorf("failed to download %s/%s: %w", m.cfg.Bucket, object, err)
	}

	m.logger.Info("store pulled",
		logging.Path(localPath),
		slog.String("object", m.cfg.Bucket+"/"+object),
		slog.Int64("bytes", info.Size),
		logging.Duration(time.Since(start)),
	)
	return info.Size, nil
}

func (m *Mirror) checkBucket(ctx context.Context) error {
	ok, err := m.client.BucketExists(ctx, m.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", m.cfg.Bucket, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, m.cfg.Bucket)
	}
	return nil
}

func contentType(path string) string {
	switch filepath.Ext(path) {
	case ".yaml":
		return "application/yaml"
	case ".toml":
		return "application/toml"
	case ".db":
		return "application/vnd.sqlite3"
	default:
		return "text/plain"
	}
}
