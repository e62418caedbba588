// Package cloudsync copies local artifacts such as database backups and
// exports to object storage.
package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ProviderGCS is the only supported provider
const ProviderGCS = "gcs"

var (
	// ErrUnsupportedProvider is returned for an unknown provider name
	ErrUnsupportedProvider = errors.New("unsupported cloud sync provider")
	// ErrNoBucket is returned when sync is enabled without a bucket
	ErrNoBucket = errors.New("cloud sync bucket is required")
)

// Config selects the destination bucket
type Config struct {
	Enabled         bool
	Provider        string
	Bucket          string
	Prefix          string
	CredentialsFile string // path to a service account file, or the JSON itself
	Timeout         time.Duration
}

// Uploader copies a local file to remote storage and returns its location
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
	Close() error
}

// New returns the uploader for cfg. A disabled config yields a no-op uploader.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (Uploader, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGCS:
		return NewGCSUploader(ctx, cfg, opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}

// Nop discards uploads
type Nop struct{}

// Upload does nothing and returns an empty location
func (Nop) Upload(context.Context, string) (string, error) { return "", nil }

// Close does nothing
func (Nop) Close() error { return nil }

// GCSUploader writes objects to a Google Cloud Storage bucket
type GCSUploader struct {
	client  *storage.Client
	bucket  string
	prefix  string
	timeout time.Duration
}

// CredentialOptions turns a credentials setting into client options.
// Values starting with "{" are inline JSON; anything else is a file path.
func CredentialOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

// NewGCSUploader creates a GCS client for cfg.Bucket. Extra options are
// appended after the credential options.
func NewGCSUploader(ctx context.Context, cfg Config, opts ...option.ClientOption) (*GCSUploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrNoBucket
	}
	clientOpts := CredentialOptions(cfg.CredentialsFile)
	clientOpts = append(clientOpts, option.WithScopes(storage.ScopeReadWrite))
	clientOpts = append(clientOpts, opts...)

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &GCSUploader{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, timeout: timeout}, nil
}

// Upload streams localPath to <prefix>/<basename> and returns the gs:// URI
func (u *GCSUploader) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	key := ObjectKey(u.prefix, filepath.Base(localPath))
	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType(key)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}

	uri := "gs://" + u.bucket + "/" + key
	slog.Info("Uploaded file", "path", localPath, "uri", uri)
	return uri, nil
}

// Close releases the storage client
func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// ObjectKey joins a prefix and a file name into an object key
func ObjectKey(prefix, name string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func contentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".md":
		return "text/markdown"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
