package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Storage is a flat key space of files. Keys use forward slashes.
type Storage interface {
	// Put stores r under a generated key unless WithKey is given. size may
	// be -1 when unknown.
	Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*FileInfo, error)

	// Get opens a stored file. The caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// URL returns where clients can fetch the file.
	URL(ctx context.Context, key string, opts ...URLOption) (string, error)
}

// FileInfo describes a stored file.
type FileInfo struct {
	Key         string
	Name        string // client-supplied name, when known
	ContentType string
	Size        int64
}

// Driver names accepted in STORAGE_DRIVER.
const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

// Config selects and configures a backend. Nest it in the app config and
// parse it with caarlos0/env.
type Config struct {
	Driver string   `env:"STORAGE_DRIVER" envDefault:"local"`
	Path   string   `env:"STORAGE_PATH" envDefault:"storage/uploads"`
	URL    string   `env:"STORAGE_URL" envDefault:"/uploads"`
	S3     S3Config `envPrefix:"STORAGE_S3_"`
}

// Open builds the backend named by cfg.Driver.
func Open(cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "", DriverLocal:
		return NewLocal(cfg.Path, cfg.URL)
	case DriverS3:
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, cfg.Driver)
	}
}

// URLOption configures URL.
type URLOption func(*urlOptions)

type urlOptions struct {
	expiry       time.Duration
	downloadName string
}

const DefaultURLExpiry = 15 * time.Minute

// WithExpiry sets how long a signed URL stays valid. Local URLs ignore it.
func WithExpiry(d time.Duration) URLOption {
	return func(o *urlOptions) {
		if d > 0 {
			o.expiry = d
		}
	}
}

// WithDownload asks the backend to serve the file as an attachment named
// filename. Only S3 honours it.
func WithDownload(filename string) URLOption {
	return func(o *urlOptions) { o.downloadName = filename }
}

func newURLOptions(opts []URLOption) *urlOptions {
	o := &urlOptions{expiry: DefaultURLExpiry}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
