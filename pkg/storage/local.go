package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
)

// LocalStorage keeps files under a directory on disk. Every access goes
// through os.Root, so keys cannot escape the directory.
type LocalStorage struct {
	root    *os.Root
	baseURL string
}

// NewLocal opens dir, creating it when missing. baseURL is the public
// prefix files are served under, such as "/uploads".
func NewLocal(dir, baseURL string) (*LocalStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty local path", ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &LocalStorage{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalStorage) Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*FileInfo, error) {
	o := newPutOptions(opts)

	contentType := o.contentType
	if contentType == "" {
		ct, body, err := sniff(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		contentType, r = ct, body
	}
	if err := Validate(File{Name: o.filename, ContentType: contentType, Size: size}, o.rules...); err != nil {
		return nil, err
	}

	key := o.resolveKey(contentType)
	if dir := path.Dir(key); dir != "." {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
	}

	f, err := s.root.Create(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	n, err := io.Copy(f, contextReader{ctx: ctx, r: r})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.root.Remove(key)
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return &FileInfo{Key: key, Name: o.filename, ContentType: contentType, Size: n}, nil
}

func (s *LocalStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := s.root.Open(cleanKey(key))
	if err != nil {
		return nil, localError(err, ErrNotFound)
	}
	return f, nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	if err := s.root.Remove(cleanKey(key)); err != nil {
		return localError(err, ErrDeleteFailed)
	}
	return nil
}

func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	_, err := s.root.Stat(cleanKey(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// URL joins the base URL and the key. Local files are never signed.
func (s *LocalStorage) URL(_ context.Context, key string, _ ...URLOption) (string, error) {
	return s.baseURL + "/" + cleanKey(key), nil
}

// FS exposes the directory for static file serving.
func (s *LocalStorage) FS() fs.FS { return s.root.FS() }

func (s *LocalStorage) Close() error { return s.root.Close() }

func localError(err, fallback error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", fallback, err)
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

var _ Storage = (*LocalStorage)(nil)
