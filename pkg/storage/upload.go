package storage

import (
	"context"
	"fmt"
	"mime/multipart"
)

// PutFile stores an uploaded form file. The content type is sniffed from
// the bytes, not taken from the client, and the client extension is kept
// on the generated key. A missing or zero-byte upload returns ErrEmptyFile.
func PutFile(ctx context.Context, s Storage, fh *multipart.FileHeader, opts ...Option) (*FileInfo, error) {
	if fh == nil || fh.Size == 0 {
		return nil, ErrEmptyFile
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open upload: %v", ErrUploadFailed, err)
	}
	defer f.Close()

	opts = append([]Option{WithFilename(fh.Filename)}, opts...)
	return s.Put(ctx, f, fh.Size, opts...)
}
