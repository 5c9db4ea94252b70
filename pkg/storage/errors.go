package storage

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrInvalidConfig = errors.New("storage: invalid configuration")
	ErrEmptyFile     = errors.New("storage: file is empty")
	ErrNotFound      = errors.New("storage: file not found")
	ErrAccessDenied  = errors.New("storage: access denied")
	ErrUploadFailed  = errors.New("storage: upload failed")
	ErrDeleteFailed  = errors.New("storage: delete failed")
	ErrPresignFailed = errors.New("storage: presign failed")
)

// Validation error codes.
const (
	CodeFileTooLarge     = "file_too_large"
	CodeEmptyFile        = "empty_file"
	CodeInvalidMIME      = "invalid_mime"
	CodeInvalidExtension = "invalid_extension"
)

// FileValidationError reports a file rejected by a ValidationRule.
type FileValidationError struct {
	Details map[string]any
	Code    string
	Message string
}

func (e *FileValidationError) Error() string { return e.Message }

// AsValidationError extracts a FileValidationError from err.
func AsValidationError(err error) (*FileValidationError, bool) {
	var ve *FileValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// wrapS3Error maps S3 failures onto the package sentinels. The AWS error is
// kept as text only.
func wrapS3Error(err, fallback error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", fallback, err)
}
