package storage

import (
	"fmt"
	"slices"
	"strings"
)

// File is what validation rules see: the client name, the size and the
// sniffed content type.
type File struct {
	Name        string
	ContentType string
	Size        int64
}

// ValidationRule rejects a file by returning a *FileValidationError.
type ValidationRule interface {
	Validate(f File) error
}

// RuleFunc adapts a function to ValidationRule.
type RuleFunc func(f File) error

func (fn RuleFunc) Validate(f File) error { return fn(f) }

// Validate runs rules in order and returns the first failure.
func Validate(f File, rules ...ValidationRule) error {
	for _, r := range rules {
		if err := r.Validate(f); err != nil {
			return err
		}
	}
	return nil
}

// MaxSize rejects files larger than limit bytes.
func MaxSize(limit int64) ValidationRule {
	return RuleFunc(func(f File) error {
		if f.Size <= limit {
			return nil
		}
		return &FileValidationError{
			Code:    CodeFileTooLarge,
			Message: fmt.Sprintf("file size %d exceeds limit of %d bytes", f.Size, limit),
			Details: map[string]any{"limit": limit, "got": f.Size},
		}
	})
}

// NotEmpty rejects zero-byte files.
func NotEmpty() ValidationRule {
	return RuleFunc(func(f File) error {
		if f.Size != 0 {
			return nil
		}
		return &FileValidationError{Code: CodeEmptyFile, Message: "file is empty", Details: map[string]any{}}
	})
}

// AllowedTypes accepts only content types matching patterns such as
// "image/*" or "application/pdf". The type is sniffed from the content, not
// taken from the client.
func AllowedTypes(patterns ...string) ValidationRule {
	return RuleFunc(func(f File) error {
		if matchesMIME(f.ContentType, patterns) {
			return nil
		}
		return &FileValidationError{
			Code:    CodeInvalidMIME,
			Message: fmt.Sprintf("file type %q is not allowed", f.ContentType),
			Details: map[string]any{"type": f.ContentType, "allowed": patterns},
		}
	})
}

func ImageOnly() ValidationRule {
	return AllowedTypes("image/*")
}

// AllowedExtensions accepts only client names ending in one of exts,
// compared case-insensitively with or without the dot. An empty list
// allows everything.
func AllowedExtensions(exts ...string) ValidationRule {
	allowed := make([]string, 0, len(exts))
	for _, e := range exts {
		allowed = append(allowed, "."+strings.TrimPrefix(strings.ToLower(e), "."))
	}
	return RuleFunc(func(f File) error {
		ext := Ext(f.Name)
		if len(allowed) == 0 || slices.Contains(allowed, ext) {
			return nil
		}
		return &FileValidationError{
			Code:    CodeInvalidExtension,
			Message: fmt.Sprintf("file extension %q is not allowed", ext),
			Details: map[string]any{"extension": ext, "allowed": allowed},
		}
	})
}
