package storage

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Option configures Put.
type Option func(*putOptions)

type putOptions struct {
	key         string
	prefix      string
	filename    string
	contentType string
	rules       []ValidationRule
}

// WithKey stores the file under key, replacing whatever is there.
func WithKey(key string) Option {
	return func(o *putOptions) { o.key = key }
}

// WithPrefix places generated keys under a directory, as in
// "covers/<uuid>.png".
func WithPrefix(prefix string) Option {
	return func(o *putOptions) { o.prefix = prefix }
}

// WithFilename records the client-supplied name. Its extension, when
// present, becomes the extension of the generated key.
func WithFilename(name string) Option {
	return func(o *putOptions) { o.filename = name }
}

// WithContentType skips content sniffing.
func WithContentType(ct string) Option {
	return func(o *putOptions) { o.contentType = ct }
}

// WithValidation runs rules before anything is written.
func WithValidation(rules ...ValidationRule) Option {
	return func(o *putOptions) { o.rules = append(o.rules, rules...) }
}

func newPutOptions(opts []Option) *putOptions {
	o := &putOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// resolveKey returns the explicit key or a fresh "<prefix>/<uuid><ext>".
func (o *putOptions) resolveKey(contentType string) string {
	if o.key != "" {
		return cleanKey(o.key)
	}

	ext := Ext(o.filename)
	if ext == "" {
		ext = ExtFromMIME(contentType)
	}
	if ext == "" {
		ext = ".bin"
	}
	name := uuid.NewString() + ext

	var parts []string
	for seg := range strings.SplitSeq(o.prefix, "/") {
		if seg = sanitizeSegment(seg); seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(append(parts, name), "/")
}

var unsafeSegment = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func sanitizeSegment(s string) string {
	s = strings.Trim(s, " /\\")
	s = strings.ReplaceAll(s, "..", "")
	return unsafeSegment.ReplaceAllString(s, "_")
}

// cleanKey keeps a caller key inside the storage root.
func cleanKey(key string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(key, "\\", "/")), "/")
}
