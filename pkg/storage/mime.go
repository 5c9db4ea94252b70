package storage

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	MIMEOctetStream = "application/octet-stream"
	sniffLen        = 512
)

var mimeExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/bmp":       ".bmp",
	"image/x-icon":    ".ico",
	"application/pdf": ".pdf",
	"application/zip": ".zip",
	"text/plain":      ".txt",
	"text/csv":        ".csv",
	"text/html":       ".html",
	"audio/mpeg":      ".mp3",
	"audio/wave":      ".wav",
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
}

// ExtFromMIME returns the preferred extension, dot included, or "".
func ExtFromMIME(mimeType string) string {
	return mimeExtensions[normalizeMIME(mimeType)]
}

// Ext returns the lowercased extension of name, dot included.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// sniff detects the content type of r from its first bytes and returns a
// reader that still yields the whole stream.
func sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	head = head[:n]
	return normalizeMIME(http.DetectContentType(head)), io.MultiReader(bytes.NewReader(head), r), nil
}

// normalizeMIME drops parameters such as "; charset=utf-8".
func normalizeMIME(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// matchesMIME reports whether mimeType matches any pattern. Patterns may
// end in "/*".
func matchesMIME(mimeType string, patterns []string) bool {
	mimeType = normalizeMIME(mimeType)
	for _, p := range patterns {
		p = normalizeMIME(p)
		if prefix, ok := strings.CutSuffix(p, "/*"); ok {
			if strings.HasPrefix(mimeType, prefix+"/") {
				return true
			}
			continue
		}
		if p == mimeType {
			return true
		}
	}
	return false
}
