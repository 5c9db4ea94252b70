package cookie

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrNotFound  = errors.New("cookie: not found")
	ErrNoSecret  = errors.New("cookie: APP_KEY is not configured")
	ErrBadSig    = errors.New("cookie: invalid signature")
	ErrDecrypt   = errors.New("cookie: decryption failed")
	ErrTooShort  = errors.New("cookie: secret must be at least 32 bytes")
	ErrTooLarge  = errors.New("cookie: encoded value exceeds 4096 bytes")
	maxCookieLen = 4096
)

// Jar reads and writes cookies with shared attributes. Signing and
// encryption keys are derived from one application secret.
type Jar struct {
	signKey  []byte
	aead     aeadCipher
	domain   string
	path     string
	sameSite http.SameSite
	secure   bool
	httpOnly bool
}

type aeadCipher interface {
	NonceSize() int
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

// Option configures a Jar.
type Option func(*Jar) error

// New builds a Jar. Without WithSecret only plain cookies work.
func New(opts ...Option) (*Jar, error) {
	j := &Jar{path: "/", httpOnly: true, sameSite: http.SameSiteLaxMode}
	for _, opt := range opts {
		if err := opt(j); err != nil {
			return nil, err
		}
	}
	return j, nil
}

// MustNew is New that panics, for package-level wiring.
func MustNew(opts ...Option) *Jar {
	j, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return j
}

// WithSecret derives the signing and encryption keys with HKDF-SHA256.
func WithSecret(secret string) Option {
	return func(j *Jar) error {
		if len(secret) < 32 {
			return ErrTooShort
		}
		sign := make([]byte, 32)
		enc := make([]byte, chacha20poly1305.KeySize)
		if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("pype cookie signing")), sign); err != nil {
			return err
		}
		if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("pype cookie encryption")), enc); err != nil {
			return err
		}
		aead, err := chacha20poly1305.NewX(enc)
		if err != nil {
			return err
		}
		j.signKey, j.aead = sign, aead
		return nil
	}
}

func WithDomain(domain string) Option {
	return func(j *Jar) error { j.domain = domain; return nil }
}

func WithPath(path string) Option {
	return func(j *Jar) error {
		if path != "" {
			j.path = path
		}
		return nil
	}
}

func WithSecure(secure bool) Option {
	return func(j *Jar) error { j.secure = secure; return nil }
}

func WithHTTPOnly(httpOnly bool) Option {
	return func(j *Jar) error { j.httpOnly = httpOnly; return nil }
}

func WithSameSite(ss http.SameSite) Option {
	return func(j *Jar) error { j.sameSite = ss; return nil }
}

// Get returns a plain cookie value.
func (j *Jar) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// Set writes a plain cookie. maxAge 0 makes it a browser-session cookie.
func (j *Jar) Set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, j.cookie(name, value, maxAge))
}

func (j *Jar) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, j.cookie(name, "", -1))
}

// SetSigned writes base64(value).base64(hmac). The value stays readable.
func (j *Jar) SetSigned(w http.ResponseWriter, name, value string, maxAge int) error {
	if j.signKey == nil {
		return ErrNoSecret
	}
	enc := b64(j.sign(name, []byte(value))) // signature binds the cookie name
	return j.write(w, name, b64([]byte(value))+"."+enc, maxAge)
}

func (j *Jar) GetSigned(r *http.Request, name string) (string, error) {
	if j.signKey == nil {
		return "", ErrNoSecret
	}
	raw, err := j.Get(r, name)
	if err != nil {
		return "", err
	}
	val, sig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrBadSig
	}
	value, err1 := unb64(val)
	mac, err2 := unb64(sig)
	if err1 != nil || err2 != nil || !hmac.Equal(mac, j.sign(name, value)) {
		return "", ErrBadSig
	}
	return string(value), nil
}

// SetEncrypted seals value with XChaCha20-Poly1305.
func (j *Jar) SetEncrypted(w http.ResponseWriter, name, value string, maxAge int) error {
	if j.aead == nil {
		return ErrNoSecret
	}
	nonce := make([]byte, j.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	sealed := j.aead.Seal(nonce, nonce, []byte(value), []byte(name))
	return j.write(w, name, b64(sealed), maxAge)
}

func (j *Jar) GetEncrypted(r *http.Request, name string) (string, error) {
	if j.aead == nil {
		return "", ErrNoSecret
	}
	raw, err := j.Get(r, name)
	if err != nil {
		return "", err
	}
	data, err := unb64(raw)
	if err != nil || len(data) < j.aead.NonceSize() {
		return "", ErrDecrypt
	}
	n := j.aead.NonceSize()
	plain, err := j.aead.Open(nil, data[:n], data[n:], []byte(name))
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// Sign returns an HMAC of data for callers that need tokens outside cookies.
func (j *Jar) Sign(data []byte) ([]byte, error) {
	if j.signKey == nil {
		return nil, ErrNoSecret
	}
	return j.sign("", data), nil
}

func (j *Jar) sign(name string, data []byte) []byte {
	mac := hmac.New(sha256.New, j.signKey)
	mac.Write([]byte(name))
	mac.Write([]byte{0})
	mac.Write(data)
	return mac.Sum(nil)
}

func (j *Jar) write(w http.ResponseWriter, name, value string, maxAge int) error {
	if len(value) > maxCookieLen {
		return ErrTooLarge
	}
	http.SetCookie(w, j.cookie(name, value, maxAge))
	return nil
}

func (j *Jar) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     j.path,
		Domain:   j.domain,
		MaxAge:   maxAge,
		Secure:   j.secure,
		HttpOnly: j.httpOnly,
		SameSite: j.sameSite,
	}
}

func b64(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

func unb64(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }
