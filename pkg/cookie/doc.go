// Package cookie reads and writes plain, signed and encrypted cookies.
//
// One application secret (APP_KEY, at least 32 bytes) is expanded with HKDF
// into an HMAC-SHA256 signing key and an XChaCha20-Poly1305 key. Both bind
// the cookie name, so a value cannot be replayed under another cookie.
//
//	jar, err := cookie.New(cookie.WithSecret(cfg.Key), cookie.WithSecure(true))
//	err = jar.SetEncrypted(w, "remember_web", token, 30*24*3600)
//	token, err := jar.GetEncrypted(r, "remember_web")
package cookie
