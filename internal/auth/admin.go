package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Credential is whatever a caller presented to prove it is the admin.
type Credential struct {
	// Password is the raw secret, from the X-Admin-Password header or a request body.
	Password string
	// Signature is a per-file keyed hash from the query string, see SignFile.
	Signature string
	// Session is true when the caller holds an authenticated admin session.
	Session bool
}

// Admin checks credentials against the deployment's shared admin secret.
// An empty secret disables admin access entirely.
type Admin struct {
	secret []byte
}

// NewAdmin creates an Admin for the configured secret.
func NewAdmin(secret string) *Admin {
	return &Admin{secret: []byte(secret)}
}

// CheckPassword reports whether password equals the admin secret.
func (a *Admin) CheckPassword(password string) bool {
	if len(a.secret) == 0 || password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), a.secret) == 1
}

// Authorized reports whether c carries admin rights for API operations.
func (a *Admin) Authorized(c Credential) bool {
	if len(a.secret) == 0 {
		return false
	}
	return c.Session || a.CheckPassword(c.Password)
}

// SignFile returns the hex HMAC-SHA256 of "id/filename" keyed by the admin
// secret. It is embedded in inline media URLs, which browsers fetch without
// custom headers; a leaked value only unlocks that one file.
func (a *Admin) SignFile(id, filename string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(id + "/" + filename))
	return hex.EncodeToString(mac.Sum(nil))
}

// CheckFileSignature reports whether sig is the signature of id/filename.
func (a *Admin) CheckFileSignature(id, filename, sig string) bool {
	if len(a.secret) == 0 || sig == "" {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(a.SignFile(id, filename))
	return hmac.Equal(got, want)
}

// AuthorizedForFile reports whether c may read a private article's media file.
func (a *Admin) AuthorizedForFile(c Credential, id, filename string) bool {
	return a.Authorized(c) || a.CheckFileSignature(id, filename, c.Signature)
}
