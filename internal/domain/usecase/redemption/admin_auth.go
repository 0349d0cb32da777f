package redemption

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"

	errs "github.com/amirhossein-jamali/prize-wheel/internal/domain/error"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthorizer checks the shared administrative secret. A bcrypt hash takes precedence over a plain key.
type AdminAuthorizer struct {
	plainDigest []byte
	hash        []byte
}

// NewAdminAuthorizer builds an authorizer. Both arguments empty leaves administration disabled.
func NewAdminAuthorizer(plainKey, bcryptHash string) (*AdminAuthorizer, error) {
	a := &AdminAuthorizer{}
	if bcryptHash != "" {
		if _, err := bcrypt.Cost([]byte(bcryptHash)); err != nil {
			return nil, errs.NewConfigurationError("admin", "admin key hash is not a bcrypt hash")
		}
		a.hash = []byte(bcryptHash)
	}
	if plainKey != "" {
		digest := sha256.Sum256([]byte(plainKey))
		a.plainDigest = digest[:]
	}
	return a, nil
}

// Configured reports whether any administrative secret is set
func (a *AdminAuthorizer) Configured() bool {
	return a != nil && (a.hash != nil || a.plainDigest != nil)
}

// Authorize returns nil when secret matches, ErrUnauthorized when it does not and
// ErrAdminNotConfigured when no secret is configured on the server
func (a *AdminAuthorizer) Authorize(secret string) error {
	if !a.Configured() {
		return errs.ErrAdminNotConfigured
	}
	if secret == "" {
		return errs.ErrUnauthorized
	}

	if a.hash != nil {
		err := bcrypt.CompareHashAndPassword(a.hash, []byte(secret))
		if err == nil {
			return nil
		}
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errs.NewConfigurationError("admin", err.Error())
		}
		return errs.ErrUnauthorized
	}

	digest := sha256.Sum256([]byte(secret))
	if subtle.ConstantTimeCompare(digest[:], a.plainDigest) == 1 {
		return nil
	}
	return errs.ErrUnauthorized
}
