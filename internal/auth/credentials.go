// Package auth holds the credential store and token service shared by the
// HTTP layer and the user service.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Credential is either a LocalCredential or a FederatedCredential.
type Credential interface {
	credential()
}

// LocalCredential is a user-chosen password.
type LocalCredential struct {
	Password string
}

// FederatedCredential identifies an account at an external identity provider.
type FederatedCredential struct {
	Provider string
	Subject  string
}

func (LocalCredential) credential()     {}
func (FederatedCredential) credential() {}

// Hasher hashes and verifies account secrets with bcrypt.
type Hasher struct {
	cost            int
	federatedSecret []byte
}

// NewHasher returns a Hasher. Costs outside bcrypt's range fall back to the default.
func NewHasher(cost int, federatedSecret string) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost, federatedSecret: []byte(federatedSecret)}
}

// Hash returns a salted bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes never match.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// Secret returns the plaintext that is hashed for cred. Federated
// credentials map to an HMAC of provider and subject under the server
// secret, so both account kinds go through Hash and Verify alike.
func (h *Hasher) Secret(cred Credential) (string, error) {
	switch c := cred.(type) {
	case LocalCredential:
		return c.Password, nil
	case FederatedCredential:
		if c.Provider == "" || c.Subject == "" {
			return "", errors.New("federated credential requires provider and subject")
		}
		mac := hmac.New(sha256.New, h.federatedSecret)
		mac.Write([]byte(c.Provider + ":" + c.Subject))
		return hex.EncodeToString(mac.Sum(nil)), nil
	default:
		return "", errors.New("unsupported credential")
	}
}
