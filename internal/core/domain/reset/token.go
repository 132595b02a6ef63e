package reset

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"passreset/internal/core/domain/account"
	c "passreset/internal/core/domain/common"
	e "passreset/internal/core/domain/errors"
	"time"

	"github.com/google/uuid"
)

// TokenEntropyBytes is the amount of randomness behind every token value (256 bits).
const TokenEntropyBytes = 32

const DefaultTTL = time.Hour

type TokenValue string

func (v TokenValue) String() string {
	return "***"
}

func (v TokenValue) Hash() TokenHash {
	return sha256.Sum256([]byte(v))
}

// IsWellFormed reports whether v could have been produced by NewTokenValue.
func (v TokenValue) IsWellFormed() bool {
	if len(v) != base64.RawURLEncoding.EncodedLen(TokenEntropyBytes) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(string(v))
	return err == nil
}

type TokenHash [sha256.Size]byte

func (h TokenHash) Equal(other TokenHash) bool {
	return subtle.ConstantTimeCompare(h[:], other[:]) == 1
}

func NewTokenValue(src SecureRandomSource) (TokenValue, error) {
	buf := make([]byte, TokenEntropyBytes)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("could not read token entropy: %w", err)
	}
	return TokenValue(base64.RawURLEncoding.EncodeToString(buf)), nil
}

type ResetToken struct {
	ID           uuid.UUID
	Hash         TokenHash
	AccountID    account.ID
	IssuedAt     time.Time
	ExpiresAt    time.Time
	ConsumedAt   c.Optional[time.Time]
	SupersededAt c.Optional[time.Time]

	// Value is only known right after issuing; records loaded from storage
	// carry the digest alone.
	Value TokenValue
}

func (t *ResetToken) Validate() error {
	if !t.ExpiresAt.After(t.IssuedAt) {
		return e.NewInvalidStateErrorf("reset token %s expires before it is issued", t.ID)
	}
	if t.ConsumedAt.IsPresent && t.ConsumedAt.Value.Before(t.IssuedAt) {
		return e.NewInvalidStateErrorf("reset token %s consumed before it is issued", t.ID)
	}
	return nil
}

// IsLive reports whether the token is neither consumed nor superseded.
// Expiry is evaluated separately by Check.
func (t *ResetToken) IsLive() bool {
	return !t.ConsumedAt.IsPresent && !t.SupersededAt.IsPresent
}

func (t *ResetToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Check returns nil for a valid token or the rejection reason. A consumed
// token reports ErrTokenAlreadyUsed even when it has also expired.
func (t *ResetToken) Check(now time.Time) error {
	switch {
	case t.ConsumedAt.IsPresent:
		return ErrTokenAlreadyUsed
	case t.SupersededAt.IsPresent:
		return ErrTokenSuperseded
	case t.IsExpired(now):
		return ErrTokenExpired
	}
	return nil
}

func BuildResetURL(frontendBaseURL url.URL, value TokenValue) string {
	u := frontendBaseURL.JoinPath("reset-password")
	q := u.Query()
	q.Set("token", string(value))
	u.RawQuery = q.Encode()
	return u.String()
}
