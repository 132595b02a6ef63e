package account

import (
	c "passreset/internal/core/domain/common"
	e "passreset/internal/core/domain/errors"
	"time"
)

type ID int64

type PasswordHash string

func (p PasswordHash) String() string {
	return "***"
}

type RawPassword string

func (p RawPassword) String() string {
	return "***"
}

type DisplayName string

type Account struct {
	ID           ID
	Email        c.Email
	DisplayName  c.Optional[DisplayName]
	PasswordHash PasswordHash
	CreatedAt    time.Time
}

func (a *Account) Validate() error {
	if a.Email == "" {
		return e.NewInvalidStateErrorf("email is not set for account %d", a.ID)
	}
	if a.PasswordHash == "" {
		return e.NewInvalidStateErrorf("password hash is not set for account %d", a.ID)
	}
	return nil
}

// Identity is what gets shown to the account holder: the display name when
// present, the email otherwise.
func (a *Account) Identity() string {
	if a.DisplayName.IsPresent && a.DisplayName.Value != "" {
		return string(a.DisplayName.Value)
	}
	return string(a.Email)
}

// Attributes are compared against a new password by the similarity rule.
func (a *Account) Attributes() []string {
	attrs := []string{string(a.Email), a.Email.LocalPart()}
	if a.DisplayName.IsPresent && a.DisplayName.Value != "" {
		attrs = append(attrs, string(a.DisplayName.Value))
	}
	return attrs
}
