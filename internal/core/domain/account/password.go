package account

type PasswordHasher interface {
	HashPassword(password RawPassword) (PasswordHash, error)
	ValidatePassword(password RawPassword, hash PasswordHash) bool
}

// PasswordPolicy returns nil or a *PasswordPolicyError listing every
// violated rule. Attributes are account values the password must not
// resemble.
type PasswordPolicy interface {
	Validate(password RawPassword, attributes []string) error
}
