package account

import (
	"errors"
	"strings"
)

var (
	ErrAccountDoesNotExist = errors.New("account does not exist")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrWeakPassword        = errors.New("password does not satisfy the password policy")
)

type PolicyViolation string

const (
	ViolationTooShort       PolicyViolation = "too_short"
	ViolationTooCommon      PolicyViolation = "too_common"
	ViolationEntirelyNumber PolicyViolation = "entirely_numeric"
	ViolationTooSimilar     PolicyViolation = "too_similar"
)

type PasswordPolicyError struct {
	Violations []PolicyViolation
	Messages   []string
}

func (e *PasswordPolicyError) Error() string {
	return "weak password: " + strings.Join(e.Messages, " ")
}

func (e *PasswordPolicyError) Unwrap() error {
	return ErrWeakPassword
}

func (e *PasswordPolicyError) Has(v PolicyViolation) bool {
	for _, violation := range e.Violations {
		if violation == v {
			return true
		}
	}
	return false
}
