package account

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	c "passreset/internal/core/domain/common"
	"sync"
)

type FakeRepository struct {
	Accounts []Account
	// SetPasswordFailures is the number of upcoming SetPassword calls that fail.
	SetPasswordFailures int
	SetPasswordCalls    int
	ReturnError         bool
	lock                sync.Mutex
}

func NewFakeRepository(accounts ...Account) *FakeRepository {
	return &FakeRepository{Accounts: accounts}
}

func (r *FakeRepository) GetByID(ctx context.Context, id ID) (a Account, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.ReturnError {
		return a, fmt.Errorf("could not get account %d", id)
	}
	for _, a := range r.Accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return a, ErrAccountDoesNotExist
}

func (r *FakeRepository) GetByEmail(ctx context.Context, email c.Email) (a Account, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.ReturnError {
		return a, fmt.Errorf("could not get account by email %s", email)
	}
	for _, a := range r.Accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return a, ErrAccountDoesNotExist
}

func (r *FakeRepository) SetPassword(ctx context.Context, id ID, password PasswordHash) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.SetPasswordCalls++
	if r.SetPasswordFailures > 0 {
		r.SetPasswordFailures--
		return fmt.Errorf("could not set password for account %d", id)
	}
	for ix, a := range r.Accounts {
		if a.ID == id {
			r.Accounts[ix].PasswordHash = password
			return nil
		}
	}
	return ErrAccountDoesNotExist
}

func (r *FakeRepository) PasswordHashOf(id ID) PasswordHash {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, a := range r.Accounts {
		if a.ID == id {
			return a.PasswordHash
		}
	}
	panic(fmt.Sprintf("account %d does not exist", id))
}

type FakePasswordHasher struct{}

func NewFakePasswordHasher() *FakePasswordHasher {
	return &FakePasswordHasher{}
}

func (h *FakePasswordHasher) HashPassword(password RawPassword) (PasswordHash, error) {
	hash := md5.New()
	io.WriteString(hash, string(password))
	return PasswordHash(fmt.Sprintf("%x", hash.Sum(nil))), nil
}

func (h *FakePasswordHasher) ValidatePassword(password RawPassword, hash PasswordHash) bool {
	actualHash, err := h.HashPassword(password)
	if err != nil {
		return false
	}
	return actualHash == hash
}

// FakePasswordPolicy only enforces a minimum length and records what it saw.
type FakePasswordPolicy struct {
	MinLength      int
	LastAttributes []string
	lock           sync.Mutex
}

func NewFakePasswordPolicy(minLength int) *FakePasswordPolicy {
	return &FakePasswordPolicy{MinLength: minLength}
}

func (p *FakePasswordPolicy) Validate(password RawPassword, attributes []string) error {
	p.lock.Lock()
	p.LastAttributes = attributes
	p.lock.Unlock()
	if len(password) < p.MinLength {
		return &PasswordPolicyError{
			Violations: []PolicyViolation{ViolationTooShort},
			Messages:   []string{fmt.Sprintf("This password is too short. It must contain at least %d characters.", p.MinLength)},
		}
	}
	return nil
}
