package passwordpolicy

import (
	"errors"
	"fmt"
	"passreset/internal/core/domain/account"
	"testing"

	"github.com/stretchr/testify/require"
)

var ATTRIBUTES = []string{"john.smith@example.com", "john.smith", "Johnny Smith"}

func TestAcceptedPasswords(t *testing.T) {
	policy := New(DefaultMinLength)
	for _, password := range []string{"newpass123", "abc12345", "correct horse battery", "Zx9!kq2#Lm"} {
		t.Run(password, func(t *testing.T) {
			require.NoError(t, policy.Validate(account.RawPassword(password), ATTRIBUTES))
		})
	}
}

func TestRejectedPasswords(t *testing.T) {
	cases := []struct {
		password   string
		violations []account.PolicyViolation
	}{
		{password: "short", violations: []account.PolicyViolation{account.ViolationTooShort}},
		{password: "", violations: []account.PolicyViolation{account.ViolationTooShort}},
		{password: "password", violations: []account.PolicyViolation{account.ViolationTooCommon}},
		{password: " PassWord1 ", violations: []account.PolicyViolation{account.ViolationTooCommon}},
		{password: "98765432", violations: []account.PolicyViolation{account.ViolationEntirelyNumber}},
		{
			password: "12345678",
			violations: []account.PolicyViolation{
				account.ViolationTooCommon,
				account.ViolationEntirelyNumber,
			},
		},
		{
			password: "1234",
			violations: []account.PolicyViolation{
				account.ViolationTooShort,
				account.ViolationTooCommon,
				account.ViolationEntirelyNumber,
			},
		},
		{password: "johnsmith1", violations: []account.PolicyViolation{account.ViolationTooSimilar}},
		{password: "Johnny.Smith", violations: []account.PolicyViolation{account.ViolationTooSimilar}},
	}

	policy := New(DefaultMinLength)
	for _, c := range cases {
		t.Run(fmt.Sprintf("%q", c.password), func(t *testing.T) {
			err := policy.Validate(account.RawPassword(c.password), ATTRIBUTES)

			require.ErrorIs(t, err, account.ErrWeakPassword)
			var policyErr *account.PasswordPolicyError
			require.True(t, errors.As(err, &policyErr))
			require.Equal(t, c.violations, policyErr.Violations)
			require.Len(t, policyErr.Messages, len(c.violations))
		})
	}
}

func TestMinLengthIsConfigurable(t *testing.T) {
	policy := New(12)

	err := policy.Validate("newpass123", nil)

	var policyErr *account.PasswordPolicyError
	require.True(t, errors.As(err, &policyErr))
	require.True(t, policyErr.Has(account.ViolationTooShort))
	require.Contains(t, policyErr.Messages[0], "at least 12 characters")
}

func TestSimilarityWithoutAttributes(t *testing.T) {
	policy := New(DefaultMinLength)

	require.NoError(t, policy.Validate("johnsmith1", nil))
}

func TestSimilarity(t *testing.T) {
	cases := []struct {
		a, b     string
		expected float64
	}{
		{a: "abcd", b: "bcde", expected: 0.75},
		{a: "abc", b: "xyz", expected: 0},
		{a: "", b: "", expected: 1},
		{a: "john", b: "john", expected: 1},
		{a: "johnsmith", b: "johnsmith1", expected: 18.0 / 19.0},
	}
	for _, c := range cases {
		t.Run(c.a+"/"+c.b, func(t *testing.T) {
			require.InDelta(t, c.expected, similarity(c.a, c.b), 1e-9)
		})
	}
}

func TestCommonPasswordsAreLoaded(t *testing.T) {
	passwords := loadCommonPasswords(commonPasswordsList)

	require.Contains(t, passwords, "password")
	require.Contains(t, passwords, "qwerty")
	require.NotContains(t, passwords, "newpass123")
	require.NotContains(t, passwords, "abc12345")
}
