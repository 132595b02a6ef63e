package passwordhasher

import (
	"fmt"
	"passreset/internal/core/domain/account"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordValid(t *testing.T) {
	type testcase struct {
		ix       int
		secret   string
		cost     int
		password string
	}
	cases := []testcase{
		{ix: 1, secret: "test", cost: 5, password: "newpass123"},
		{ix: 2, secret: "", cost: 5, password: ""},
		{ix: 3, secret: "a", cost: 7, password: "password password"},
		{ix: 4, secret: "   b   ", cost: 10, password: "   test   "},
	}
	for _, c := range cases {
		t.Run(fmt.Sprint(c.ix), func(t *testing.T) {
			h := NewBcrypt(c.secret, c.cost)
			hash, err := h.HashPassword(account.RawPassword(c.password))

			require.NoError(t, err)
			require.NotEmpty(t, hash)
			require.True(t, h.ValidatePassword(account.RawPassword(c.password), hash))
		})
	}
}

func TestPasswordInvalid(t *testing.T) {
	type testcase struct {
		ix              int
		secretToHash    string
		secretToCheck   string
		passwordToHash  string
		passwordToCheck string
	}
	cases := []testcase{
		{ix: 1, secretToHash: "test", secretToCheck: "test", passwordToHash: "test", passwordToCheck: "test "},
		{ix: 2, secretToHash: "test", secretToCheck: "test ", passwordToHash: "test", passwordToCheck: "test"},
		{ix: 3, secretToHash: "", secretToCheck: "", passwordToHash: "", passwordToCheck: " "},
		{ix: 4, secretToHash: "", secretToCheck: " ", passwordToHash: "", passwordToCheck: ""},
		{ix: 5, secretToHash: "   b   ", secretToCheck: "   b   ", passwordToHash: "   test   ", passwordToCheck: "   tost   "},
	}
	for _, c := range cases {
		t.Run(fmt.Sprint(c.ix), func(t *testing.T) {
			hash, err := NewBcrypt(c.secretToHash, 5).HashPassword(account.RawPassword(c.passwordToHash))
			require.NoError(t, err)

			h := NewBcrypt(c.secretToCheck, 5)
			require.False(t, h.ValidatePassword(account.RawPassword(c.passwordToCheck), hash))
		})
	}
}

func TestInvalidCostPanics(t *testing.T) {
	require.Panics(t, func() { NewBcrypt("secret", 100) })
}
