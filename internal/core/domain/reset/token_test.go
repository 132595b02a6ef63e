package reset

import (
	"crypto/rand"
	"errors"
	"net/url"
	c "passreset/internal/core/domain/common"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var Now = time.Date(2020, 1, 1, 15, 0, 0, 0, time.UTC)

func TestNewTokenValue(t *testing.T) {
	values := make(map[TokenValue]struct{})
	for i := 0; i < 100; i++ {
		value, err := NewTokenValue(rand.Reader)
		require.NoError(t, err)
		require.Len(t, string(value), 43)
		require.True(t, value.IsWellFormed())
		require.NotContains(t, string(value), "+")
		require.NotContains(t, string(value), "/")
		require.NotContains(t, string(value), "=")
		if _, ok := values[value]; ok {
			t.Fatalf("token value %s generated twice", string(value))
		}
		values[value] = struct{}{}
	}
}

type failingSource struct{}

func (failingSource) Read(p []byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestNewTokenValueSourceFailure(t *testing.T) {
	_, err := NewTokenValue(failingSource{})
	require.Error(t, err)
}

func TestTokenValueIsWellFormed(t *testing.T) {
	cases := []struct {
		id    string
		value TokenValue
		ok    bool
	}{
		{id: "empty", value: "", ok: false},
		{id: "short", value: "abc", ok: false},
		{id: "bad alphabet", value: TokenValue(strings.Repeat("*", 43)), ok: false},
		{id: "too long", value: TokenValue(strings.Repeat("A", 44)), ok: false},
		{id: "valid", value: TokenValue(strings.Repeat("A", 42) + "E"), ok: true},
	}
	for _, testcase := range cases {
		t.Run(testcase.id, func(t *testing.T) {
			require.Equal(t, testcase.ok, testcase.value.IsWellFormed())
		})
	}
}

func TestTokenValueIsMaskedWhenFormatted(t *testing.T) {
	value := TokenValue("secret-token-value")
	require.Equal(t, "***", value.String())
}

func TestTokenHash(t *testing.T) {
	a := TokenValue("a").Hash()
	b := TokenValue("b").Hash()
	require.True(t, a.Equal(TokenValue("a").Hash()))
	require.False(t, a.Equal(b))
}

func TestCheck(t *testing.T) {
	cases := []struct {
		id       string
		token    ResetToken
		now      time.Time
		expected error
	}{
		{
			id:    "valid",
			token: ResetToken{IssuedAt: Now, ExpiresAt: Now.Add(time.Hour)},
			now:   Now.Add(59 * time.Minute),
		},
		{
			id:       "expired exactly at expiresAt",
			token:    ResetToken{IssuedAt: Now, ExpiresAt: Now.Add(time.Hour)},
			now:      Now.Add(time.Hour),
			expected: ErrTokenExpired,
		},
		{
			id: "consumed",
			token: ResetToken{
				IssuedAt:   Now,
				ExpiresAt:  Now.Add(time.Hour),
				ConsumedAt: c.NewOptional(Now.Add(time.Minute), true),
			},
			now:      Now.Add(2 * time.Minute),
			expected: ErrTokenAlreadyUsed,
		},
		{
			id: "consumed and expired",
			token: ResetToken{
				IssuedAt:   Now,
				ExpiresAt:  Now.Add(time.Hour),
				ConsumedAt: c.NewOptional(Now.Add(time.Minute), true),
			},
			now:      Now.Add(2 * time.Hour),
			expected: ErrTokenAlreadyUsed,
		},
		{
			id: "superseded",
			token: ResetToken{
				IssuedAt:     Now,
				ExpiresAt:    Now.Add(time.Hour),
				SupersededAt: c.NewOptional(Now.Add(time.Minute), true),
			},
			now:      Now.Add(2 * time.Minute),
			expected: ErrTokenSuperseded,
		},
	}
	for _, testcase := range cases {
		t.Run(testcase.id, func(t *testing.T) {
			err := testcase.token.Check(testcase.now)
			if testcase.expected == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, testcase.expected)
			require.True(t, IsRejection(err))
		})
	}
}

func TestValidate(t *testing.T) {
	valid := ResetToken{IssuedAt: Now, ExpiresAt: Now.Add(time.Hour)}
	require.NoError(t, valid.Validate())

	inverted := ResetToken{IssuedAt: Now, ExpiresAt: Now.Add(-time.Hour)}
	require.Error(t, inverted.Validate())

	consumedBeforeIssued := ResetToken{
		IssuedAt:   Now,
		ExpiresAt:  Now.Add(time.Hour),
		ConsumedAt: c.NewOptional(Now.Add(-time.Second), true),
	}
	require.Error(t, consumedBeforeIssued.Validate())
}

func TestBuildResetURL(t *testing.T) {
	cases := []struct {
		base     string
		expected string
	}{
		{base: "https://example.com", expected: "https://example.com/reset-password?token=abc_-1"},
		{base: "https://example.com/", expected: "https://example.com/reset-password?token=abc_-1"},
		{base: "https://example.com/app", expected: "https://example.com/app/reset-password?token=abc_-1"},
	}
	for _, testcase := range cases {
		t.Run(testcase.base, func(t *testing.T) {
			base, err := url.Parse(testcase.base)
			require.NoError(t, err)
			require.Equal(t, testcase.expected, BuildResetURL(*base, TokenValue("abc_-1")))
		})
	}
}

func TestDeliveryRequestStringHidesURL(t *testing.T) {
	request := DeliveryRequest{
		Email:     c.NewEmail("user@example.com"),
		ResetURL:  "https://example.com/reset-password?token=secret",
		ExpiresAt: Now,
	}
	require.NotContains(t, request.String(), "secret")
	require.Contains(t, request.String(), "user@example.com")
}

func TestStorageInconsistencyError(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&StorageInconsistencyError{AccountID: 1, Err: cause})
	require.ErrorIs(t, err, ErrStorageInconsistency)
	require.ErrorIs(t, err, cause)
	require.False(t, IsRejection(err))
}
