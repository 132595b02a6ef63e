package randomsource

import (
	"passreset/internal/core/domain/reset"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenValuesAreUnique(t *testing.T) {
	source := NewCrypto()
	seen := make(map[reset.TokenValue]struct{})

	for i := 0; i < 1000; i++ {
		value, err := reset.NewTokenValue(source)
		require.NoError(t, err)
		require.True(t, value.IsWellFormed())
		_, duplicate := seen[value]
		require.False(t, duplicate)
		seen[value] = struct{}{}
	}
}
