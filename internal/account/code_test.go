package account

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomCodeGeneratorFormat(t *testing.T) {
	gen := NewRandomCodeGenerator()
	seen := map[string]struct{}{}

	for i := 0; i < 500; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.True(t, IsWellFormedCode(code), "code %q", code)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
		seen[code] = struct{}{}
	}

	assert.Greater(t, len(seen), 400, "codes should rarely collide")
}

func TestIsWellFormedCode(t *testing.T) {
	tests := map[string]bool{
		"482193":  true,
		"000000":  true,
		"48219":   false,
		"4821930": false,
		"48a193":  false,
		"":        false,
		"٤٨٢١٩٣":  false,
	}
	for code, want := range tests {
		assert.Equal(t, want, IsWellFormedCode(code), "code %q", code)
	}
}
