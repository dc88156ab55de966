package cardcode

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	hexPattern := regexp.MustCompile(`^[0-9a-f]{20}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := Generate()
		require.NoError(t, err)
		assert.Regexp(t, hexPattern, code)

		_, dup := seen[code]
		assert.False(t, dup, "generated duplicate code %s", code)
		seen[code] = struct{}{}
	}
}
