package fasthash_test

import (
	"testing"

	"github.com/AdguardTeam/adblock/internal/fasthash"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	t.Parallel()

	assert.Zero(t, fasthash.String(""))
	assert.Equal(t, fasthash.String("example"), fasthash.Between("an example!", 3, 10))
	assert.NotEqual(t, fasthash.String("example"), fasthash.String("exampl3"))
}

func BenchmarkBetween(b *testing.B) {
	const s = "https://example.org/path/to/banner.gif"

	var got uint32

	b.ReportAllocs()
	for b.Loop() {
		got = fasthash.Between(s, 8, 13)
	}

	assert.NotZero(b, got)
}
