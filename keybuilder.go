package presignx

import (
	"fmt"
	"math/rand/v2"
	"path"
	"strings"
	"time"
)

// KeyGenerator derives the storage name of a newly uploaded object
type KeyGenerator interface {
	// UniqueName returns a collision-resistant name that keeps the
	// extension of key
	UniqueName(key string) string
}

// TimestampKeyGenerator names objects "{epoch-millis}-{0..999999}{ext}".
// The random part is not cryptographically secure; names are unique enough
// to avoid accidental overwrites, not to resist guessing.
type TimestampKeyGenerator struct {
	// Clock defaults to time.Now
	Clock func() time.Time

	// Rand returns an int in [0, n) and defaults to math/rand/v2
	Rand func(n int) int
}

// NewTimestampKeyGenerator creates a generator backed by the wall clock
func NewTimestampKeyGenerator() *TimestampKeyGenerator {
	return &TimestampKeyGenerator{Clock: time.Now, Rand: rand.IntN}
}

const uniqueSuffixRange = 1000000

// UniqueName returns the generated name for key
func (g *TimestampKeyGenerator) UniqueName(key string) string {
	clock := g.Clock
	if clock == nil {
		clock = time.Now
	}
	rnd := g.Rand
	if rnd == nil {
		rnd = rand.IntN
	}

	return fmt.Sprintf("%d-%d%s", clock().UnixMilli(), rnd(uniqueSuffixRange), Extension(key))
}

// Extension returns the extension of the last path element of key, including
// the dot. Dotfiles without a further dot have no extension.
func Extension(key string) string {
	base := path.Base(key)
	if base == "." || base == "/" {
		return ""
	}
	idx := strings.LastIndexByte(base, '.')
	if idx <= 0 {
		return ""
	}
	return base[idx:]
}

// JoinKey places name under prefix, collapsing the slash between them. An
// empty prefix yields name unchanged.
func JoinKey(prefix, name string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + strings.TrimPrefix(name, "/")
}

// NoOpKeyGenerator returns the key unchanged. It is useful in tests that need
// deterministic upload keys.
type NoOpKeyGenerator struct{}

// UniqueName returns key unchanged
func (NoOpKeyGenerator) UniqueName(key string) string {
	return key
}
