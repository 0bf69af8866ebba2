package objectkey

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDefaultGenerator(t *testing.T) {
	g := NewDefaultGenerator()
	id := uuid.New()

	t.Run("includes id and filename", func(t *testing.T) {
		key := g.GenerateKey(id, "report.pdf")
		assert.Equal(t, id.String()+"_report.pdf", key)
	})

	t.Run("empty filename falls back to id", func(t *testing.T) {
		key := g.GenerateKey(id, "")
		assert.Equal(t, id.String(), key)
	})

	t.Run("sanitizes problematic characters", func(t *testing.T) {
		key := g.GenerateKey(id, "my file/v1:final?.txt")
		assert.Equal(t, id.String()+"_my_file_v1_final_.txt", key)
	})

	t.Run("distinct ids give distinct keys for same filename", func(t *testing.T) {
		a := g.GenerateKey(uuid.New(), "same.bin")
		b := g.GenerateKey(uuid.New(), "same.bin")
		assert.NotEqual(t, a, b)
	})
}

func TestShardedGenerator(t *testing.T) {
	g := NewShardedGenerator()
	id := uuid.MustParse("12345678-90ab-cdef-1234-567890abcdef")

	key := g.GenerateKey(id, "photo.jpg")
	assert.True(t, strings.HasPrefix(key, "assets/12/"), "key %q should be sharded by id prefix", key)
	assert.True(t, strings.HasSuffix(key, "_photo.jpg"))

	t.Run("zero shard length uses default", func(t *testing.T) {
		g := &ShardedGenerator{}
		key := g.GenerateKey(id, "")
		assert.True(t, strings.HasPrefix(key, "assets/12/"))
	})
}
