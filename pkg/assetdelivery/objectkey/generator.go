package objectkey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for storage key generation strategies.
// Keys must be unique per call: every ingest gets a fresh asset id, so any
// strategy that incorporates the id is collision-free.
type Generator interface {
	// GenerateKey creates a blob store key for an asset's bytes
	GenerateKey(assetID uuid.UUID, fileName string) string
}

// DefaultGenerator produces flat keys of the form "{assetID}_{filename}".
type DefaultGenerator struct{}

func NewDefaultGenerator() *DefaultGenerator {
	return &DefaultGenerator{}
}

func (g *DefaultGenerator) GenerateKey(assetID uuid.UUID, fileName string) string {
	if fileName == "" {
		return assetID.String()
	}
	return fmt.Sprintf("%s_%s", assetID, sanitizeFileName(fileName))
}

// ShardedGenerator produces Git-style sharded keys,
// e.g. "assets/ab/cdef1234..._report.pdf", which keeps flat-namespace
// backends (filesystem in particular) from accumulating huge directories.
type ShardedGenerator struct {
	// ShardLength controls how many hex characters form the shard directory
	ShardLength int
}

func NewShardedGenerator() *ShardedGenerator {
	return &ShardedGenerator{ShardLength: 2}
}

func (g *ShardedGenerator) GenerateKey(assetID uuid.UUID, fileName string) string {
	idStr := strings.ReplaceAll(assetID.String(), "-", "")

	shardLen := g.ShardLength
	if shardLen <= 0 || shardLen >= len(idStr) {
		shardLen = 2
	}

	shard := idStr[:shardLen]
	remaining := idStr[shardLen:]

	name := remaining
	if fileName != "" {
		name = fmt.Sprintf("%s_%s", remaining, sanitizeFileName(fileName))
	}

	return fmt.Sprintf("assets/%s/%s", shard, name)
}

// sanitizeFileName replaces characters that are problematic in object keys
// or filesystem paths.
func sanitizeFileName(fileName string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(fileName)
}
