package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ResultCache stores serialized analysis results keyed by content hash.
// Implementations must support concurrent lookups and insertions; a
// read-check-then-write race on identical keys is tolerated since both
// writers store the same result.
type ResultCache interface {
	// Get returns the cached payload, or found=false on miss or expiry.
	Get(ctx context.Context, key string) (payload []byte, found bool, err error)

	// Set stores a payload under key with the given TTL.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Close releases cache resources.
	Close() error
}

// Key derives the cache key for one analysis request. The content hash keeps
// the key length bounded and keeps raw text out of cache keys.
func Key(analysisType, source, content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%s:%s:%s", analysisType, source, hex.EncodeToString(sum[:]))
}
