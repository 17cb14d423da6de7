package freshness

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HashFunc turns a cache key into an entity tag token.
type HashFunc func(key string) string

// MD5Hash returns the 128-bit MD5 digest of key as 32 lowercase hex characters.
func MD5Hash(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// XXHash returns the 64-bit xxHash of key as 16 lowercase hex characters.
func XXHash(key string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

// HashByName resolves a configured hash name ("md5" or "xxhash").
func HashByName(name string) (HashFunc, error) {
	switch strings.ToLower(name) {
	case "", "md5":
		return MD5Hash, nil
	case "xxhash":
		return XXHash, nil
	default:
		return nil, fmt.Errorf("unknown hash %q", name)
	}
}
