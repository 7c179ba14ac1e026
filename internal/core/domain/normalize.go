package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeText canonicalises text before hashing or fingerprinting:
// surrounding whitespace trimmed, internal whitespace runs collapsed to
// a single space, lowercased. Two texts that normalise equally are
// treated as the same content everywhere in the engine.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// HashText returns the hex content hash of the normalised text. This is
// the digest used for ChunkID.ContentHash.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(NormalizeText(s)))
	return hex.EncodeToString(sum[:])
}
