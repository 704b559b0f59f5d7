// Package encoding computes fixed-size fingerprints for RDF terms and
// quads. The 128-bit xxhash3 digests give the dataset layer cheap
// deduplication keys without retaining serialized strings. The package
// works on raw kind bytes and payloads so it stays below the term model.
package encoding

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

const (
	// Encoded term size (kind byte + 16 bytes of 128-bit hash)
	TermKeySize = 17

	// Four terms per quad
	QuadKeySize = 4 * TermKeySize
)

// TermKey is the fingerprint of a single term.
type TermKey [TermKeySize]byte

// QuadKey is the concatenation of four term fingerprints in subject,
// predicate, object, graph order.
type QuadKey [QuadKeySize]byte

// Hash128 computes a 128-bit xxhash3 hash of the input string.
func Hash128(s string) [16]byte {
	hash := xxh3.Hash128([]byte(s))
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// NewTermKey fingerprints a term given its kind discriminator and
// payload string. Two terms collide only when kind and full payload
// hash collide.
func NewTermKey(kind byte, payload string) TermKey {
	var key TermKey
	key[0] = kind
	if payload != "" {
		h := Hash128(payload)
		copy(key[1:], h[:])
	}
	return key
}

// NewQuadKey concatenates four term fingerprints.
func NewQuadKey(subject, predicate, object, graph TermKey) QuadKey {
	var key QuadKey
	copy(key[0:], subject[:])
	copy(key[TermKeySize:], predicate[:])
	copy(key[2*TermKeySize:], object[:])
	copy(key[3*TermKeySize:], graph[:])
	return key
}
