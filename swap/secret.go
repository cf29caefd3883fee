package swap

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Secret is the 32-byte preimage Alice generates before the negotiation
// begins. Its SHA-256 digest, the SecretHash, is the value actually
// exchanged and embedded in both HTLCs; the Secret itself must never
// traverse the wire or the Store in plaintext until Alice redeems.
type Secret [32]byte

// SecretHash is SHA256(Secret), the public binding value shared by both
// HTLCs and exchanged during negotiation.
type SecretHash [32]byte

// NewSecret draws a cryptographically random 32-byte secret.
func NewSecret() (Secret, error) {
	var s Secret
	if _, err := rand.Read(s[:]); err != nil {
		return s, fmt.Errorf("generate secret: %w", err)
	}
	return s, nil
}

// Hash computes the SecretHash binding value for this secret.
func (s Secret) Hash() SecretHash {
	return SecretHash(sha256.Sum256(s[:]))
}

// Matches reports whether this secret hashes to h, using a constant-time
// comparison so validation timing leaks nothing about partially-correct
// guesses.
func (s Secret) Matches(h SecretHash) bool {
	computed := s.Hash()
	return subtle.ConstantTimeCompare(computed[:], h[:]) == 1
}

func (s Secret) String() string { return hex.EncodeToString(s[:]) }

func (h SecretHash) String() string { return hex.EncodeToString(h[:]) }

// SecretHashFromBytes builds a SecretHash from a 32-byte slice, as received
// on the wire or read back from the HTLC's on-chain parameters.
func SecretHashFromBytes(b []byte) (SecretHash, error) {
	var h SecretHash
	if len(b) != len(h) {
		return h, fmt.Errorf("secret hash must be %d bytes, got %d", len(h), len(b))
	}
	copy(h[:], b)
	return h, nil
}
