package swap

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Id is a 128-bit identifier for a single swap, assigned by the initiator
// (Alice) and carried verbatim in every persisted record and peer-exchanged
// negotiation message.
type Id [16]byte

// NewId generates a fresh, random swap identifier.
func NewId() Id {
	var id Id
	copy(id[:], uuid.New()[:])
	return id
}

// IdFromBytes builds an Id from a 16-byte slice.
func IdFromBytes(b []byte) (Id, error) {
	var id Id
	if len(b) != len(id) {
		return id, fmt.Errorf("swap id must be %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// IdFromHex parses a hex-encoded swap id.
func IdFromHex(s string) (Id, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Id{}, fmt.Errorf("invalid swap id hex: %w", err)
	}
	return IdFromBytes(b)
}

// String renders the id as lowercase hex, the form used throughout logs and
// the RPC surface.
func (id Id) String() string {
	return hex.EncodeToString(id[:])
}
