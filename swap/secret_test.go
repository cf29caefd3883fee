package swap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecretHashMatches(t *testing.T) {
	s, err := NewSecret()
	require.NoError(t, err, "unable to generate secret")

	h := s.Hash()
	require.True(t, s.Matches(h), "secret must match its own hash")

	other, err := NewSecret()
	require.NoError(t, err, "unable to generate second secret")
	require.False(t, other.Matches(h), "unrelated secret must not match")
}

func TestSecretHashFromBytes(t *testing.T) {
	s, err := NewSecret()
	require.NoError(t, err, "unable to generate secret")
	h := s.Hash()

	parsed, err := SecretHashFromBytes(h[:])
	require.NoError(t, err, "unable to parse hash bytes")
	require.Equal(t, h, parsed)

	_, err = SecretHashFromBytes(h[:31])
	require.Error(t, err, "short slice must be rejected")
}

func TestIdRoundTrip(t *testing.T) {
	id := NewId()

	parsed, err := IdFromHex(id.String())
	require.NoError(t, err, "unable to parse id hex")
	require.Equal(t, id, parsed)

	_, err = IdFromBytes([]byte{0x01, 0x02})
	require.Error(t, err, "wrong-length slice must be rejected")
}
