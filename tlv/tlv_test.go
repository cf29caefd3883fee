package tlv

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamRoundTrip(t *testing.T) {
	s := NewStream()
	s.AddRecord(1, []byte("alpha"))
	s.AddRecord(3, []byte{0x01, 0x02, 0x03})
	s.AddRecord(200, nil)

	encoded, err := s.Bytes()
	require.NoError(t, err)

	records, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, records, 3)

	v, ok := Lookup(records, 1)
	require.True(t, ok)
	require.Equal(t, []byte("alpha"), v)

	_, ok = Lookup(records, 99)
	require.False(t, ok)
}

func TestStreamRejectsNonIncreasingTypes(t *testing.T) {
	s := NewStream()
	s.AddRecord(5, []byte("x"))
	s.AddRecord(5, []byte("y"))

	_, err := s.Bytes()
	require.Error(t, err)
}
