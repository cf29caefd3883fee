package cert

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateProducesLoadablePair(t *testing.T) {
	certPEM, keyPEM, err := Generate(Options{Hosts: []string{"example.internal"}})
	require.NoError(t, err)
	require.NotEmpty(t, certPEM)
	require.NotEmpty(t, keyPEM)

	dir := t.TempDir()
	certPath := filepath.Join(dir, "swapd.cert")
	keyPath := filepath.Join(dir, "swapd.key")

	require.NoError(t, GenerateAndWrite(certPath, keyPath, Options{}))

	tlsCert, err := Load(certPath, keyPath)
	require.NoError(t, err)
	require.NotEmpty(t, tlsCert.Certificate)
}

func TestEnsureExistsGeneratesOnce(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "swapd.cert")
	keyPath := filepath.Join(dir, "swapd.key")

	first, err := EnsureExists(certPath, keyPath, Options{})
	require.NoError(t, err)

	second, err := EnsureExists(certPath, keyPath, Options{})
	require.NoError(t, err)

	require.Equal(t, first.Certificate, second.Certificate)
}
