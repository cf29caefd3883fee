package btcwallet

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestNewWiresFields(t *testing.T) {
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	w := New(nil, &chaincfg.TestNet3Params, key)
	require.Nil(t, w.Client)
	require.Equal(t, &chaincfg.TestNet3Params, w.Net)
	require.Equal(t, key, w.Key)
}
