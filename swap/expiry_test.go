package swap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCheckExpiries(t *testing.T) {
	now := time.Now()
	beta := ExpiryAt(now.Add(2 * time.Hour))
	alpha := ExpiryAt(now.Add(6 * time.Hour))

	require.NoError(t, CheckExpiries(alpha, beta, DefaultSafetyMargin))

	tooClose := ExpiryAt(now.Add(2*time.Hour + 30*time.Minute))
	err := CheckExpiries(tooClose, beta, DefaultSafetyMargin)
	require.Error(t, err, "alpha_expiry too close to beta_expiry must be rejected")
	require.ErrorIs(t, err, ErrInvalidExpiry)
}

func TestExpiryPassed(t *testing.T) {
	now := time.Now()
	past := ExpiryAt(now.Add(-time.Minute))
	future := ExpiryAt(now.Add(time.Minute))

	require.True(t, past.Passed(now))
	require.False(t, future.Passed(now))
}
