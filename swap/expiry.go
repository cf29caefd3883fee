package swap

import (
	"fmt"
	"time"
)

// Expiry is an absolute unix-second timestamp after which an HTLC's refund
// branch becomes spendable.
type Expiry int64

// ExpiryAt converts a time.Time to an Expiry.
func ExpiryAt(t time.Time) Expiry { return Expiry(t.Unix()) }

// Time converts an Expiry back to a time.Time.
func (e Expiry) Time() time.Time { return time.Unix(int64(e), 0) }

// Passed reports whether now is at or past this expiry.
func (e Expiry) Passed(now time.Time) bool {
	return now.Unix() >= int64(e)
}

// DefaultSafetyMargin is the minimum gap CheckExpiries requires between
// alpha_expiry and beta_expiry.
const DefaultSafetyMargin = 1 * time.Hour

// CheckExpiries enforces alpha_expiry > beta_expiry + margin: Alice redeems
// beta first, revealing the secret, then redeems alpha; the margin
// guarantees she still has time to redeem alpha before it expires after
// beta has already come and gone.
func CheckExpiries(alphaExpiry, betaExpiry Expiry, margin time.Duration) error {
	if int64(alphaExpiry) <= int64(betaExpiry)+int64(margin/time.Second) {
		return fmt.Errorf("%w: alpha_expiry %d must exceed beta_expiry %d by at least %s",
			ErrInvalidExpiry, alphaExpiry, betaExpiry, margin)
	}
	return nil
}
