package swap

import "errors"

// Sentinel errors identifying the abstract error kinds the machine
// distinguishes. Call sites wrap these with fmt.Errorf's %w to attach
// context while keeping the sentinel reachable via errors.Is.
var (
	// ErrTransient marks connector timeouts, RPC errors, and temporary
	// wallet submission failures. The runner retries these with backoff;
	// they are never surfaced to the swap record.
	ErrTransient = errors.New("transient error")

	// ErrIncorrectFunding marks an observer report of actual asset !=
	// expected asset on a leg. Non-fatal to the machine, but forces
	// refund-only mode on the affected leg.
	ErrIncorrectFunding = errors.New("incorrect funding")

	// ErrExpiryPassed is a control signal, not a failure: it forces the
	// refund path for the affected leg.
	ErrExpiryPassed = errors.New("expiry passed")

	// ErrDeclineReceived is a normal terminal outcome, not a failure.
	ErrDeclineReceived = errors.New("decline received")

	// ErrFatal marks unrecoverable conditions: store corruption,
	// byte-code template mismatch, persistent wallet signing failure
	// after the retry limit, or counterparty misbehavior from which no
	// recovery path exists. Fatal errors move the swap to Failed and are
	// the only error kind surfaced to operators.
	ErrFatal = errors.New("fatal swap error")

	// ErrInvalidExpiry is returned by CheckExpiries when the safety
	// margin invariant is violated.
	ErrInvalidExpiry = errors.New("invalid expiry ordering")

	// ErrUnknownSwap is returned by the store when a lookup finds no
	// record for the given SwapId.
	ErrUnknownSwap = errors.New("unknown swap")

	// ErrDuplicateEvent names a second save of an event whose (EventKind,
	// Leg) pair is already recorded for a swap. swapdb's Store.Append does
	// not return it: such a save is a no-op that returns nil.
	ErrDuplicateEvent = errors.New("duplicate event")
)

// IsTransient reports whether err (or anything it wraps) is ErrTransient.
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }

// IsFatal reports whether err (or anything it wraps) is ErrFatal.
func IsFatal(err error) bool { return errors.Is(err, ErrFatal) }
