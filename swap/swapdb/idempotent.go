package swapdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/atomicswapd/swapd/swap"
)

// Store adapts DB to swapexec.Store and negotiate's RequestHandler
// persistence needs: idempotent per-(SwapId, EventKind, Leg) event saves
// folded through swap.Apply to reconstruct SwapState on Load.
//
// Deployed/Funded/Redeemed/Refunded are recorded once per leg; Proposed,
// Accepted, and Declined are recorded once per swap. A second save of an
// already-indexed (SwapId, EventKind, Leg) triple is a no-op: the chain
// observer's poll loop re-reports the same on-chain fact on every restart
// until the next state transition, so the event itself is not a reliable
// signal of novelty and must be deduplicated before it reaches Apply.
//
// Every swap id also lives in a secondary active-index bucket from its
// first Append until MarkCompleted or MarkFailed removes it, so
// ListActiveSwaps never needs to fold every swap's full event log just to
// answer "which swaps still need a Runner".
type Store struct {
	db *DB
}

// NewStore wraps an opened DB as a swapexec.Store.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Load reconstructs a swap's current SwapState by folding every saved
// event, in sequence-number order, through swap.Apply.
func (s *Store) Load(ctx context.Context, id swap.Id) (swap.SwapState, error) {
	var state swap.SwapState
	state.SwapId = id

	err := s.db.View(func(tx *bbolt.Tx) error {
		sb, err := swapBucket(tx, id, false)
		if err != nil {
			return err
		}

		roleBytes := sb.Get([]byte("role"))
		if len(roleBytes) == 1 {
			state.Role = swap.Role(roleBytes[0])
		}
		if secret := sb.Get([]byte("local-secret")); len(secret) == 32 {
			copy(state.LocalSecret[:], secret)
		}
		if failed := sb.Get([]byte("failed")); len(failed) == 1 && failed[0] == 1 {
			state.Failed = true
			state.FailReason = string(sb.Get([]byte("fail-reason")))
		}

		events := sb.Bucket([]byte(eventsSubBucket))
		if events == nil {
			return nil
		}
		return events.ForEach(func(k, v []byte) error {
			e, err := DecodeEvent(v)
			if err != nil {
				return fmt.Errorf("decode event %x: %w", k, err)
			}
			state = swap.Apply(state, e)
			return nil
		})
	})
	if err != nil {
		return swap.SwapState{}, err
	}
	return state, nil
}

// Append idempotently records e against id. The first call for a given
// (EventKind, Leg) pair persists the event and advances the event
// sequence; subsequent calls for the same pair return nil without
// modifying anything, matching the idempotent-replay invariant the
// observer and runner both depend on.
func (s *Store) Append(ctx context.Context, id swap.Id, e swap.Event) error {
	payload, err := EncodeEvent(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	indexKey := eventIndexKey(e.Kind, e.Leg)

	return s.db.Update(func(tx *bbolt.Tx) error {
		sb, err := swapBucket(tx, id, true)
		if err != nil {
			return err
		}

		index, err := sb.CreateBucketIfNotExists([]byte(indexSubBucket))
		if err != nil {
			return err
		}
		if index.Get(indexKey) != nil {
			log.Debugf("swap %s: duplicate event kind=%v leg=%v ignored", id, e.Kind, e.Leg)
			return nil
		}

		events, err := sb.CreateBucketIfNotExists([]byte(eventsSubBucket))
		if err != nil {
			return err
		}
		seq, err := events.NextSequence()
		if err != nil {
			return err
		}

		var seqKey [8]byte
		binary.BigEndian.PutUint64(seqKey[:], seq)
		if err := events.Put(seqKey[:], payload); err != nil {
			return err
		}
		if err := tx.Bucket(activeIndexBucket).Put(id[:], []byte{1}); err != nil {
			return err
		}

		log.Infof("swap %s: appended event kind=%v leg=%v seq=%d", id, e.Kind, e.Leg, seq)
		return index.Put(indexKey, seqKey[:])
	})
}

// PutLocalSecret records Alice's own secret for id. Unlike observer/runner
// events, this is written directly by the negotiation initiator at swap
// creation, never folded from an Event, matching swap.SwapState's
// LocalSecret field.
func (s *Store) PutLocalSecret(ctx context.Context, id swap.Id, role swap.Role, secret swap.Secret) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		sb, err := swapBucket(tx, id, true)
		if err != nil {
			return err
		}
		if err := sb.Put([]byte("role"), []byte{byte(role)}); err != nil {
			return err
		}
		return sb.Put([]byte("local-secret"), secret[:])
	})
}

// SetRole records which role this daemon instance plays in id, for the
// Bob side of a swap where there is no local secret to carry it
// implicitly. Alice's role is recorded by PutLocalSecret instead.
func (s *Store) SetRole(ctx context.Context, id swap.Id, role swap.Role) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		sb, err := swapBucket(tx, id, true)
		if err != nil {
			return err
		}
		return sb.Put([]byte("role"), []byte{byte(role)})
	})
}

// MarkFailed records a terminal failure reason against id. Folded state
// already carries Failed/FailReason via SwapState, but that's only
// reachable through Apply; MarkFailed is the one mutation outside the
// event log, so it's stored alongside role and local-secret rather than
// as a synthetic event.
func (s *Store) MarkFailed(ctx context.Context, id swap.Id, reason string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		sb, err := swapBucket(tx, id, true)
		if err != nil {
			return err
		}
		if err := sb.Put([]byte("failed"), []byte{1}); err != nil {
			return err
		}
		if err := sb.Put([]byte("fail-reason"), []byte(reason)); err != nil {
			return err
		}
		return tx.Bucket(activeIndexBucket).Delete(id[:])
	})
}

// MarkCompleted records id's terminal timestamp and removes it from the
// active index. Called once a Runner observes SwapState.Outcome() return
// terminal for a reason other than MarkFailed, which already removes the
// swap from the active index itself.
func (s *Store) MarkCompleted(ctx context.Context, id swap.Id, completedAt time.Time) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		sb, err := swapBucket(tx, id, true)
		if err != nil {
			return err
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(completedAt.Unix()))
		if err := sb.Put([]byte("completed-at"), buf[:]); err != nil {
			return err
		}
		return tx.Bucket(activeIndexBucket).Delete(id[:])
	})
}

// ListActiveSwaps returns every swap id that has not yet reached a
// terminal outcome, in no particular order. Used at daemon startup to
// decide which swaps need a Runner resumed, and exposed so Running/active
// bookkeeping never has to fall back to scanning every ListIds entry's
// folded state.
func (s *Store) ListActiveSwaps(ctx context.Context) ([]swap.Id, error) {
	var ids []swap.Id
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(activeIndexBucket).ForEach(func(k, v []byte) error {
			id, err := swap.IdFromBytes(k)
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListIds returns every swap id with a record in the store, in no
// particular order. Used by the daemon's swaps-listing RPC; not on any
// path the runner or observer depend on.
func (s *Store) ListIds(ctx context.Context) ([]swap.Id, error) {
	var ids []swap.Id
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(swapsBucket)
		return root.ForEach(func(k, v []byte) error {
			// Only nested (per-swap) buckets are of interest; ForEach
			// reports a nil value for those, distinguishing them from any
			// plain key/value pair stored directly under swapsBucket.
			if v != nil {
				return nil
			}
			id, err := swap.IdFromBytes(k)
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func eventIndexKey(kind swap.EventKind, leg swap.Leg) []byte {
	return []byte{byte(kind), byte(leg)}
}
