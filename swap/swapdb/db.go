package swapdb

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/atomicswapd/swapd/swap"
)

const (
	dbFileName       = "swaps.db"
	dbFilePermission = 0600
)

// Top-level buckets. Every swap gets its own nested bucket under
// swapsBucket, keyed by its Id, holding an eventsBucket (sequence-number
// keyed, append-only) and an index sub-bucket enforcing idempotent saves.
var (
	swapsBucket  = []byte("swaps")
	metaBucket   = []byte("swapdb-meta")
	dbVersionKey = []byte("version")

	// activeIndexBucket marks every swap id that has not yet reached a
	// terminal outcome: present while active, deleted by MarkCompleted
	// (or MarkFailed). Mirrors the teacher's open/closed-channel split
	// between FetchAllChannels and FetchClosedChannels.
	activeIndexBucket = []byte("active-index")
)

const (
	eventsSubBucket = "events"
	indexSubBucket  = "event-index"
)

// migration mutates the bucket layout of an existing database from one
// schema version to the next.
type migration func(tx *bbolt.Tx) error

type version struct {
	number    uint32
	migration migration
}

// dbVersions lists every schema version in order; syncVersions applies
// whichever migrations haven't yet run against an opened database.
var dbVersions = []version{
	{number: 0, migration: nil},
}

// DB is the swap daemon's event store: a single bbolt file holding every
// swap's negotiation record and ledger-event history.
type DB struct {
	*bbolt.DB
	dbPath string
}

// Open opens (creating if necessary) the swap database rooted at dbPath,
// applying any outstanding schema migrations.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(dbPath, 0700); err != nil {
		return nil, fmt.Errorf("create swapdb dir: %w", err)
	}
	path := filepath.Join(dbPath, dbFileName)

	bdb, err := bbolt.Open(path, dbFilePermission, nil)
	if err != nil {
		return nil, fmt.Errorf("open swapdb: %w", err)
	}

	if err := bdb.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(swapsBucket); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(activeIndexBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	}); err != nil {
		bdb.Close()
		return nil, fmt.Errorf("init swapdb buckets: %w", err)
	}

	d := &DB{DB: bdb, dbPath: dbPath}
	if err := d.syncVersions(dbVersions); err != nil {
		bdb.Close()
		return nil, err
	}
	return d, nil
}

// Wipe deletes every stored swap record and empties the active index.
func (d *DB) Wipe() error {
	return d.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(swapsBucket); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		if _, err := tx.CreateBucket(swapsBucket); err != nil {
			return err
		}
		if err := tx.DeleteBucket(activeIndexBucket); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(activeIndexBucket)
		return err
	})
}

func (d *DB) dbVersion(tx *bbolt.Tx) uint32 {
	b := tx.Bucket(metaBucket).Get(dbVersionKey)
	if len(b) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func putDBVersion(tx *bbolt.Tx, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return tx.Bucket(metaBucket).Put(dbVersionKey, b[:])
}

// syncVersions applies every migration newer than the database's current
// recorded version, inside a single transaction, so an interrupted
// migration never leaves the schema half-upgraded.
func (d *DB) syncVersions(versions []version) error {
	latest := versions[len(versions)-1].number

	return d.Update(func(tx *bbolt.Tx) error {
		current := d.dbVersion(tx)
		if current == latest {
			return nil
		}
		for _, v := range versions {
			if v.number <= current || v.migration == nil {
				continue
			}
			if err := v.migration(tx); err != nil {
				return fmt.Errorf("migration #%d: %w", v.number, err)
			}
		}
		return putDBVersion(tx, latest)
	})
}

// swapBucket returns (creating if necessary) the nested bucket for id.
func swapBucket(tx *bbolt.Tx, id swap.Id, create bool) (*bbolt.Bucket, error) {
	root := tx.Bucket(swapsBucket)
	if create {
		return root.CreateBucketIfNotExists(id[:])
	}
	b := root.Bucket(id[:])
	if b == nil {
		return nil, swap.ErrUnknownSwap
	}
	return b, nil
}
