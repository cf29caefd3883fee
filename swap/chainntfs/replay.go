package chainntfs

import (
	"context"
	"fmt"
)

// detectReorg compares a freshly observed block against the last one this
// leg's poll loop accepted. When the new block is not the direct child of
// the last accepted one (a height gap, or adjacent heights with a
// mismatched parent hash), it re-reads the block hash at the last accepted
// height; if that hash has changed, the chain has reorganized and the
// caller must re-poll rather than trust the observation, since the
// transaction it found may no longer be on the best chain. missed=true
// tells the caller to discard this observation and loop again without
// emitting anything.
//
// This only catches reorgs discovered between two polls of the same leg;
// a full reorg-aware chain follower would walk back to find the common
// ancestor and re-derive from there, but a single swap leg only needs to
// know "is what I just saw still true", not the shape of the reorg.
func detectReorg(ctx context.Context, conn Connector, last, observed BlockRef) (bool, error) {
	if last.Height == 0 {
		return false, nil
	}
	if observed.Height == last.Height+1 && observed.ParentHash == last.Hash {
		return false, nil
	}
	if observed.Height <= last.Height {
		return false, nil
	}

	// A gap or a mismatched parent hash: confirm the chain at last.Height
	// still has the hash we recorded before accepting the new
	// observation.
	current, err := conn.BlockHash(ctx, last.Height)
	if err != nil {
		return false, fmt.Errorf("confirm block at height %d: %w", last.Height, err)
	}
	if current.Hash != last.Hash {
		return true, nil
	}
	return false, nil
}
