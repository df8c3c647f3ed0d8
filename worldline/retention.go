// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package worldline

import "errors"

// ErrNotImplemented is returned by Apply for RetentionArchiveToWormhole,
// which is a reserved seam for future distributed archival storage.
var ErrNotImplemented = errors.New("worldline: ArchiveToWormhole retention is not implemented")

// RetentionKind discriminates the RetentionPolicy tagged union.
type RetentionKind uint8

// RetentionKind values.
const (
	RetentionKeepAll RetentionKind = iota
	RetentionCheckpointEvery
	RetentionKeepRecent
	RetentionArchiveToWormhole
)

// RetentionPolicy controls how much history a worldline keeps and
// whether checkpoints are created automatically to enable fast seeking.
type RetentionPolicy struct {
	Kind RetentionKind

	// CheckpointEvery: interval in ticks. KeepRecent/ArchiveToWormhole
	// reuse the same field for their checkpoint_every parameter.
	CheckpointEvery uint64

	// KeepRecent: number of most recent ticks kept in full detail.
	Window uint64

	// ArchiveToWormhole: archive history older than this many ticks.
	After uint64
}

// KeepAll returns the default retention policy: keep everything, create
// no checkpoints automatically.
func KeepAll() RetentionPolicy { return RetentionPolicy{Kind: RetentionKeepAll} }

// CheckpointEveryK returns a policy that keeps all history but checkpoints
// every k ticks.
func CheckpointEveryK(k uint64) RetentionPolicy {
	return RetentionPolicy{Kind: RetentionCheckpointEvery, CheckpointEvery: k}
}

// KeepRecentWindow returns a policy that prunes detail older than window
// ticks and checkpoints every checkpointEvery ticks. Pruning does not
// consult checkpoints: a record older than the window is dropped even when
// replay from the nearest retained checkpoint would need it.
func KeepRecentWindow(window, checkpointEvery uint64) RetentionPolicy {
	return RetentionPolicy{Kind: RetentionKeepRecent, Window: window, CheckpointEvery: checkpointEvery}
}

// ArchiveToWormholeAfter returns the reserved future-archival policy. Apply
// always returns ErrNotImplemented for it; it exists so callers can select
// and store the policy ahead of the storage backend landing.
func ArchiveToWormholeAfter(after, checkpointEvery uint64) RetentionPolicy {
	return RetentionPolicy{Kind: RetentionArchiveToWormhole, After: after, CheckpointEvery: checkpointEvery}
}

// Apply enforces policy on w after a tick at tickNo has just been appended:
// it creates a checkpoint when the policy's interval demands one, and
// prunes full-detail records with TickNo below tickNo-Window under
// KeepRecent, whether or not a retained checkpoint's replay still needs
// them.
func (w *Worldline) Apply(policy RetentionPolicy, tickNo uint64, shouldCheckpoint func() (storeSnapshot, bool)) error {
	switch policy.Kind {
	case RetentionKeepAll:
		return nil
	case RetentionCheckpointEvery:
		if policy.CheckpointEvery > 0 && tickNo%policy.CheckpointEvery == 0 {
			if snap, ok := shouldCheckpoint(); ok {
				w.Checkpoint(snap.Store, snap.StateRoot, tickNo)
			}
		}
		return nil
	case RetentionKeepRecent:
		if policy.CheckpointEvery > 0 && tickNo%policy.CheckpointEvery == 0 {
			if snap, ok := shouldCheckpoint(); ok {
				w.Checkpoint(snap.Store, snap.StateRoot, tickNo)
			}
		}
		if policy.Window > 0 && tickNo > policy.Window {
			cutoff := tickNo - policy.Window
			pruneRecordsBefore(w, cutoff)
		}
		return nil
	case RetentionArchiveToWormhole:
		return ErrNotImplemented
	default:
		return nil
	}
}

// storeSnapshot is the pair Apply needs to create a checkpoint without
// importing package graph/ids directly into the retention policy's
// parameter list.
type storeSnapshot = Checkpoint

func pruneRecordsBefore(w *Worldline, cutoff uint64) {
	kept := w.Records[:0:0]
	for _, r := range w.Records {
		if r.TickNo >= cutoff {
			kept = append(kept, r)
		}
	}
	w.Records = kept
	if len(kept) > 0 {
		w.BaseTick = kept[0].TickNo - 1
	}
}
