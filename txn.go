/*
Copyright (C) 2023-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package snaplist

import "github.com/samber/lo"

// insertAfterRun buffers the elements a transaction wants inserted after a
// single original anchor, in call order. Multiple InsertAfter calls against
// the same anchor within one transaction chain into a contiguous run at
// commit time: the second buffered element is actually spliced in after
// the first, not independently after the original anchor.
type insertAfterRun[T comparable] struct {
	anchor T
	elems  []T
}

// Txn is a buffered view over a List: every InsertHead, InsertTail,
// InsertAfter and Remove call only mutates the transaction's own buffers.
// Nothing touches the underlying List until Commit, and Rollback discards
// the buffers without ever having touched it.
//
// A Txn is not safe for concurrent use by multiple goroutines; it
// represents one logical unit of work by one caller.
type Txn[T comparable] struct {
	list     *List[T]
	snapshot uint64
	lease    *snapshotLease

	headBuf   []T
	tailBuf   []T
	afterBufs []*insertAfterRun[T]
	removeSet []T

	done bool
}

// Begin opens a transaction whose reads are pinned to the list's state as
// of this call. The snapshot is registered with the list's active-snapshot
// table immediately, holding back reclamation of anything still visible to
// it until Commit or Rollback.
func (l *List[T]) Begin() *Txn[T] {
	snapshot := l.snapshotNow()
	return &Txn[T]{
		list:     l,
		snapshot: snapshot,
		lease:    l.snapshots.register(snapshot),
	}
}

func (tx *Txn[T]) findAfterRun(anchor T) *insertAfterRun[T] {
	for _, run := range tx.afterBufs {
		if run.anchor == anchor {
			return run
		}
	}
	return nil
}

// InsertHead buffers a prepend. Within one transaction, buffered head
// inserts keep their call order at the front of the list: the first
// InsertHead call ends up leftmost after Commit.
func (tx *Txn[T]) InsertHead(elm T) {
	tx.headBuf = append(tx.headBuf, elm)
}

// InsertTail buffers an append, applied in call order at Commit.
func (tx *Txn[T]) InsertTail(elm T) {
	tx.tailBuf = append(tx.tailBuf, elm)
}

// InsertAfter buffers an insert after anchor. anchor may itself be an
// element already buffered for insertion earlier in this same
// transaction; it does not need to exist in the underlying list yet.
func (tx *Txn[T]) InsertAfter(anchor, elm T) {
	if run := tx.findAfterRun(anchor); run != nil {
		run.elems = append(run.elems, elm)
		return
	}
	tx.afterBufs = append(tx.afterBufs, &insertAfterRun[T]{anchor: anchor, elems: []T{elm}})
}

// Remove buffers a removal following the same three-step precedence as the
// underlying data model: cancel a still-buffered insert of the same
// element first, then fall back to marking a currently visible element for
// removal, and otherwise do nothing.
func (tx *Txn[T]) Remove(elm T) {
	if idx := lo.IndexOf(tx.headBuf, elm); idx >= 0 {
		tx.headBuf = append(tx.headBuf[:idx], tx.headBuf[idx+1:]...)
		return
	}
	if idx := lo.IndexOf(tx.tailBuf, elm); idx >= 0 {
		tx.tailBuf = append(tx.tailBuf[:idx], tx.tailBuf[idx+1:]...)
		return
	}
	for _, run := range tx.afterBufs {
		if idx := lo.IndexOf(run.elems, elm); idx >= 0 {
			run.elems = append(run.elems[:idx], run.elems[idx+1:]...)
			return
		}
	}
	if tx.list.visibleToSnapshot(elm, tx.snapshot) && !lo.Contains(tx.removeSet, elm) {
		tx.removeSet = append(tx.removeSet, elm)
	}
}

// Contains reports whether elm would be visible if this transaction
// committed right now: buffered removals hide it, buffered inserts surface
// it, and otherwise the underlying list's view as of the transaction's
// snapshot decides.
func (tx *Txn[T]) Contains(elm T) bool {
	if lo.Contains(tx.removeSet, elm) {
		return false
	}
	if lo.Contains(tx.headBuf, elm) || lo.Contains(tx.tailBuf, elm) {
		return true
	}
	for _, run := range tx.afterBufs {
		if lo.Contains(run.elems, elm) {
			return true
		}
	}
	return tx.list.visibleToSnapshot(elm, tx.snapshot)
}

// ForEach emits elements in the order they would appear if this
// transaction committed right now: buffered head-inserts (first buffered
// call leftmost, matching how Commit applies them), then the underlying
// list's visible elements with buffered insert-after runs spliced in
// behind their anchor and buffered removals omitted, then buffered
// tail-inserts in call order. Insert-after runs are spliced only behind
// elements of the underlying list; a run whose anchor is itself a buffered
// insert is applied by Commit but not emitted here.
func (tx *Txn[T]) ForEach(fn func(T)) {
	for _, e := range tx.headBuf {
		fn(e)
	}
	for cur := tx.list.head.next.Load(); cur != nil; cur = cur.next.Load() {
		if !cur.visibleAt(tx.snapshot) {
			continue
		}
		if lo.Contains(tx.removeSet, cur.elm) {
			continue
		}
		fn(cur.elm)
		if run := tx.findAfterRun(cur.elm); run != nil {
			for _, e := range run.elems {
				fn(e)
			}
		}
	}
	for _, e := range tx.tailBuf {
		fn(e)
	}
}

// visibleToSnapshot mirrors List.Contains but against a caller-supplied
// snapshot instead of the list's current snapshot, for use by
// transactions pinned to an earlier point in time.
func (l *List[T]) visibleToSnapshot(elm T, snapshot uint64) bool {
	for cur := l.head.next.Load(); cur != nil; cur = cur.next.Load() {
		if cur.elm == elm && cur.visibleAt(snapshot) {
			return true
		}
	}
	return false
}

// Commit applies every buffered change to the underlying list and releases
// the transaction's snapshot lease. Every buffered removal shares one
// commit id; every buffered insert mints its own, exactly as an
// independent non-transactional insert would. Without concurrent writers,
// the post-commit list matches ForEach's pre-commit preview, except for
// insert-after runs anchored on buffered elements, which ForEach does not
// emit.
//
// Commit cannot fail under the data model this package implements; the
// error return exists for symmetry with a future allocator-exhaustion
// surface and is always nil today.
func (tx *Txn[T]) Commit() error {
	if tx.done {
		return nil
	}
	tx.done = true

	removeID := tx.list.counter.mint()
	for _, elm := range tx.removeSet {
		tx.applyRemove(elm, removeID)
	}
	// InsertHead prepends, so applying the buffer in reverse call order
	// puts the first buffered head-insert leftmost, matching ForEach's
	// preview order.
	for i := len(tx.headBuf) - 1; i >= 0; i-- {
		tx.list.InsertHead(tx.headBuf[i])
	}
	for _, elm := range tx.tailBuf {
		tx.list.InsertTail(elm)
	}
	for _, run := range tx.afterBufs {
		anchor := run.anchor
		for _, elm := range run.elems {
			tx.list.InsertAfter(anchor, elm)
			anchor = elm
		}
	}

	// The lease must drop before the sweep runs, or this transaction's own
	// now-stale snapshot would itself block eligibility of the nodes it
	// just removed.
	tx.lease.unregister()
	tx.list.reclaim.sweep(&tx.list.head.next)
	tx.list.reclaim.drainRetired()
	return nil
}

// applyRemove only stamps removedTxn, making elm invisible to every
// snapshot from commitID onward. It never unlinks the node itself: an
// older open transaction may still need to walk past it, so physical
// detachment waits for Commit's watermark-gated sweep.
func (tx *Txn[T]) applyRemove(elm T, commitID uint64) {
	prev := &tx.list.head.next
	cur := prev.Load()
	for cur != nil {
		if cur.elm == elm && cur.visibleAt(tx.snapshot) {
			if cur.removedTxn.CompareAndSwap(0, commitID) {
				cur.notifyOnFree.Store(true)
			}
			return
		}
		prev = &cur.next
		cur = cur.next.Load()
	}
}

// Rollback discards every buffered change without ever touching the
// underlying list, and releases the transaction's snapshot lease. The free
// callback is never invoked for anything buffered in a rolled back
// transaction, because nothing buffered was ever actually inserted.
func (tx *Txn[T]) Rollback() {
	if tx.done {
		return
	}
	tx.done = true
	tx.headBuf = nil
	tx.tailBuf = nil
	tx.afterBufs = nil
	tx.removeSet = nil
	tx.lease.unregister()
}
