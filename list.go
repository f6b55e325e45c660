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

// Package snaplist implements a lock-free, singly-linked sequence
// container with multi-version snapshot isolation and buffered
// transactions. Readers never block writers, writers never block readers,
// and every in-flight transaction sees a stable view of the sequence as of
// the moment it began, regardless of concurrent inserts and removes.
package snaplist

import "log/slog"

const defaultCapacity = 32

type listConfig[T any] struct {
	capacity int
	freeFn   func(T)
	logger   *slog.Logger
}

// ListOption configures a List at construction time.
type ListOption[T any] func(*listConfig[T])

// WithCapacity sets the ceiling on concurrently leased hazard-pointer and
// active-snapshot slots. Callers beyond the ceiling still operate
// correctly; they simply forgo the extra traversal-time protection (hazard
// pointers) or stop holding back reclamation past their own snapshot
// (active-snapshot table).
func WithCapacity[T any](n int) ListOption[T] {
	return func(c *listConfig[T]) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithFreeFunc registers a callback invoked exactly once for every element
// removed through Remove or a transactional remove, right before its
// wrapper becomes eligible for reuse. Never called for RemoveHead, and
// never called for inserts buffered in a transaction that is rolled back.
func WithFreeFunc[T any](fn func(T)) ListOption[T] {
	return func(c *listConfig[T]) { c.freeFn = fn }
}

// WithLogger overrides the default logger (slog.Default()) stored on the
// List. No List or Txn operation writes to it: hazard/snapshot table
// exhaustion and CAS retries are not logged.
func WithLogger[T any](logger *slog.Logger) ListOption[T] {
	return func(c *listConfig[T]) { c.logger = logger }
}

func defaultListConfig[T any]() *listConfig[T] {
	return &listConfig[T]{capacity: defaultCapacity, logger: slog.Default()}
}

// List is a lock-free sequence of T, safe for concurrent use by any number
// of goroutines without external locking.
type List[T comparable] struct {
	head      node[T]
	logger    *slog.Logger
	counter   *commitCounter
	hazards   *hazardRegistry[T]
	snapshots *snapshotRegistry
	reclaim   *reclaimer[T]
}

// New constructs an empty List.
func New[T comparable](opts ...ListOption[T]) *List[T] {
	cfg := defaultListConfig[T]()
	for _, opt := range opts {
		opt(cfg)
	}
	hazards := newHazardRegistry[T](cfg.capacity)
	snapshots := newSnapshotRegistry(cfg.capacity)
	return &List[T]{
		logger:    cfg.logger,
		counter:   newCommitCounter(),
		hazards:   hazards,
		snapshots: snapshots,
		reclaim:   newReclaimer[T](hazards, snapshots, cfg.freeFn),
	}
}

// snapshotNow returns the commit id representing "everything committed so
// far", i.e. the view an operation starting right now should see.
func (l *List[T]) snapshotNow() uint64 {
	return l.counter.peek()
}

// InsertHead prepends elm, visible to any snapshot taken from this point
// on.
func (l *List[T]) InsertHead(elm T) {
	c := l.counter.mint()
	n := newNode(elm, c)
	for {
		old := l.head.next.Load()
		n.next.Store(old)
		if l.head.next.CompareAndSwap(old, n) {
			return
		}
	}
}

// InsertTail appends elm after walking to the end of the chain under
// hazard-pointer protection.
func (l *List[T]) InsertTail(elm T) {
	c := l.counter.mint()
	n := newNode(elm, c)
	lease := l.hazards.acquire()
	defer lease.release()
	for {
		prev := &l.head.next
		cur := prev.Load()
		if cur == nil {
			if l.head.next.CompareAndSwap(nil, n) {
				return
			}
			continue
		}
		for {
			lease.protect(0, cur)
			if prev.Load() != cur {
				break // prev moved under us, restart outer loop
			}
			next := cur.next.Load()
			if next == nil {
				if cur.next.CompareAndSwap(nil, n) {
					return
				}
				break // lost the race at the tail, restart
			}
			prev = &cur.next
			cur = next
		}
	}
}

// InsertAfter inserts elm immediately after the first node currently
// visible and equal to anchor, identified by == on T. Reports false,
// without modifying the list, if anchor is not found visible right now.
//
// The commit id minted for this insert also serves as the snapshot used to
// decide anchor visibility — a node committed concurrently with this call
// may or may not be seen as the anchor, which is the same race the
// original C implementation has (see DESIGN.md). Callers who need a
// stable anchor lookup should use a transaction instead.
func (l *List[T]) InsertAfter(anchor, elm T) bool {
	c := l.counter.mint()
	snapshot := c
	lease := l.hazards.acquire()
	defer lease.release()
	for {
		prev := &l.head.next
		cur := prev.Load()
		for cur != nil {
			lease.protect(0, cur)
			if prev.Load() != cur {
				cur = prev.Load()
				continue
			}
			if cur.elm == anchor && cur.visibleAt(snapshot) {
				n := newNode(elm, c)
				for {
					next := cur.next.Load()
					n.next.Store(next)
					if cur.next.CompareAndSwap(next, n) {
						return true
					}
				}
			}
			prev = &cur.next
			cur = prev.Load()
		}
		return false
	}
}

// RemoveHead unlinks and returns the frontmost not-yet-removed element,
// regardless of its visibility to any particular snapshot — mirroring the
// original design's "remove whatever is at the front right now" semantics.
// The free callback is never invoked for elements removed this way.
//
// A node stamped removed by some other call may still be sitting physically
// at the front, left in place because an open transaction's snapshot still
// needs it — only the watermark-gated sweep, never RemoveHead itself, may
// unlink it. RemoveHead scans past any such run to find the node it is
// actually allowed to remove.
//
// Unlike the C reference, which frees the head wrapper immediately without
// any hazard check, RemoveHead here always goes through the same
// hazard/retire path as every other removal: a concurrent reader that
// still holds a hazard pointer into the removed node is never handed a
// freed node.
func (l *List[T]) RemoveHead() (T, bool) {
	lease := l.hazards.acquire()
	defer lease.release()
	for {
		prev := &l.head.next
		cur := prev.Load()
		for cur != nil && cur.removedTxn.Load() != 0 {
			prev = &cur.next
			cur = cur.next.Load()
		}
		if cur == nil {
			var zero T
			return zero, false
		}
		lease.protect(0, cur)
		if prev.Load() != cur {
			continue
		}
		c := l.counter.mint()
		if !cur.removedTxn.CompareAndSwap(0, c) {
			// someone else removed this node between the scan and the CAS;
			// retry the whole scan rather than reporting a removal that did
			// not happen.
			continue
		}
		elm := cur.elm
		l.reclaim.sweep(&l.head.next)
		return elm, true
	}
}

// Remove stamps the first node currently visible and equal to elm with a
// fresh commit id, so any transaction whose snapshot predates this call
// still sees it. Physical unlinking is left to the watermark-gated sweep:
// an open transaction may still need to walk past this node, so Remove
// never detaches it itself. The free callback fires exactly once, once the
// node is actually swept and safe to free — immediately if uncontended, or
// later via drainRetired if a concurrent reader still holds it hazardous.
func (l *List[T]) Remove(elm T) bool {
	snapshot := l.snapshotNow()
	cur := l.head.next.Load()
	for cur != nil {
		if cur.elm == elm && cur.visibleAt(snapshot) {
			c := l.counter.mint()
			if !cur.removedTxn.CompareAndSwap(0, c) {
				return false
			}
			cur.notifyOnFree.Store(true)
			l.reclaim.sweep(&l.head.next)
			return true
		}
		cur = cur.next.Load()
	}
	return false
}

// Contains reports whether elm is visible right now. The traversal is
// unprotected by hazard pointers, matching the original design: it walks
// every node still physically linked, visible or not, and its snapshot is
// not registered in the active-snapshot table, so a node removed
// concurrently may be unlinked before the walk reaches it.
func (l *List[T]) Contains(elm T) bool {
	snapshot := l.snapshotNow()
	for cur := l.head.next.Load(); cur != nil; cur = cur.next.Load() {
		if cur.elm == elm && cur.visibleAt(snapshot) {
			return true
		}
	}
	return false
}

// Size returns the count of elements visible right now.
func (l *List[T]) Size() int {
	snapshot := l.snapshotNow()
	n := 0
	for cur := l.head.next.Load(); cur != nil; cur = cur.next.Load() {
		if cur.visibleAt(snapshot) {
			n++
		}
	}
	return n
}

// IsEmpty reports whether Size would return zero, short-circuiting on the
// first visible node instead of walking the whole chain.
func (l *List[T]) IsEmpty() bool {
	snapshot := l.snapshotNow()
	for cur := l.head.next.Load(); cur != nil; cur = cur.next.Load() {
		if cur.visibleAt(snapshot) {
			return false
		}
	}
	return true
}
