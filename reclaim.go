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

import "sync/atomic"

// retiredStack is a lock-free Treiber stack of nodes that are logically
// removed, physically unlinked, but still hazardous at the moment they were
// unlinked. It replaces the C reference's per-thread retired list: Go
// goroutines are not the stable, bounded-cardinality identities pthreads
// are, so a thread-local list either leaks across short-lived goroutines or
// requires the same kind of leased-slot bookkeeping the hazard table
// already does. A single shared stack, reusing node.next as the link field
// once a node is unlinked from the live chain, avoids both problems at the
// cost of being shared rather than sharded — acceptable here because
// retirement is already the cold path.
type retiredStack[T any] struct {
	top atomic.Pointer[node[T]]
}

func (s *retiredStack[T]) push(n *node[T]) {
	for {
		old := s.top.Load()
		n.next.Store(old)
		if s.top.CompareAndSwap(old, n) {
			return
		}
	}
}

// drain atomically takes the whole stack, returning its former head. The
// caller walks the returned chain with node.next.
func (s *retiredStack[T]) drain() *node[T] {
	return s.top.Swap(nil)
}

// reclaimer owns the hazard table, the snapshot table and the retired list
// for one List, and performs the two-stage safe-memory-reclamation dance:
// a node is freed only once it is both older than every in-flight
// snapshot and unobserved by any currently leased hazard pointer.
type reclaimer[T any] struct {
	hazards   *hazardRegistry[T]
	snapshots *snapshotRegistry
	retired   retiredStack[T]
	freeFn    func(T)
}

func newReclaimer[T any](hazards *hazardRegistry[T], snapshots *snapshotRegistry, freeFn func(T)) *reclaimer[T] {
	return &reclaimer[T]{hazards: hazards, snapshots: snapshots, freeFn: freeFn}
}

// retireOrFree is called immediately after a node has been CAS-unlinked
// from the live chain. If no currently leased hazard pointer references it,
// it is freed on the spot; otherwise it is pushed to the retired stack for
// a later drainRetired to pick up once the hazard clears.
//
// Whether freeFn fires is decided by the node itself (node.notifyOnFree),
// set by whichever operation performed the logical removal — not by
// whichever call happens to physically sweep the node off the chain later.
func (r *reclaimer[T]) retireOrFree(n *node[T]) {
	if r.hazards.anyHazardEquals(n) {
		r.retired.push(n)
		return
	}
	r.free(n)
}

func (r *reclaimer[T]) free(n *node[T]) {
	if n.notifyOnFree.Load() && r.freeFn != nil {
		r.freeFn(n.elm)
	}
	// no-op beyond dropping the last reference; Go's GC reclaims the
	// backing memory once nothing (including the retired stack) still
	// points at n.
}

// drainRetired re-checks every node currently on the retired stack against
// the live hazard table. Nodes still hazardous are pushed back; the rest
// are freed. Called at the end of every Commit, after its sweep, mirroring
// the C reference calling reclaim() inline rather than from a background
// sweeper. Remove and RemoveHead do not call it.
func (r *reclaimer[T]) drainRetired() {
	head := r.retired.drain()
	var stillHazardous []*node[T]
	for n := head; n != nil; {
		next := n.next.Load()
		if r.hazards.anyHazardEquals(n) {
			stillHazardous = append(stillHazardous, n)
		} else {
			r.free(n)
		}
		n = next
	}
	for _, n := range stillHazardous {
		r.retired.push(n)
	}
}

// eligibleForUnlink reports whether a logically removed node is old enough
// that no in-flight transaction snapshot could still need to see it: its
// removal commit id must be at or before the oldest snapshot any
// transaction currently holds open.
func (r *reclaimer[T]) eligibleForUnlink(n *node[T]) bool {
	removed := n.removedTxn.Load()
	if removed == 0 {
		return false
	}
	return removed <= r.snapshots.minActive()
}

// sweep is the first reclamation stage: it walks the chain starting at
// head and physically unlinks every logically removed node that is
// eligibleForUnlink, handing each one to retireOrFree for the second,
// hazard-gated stage. A node whose removal is not yet old enough to clear
// every open transaction's snapshot is left physically in place — still
// reachable, and still reported visible by visible() to any transaction
// whose snapshot predates its removal — exactly what lets such a
// transaction keep walking past it.
//
// Only the reclaimer ever detaches a node from the chain; every mutating
// operation calls sweep after stamping removedTxn rather than unlinking
// inline itself.
func (r *reclaimer[T]) sweep(head *atomic.Pointer[node[T]]) {
	prev := head
	cur := prev.Load()
	for cur != nil {
		if r.eligibleForUnlink(cur) {
			next := cur.next.Load()
			if prev.CompareAndSwap(cur, next) {
				r.retireOrFree(cur)
				cur = next
				continue
			}
			// prev changed under us; re-read it and keep going from there
			// rather than restarting the whole walk.
			cur = prev.Load()
			continue
		}
		prev = &cur.next
		cur = cur.next.Load()
	}
}
