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

import (
	"sync/atomic"

	"github.com/launix-de/NonLockingReadMap"
)

// hazardSlotsPerCall mirrors the C reference's HP_SLOTS_PER_THREAD: a
// traversal never needs to protect more than the current and next node at
// once.
const hazardSlotsPerCall = 2

// hazardRegistry is a bounded table of hazard-pointer slots. Unlike the C
// original, which hands every OS thread one permanent slot for the life of
// the process (and never reclaims it once that thread exits), slots here
// are leased for the duration of a single call and released immediately
// after. A claimed-bitmap (NonBlockingBitMap) tracks slot exclusivity.
//
// The bitmap alone cannot answer "did I just win this slot" — its Set only
// CASes the underlying word, it does not report the prior value — so
// exclusivity is arbitrated by a parallel []atomic.Bool, one per slot,
// claimed with CompareAndSwap(false, true). The bitmap is kept anyway as a
// live diagnostic mirror (Stats, occupancy) read through Count,
// not as the safety mechanism.
type hazardRegistry[T any] struct {
	capacity int
	claimed  []atomic.Bool
	slots    []atomic.Pointer[node[T]]
	active   NonLockingReadMap.NonBlockingBitMap
}

func newHazardRegistry[T any](capacity int) *hazardRegistry[T] {
	return &hazardRegistry[T]{
		capacity: capacity,
		claimed:  make([]atomic.Bool, capacity),
		slots:    make([]atomic.Pointer[node[T]], capacity),
		active:   NonLockingReadMap.NewBitMap(),
	}
}

// hazardLease is a leased pair of hazard slots held by one call.
type hazardLease[T any] struct {
	reg     *hazardRegistry[T]
	indices [hazardSlotsPerCall]int
	ok      bool
}

// acquire claims up to hazardSlotsPerCall free slots. If the table is
// momentarily full, ok is false and the caller falls back to the
// watermark-only reclamation guard — correctness is preserved, only the
// extra traversal-time protection is skipped.
func (r *hazardRegistry[T]) acquire() *hazardLease[T] {
	lease := &hazardLease[T]{reg: r}
	claimedCount := 0
	for i := 0; i < r.capacity && claimedCount < hazardSlotsPerCall; i++ {
		if r.claimed[i].CompareAndSwap(false, true) {
			lease.indices[claimedCount] = i
			claimedCount++
			r.active.Set(uint32(i), true)
		}
	}
	for claimedCount < hazardSlotsPerCall {
		lease.indices[claimedCount] = -1
		claimedCount++
	}
	lease.ok = lease.indices[0] != -1
	return lease
}

// protect publishes n as hazardous in lease slot `slot` (0 or 1). A no-op if
// the lease failed to claim that slot.
func (l *hazardLease[T]) protect(slot int, n *node[T]) {
	idx := l.indices[slot]
	if idx < 0 {
		return
	}
	l.reg.slots[idx].Store(n)
}

// release clears every slot this lease claimed, returning them to the free
// pool.
func (l *hazardLease[T]) release() {
	for _, idx := range l.indices {
		if idx < 0 {
			continue
		}
		l.reg.slots[idx].Store(nil)
		l.reg.active.Set(uint32(idx), false)
		l.reg.claimed[idx].Store(false)
	}
}

// anyHazardEquals reports whether any currently published hazard pointer,
// across every leased slot in the table, equals n. The reclaimer calls this
// after unlinking n to decide whether it is safe to free immediately or
// must wait on the retired list.
func (r *hazardRegistry[T]) anyHazardEquals(n *node[T]) bool {
	for i := range r.slots {
		if r.slots[i].Load() == n {
			return true
		}
	}
	return false
}

func (r *hazardRegistry[T]) occupancy() int {
	return int(r.active.Count())
}
