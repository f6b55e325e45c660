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
	"math"
	"sync/atomic"

	"github.com/launix-de/NonLockingReadMap"
)

// snapshotRegistry tracks the set of snapshots currently held open by live
// transactions. The reclaimer consults minActive to decide whether a
// removed-but-unlinked node could still be visible to some in-flight
// transaction.
//
// Structured exactly like hazardRegistry: exclusive claim arbitrated by
// atomic.Bool, a NonBlockingBitMap kept alongside purely for occupancy
// diagnostics surfaced through List.Stats.
type snapshotRegistry struct {
	capacity int
	claimed  []atomic.Bool
	values   []atomic.Uint64
	active   NonLockingReadMap.NonBlockingBitMap
}

func newSnapshotRegistry(capacity int) *snapshotRegistry {
	return &snapshotRegistry{
		capacity: capacity,
		claimed:  make([]atomic.Bool, capacity),
		values:   make([]atomic.Uint64, capacity),
		active:   NonLockingReadMap.NewBitMap(),
	}
}

// snapshotLease is one transaction's registered, in-flight snapshot.
type snapshotLease struct {
	reg   *snapshotRegistry
	index int
}

// register publishes snapshot s as in-flight. If the table is full, index
// is -1 and the lease is a harmless no-op release; the transaction still
// runs correctly, it just cannot hold back reclamation past its own
// snapshot.
func (r *snapshotRegistry) register(s uint64) *snapshotLease {
	for i := 0; i < r.capacity; i++ {
		if r.claimed[i].CompareAndSwap(false, true) {
			r.values[i].Store(s)
			r.active.Set(uint32(i), true)
			return &snapshotLease{reg: r, index: i}
		}
	}
	return &snapshotLease{reg: r, index: -1}
}

func (l *snapshotLease) unregister() {
	if l.index < 0 {
		return
	}
	l.reg.values[l.index].Store(0)
	l.reg.active.Set(uint32(l.index), false)
	l.reg.claimed[l.index].Store(false)
}

// minActive returns the smallest currently registered snapshot, or
// math.MaxUint64 if no transaction is in flight — meaning nothing holds
// back reclamation of any removed node.
func (r *snapshotRegistry) minActive() uint64 {
	min := uint64(math.MaxUint64)
	for i := range r.claimed {
		if r.claimed[i].Load() {
			if v := r.values[i].Load(); v < min {
				min = v
			}
		}
	}
	return min
}

func (r *snapshotRegistry) occupancy() int {
	return int(r.active.Count())
}
