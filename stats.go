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
	"fmt"

	units "github.com/docker/go-units"
)

// nodeOverhead is a rough per-node byte estimate: element slot plus the two
// commit-id words plus the forward pointer, rounded up for allocator
// bookkeeping. It is a diagnostic estimate, not an exact accounting.
const nodeOverhead = 64

// Stats summarizes the structural state of a List for diagnostics and
// tests. It is a point-in-time snapshot, not itself a consistent view of
// the list.
type Stats struct {
	Live               int
	Retired            int
	HazardSlotsInUse   int
	SnapshotSlotsInUse int
	FootprintBytes     uint64
}

// Stats walks the physical chain once, counting every node still linked in
// (visible or logically removed but not yet unlinked) plus whatever sits
// on the retired stack awaiting a hazard-clear.
func (l *List[T]) Stats() Stats {
	live := 0
	for cur := l.head.next.Load(); cur != nil; cur = cur.next.Load() {
		live++
	}
	retired := 0
	for cur := l.reclaim.retired.top.Load(); cur != nil; cur = cur.next.Load() {
		retired++
	}
	return Stats{
		Live:               live,
		Retired:            retired,
		HazardSlotsInUse:   l.hazards.occupancy(),
		SnapshotSlotsInUse: l.snapshots.occupancy(),
		FootprintBytes:     uint64(live+retired) * nodeOverhead,
	}
}

// String renders the footprint estimate in human-readable units.
func (s Stats) String() string {
	return fmt.Sprintf("live=%d retired=%d hazards=%d snapshots=%d footprint=%s",
		s.Live, s.Retired, s.HazardSlotsInUse, s.SnapshotSlotsInUse,
		units.HumanSize(float64(s.FootprintBytes)))
}
