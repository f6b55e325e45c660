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

// visible reports whether a node inserted at insertTxn and removed (or not)
// at removedTxn is part of the sequence as observed from snapshot.
//
// A node is visible at a snapshot if it was already inserted by that
// snapshot and either never removed, or removed strictly after it.
func visible(insertTxn, removedTxn, snapshot uint64) bool {
	if insertTxn > snapshot {
		return false
	}
	return removedTxn == 0 || removedTxn > snapshot
}

func (n *node[T]) visibleAt(snapshot uint64) bool {
	return visible(n.insertTxn, n.removedTxn.Load(), snapshot)
}
