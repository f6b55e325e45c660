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

// node is the internal versioned wrapper every element is chained through.
// insertTxn is set once at construction and never changes. removedTxn
// transitions at most once, from 0 to a commit id strictly greater than
// insertTxn; it is never reset back to 0.
//
// Once the reclaimer physically unlinks a node, its next field is
// repurposed as a retired-list link (see retiredStack in reclaim.go) and the node is never
// traversed again by any list operation.
type node[T any] struct {
	elm        T
	insertTxn  uint64
	removedTxn atomic.Uint64
	// notifyOnFree records whether whoever performs the eventual physical
	// free should invoke the list's free callback. RemoveHead removes
	// without ever triggering the callback; every other removal path sets
	// this immediately after winning the removedTxn CAS, so the
	// notification travels with the node even if a later, unrelated
	// RemoveHead sweep is what ends up physically freeing it.
	notifyOnFree atomic.Bool
	next         atomic.Pointer[node[T]]
}

func newNode[T any](elm T, insertTxn uint64) *node[T] {
	return &node[T]{elm: elm, insertTxn: insertTxn}
}
