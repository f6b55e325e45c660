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

// Iterator walks the elements visible to a single fixed snapshot, taken at
// the moment the Iterator was created. Elements inserted after that moment
// are never returned. The snapshot is not registered in the list's
// active-snapshot table, so it does not hold back reclamation: an element
// removed after the Iterator was created may be unlinked by a sweep before
// the Iterator reaches it, and is then not returned.
//
// The zero value is not usable; obtain one through List.Iterator.
type Iterator[T comparable] struct {
	snapshot uint64
	cur      *node[T]
	val      T
}

func newIterator[T comparable](head *node[T], snapshot uint64) *Iterator[T] {
	return &Iterator[T]{snapshot: snapshot, cur: head}
}

// Next advances to the next element visible to the iterator's snapshot,
// reporting whether one was found. Call Value after a true return.
func (it *Iterator[T]) Next() bool {
	for it.cur != nil {
		n := it.cur
		it.cur = n.next.Load()
		if n.visibleAt(it.snapshot) {
			it.val = n.elm
			return true
		}
	}
	return false
}

// Value returns the element at the iterator's current position. Only
// valid after a call to Next that returned true.
func (it *Iterator[T]) Value() T {
	return it.val
}

// Iterator returns an Iterator fixed to the current state of the list.
func (l *List[T]) Iterator() *Iterator[T] {
	return newIterator[T](l.head.next.Load(), l.snapshotNow())
}
