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

// commitCounter mints the monotonic commit ids that stamp both inserts and
// removes. Zero is reserved to mean "never removed", so the counter starts
// at 1 and every mint returns a strictly increasing, never-reused value.
type commitCounter struct {
	next atomic.Uint64
}

func newCommitCounter() *commitCounter {
	c := &commitCounter{}
	c.next.Store(1)
	return c
}

func (c *commitCounter) mint() uint64 {
	return c.next.Add(1) - 1
}

// peek returns the most recently minted id (0 before the first mint),
// without consuming anything. Used to take a transaction's starting
// snapshot.
func (c *commitCounter) peek() uint64 {
	return c.next.Load() - 1
}
