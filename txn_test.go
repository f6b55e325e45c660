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

import "testing"

func collectTxn[T comparable](tx *Txn[T]) []T {
	var out []T
	tx.ForEach(func(v T) { out = append(out, v) })
	return out
}

func TestTxnViewDiffersFromListBeforeCommit(t *testing.T) {
	l := New[int]()
	l.InsertTail(1)
	tx := l.Begin()
	tx.InsertTail(2)
	tx.Remove(1)

	assertOrder(t, l, []int{1})
	if got := collectTxn(tx); len(got) != 1 || got[0] != 2 {
		t.Fatalf("txn preview = %v, want [2]", got)
	}
	if l.Contains(2) {
		t.Fatal("list should not see the txn's buffered insert before commit")
	}
	if !tx.Contains(2) {
		t.Fatal("txn should see its own buffered insert")
	}
	if tx.Contains(1) {
		t.Fatal("txn should not see an element it buffered a removal for")
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	assertOrder(t, l, []int{2})
}

func TestTxnInsertAfterSameAnchorFormsContiguousRun(t *testing.T) {
	l := New[int]()
	l.InsertTail(1)
	l.InsertTail(4)
	tx := l.Begin()
	tx.InsertAfter(1, 2)
	tx.InsertAfter(1, 3)

	if got := collectTxn(tx); len(got) != 4 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("txn preview = %v, want [1 2 3 4]", got)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	assertOrder(t, l, []int{1, 2, 3, 4})
}

func TestTxnRemoveCancelsOwnBufferedInsert(t *testing.T) {
	l := New[int]()
	tx := l.Begin()
	tx.InsertTail(5)
	tx.Remove(5)
	if got := collectTxn(tx); len(got) != 0 {
		t.Fatalf("txn preview = %v, want empty", got)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if !l.IsEmpty() {
		t.Fatal("expected the cancelled insert to never reach the list")
	}
}

func TestTxnRollbackLeavesListUntouched(t *testing.T) {
	var freed []int
	l := New[int](WithFreeFunc(func(v int) { freed = append(freed, v) }))
	l.InsertTail(1)
	l.InsertTail(2)

	tx := l.Begin()
	tx.InsertTail(3)
	tx.Remove(1)
	tx.Rollback()

	assertOrder(t, l, []int{1, 2})
	if len(freed) != 0 {
		t.Fatalf("rollback must never invoke the free callback, got %v", freed)
	}
}

func TestTxnBufferedHeadInsertsPreserveCallOrder(t *testing.T) {
	l := New[int]()
	l.InsertTail(3)
	tx := l.Begin()
	tx.InsertHead(1)
	tx.InsertHead(2)

	if got := collectTxn(tx); len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("txn preview = %v, want [1 2 3]", got)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	assertOrder(t, l, []int{1, 2, 3})
}

func TestTxnCommitIsIdempotent(t *testing.T) {
	l := New[int]()
	tx := l.Begin()
	tx.InsertTail(1)
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("second Commit() error = %v", err)
	}
	assertOrder(t, l, []int{1})
}
