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
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jtolds/gls"
)

var glsMgr = gls.NewContextManager()

const glsWorkerIDKey = "snaplist-worker-id"

// runWorker launches fn in its own goroutine via gls.Go, tagging it with
// workerID so callees deep in fn can recover the id with glsMgr.GetValue
// without it being threaded through every call as a parameter.
func runWorker(wg *sync.WaitGroup, workerID int, fn func(id int)) {
	wg.Add(1)
	gls.Go(func() {
		defer wg.Done()
		glsMgr.SetValues(gls.Values{glsWorkerIDKey: workerID}, func() {
			id, _ := glsMgr.GetValue(glsWorkerIDKey)
			fn(id.(int))
		})
	})
}

// TestConcurrentMixedWorkload drives many goroutines doing interleaved
// head/tail inserts and head removals against one list, the same mixed
// workload shape as the original test harness's multi-thread stress run.
// Correctness here is whatever go test -race reports plus two checks: the
// final Size equals inserts minus successful head removals, and the free
// callback is never invoked, since every removal here goes through
// RemoveHead.
func TestConcurrentMixedWorkload(t *testing.T) {
	const workers = 16
	const opsPerWorker = 200

	var freedCount atomic.Int64
	l := New[int](WithFreeFunc(func(int) { freedCount.Add(1) }))

	var wg sync.WaitGroup
	var inserted atomic.Int64
	var removed atomic.Int64

	for w := 0; w < workers; w++ {
		runWorker(&wg, w, func(id int) {
			for i := 0; i < opsPerWorker; i++ {
				v := id*opsPerWorker + i
				if i%2 == 0 {
					l.InsertHead(v)
				} else {
					l.InsertTail(v)
				}
				inserted.Add(1)
				if i%3 == 0 {
					if _, ok := l.RemoveHead(); ok {
						removed.Add(1)
					}
				}
			}
		})
	}
	wg.Wait()

	remaining := l.Size()
	if int64(remaining) != inserted.Load()-removed.Load() {
		t.Fatalf("Size() = %d, want %d (inserted %d - removed %d)",
			remaining, inserted.Load()-removed.Load(), inserted.Load(), removed.Load())
	}
	if freedCount.Load() != 0 {
		t.Fatalf("RemoveHead must never invoke the free callback, got %d calls", freedCount.Load())
	}
}

// TestConcurrentTransactionsSeeStableSnapshots starts a long-lived
// transaction, then hammers the list with concurrent mutation from other
// goroutines; the transaction's own read surface must not change under it.
func TestConcurrentTransactionsSeeStableSnapshots(t *testing.T) {
	l := New[int]()
	for i := 0; i < 50; i++ {
		l.InsertTail(i)
	}

	tx := l.Begin()
	before := collectTxn(tx)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		runWorker(&wg, w, func(id int) {
			for i := 0; i < 100; i++ {
				l.InsertTail(1000 + id*100 + i)
				l.Remove(id)
			}
		})
	}
	wg.Wait()

	after := collectTxn(tx)
	if len(before) != len(after) {
		t.Fatalf("txn view changed under concurrent mutation: before=%d after=%d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("txn view changed at index %d: before=%d after=%d", i, before[i], after[i])
		}
	}
	tx.Rollback()
}
