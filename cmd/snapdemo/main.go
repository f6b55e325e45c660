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

// Command snapdemo is a small, throwaway driver that exercises snaplist
// under concurrent load and prints a final footprint report on exit. It is
// not part of the library's public surface.
package main

import (
	"encoding/binary"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dc0d/onexit"
	"github.com/google/uuid"
	"github.com/jtolds/gls"

	"github.com/vectorraft/snaplist"
)

type demoItem struct {
	ID   uint64
	Name string
}

var idMgr = gls.NewContextManager()

// nextID folds a fresh, non-cryptographic UUID-shaped value into a uint64:
// a counter dressed up as a UUID, not crypto/rand.
func nextID(counter *atomic.Uint64) uint64 {
	n := counter.Add(1)
	seed := make([]byte, 8)
	binary.BigEndian.PutUint64(seed, n)
	id := uuid.NewSHA1(uuid.NameSpaceOID, seed)
	return binary.BigEndian.Uint64(id[:8])
}

func main() {
	logger := slog.Default()
	list := snaplist.New[demoItem](
		snaplist.WithLogger[demoItem](logger),
		snaplist.WithFreeFunc(func(it demoItem) {
			logger.Debug("reclaimed", "id", it.ID, "name", it.Name)
		}),
	)

	onexit.Register(func() {
		logger.Info("snapdemo shutting down", "stats", list.Stats().String())
	})

	var wg sync.WaitGroup
	var counter atomic.Uint64
	for w := 0; w < 4; w++ {
		wg.Add(1)
		workerID := w
		gls.Go(func() {
			defer wg.Done()
			idMgr.SetValues(gls.Values{"worker": workerID}, func() {
				for i := 0; i < 500; i++ {
					item := demoItem{ID: nextID(&counter), Name: "worker"}
					list.InsertTail(item)
					if i%7 == 0 {
						list.RemoveHead()
					}
				}
			})
		})
	}
	wg.Wait()

	tx := list.Begin()
	tx.InsertHead(demoItem{ID: nextID(&counter), Name: "pending"})
	count := 0
	tx.ForEach(func(demoItem) { count++ })
	logger.Info("transaction preview before commit", "visible", count)
	if err := tx.Commit(); err != nil {
		logger.Error("commit failed", "err", err)
	}

	logger.Info("final", "stats", list.Stats().String())
}
