// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shardmap

import (
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lni/goutils/leaktest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/chainmap/pkg/chainmap"
)

func TestMapOperations(t *testing.T) {
	m := New[string, int](4, 8, chainmap.Options[string]{})
	require.Equal(t, 4, m.Shards())

	for i := 0; i < 100; i++ {
		m.Insert("k"+strconv.Itoa(i), i)
	}
	require.Equal(t, 100, m.Len())
	require.Equal(t, 100, m.Size())

	v, ok := m.Lookup("k42")
	require.True(t, ok)
	require.Equal(t, 42, v)

	require.False(t, m.InsertIfAbsent("k42", 0))
	require.True(t, m.InsertIfAbsent("new", 7))

	v, ok = m.Remove("k42")
	require.True(t, ok)
	require.Equal(t, 42, v)
	_, ok = m.Lookup("k42")
	require.False(t, ok)
	_, ok = m.Remove("k42")
	require.False(t, ok)
	require.Equal(t, 100, m.Len())

	seen := 0
	m.Range(func(key string, value int) bool {
		seen++
		return true
	})
	require.Equal(t, 100, seen)

	seen = 0
	m.Range(func(string, int) bool {
		seen++
		return false
	})
	require.Equal(t, 1, seen)

	entries := 0
	for i := 0; i < m.Shards(); i++ {
		entries += m.Stats(i).Entries
	}
	require.Equal(t, 100, entries)
}

func TestMapSizePolicy(t *testing.T) {
	m := New[string, int](2, 4, chainmap.Options[string]{SizePolicy: chainmap.SizeCountsCalls})
	m.Insert("a", 1)
	m.Insert("a", 2)
	m.Insert("a", 3)
	require.Equal(t, 3, m.Size())
	require.Equal(t, 1, m.Len())
}

func TestMapConcurrent(t *testing.T) {
	defer leaktest.AfterTest(t)()

	m := New[int, int](8, 16, chainmap.Options[int]{LoadFactor: 1})
	const workers, perWorker = 8, 1000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				k := w*perWorker + i
				m.Insert(k, k)
				v, ok := m.Lookup(k)
				if !ok || v != k {
					t.Errorf("lookup %d: got %d, %v", k, v, ok)
					return
				}
				if i%2 == 0 {
					m.Remove(k)
				}
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, workers*perWorker/2, m.Len())
	for k := 0; k < workers*perWorker; k++ {
		_, ok := m.Lookup(k)
		require.Equal(t, k%perWorker%2 == 1, ok, "key %d", k)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	m := New[string, int](2, 4, chainmap.Options[string]{}, WithMetrics(metrics))

	m.Insert("a", 1)
	m.Insert("a", 2)
	m.InsertIfAbsent("a", 3)
	m.InsertIfAbsent("b", 3)
	m.Lookup("a")
	m.Lookup("c")
	m.Remove("b")
	m.Remove("b")

	require.Equal(t, 2.0, testutil.ToFloat64(metrics.Count(OpInsert, ResultOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Count(OpInsertIfAbsent, ResultHit)))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Count(OpInsertIfAbsent, ResultMiss)))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Count(OpLookup, ResultHit)))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Count(OpLookup, ResultMiss)))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Count(OpRemove, ResultHit)))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.Count(OpRemove, ResultMiss)))

	require.Equal(t, 7, testutil.CollectAndCount(metrics.ops))
	require.Error(t, reg.Register(NewMetrics(nil).ops))
}

func TestNoMetrics(t *testing.T) {
	m := New[string, int](0, 0, chainmap.Options[string]{})
	require.Equal(t, 1, m.Shards())
	m.Insert("a", 1)
	v, ok := m.Lookup("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestMapHashesOncePerOperation(t *testing.T) {
	var calls int64
	hasher := chainmap.HasherFunc[string](func(k string) uint64 {
		atomic.AddInt64(&calls, 1)
		return chainmap.StringHash(k)
	})
	m := New[string, int](4, 4, chainmap.Options[string]{Hasher: hasher})

	m.Insert("a", 1)
	m.InsertIfAbsent("b", 2)
	m.Lookup("a")
	m.Remove("b")
	require.Equal(t, int64(4), atomic.LoadInt64(&calls))
}

func TestMapSpreadsNarrowHashes(t *testing.T) {
	// a hasher whose output never exceeds 32 bits
	identity := chainmap.HasherFunc[int](func(k int) uint64 { return uint64(uint32(k)) })
	m := New[int, int](4, 16, chainmap.Options[int]{Hasher: identity})
	for k := 0; k < 64; k++ {
		m.Insert(k, k)
	}
	for i := 0; i < m.Shards(); i++ {
		require.NotZero(t, m.Stats(i).Entries, "shard %d", i)
	}
	for k := 0; k < 64; k++ {
		v, ok := m.Lookup(k)
		require.True(t, ok)
		require.Equal(t, k, v)
	}
}
