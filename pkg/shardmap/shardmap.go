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

// Package shardmap partitions keys over several chainmap tables, each
// guarded by its own lock, so that goroutines touching different shards do
// not contend.
package shardmap

import (
	"sync"

	"github.com/matrixorigin/chainmap/pkg/chainmap"
)

type shard[K comparable, V any] struct {
	sync.RWMutex
	table *chainmap.Table[K, V]
}

type Map[K comparable, V any] struct {
	shards  []shard[K, V]
	metrics *Metrics
}

type Option func(*options)

type options struct {
	metrics *Metrics
}

// WithMetrics counts every operation in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// New creates a map of count shards, each a table with capacity buckets
// built from tableOpts.
func New[K comparable, V any](count, capacity int, tableOpts chainmap.Options[K], opts ...Option) *Map[K, V] {
	if count < 1 {
		count = 1
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	// every shard must hash a key the same way
	if tableOpts.Hasher == nil {
		tableOpts.Hasher = chainmap.DefaultHasher[K]()
	}
	m := &Map[K, V]{
		shards:  make([]shard[K, V], count),
		metrics: o.metrics,
	}
	for i := range m.shards {
		m.shards[i].table = chainmap.NewWithOptions[K, V](capacity, tableOpts)
	}
	return m
}

// fibonacci multiplies the low hash bits into the upper half, so the shard
// choice does not follow the bucket choice even for 32 bit hashers.
const fibonacci = 0x9e3779b97f4a7c15

// shardOf hashes key once; the hash picks the shard and is handed to the
// shard's table.
func (m *Map[K, V]) shardOf(key K) (*shard[K, V], uint64) {
	h := m.shards[0].table.Hash(key)
	return &m.shards[((h*fibonacci)>>32)%uint64(len(m.shards))], h
}

func (m *Map[K, V]) Insert(key K, value V) {
	s, h := m.shardOf(key)
	s.Lock()
	s.table.InsertHashed(h, key, value)
	s.Unlock()
	m.metrics.inc(OpInsert, ResultOK)
}

func (m *Map[K, V]) InsertIfAbsent(key K, value V) bool {
	s, h := m.shardOf(key)
	s.Lock()
	stored := s.table.InsertIfAbsentHashed(h, key, value)
	s.Unlock()
	m.metrics.inc(OpInsertIfAbsent, hitOrMiss(!stored))
	return stored
}

// Lookup returns a copy of the value stored for key.
func (m *Map[K, V]) Lookup(key K) (V, bool) {
	s, h := m.shardOf(key)
	s.RLock()
	e, ok := s.table.LookupHashed(h, key)
	var v V
	if ok {
		v = e.Value()
	}
	s.RUnlock()
	m.metrics.inc(OpLookup, hitOrMiss(ok))
	return v, ok
}

func (m *Map[K, V]) Remove(key K) (V, bool) {
	s, h := m.shardOf(key)
	s.Lock()
	e, ok := s.table.RemoveHashed(h, key)
	s.Unlock()
	m.metrics.inc(OpRemove, hitOrMiss(ok))
	if !ok {
		var v V
		return v, false
	}
	return e.Value(), true
}

// Len returns the number of live entries over all shards. It is not a
// snapshot: shards are counted one after another.
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.RLock()
		n += s.table.Len()
		s.RUnlock()
	}
	return n
}

// Size sums the size counters of all shards.
func (m *Map[K, V]) Size() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.RLock()
		n += s.table.Size()
		s.RUnlock()
	}
	return n
}

// Range calls fn for every entry, one shard at a time under its read lock.
// fn must not call back into m.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for i := range m.shards {
		s := &m.shards[i]
		stop := false
		s.RLock()
		s.table.Range(func(e *chainmap.Entry[K, V]) bool {
			stop = !fn(e.Key(), e.Value())
			return !stop
		})
		s.RUnlock()
		if stop {
			return
		}
	}
}

// Shards returns the number of shards.
func (m *Map[K, V]) Shards() int {
	return len(m.shards)
}

// Stats returns the table stats of shard i.
func (m *Map[K, V]) Stats(i int) chainmap.Stats {
	s := &m.shards[i]
	s.RLock()
	defer s.RUnlock()
	return s.table.Stats()
}
