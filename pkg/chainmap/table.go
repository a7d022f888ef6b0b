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

// Package chainmap implements a hash table that resolves collisions by
// chaining entries in singly linked lists hanging off a bucket array.
//
// A Table is not safe for concurrent use. Wrap it in a lock, or use
// shardmap, when several goroutines share it.
package chainmap

import (
	"go.uber.org/zap"

	"github.com/matrixorigin/chainmap/pkg/logutil"
)

type Table[K comparable, V any] struct {
	buckets []*Entry[K, V]
	// count is the number of live entries.
	count int
	// size is the counter reported by Size, maintained per policy.
	size int

	policy     SizePolicy
	loadFactor float64
	hasher     Hasher[K]
	equal      EqualFunc[K]
	nilable    bool
	// capped is set once growth hit maxCapacity.
	capped bool
}

// New returns a table with a fixed number of buckets and default options.
func New[K comparable, V any](capacity int) *Table[K, V] {
	return NewWithOptions[K, V](capacity, Options[K]{})
}

func NewWithOptions[K comparable, V any](capacity int, opts Options[K]) *Table[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	opts.fillDefaults()
	return &Table[K, V]{
		buckets:    make([]*Entry[K, V], capacity),
		policy:     opts.SizePolicy,
		loadFactor: opts.LoadFactor,
		hasher:     opts.Hasher,
		equal:      opts.Equal,
		nilable:    nilable[K](),
	}
}

// Insert stores value under key. An existing entry for key is replaced by
// a new entry at the same position in its chain.
func (t *Table[K, V]) Insert(key K, value V) {
	t.InsertHashed(t.Hash(key), key, value)
}

// InsertHashed is Insert with h already computed by Hash. The same holds
// for the other Hashed variants: h must equal Hash(key), or the entry
// ends up in the wrong chain.
func (t *Table[K, V]) InsertHashed(h uint64, key K, value V) {
	if t.policy == SizeCountsCalls {
		t.size++
	}
	n := &Entry[K, V]{hash: h, key: key, value: value}
	link := t.bucket(h)
	for e := *link; e != nil; e = *link {
		if e.hash == h && t.equal(e.key, key) {
			n.next = e.next
			e.next = nil
			*link = n
			return
		}
		link = &e.next
	}
	*link = n
	t.added()
}

// InsertIfAbsent stores value only when key is not present yet and reports
// whether it did.
func (t *Table[K, V]) InsertIfAbsent(key K, value V) bool {
	return t.InsertIfAbsentHashed(t.Hash(key), key, value)
}

func (t *Table[K, V]) InsertIfAbsentHashed(h uint64, key K, value V) bool {
	link := t.bucket(h)
	for e := *link; e != nil; e = *link {
		if e.hash == h && t.equal(e.key, key) {
			return false
		}
		link = &e.next
	}
	*link = &Entry[K, V]{hash: h, key: key, value: value}
	t.added()
	return true
}

// Lookup returns the entry stored for key.
func (t *Table[K, V]) Lookup(key K) (*Entry[K, V], bool) {
	return t.LookupHashed(t.Hash(key), key)
}

func (t *Table[K, V]) LookupHashed(h uint64, key K) (*Entry[K, V], bool) {
	for e := *t.bucket(h); e != nil; e = e.next {
		if e.hash == h && t.equal(e.key, key) {
			return e, true
		}
	}
	return nil, false
}

// Remove unlinks the entry stored for key and returns it detached from the
// table.
func (t *Table[K, V]) Remove(key K) (*Entry[K, V], bool) {
	return t.RemoveHashed(t.Hash(key), key)
}

func (t *Table[K, V]) RemoveHashed(h uint64, key K) (*Entry[K, V], bool) {
	link := t.bucket(h)
	for e := *link; e != nil; e = *link {
		if e.hash == h && t.equal(e.key, key) {
			*link = e.next
			e.next = nil
			t.count--
			if t.policy == SizeCountsKeys {
				t.size--
			}
			return e, true
		}
		link = &e.next
	}
	return nil, false
}

// Size reports the counter selected by the table's SizePolicy.
func (t *Table[K, V]) Size() int {
	return t.size
}

// Len returns the number of live entries.
func (t *Table[K, V]) Len() int {
	return t.count
}

func (t *Table[K, V]) Capacity() int {
	return len(t.buckets)
}

func (t *Table[K, V]) LoadFactor() float64 {
	return float64(t.count) / float64(len(t.buckets))
}

func (t *Table[K, V]) SizePolicy() SizePolicy {
	return t.policy
}

// Range calls fn for every entry until fn returns false. The visiting
// order is unspecified. fn must not insert into or remove from t.
func (t *Table[K, V]) Range(fn func(e *Entry[K, V]) bool) {
	for _, head := range t.buckets {
		for e := head; e != nil; e = e.next {
			if !fn(e) {
				return
			}
		}
	}
}

// Clear drops every entry and resets both counters. Capacity is kept.
func (t *Table[K, V]) Clear() {
	for i := range t.buckets {
		t.buckets[i] = nil
	}
	t.count = 0
	t.size = 0
}

// Hash returns the spread hash the table files key under. It only reads
// state fixed at construction, so it needs no synchronization.
func (t *Table[K, V]) Hash(key K) uint64 {
	if t.nilable {
		var zero K
		if key == zero {
			return 0
		}
	}
	return spread(t.hasher.Hash(key))
}

func (t *Table[K, V]) bucket(h uint64) **Entry[K, V] {
	return &t.buckets[h%uint64(len(t.buckets))]
}

func (t *Table[K, V]) added() {
	t.count++
	if t.policy == SizeCountsKeys {
		t.size++
	}
	t.maybeGrow()
}

// maxCapacity bounds the bucket array growth can produce.
var maxCapacity = 1 << 30

// maybeGrow doubles the bucket array until the load factor threshold holds
// again. Entries keep their stored hash.
func (t *Table[K, V]) maybeGrow() {
	if t.loadFactor <= 0 {
		return
	}
	capacity, capped := nextCapacity(t.count, len(t.buckets), t.loadFactor)
	if capped && !t.capped {
		t.capped = true
		logutil.Warn("chainmap capacity capped",
			zap.Int("capacity", capacity),
			zap.Int("entries", t.count),
			zap.Float64("load-factor", t.loadFactor))
	}
	if capacity <= len(t.buckets) {
		return
	}
	logutil.Debug("chainmap grow",
		zap.Int("from", len(t.buckets)),
		zap.Int("to", capacity),
		zap.Int("entries", t.count))
	t.rehash(capacity)
}

// nextCapacity doubles capacity until count fits under loadFactor. It
// stops at maxCapacity and reports whether it had to.
func nextCapacity(count, capacity int, loadFactor float64) (int, bool) {
	for float64(count) > float64(capacity)*loadFactor {
		if capacity >= maxCapacity {
			return capacity, true
		}
		capacity <<= 1
	}
	return capacity, false
}

// rehash moves every entry into a bucket array of the given capacity.
// capacity is a multiple of the current one, so each new bucket is fed by
// exactly one old chain and relative chain order survives.
func (t *Table[K, V]) rehash(capacity int) {
	buckets := make([]*Entry[K, V], capacity)
	tails := make([]*Entry[K, V], capacity)
	for _, head := range t.buckets {
		for e := head; e != nil; {
			next := e.next
			e.next = nil
			i := e.hash % uint64(capacity)
			if tails[i] == nil {
				buckets[i] = e
			} else {
				tails[i].next = e
			}
			tails[i] = e
			e = next
		}
	}
	t.buckets = buckets
}
