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

package chainmap

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"
)

// Stats describes how entries are spread over the buckets of a table.
type Stats struct {
	Capacity int
	Entries  int
	// Occupied holds the index of every non-empty bucket.
	Occupied     *roaring.Bitmap
	LongestChain int
	// MeanChain is the average chain length over occupied buckets.
	MeanChain float64
}

func (t *Table[K, V]) Stats() Stats {
	s := Stats{
		Capacity: len(t.buckets),
		Entries:  t.count,
		Occupied: roaring.New(),
	}
	for i, head := range t.buckets {
		if head == nil {
			continue
		}
		s.Occupied.Add(uint32(i))
		n := 0
		for e := head; e != nil; e = e.next {
			n++
		}
		if n > s.LongestChain {
			s.LongestChain = n
		}
	}
	if occupied := s.Occupied.GetCardinality(); occupied > 0 {
		s.MeanChain = float64(s.Entries) / float64(occupied)
	}
	return s
}

func (s Stats) String() string {
	var occupied uint64
	if s.Occupied != nil {
		occupied = s.Occupied.GetCardinality()
	}
	return fmt.Sprintf("capacity=%d entries=%d occupied=%d longest=%d mean=%.2f",
		s.Capacity, s.Entries, occupied, s.LongestChain, s.MeanChain)
}
