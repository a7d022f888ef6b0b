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

// SizePolicy selects what Table.Size counts.
type SizePolicy uint8

const (
	// SizeCountsKeys makes Size the number of live keys.
	SizeCountsKeys SizePolicy = iota
	// SizeCountsCalls increments Size on every Insert call, overwrites
	// included. InsertIfAbsent and Remove leave it untouched.
	SizeCountsCalls
)

func (p SizePolicy) String() string {
	switch p {
	case SizeCountsKeys:
		return "keys"
	case SizeCountsCalls:
		return "calls"
	}
	return "unknown"
}

// MinLoadFactor is the smallest positive load factor a table accepts.
// Smaller positive values are raised to it.
const MinLoadFactor = 0.01

// Options configures a Table. The zero value gives a fixed bucket count,
// the default hasher, value equality and SizeCountsKeys.
type Options[K comparable] struct {
	// LoadFactor enables growth when positive: the bucket array doubles
	// whenever Len() > capacity * LoadFactor, up to 1<<30 buckets.
	LoadFactor float64
	SizePolicy SizePolicy
	Hasher     Hasher[K]
	Equal      EqualFunc[K]
}

func (o *Options[K]) fillDefaults() {
	if o.Hasher == nil {
		o.Hasher = DefaultHasher[K]()
	}
	if o.Equal == nil {
		o.Equal = ValueEqual[K]
	}
	if o.LoadFactor < 0 {
		o.LoadFactor = 0
	} else if o.LoadFactor > 0 && o.LoadFactor < MinLoadFactor {
		o.LoadFactor = MinLoadFactor
	}
}
