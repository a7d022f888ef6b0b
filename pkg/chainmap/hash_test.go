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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var golden = []string{
	"",
	"a",
	"ab",
	"abc",
	"Discard medicine more than two years old.",
	"He who has a shady past knows that nice guys finish last.",
	"I wouldn't marry him with a ten foot pole.",
	"Free! Free!/A trip/to Mars/for 900/empty jars/Burma Shave",
	"The days of the digital watch are numbered.  -Tom Stoppard",
	"Nepal premier won't resign.",
	"For every action there is an equal and opposite government program.",
	"There is no reason for any individual to have a computer in their home. -Ken Olsen, 1977",
	"How can you write a big system without C++?  -Paul Glick",
}

func TestHashFn(t *testing.T) {
	seen := make(map[uint64]string, len(golden))
	for _, g := range golden {
		h := StringHash(g)
		require.Equal(t, h, StringHash(string([]byte(g))), g)
		require.Equal(t, h, BytesHash([]byte(g)), g)
		prev, dup := seen[h]
		require.False(t, dup, "%q collides with %q", g, prev)
		seen[h] = g
	}
}

func TestSpread(t *testing.T) {
	require.Equal(t, uint64(0), spread(0))
	require.Equal(t, uint64(65), spread(65))
	// hashes that only differ in their high bits must not collide in a
	// small table
	require.Equal(t, uint64(0), (uint64(1<<32)%16)^(uint64(2<<32)%16))
	require.NotEqual(t, spread(1<<32)%16, spread(2<<32)%16)
	require.NotEqual(t, spread(1<<16)%16, spread(2<<16)%16)
}

type point struct {
	x, y int32
}

type name string

func TestDefaultHasher(t *testing.T) {
	s := DefaultHasher[string]()
	require.Equal(t, StringHash("abc"), s.Hash("abc"))

	n := DefaultHasher[name]()
	require.Equal(t, StringHash("abc"), n.Hash(name("abc")))

	i := DefaultHasher[int]()
	require.Equal(t, Int64Hash(42), i.Hash(42))
	require.NotEqual(t, i.Hash(42), i.Hash(43))
	minusOne := -1
	require.Equal(t, Int64Hash(uint64(uint(minusOne))), i.Hash(-1))

	u := DefaultHasher[uintptr]()
	require.Equal(t, Int64Hash(uint64(^uintptr(0))), u.Hash(^uintptr(0)))

	i64 := DefaultHasher[int64]()
	require.Equal(t, Int64Hash(math.MaxUint64), i64.Hash(-1))

	i8 := DefaultHasher[int8]()
	require.Equal(t, Int64Hash(255), i8.Hash(-1))

	u16 := DefaultHasher[uint16]()
	require.Equal(t, Int64Hash(7), u16.Hash(7))

	i32 := DefaultHasher[int32]()
	require.Equal(t, Int64Hash(7), i32.Hash(7))

	b := DefaultHasher[bool]()
	require.NotEqual(t, b.Hash(true), b.Hash(false))

	p := DefaultHasher[point]()
	require.Equal(t, p.Hash(point{1, 2}), p.Hash(point{1, 2}))
	require.NotEqual(t, p.Hash(point{1, 2}), p.Hash(point{2, 1}))

	f := DefaultHasher[float64]()
	require.Equal(t, f.Hash(0), f.Hash(math.Copysign(0, -1)))
}

func TestNilable(t *testing.T) {
	require.True(t, nilable[*int]())
	require.True(t, nilable[any]())
	require.True(t, nilable[chan int]())
	require.False(t, nilable[string]())
	require.False(t, nilable[int]())
	require.False(t, nilable[point]())
}

func TestFixedWidthHasher(t *testing.T) {
	require.Equal(t, Int64Hash(0xffffffff), fixedWidthHasher[int32](4).Hash(-1))
	require.Equal(t, Int64Hash(0xffff), fixedWidthHasher[int16](2).Hash(-1))
	require.Equal(t, Int64Hash(1), fixedWidthHasher[bool](1).Hash(true))
	require.Panics(t, func() { fixedWidthHasher[[3]byte](3) })
}

// TestIntKeysRoundTrip catches hashers that read past the key, which shows
// up on 32 bit platforms: GOARCH=386 go test ./pkg/chainmap
func TestIntKeysRoundTrip(t *testing.T) {
	tbl := New[int, int](64)
	h := DefaultHasher[int]()
	for k := 0; k < 1000; k++ {
		require.Equal(t, h.Hash(k), h.Hash(k))
		tbl.Insert(k, k*2)
	}
	misses := 0
	for k := 0; k < 1000; k++ {
		if e, ok := tbl.Lookup(k); !ok || e.Value() != k*2 {
			misses++
		}
	}
	require.Zero(t, misses)
	require.Equal(t, 1000, tbl.Len())
}
