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
	"hash/maphash"
	"reflect"
	"unsafe"

	"github.com/matrixorigin/chainmap/pkg/common/moerr"
)

// Hasher maps a key to a 64 bit hash code. Keys that are equal under the
// table's EqualFunc must produce equal codes.
type Hasher[K any] interface {
	Hash(key K) uint64
}

// HasherFunc adapts a plain function to Hasher.
type HasherFunc[K any] func(key K) uint64

func (f HasherFunc[K]) Hash(key K) uint64 {
	return f(key)
}

// spread folds the high bits of h into the low bits before the modulo
// reduction, so keys that only differ in their upper bits still land in
// different buckets.
func spread(h uint64) uint64 {
	h ^= h >> 32
	return h ^ (h >> 16)
}

// DefaultHasher returns a hasher for K. Strings, integers and bools are
// hashed with wyhash; every other comparable kind, floats included, falls
// back to maphash.Comparable with a per-hasher seed.
func DefaultHasher[K comparable]() Hasher[K] {
	var zero K
	switch reflect.TypeOf(&zero).Elem().Kind() {
	case reflect.String:
		return HasherFunc[K](func(k K) uint64 {
			return StringHash(*(*string)(unsafe.Pointer(&k)))
		})
	case reflect.Int, reflect.Uint, reflect.Uintptr,
		reflect.Int64, reflect.Uint64, reflect.Int32, reflect.Uint32,
		reflect.Int16, reflect.Uint16, reflect.Int8, reflect.Uint8, reflect.Bool:
		// int, uint and uintptr are 4 bytes wide on 32 bit platforms.
		return fixedWidthHasher[K](unsafe.Sizeof(zero))
	}
	seed := maphash.MakeSeed()
	return HasherFunc[K](func(k K) uint64 {
		return maphash.Comparable(seed, k)
	})
}

// fixedWidthHasher reads exactly size bytes of the key. size must be 1, 2,
// 4 or 8.
func fixedWidthHasher[K any](size uintptr) Hasher[K] {
	switch size {
	case 8:
		return HasherFunc[K](func(k K) uint64 {
			return Int64Hash(*(*uint64)(unsafe.Pointer(&k)))
		})
	case 4:
		return HasherFunc[K](func(k K) uint64 {
			return Int64Hash(uint64(*(*uint32)(unsafe.Pointer(&k))))
		})
	case 2:
		return HasherFunc[K](func(k K) uint64 {
			return Int64Hash(uint64(*(*uint16)(unsafe.Pointer(&k))))
		})
	case 1:
		return HasherFunc[K](func(k K) uint64 {
			return Int64Hash(uint64(*(*uint8)(unsafe.Pointer(&k))))
		})
	}
	panic(moerr.NewInternalErrorNoCtx("unsupported fixed key width %d", size))
}

// nilable reports whether K has a nil value that should use the sentinel
// hash.
func nilable[K comparable]() bool {
	var zero K
	switch reflect.TypeOf(&zero).Elem().Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}
