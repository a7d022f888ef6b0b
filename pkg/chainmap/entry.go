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

import "fmt"

// Entry is one key/value association stored in a bucket chain.
type Entry[K comparable, V any] struct {
	hash  uint64
	key   K
	value V
	next  *Entry[K, V]
}

func (e *Entry[K, V]) Key() K {
	return e.key
}

func (e *Entry[K, V]) Value() V {
	return e.value
}

// SetValue replaces the value in place and returns the previous one.
func (e *Entry[K, V]) SetValue(v V) V {
	old := e.value
	e.value = v
	return old
}

func (e *Entry[K, V]) String() string {
	return fmt.Sprintf("%v=%v", e.key, e.value)
}
