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

import "unsafe"

// EqualFunc decides whether two keys are the same key. It must agree with
// the hasher: Equal(a, b) implies Hash(a) == Hash(b).
type EqualFunc[K any] func(a, b K) bool

// ValueEqual compares keys with ==.
func ValueEqual[K comparable](a, b K) bool {
	return a == b
}

// StringIdentity treats two strings as the same key only when they share
// the same backing bytes, so equal contents built separately are distinct.
// All empty strings are the same key.
func StringIdentity(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || unsafe.StringData(a) == unsafe.StringData(b)
}
