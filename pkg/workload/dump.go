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

package workload

import (
	"fmt"
	"io"

	"github.com/google/btree"

	"github.com/matrixorigin/chainmap/pkg/chainmap"
)

type dumpItem struct {
	key, value string
	// seq keeps keys that are distinct under identity equality apart.
	seq int
}

func (a dumpItem) Less(than btree.Item) bool {
	b := than.(dumpItem)
	if a.key != b.key {
		return a.key < b.key
	}
	return a.seq < b.seq
}

// Dump writes every entry of t as a key=value line, sorted by key.
func Dump(t *chainmap.Table[string, string], w io.Writer) error {
	tree := btree.New(32)
	seq := 0
	t.Range(func(e *chainmap.Entry[string, string]) bool {
		tree.ReplaceOrInsert(dumpItem{key: e.Key(), value: e.Value(), seq: seq})
		seq++
		return true
	})

	var err error
	tree.Ascend(func(i btree.Item) bool {
		item := i.(dumpItem)
		_, err = fmt.Fprintf(w, "%s=%s\n", item.key, item.value)
		return err == nil
	})
	return err
}
