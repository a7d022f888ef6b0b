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

// Package workload reads, writes and replays scripted table operations.
package workload

import (
	"context"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pierrec/lz4"

	"github.com/matrixorigin/chainmap/pkg/common/moerr"
)

const (
	KindInsert         = "insert"
	KindInsertIfAbsent = "insert-if-absent"
	KindLookup         = "lookup"
	KindRemove         = "remove"
)

const lz4Suffix = ".lz4"

// Op is one scripted operation. Expect and Absent only apply to lookup and
// remove.
type Op struct {
	Kind  string `toml:"kind"`
	Key   string `toml:"key"`
	Value string `toml:"value,omitempty"`
	// Expect is the value the key must map to.
	Expect *string `toml:"expect,omitempty"`
	// Absent requires the key to be missing.
	Absent bool `toml:"absent,omitempty"`
}

type Workload struct {
	Ops []Op `toml:"op"`
}

// Load reads a workload file. Files ending in .lz4 hold an lz4 frame
// around the toml document.
func Load(ctx context.Context, path string) (*Workload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, moerr.ConvertGoError(ctx, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, lz4Suffix) {
		r = lz4.NewReader(f)
	}
	return Decode(ctx, r)
}

func Decode(ctx context.Context, r io.Reader) (*Workload, error) {
	w := &Workload{}
	md, err := toml.NewDecoder(r).Decode(w)
	if err != nil {
		return nil, moerr.NewInvalidInput(ctx, "decode workload: %v", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, moerr.NewInvalidInput(ctx, "workload has unknown key %s", undecoded[0].String())
	}
	for i := range w.Ops {
		if err = w.Ops[i].validate(ctx, i); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Save writes w to path, lz4 compressed when path ends in .lz4.
func Save(ctx context.Context, path string, w *Workload) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return moerr.ConvertGoError(ctx, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = moerr.ConvertGoError(ctx, cerr)
		}
	}()

	if !strings.HasSuffix(path, lz4Suffix) {
		return w.Encode(ctx, f)
	}
	zw := lz4.NewWriter(f)
	if err = w.Encode(ctx, zw); err != nil {
		return err
	}
	return moerr.ConvertGoError(ctx, zw.Close())
}

func (w *Workload) Encode(ctx context.Context, out io.Writer) error {
	return moerr.ConvertGoError(ctx, toml.NewEncoder(out).Encode(w))
}

func (op *Op) validate(ctx context.Context, i int) error {
	switch op.Kind {
	case KindInsert, KindInsertIfAbsent:
		if op.Expect != nil || op.Absent {
			return moerr.NewInvalidInput(ctx, "op %d: %s takes no expectation", i, op.Kind)
		}
	case KindLookup, KindRemove:
		if op.Expect != nil && op.Absent {
			return moerr.NewInvalidInput(ctx, "op %d: expect and absent are exclusive", i)
		}
	default:
		return moerr.NewInvalidInput(ctx, "op %d: unknown kind %q", i, op.Kind)
	}
	return nil
}

// Generate builds n random operations over keySpace keys. Half of them
// are inserts, the rest are spread over the other kinds. A negative n
// yields no operations and a keySpace below 1 is treated as 1.
func Generate(n, keySpace int, seed int64) *Workload {
	if n < 0 {
		n = 0
	}
	if keySpace < 1 {
		keySpace = 1
	}
	rnd := rand.New(rand.NewSource(seed))
	w := &Workload{Ops: make([]Op, n)}
	for i := range w.Ops {
		key := "k" + strconv.Itoa(rnd.Intn(keySpace))
		switch p := rnd.Intn(8); {
		case p < 4:
			w.Ops[i] = Op{Kind: KindInsert, Key: key, Value: strconv.Itoa(i)}
		case p == 4:
			w.Ops[i] = Op{Kind: KindInsertIfAbsent, Key: key, Value: strconv.Itoa(i)}
		case p < 7:
			w.Ops[i] = Op{Kind: KindLookup, Key: key}
		default:
			w.Ops[i] = Op{Kind: KindRemove, Key: key}
		}
	}
	return w
}
