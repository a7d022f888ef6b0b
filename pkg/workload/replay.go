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
	"context"
	"fmt"

	"github.com/axiomhq/hyperloglog"
	"go.uber.org/zap"

	"github.com/matrixorigin/chainmap/pkg/chainmap"
	"github.com/matrixorigin/chainmap/pkg/common/moerr"
	"github.com/matrixorigin/chainmap/pkg/logutil"
)

// Report summarises a replay. Stored and Skipped count insert-if-absent
// calls that did and did not store a value; DistinctKeys is a HyperLogLog
// estimate over every key the workload touched.
type Report struct {
	Ops          int
	Inserts      int
	Stored       int
	Skipped      int
	LookupHits   int
	LookupMisses int
	RemoveHits   int
	RemoveMisses int
	DistinctKeys uint64
	Len          int
	Size         int
	Stats        chainmap.Stats
	Stopped      bool
}

func (r *Report) String() string {
	return fmt.Sprintf("ops=%d inserts=%d stored=%d skipped=%d lookups=%d/%d removes=%d/%d distinct~%d len=%d size=%d %s",
		r.Ops, r.Inserts, r.Stored, r.Skipped,
		r.LookupHits, r.LookupHits+r.LookupMisses,
		r.RemoveHits, r.RemoveHits+r.RemoveMisses,
		r.DistinctKeys, r.Len, r.Size, r.Stats)
}

// Replay applies ops to t in order and checks their expectations. It
// stops at the first failed expectation, or when ctx is done.
func Replay(ctx context.Context, t *chainmap.Table[string, string], w *Workload) (*Report, error) {
	r := &Report{}
	sketch := hyperloglog.New()
	for i := range w.Ops {
		if i%1024 == 0 && ctx.Err() != nil {
			r.Stopped = true
			break
		}
		op := &w.Ops[i]
		sketch.Insert([]byte(op.Key))
		if err := apply(ctx, t, op, r); err != nil {
			err = err.WithDetail(fmt.Sprintf("op %d %s", i, op.Kind))
			logutil.Error("workload replay failed",
				zap.Int("op", i),
				zap.String("kind", op.Kind),
				zap.String("key", op.Key),
				zap.String("error", err.Display()))
			return r, err
		}
		r.Ops++
	}
	r.DistinctKeys = sketch.Estimate()
	r.Len = t.Len()
	r.Size = t.Size()
	r.Stats = t.Stats()
	logutil.Info("workload replayed",
		zap.Int("ops", r.Ops),
		zap.Uint64("distinct", r.DistinctKeys),
		zap.Int("len", r.Len),
		zap.Int("size", r.Size),
		zap.Int("longest-chain", r.Stats.LongestChain))
	return r, nil
}

func apply(ctx context.Context, t *chainmap.Table[string, string], op *Op, r *Report) *moerr.Error {
	switch op.Kind {
	case KindInsert:
		t.Insert(op.Key, op.Value)
		r.Inserts++
		return nil
	case KindInsertIfAbsent:
		if t.InsertIfAbsent(op.Key, op.Value) {
			r.Stored++
		} else {
			r.Skipped++
		}
		return nil
	case KindLookup:
		e, ok := t.Lookup(op.Key)
		if ok {
			r.LookupHits++
		} else {
			r.LookupMisses++
		}
		return check(ctx, op, e, ok)
	case KindRemove:
		e, ok := t.Remove(op.Key)
		if ok {
			r.RemoveHits++
		} else {
			r.RemoveMisses++
		}
		return check(ctx, op, e, ok)
	}
	return moerr.NewInvalidInput(ctx, "unknown op kind %q", op.Kind)
}

func check(ctx context.Context, op *Op, e *chainmap.Entry[string, string], found bool) *moerr.Error {
	switch {
	case op.Absent && found:
		return moerr.NewKeyExists(ctx, op.Key)
	case op.Expect == nil:
		return nil
	case !found:
		return moerr.NewKeyNotFound(ctx, op.Key)
	case e.Value() != *op.Expect:
		return moerr.NewUnexpectedValue(ctx, op.Key, e.Value(), *op.Expect)
	}
	return nil
}
