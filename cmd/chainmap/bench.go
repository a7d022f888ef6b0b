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

package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matrixorigin/chainmap/pkg/chainmap"
	"github.com/matrixorigin/chainmap/pkg/common/moerr"
	"github.com/matrixorigin/chainmap/pkg/config"
	"github.com/matrixorigin/chainmap/pkg/logutil"
	"github.com/matrixorigin/chainmap/pkg/shardmap"
)

func benchCommand(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Run random operations from a worker pool against a sharded map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runBench(cmd.Context(), st.cfg, cmd.OutOrStdout())
			return err
		},
	}
}

type benchResult struct {
	ops     int
	elapsed time.Duration
	len     int
	metrics *shardmap.Metrics
}

func runBench(ctx context.Context, cfg *config.Config, out io.Writer) (*benchResult, error) {
	metrics := shardmap.NewMetrics(prometheus.NewRegistry())
	m := shardmap.New[int, int](cfg.Shard.Count, cfg.Table.Capacity, chainmap.Options[int]{
		LoadFactor: cfg.Table.LoadFactor,
		SizePolicy: cfg.SizePolicy(),
	}, shardmap.WithMetrics(metrics))

	workers := cfg.Bench.Workers
	perWorker := cfg.Bench.Ops / workers
	// the last worker also runs the remainder
	last := perWorker + cfg.Bench.Ops%workers
	keySpace := cfg.Bench.KeySpace

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(workers, func(arg interface{}) {
		defer wg.Done()
		w := arg.(int)
		n := perWorker
		if w == workers-1 {
			n = last
		}
		rnd := rand.New(rand.NewSource(int64(w)))
		for i := 0; i < n; i++ {
			k := rnd.Intn(keySpace)
			switch rnd.Intn(4) {
			case 0, 1:
				m.Insert(k, i)
			case 2:
				m.Lookup(k)
			default:
				m.Remove(k)
			}
		}
	})
	if err != nil {
		return nil, moerr.NewInternalError(ctx, "create worker pool: %v", err)
	}
	defer pool.Release()

	start := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		if err = pool.Invoke(w); err != nil {
			wg.Done()
			wg.Wait()
			return nil, moerr.NewInternalError(ctx, "submit bench worker: %v", err)
		}
	}
	wg.Wait()

	r := &benchResult{
		ops:     cfg.Bench.Ops,
		elapsed: time.Since(start),
		len:     m.Len(),
		metrics: metrics,
	}
	logutil.Info("bench finished",
		zap.Int("workers", workers),
		zap.Int("shards", m.Shards()),
		zap.Int("ops", r.ops),
		zap.Duration("elapsed", r.elapsed))

	fmt.Fprintf(out, "ops=%d workers=%d shards=%d elapsed=%s ops/s=%.0f len=%d\n",
		r.ops, workers, m.Shards(), r.elapsed, float64(r.ops)/r.elapsed.Seconds(), r.len)
	for _, op := range []string{shardmap.OpInsert, shardmap.OpLookup, shardmap.OpRemove} {
		fmt.Fprintf(out, "%s: %s\n", op, counters(metrics, op))
	}
	return r, nil
}

func counters(metrics *shardmap.Metrics, op string) string {
	if op == shardmap.OpInsert {
		return fmt.Sprintf("ok=%.0f", counterValue(metrics.Count(op, shardmap.ResultOK)))
	}
	return fmt.Sprintf("hit=%.0f miss=%.0f",
		counterValue(metrics.Count(op, shardmap.ResultHit)),
		counterValue(metrics.Count(op, shardmap.ResultMiss)))
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
