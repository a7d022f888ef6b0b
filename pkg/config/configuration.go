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

package config

import (
	"context"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"

	"github.com/matrixorigin/chainmap/pkg/chainmap"
	"github.com/matrixorigin/chainmap/pkg/common/moerr"
	"github.com/matrixorigin/chainmap/pkg/logutil"
)

var (
	DefaultCapacity   = 16
	DefaultShardCount = 8
	DefaultWorkers    = 4
	DefaultOps        = 1 << 20
	DefaultKeySpace   = 1 << 16
)

const (
	EqualityValue    = "value"
	EqualityIdentity = "identity"

	SizePolicyKeys  = "keys"
	SizePolicyCalls = "calls"
)

// TableParameters of a chainmap.Table
type TableParameters struct {
	//default is 16. the number of buckets a table is created with. An explicit 0 is rejected
	Capacity int `toml:"capacity"`

	//default is 0, which keeps the bucket count fixed. A positive value doubles the buckets whenever len > capacity * load-factor
	LoadFactor float64 `toml:"load-factor"`

	//default is 'value'. 'identity' treats string keys as equal only when they share backing bytes
	Equality string `toml:"equality"`

	//default is 'keys'. 'calls' makes size count every insert call, overwrites included
	SizePolicy string `toml:"size-policy"`
}

// ShardParameters of a shardmap.Map
type ShardParameters struct {
	//default is 8. the number of independently locked tables
	Count int `toml:"count"`
}

// BenchParameters of the bench command
type BenchParameters struct {
	//default is 4. the number of goroutines issuing operations
	Workers int `toml:"workers"`

	//default is 1048576. the total number of operations
	Ops int `toml:"ops"`

	//default is 65536. keys are drawn from [0, key-space)
	KeySpace int `toml:"key-space"`
}

type Config struct {
	Table TableParameters   `toml:"table"`
	Shard ShardParameters   `toml:"shard"`
	Bench BenchParameters   `toml:"bench"`
	Log   logutil.LogConfig `toml:"log"`
}

// Default returns a config with every default filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.fillDefaults()
	return cfg
}

// Load reads a toml file on top of the defaults.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if me := moerr.ConvertGoError(ctx, err); moerr.IsMoErrCode(me, moerr.ErrFileNotFound) {
			return nil, me
		}
		return nil, moerr.NewBadConfig(ctx, "%s: %v", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, moerr.NewBadConfig(ctx, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	// zero means unset, so an explicit zero must not turn into the default
	for _, f := range []struct {
		key   []string
		value int
	}{
		{[]string{"table", "capacity"}, cfg.Table.Capacity},
		{[]string{"shard", "count"}, cfg.Shard.Count},
		{[]string{"bench", "workers"}, cfg.Bench.Workers},
		{[]string{"bench", "ops"}, cfg.Bench.Ops},
		{[]string{"bench", "key-space"}, cfg.Bench.KeySpace},
	} {
		if f.value == 0 && md.IsDefined(f.key...) {
			return nil, moerr.NewBadConfig(ctx, "%s must be positive, got 0", strings.Join(f.key, "."))
		}
	}
	cfg.fillDefaults()
	if err = cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) fillDefaults() {
	if cfg.Table.Capacity == 0 {
		cfg.Table.Capacity = DefaultCapacity
	}
	if cfg.Table.Equality == "" {
		cfg.Table.Equality = EqualityValue
	}
	if cfg.Table.SizePolicy == "" {
		cfg.Table.SizePolicy = SizePolicyKeys
	}
	if cfg.Shard.Count == 0 {
		cfg.Shard.Count = DefaultShardCount
	}
	if cfg.Bench.Workers == 0 {
		cfg.Bench.Workers = DefaultWorkers
	}
	if cfg.Bench.Ops == 0 {
		cfg.Bench.Ops = DefaultOps
	}
	if cfg.Bench.KeySpace == 0 {
		cfg.Bench.KeySpace = DefaultKeySpace
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

func (cfg *Config) Validate(ctx context.Context) error {
	if cfg.Table.Capacity < 1 {
		return moerr.NewBadConfig(ctx, "table.capacity must be positive, got %d", cfg.Table.Capacity)
	}
	if cfg.Table.LoadFactor < 0 || (cfg.Table.LoadFactor > 0 && cfg.Table.LoadFactor < chainmap.MinLoadFactor) {
		return moerr.NewBadConfig(ctx, "table.load-factor must be 0 or at least %v, got %v", chainmap.MinLoadFactor, cfg.Table.LoadFactor)
	}
	switch cfg.Table.Equality {
	case EqualityValue, EqualityIdentity:
	default:
		return moerr.NewBadConfig(ctx, "table.equality must be %q or %q, got %q", EqualityValue, EqualityIdentity, cfg.Table.Equality)
	}
	switch cfg.Table.SizePolicy {
	case SizePolicyKeys, SizePolicyCalls:
	default:
		return moerr.NewBadConfig(ctx, "table.size-policy must be %q or %q, got %q", SizePolicyKeys, SizePolicyCalls, cfg.Table.SizePolicy)
	}
	if cfg.Shard.Count < 1 {
		return moerr.NewBadConfig(ctx, "shard.count must be positive, got %d", cfg.Shard.Count)
	}
	if cfg.Bench.Workers < 1 || cfg.Bench.Ops < 1 || cfg.Bench.KeySpace < 1 {
		return moerr.NewBadConfig(ctx, "bench.workers, bench.ops and bench.key-space must be positive")
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return moerr.NewBadConfig(ctx, "log.level: %v", err)
	}
	if cfg.Log.StacktraceLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.Log.StacktraceLevel)); err != nil {
			return moerr.NewBadConfig(ctx, "log.stacktrace-level: %v", err)
		}
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		return moerr.NewBadConfig(ctx, "log.format must be console or json, got %q", cfg.Log.Format)
	}
	return nil
}

// TableOptions maps the table section onto chainmap options for string keys.
func (cfg *Config) TableOptions() chainmap.Options[string] {
	opts := chainmap.Options[string]{
		LoadFactor: cfg.Table.LoadFactor,
		SizePolicy: cfg.SizePolicy(),
	}
	if cfg.Table.Equality == EqualityIdentity {
		opts.Equal = chainmap.StringIdentity
	}
	return opts
}

func (cfg *Config) SizePolicy() chainmap.SizePolicy {
	if cfg.Table.SizePolicy == SizePolicyCalls {
		return chainmap.SizeCountsCalls
	}
	return chainmap.SizeCountsKeys
}
