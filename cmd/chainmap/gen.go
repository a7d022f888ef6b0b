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
	"github.com/spf13/cobra"

	"github.com/matrixorigin/chainmap/pkg/common/moerr"
	"github.com/matrixorigin/chainmap/pkg/workload"
)

func genCommand() *cobra.Command {
	var (
		ops, keys int
		seed      int64
	)
	cmd := &cobra.Command{
		Use:   "gen <workload>",
		Short: "Write a random workload file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ops < 1 || keys < 1 {
				return moerr.NewInvalidInput(ctx, "--ops and --keys must be positive")
			}
			return workload.Save(ctx, args[0], workload.Generate(ops, keys, seed))
		},
	}
	cmd.Flags().IntVar(&ops, "ops", 1000, "number of operations")
	cmd.Flags().IntVar(&keys, "keys", 100, "size of the key space")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	return cmd
}
