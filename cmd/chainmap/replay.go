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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matrixorigin/chainmap/pkg/chainmap"
	"github.com/matrixorigin/chainmap/pkg/workload"
)

func replayCommand(st *cliState) *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "replay <workload>",
		Short: "Replay a workload file against a table built from the config",
		Long:  "Replay a toml workload file, or an lz4 compressed one ending in .lz4, and report table statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := workload.Load(ctx, args[0])
			if err != nil {
				return err
			}
			tbl := chainmap.NewWithOptions[string, string](st.cfg.Table.Capacity, st.cfg.TableOptions())
			report, err := workload.Replay(ctx, tbl, w)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.String())
			if dump {
				return workload.Dump(tbl, out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print the final table contents sorted by key")
	return cmd
}
