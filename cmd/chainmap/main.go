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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matrixorigin/chainmap/pkg/common/moerr"
	"github.com/matrixorigin/chainmap/pkg/config"
	"github.com/matrixorigin/chainmap/pkg/logutil"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err))
		os.Exit(1)
	}
}

// errorText renders coded errors together with their detail.
func errorText(err error) string {
	var me *moerr.Error
	if errors.As(err, &me) {
		return me.Display()
	}
	return err.Error()
}

type cliState struct {
	configFile string
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	st := &cliState{}
	root := &cobra.Command{
		Use:           "chainmap",
		Short:         "Replay workloads against and benchmark chained hash tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logutil.Sync()
		},
	}
	root.PersistentFlags().StringVar(&st.configFile, "config", "", "toml configuration file")

	root.AddCommand(replayCommand(st), benchCommand(st), genCommand())
	return root
}

func (st *cliState) load(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if st.configFile == "" {
		st.cfg = config.Default()
	} else {
		cfg, err := config.Load(ctx, st.configFile)
		if err != nil {
			return err
		}
		st.cfg = cfg
	}
	logutil.SetupLogger(&st.cfg.Log)
	return nil
}
