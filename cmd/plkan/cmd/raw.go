/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/plkan/powerlink/config"
	"github.com/facebook/plkan/powerlink/report"
)

var rawFlags = config.Config{}

func init() {
	RootCmd.AddCommand(rawCmd)
	rawCmd.Flags().StringVarP(&rawFlags.Filter, "filter", "f", "", "boolean expression rows must satisfy, see help for details")
	rawCmd.Flags().BoolVarP(&rawFlags.Sort, "sort", "s", false, "sort rows by response time, slowest first")
}

func rawRun(ctx context.Context, w io.Writer, cfg *config.Config, path string) error {
	stores, err := analyzeFiles(ctx, []string{path}, 1)
	if err != nil {
		return err
	}
	if err := report.Raw(w, stores[0], cfg.Filter, cfg.Sort); err != nil {
		return fmt.Errorf("reporting %s: %w", path, err)
	}
	return nil
}

var rawCmd = &cobra.Command{
	Use:   "raw CAPTURE",
	Short: "Print every response time sample of a capture as CSV",
	Long:  "Print every response time sample of a capture as CSV.\n\n" + report.FilterHelp,
	Args:  cobra.ExactArgs(1),
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()
		cfg, err := prepareConfig(c, &rawFlags)
		if err != nil {
			log.Fatal(err)
		}
		if err := rawRun(c.Context(), os.Stdout, cfg, args[0]); err != nil {
			log.Fatal(err)
		}
	},
}
