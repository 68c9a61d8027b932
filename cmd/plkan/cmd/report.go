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
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/plkan/powerlink/config"
	"github.com/facebook/plkan/powerlink/exporter"
	"github.com/facebook/plkan/powerlink/report"
)

var reportFlags = config.Config{}

func init() {
	RootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&reportFlags.Output, "output", "o", report.FormatText, fmt.Sprintf("output format, one of %s", strings.Join(report.Formats, ", ")))
	reportCmd.Flags().IntVarP(&reportFlags.Jobs, "jobs", "j", runtime.NumCPU(), "number of captures analyzed in parallel")
	reportCmd.Flags().StringVar(&reportFlags.Textfile, "textfile", "", "also write results as prometheus textfile to this path")
	reportCmd.Flags().BoolVar(&reportFlags.Color, "color", false, "highlight errors in text output")
}

func reportRun(ctx context.Context, w io.Writer, cfg *config.Config, paths []string) error {
	stores, err := analyzeFiles(ctx, paths, cfg.Jobs)
	if err != nil {
		return err
	}
	var exp *exporter.Exporter
	if cfg.Textfile != "" {
		exp = exporter.New()
	}
	multi := len(paths) > 1
	var csvRows [][]report.Row
	for i, store := range stores {
		var rows []report.Row
		if exp != nil || (multi && cfg.Output == report.FormatCSV) {
			if rows, err = report.Build(store); err != nil {
				return fmt.Errorf("reporting %s: %w", paths[i], err)
			}
		}
		if multi && cfg.Output == report.FormatCSV {
			csvRows = append(csvRows, rows)
		} else {
			if multi && cfg.Output == report.FormatText {
				fmt.Fprintf(w, "==> %s <==\n", paths[i])
			}
			if multi && cfg.Output == report.FormatLaTeX {
				fmt.Fprintf(w, "%% %s\n", paths[i])
			}
			if err := report.Render(w, store, cfg.Output, report.Options{Color: cfg.Color}); err != nil {
				return fmt.Errorf("reporting %s: %w", paths[i], err)
			}
		}
		if exp != nil {
			exp.Add(paths[i], rows, store.ErrorSummary(), store.Totals())
		}
	}
	if csvRows != nil {
		if err := report.MultiCSV(w, paths, csvRows); err != nil {
			return err
		}
	}
	if exp != nil {
		if err := exp.WriteTextfile(cfg.Textfile); err != nil {
			return err
		}
		log.Infof("metrics written to %s", cfg.Textfile)
	}
	return nil
}

var reportCmd = &cobra.Command{
	Use:   "report CAPTURE...",
	Short: "Print errors, state changes and timing statistics of captures",
	Args:  cobra.MinimumNArgs(1),
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()
		cfg, err := prepareConfig(c, &reportFlags)
		if err != nil {
			log.Fatal(err)
		}
		if err := reportRun(c.Context(), os.Stdout, cfg, args); err != nil {
			log.Fatal(err)
		}
	},
}
