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

/*
Package report renders analysis results.

Everything is computed from the read side of the metrics store once the capture
has been fully analyzed. Text output is a human readable tree, CSV and LaTeX
carry the same statistics rows for further processing.
*/
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/facebook/plkan/powerlink/metrics"
)

// Source is what reports consume from the analysis run
type Source interface {
	Aggregate(f metrics.Filter) (*metrics.ResponseStats, error)
	Percentile(f metrics.Filter, p float64) (time.Duration, error)
	DistinctNodes(f metrics.Filter) []uint8
	ErrorSummary() []metrics.ErrorCount
	StateChanges() []metrics.StateChangeSample
	Totals() metrics.Totals
	Responses() []metrics.ResponseSample
}

var _ Source = (*metrics.Store)(nil)

// Output formats
const (
	FormatText  = "text"
	FormatCSV   = "csv"
	FormatLaTeX = "latex"
)

// Formats lists supported output formats
var Formats = []string{FormatText, FormatCSV, FormatLaTeX}

// Row labels for rows which are not about a single response category
const (
	LabelCycle     = "soc"
	LabelResponses = "response"
)

// Row is a single line of statistics. Node 0 means the row aggregates all nodes.
type Row struct {
	Title string
	Label string
	Node  uint8
	Stats metrics.ResponseStats
	P99   time.Duration
}

// Options control text rendering
type Options struct {
	Color bool
}

type treePrefix struct {
	title string
	node  string
	last  string
}

var (
	middle = treePrefix{title: "├─", node: "│  ├─", last: "│  └─"}
	end    = treePrefix{title: "└─", node: "   ├─", last: "   └─"}
)

// Build returns statistics rows: cycle time, all responses, then every response category
// followed by its nodes. Rows without data are omitted.
func Build(src Source) ([]Row, error) {
	var rows []Row
	add := func(title, label string, node uint8, f metrics.Filter) error {
		stats, err := src.Aggregate(f)
		if errors.Is(err, metrics.ErrEmptySet) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("aggregating %s: %w", f, err)
		}
		p99, err := src.Percentile(f, metrics.Percentile99)
		if err != nil {
			return fmt.Errorf("aggregating %s: %w", f, err)
		}
		rows = append(rows, Row{Title: title, Label: label, Node: node, Stats: *stats, P99: p99})
		return nil
	}

	if err := add("Cycle/SoC", LabelCycle, 0, metrics.CycleFilter()); err != nil {
		return nil, err
	}
	if err := add("Responses", LabelResponses, 0, metrics.ResponseFilter("")); err != nil {
		return nil, err
	}

	present := []metrics.Category{}
	for _, c := range metrics.Categories {
		if len(src.DistinctNodes(metrics.ResponseFilter(c))) > 0 {
			present = append(present, c)
		}
	}
	for i, c := range present {
		prefix := middle
		if i == len(present)-1 {
			prefix = end
		}
		f := metrics.ResponseFilter(c)
		if err := add(prefix.title+c.Label(), string(c), 0, f); err != nil {
			return nil, err
		}
		nodes := src.DistinctNodes(f)
		for j, node := range nodes {
			p := prefix.node
			if j == len(nodes)-1 {
				p = prefix.last
			}
			if err := add(fmt.Sprintf("%s%d", p, node), string(c), node, f.ForNode(node)); err != nil {
				return nil, err
			}
		}
	}
	return rows, nil
}

// Render writes the report in the given format
func Render(w io.Writer, src Source, format string, opts Options) error {
	switch format {
	case FormatText:
		return Text(w, src, opts)
	case FormatCSV, FormatLaTeX:
		rows, err := Build(src)
		if err != nil {
			return err
		}
		if format == FormatCSV {
			return CSV(w, rows)
		}
		return LaTeX(w, rows)
	}
	return fmt.Errorf("unsupported output format %q", format)
}
