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

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/facebook/plkan/powerlink/metrics"
	"github.com/facebook/plkan/powerlink/protocol"
)

const maxColWidth = 40

// ErrorNotice is printed above the error table
const ErrorNotice = "Notice: missing Ident responses from 253 (diagnostic device) and missing responses while the CN is Off are regular."

// GroupDigits formats n with ' as thousands separator, like 1'234'567
func GroupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('\'')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

func formatNs(v float64) string {
	return GroupDigits(int64(v))
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// formatState prints "-" for nodes never seen on the wire
func formatState(s protocol.NMTState) string {
	if !s.Observed() {
		return "-"
	}
	return s.String()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewTable(w, tablewriter.WithColumnMax(maxColWidth))
	table.Header(header)
	return table
}

// Text writes human readable report: errors, state changes, statistics tree and totals
func Text(w io.Writer, src Source, opts Options) error {
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	if opts.Color {
		red.EnableColor()
		yellow.EnableColor()
	} else {
		red.DisableColor()
		yellow.DisableColor()
	}

	fmt.Fprintln(w, "Errors:")
	fmt.Fprintln(w, ErrorNotice)
	table := newTable(w, []string{"node", "count", "error", "CN state", "MN state"})
	for _, e := range src.ErrorSummary() {
		kind := yellow
		if isViolation(e.Kind) {
			kind = red
		}
		if err := table.Append([]string{
			strconv.Itoa(int(e.Node)),
			strconv.Itoa(e.Count),
			kind.Sprint(string(e.Kind)),
			formatState(e.NodeState),
			formatState(e.MasterState),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nState changes:")
	table = newTable(w, []string{"packet", "elapsed(ns)", "node", "state"})
	for _, c := range src.StateChanges() {
		node := strconv.Itoa(int(c.Node))
		if c.Node == protocol.MasterNodeID {
			node += " (MN)"
		}
		if err := table.Append([]string{
			GroupDigits(int64(c.Sequence)),
			GroupDigits(c.Elapsed.Nanoseconds()),
			node,
			c.State.String(),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	rows, err := Build(src)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nStatistics:")
	table = newTable(w, []string{"", "count", "avg(ns)", "min(ns)", "max(ns)", "jitter_abs(ns)", "jitter_rel"})
	for _, r := range rows {
		if err := table.Append([]string{
			r.Title,
			GroupDigits(int64(r.Stats.Count)),
			formatNs(r.Stats.Mean),
			GroupDigits(r.Stats.Min.Nanoseconds()),
			GroupDigits(r.Stats.Max.Nanoseconds()),
			formatNs(r.Stats.JitterAbs),
			formatPercent(r.Stats.JitterRel),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	digest, err := Digest(src)
	if err != nil {
		return err
	}
	totals := src.Totals()
	fmt.Fprintf(w, "\n%s frames in %sns\n", GroupDigits(int64(totals.Frames)), GroupDigits(totals.Span.Nanoseconds()))
	fmt.Fprintf(w, "digest: %016x\n", digest)
	return nil
}

// isViolation tells protocol violations apart from capture diagnostics
func isViolation(k metrics.ErrorKind) bool {
	switch k {
	case metrics.ErrorMalformedFrame, metrics.ErrorUnknownService, metrics.ErrorTimestampRegression:
		return false
	}
	return true
}
