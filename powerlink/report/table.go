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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash"

	"github.com/facebook/plkan/powerlink/metrics"
)

// CSVHeader is the first line of CSV output
var CSVHeader = []string{"category", "node", "min", "quartile1", "median", "average", "quartile3", "max", "jitter_abs", "jitter_rel"}

func ns(d time.Duration) string {
	return strconv.FormatInt(d.Nanoseconds(), 10)
}

func csvRecord(r Row) []string {
	return []string{
		r.Label,
		strconv.Itoa(int(r.Node)),
		ns(r.Stats.Min),
		ns(r.Stats.Quartile1),
		ns(r.Stats.Median),
		strconv.FormatFloat(r.Stats.Mean, 'f', 2, 64),
		ns(r.Stats.Quartile3),
		ns(r.Stats.Max),
		strconv.FormatFloat(r.Stats.JitterAbs, 'f', 2, 64),
		strconv.FormatFloat(r.Stats.JitterRel, 'f', 6, 64),
	}
}

// CSV writes rows as CSV, durations in nanoseconds
func CSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writer.Write(csvRecord(r)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// MultiCSV writes rows of several captures as a single CSV document with a leading file column
func MultiCSV(w io.Writer, files []string, rows [][]Row) error {
	if len(files) != len(rows) {
		return fmt.Errorf("got %d files and %d row sets", len(files), len(rows))
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(append([]string{"file"}, CSVHeader...)); err != nil {
		return err
	}
	for i, file := range files {
		for _, r := range rows[i] {
			if err := writer.Write(append([]string{file}, csvRecord(r)...)); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func us(d float64) string {
	return strconv.FormatFloat(d/float64(time.Microsecond), 'f', 2, 64)
}

func latexLabel(label string) string {
	switch label {
	case LabelCycle:
		return "Cycle"
	case LabelResponses:
		return "Responses"
	}
	return metrics.Category(label).Label()
}

// LaTeX writes rows as a tabular environment, durations in microseconds
func LaTeX(w io.Writer, rows []Row) error {
	var b strings.Builder
	b.WriteString("\\begin{tabular}{llrrrrrrrr}\n\\hline\n")
	b.WriteString("Category & Node & Min & Q1 & Median & Avg & Q3 & Max & Jitter abs & Jitter rel \\\\\n\\hline\n")
	for _, r := range rows {
		node := "--"
		if r.Node != 0 {
			node = strconv.Itoa(int(r.Node))
		}
		fmt.Fprintf(&b, "%s & %s & %s & %s & %s & %s & %s & %s & %s & %.2f\\,\\%% \\\\\n",
			latexLabel(r.Label),
			node,
			us(float64(r.Stats.Min)),
			us(float64(r.Stats.Quartile1)),
			us(float64(r.Stats.Median)),
			us(r.Stats.Mean),
			us(float64(r.Stats.Quartile3)),
			us(float64(r.Stats.Max)),
			us(r.Stats.JitterAbs),
			r.Stats.JitterRel*100,
		)
	}
	b.WriteString("\\hline\n\\end{tabular}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// Digest returns a hash of statistics rows. Analyzing the same frames twice gives the same digest.
func Digest(src Source) (uint64, error) {
	rows, err := Build(src)
	if err != nil {
		return 0, err
	}
	h := xxhash.New()
	if err := CSV(h, rows); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
