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

	"github.com/Knetic/govaluate"
	"golang.org/x/exp/slices"

	"github.com/facebook/plkan/powerlink/metrics"
)

// FilterHelp describes what can be used in raw row filters
const FilterHelp = `Raw rows can be filtered with a boolean expression.
evaluation is done with govaluate, please check https://github.com/Knetic/govaluate/blob/master/MANUAL.md
supported variables:
  node (node id of the responding node)
  elapsed (time from request to response, in ns)
  category (one of pres, ident, status, sdo, nmt_command, veth)
  master_state (MN state name, like Operational)
  node_state (CN state name)
example:
  category == 'pres' && elapsed > 20000`

var supportedVars = map[string]bool{
	"node":         true,
	"elapsed":      true,
	"category":     true,
	"master_state": true,
	"node_state":   true,
}

// RawHeader is the first line of raw output
var RawHeader = []string{"elapsed_ns", "category", "node"}

// PrepareFilter parses raw row filter. Empty expression matches everything and returns nil.
func PrepareFilter(exprStr string) (*govaluate.EvaluableExpression, error) {
	if exprStr == "" {
		return nil, nil
	}
	expr, err := govaluate.NewEvaluableExpression(exprStr)
	if err != nil {
		return nil, err
	}
	for _, v := range expr.Vars() {
		if !supportedVars[v] {
			return nil, fmt.Errorf("unsupported variable %q", v)
		}
	}
	return expr, nil
}

func matches(expr *govaluate.EvaluableExpression, r *metrics.ResponseSample) (bool, error) {
	if expr == nil {
		return true, nil
	}
	res, err := expr.Evaluate(map[string]interface{}{
		"node":         float64(r.Node),
		"elapsed":      float64(r.Elapsed.Nanoseconds()),
		"category":     string(r.Category),
		"master_state": r.MasterState.String(),
		"node_state":   r.NodeState.String(),
	})
	if err != nil {
		return false, err
	}
	ok, isBool := res.(bool)
	if !isBool {
		return false, fmt.Errorf("filter must evaluate to a boolean, got %v", res)
	}
	return ok, nil
}

// RawRows returns response samples matching the filter, in capture order or by elapsed time descending
func RawRows(src Source, exprStr string, sortDesc bool) ([]metrics.ResponseSample, error) {
	expr, err := PrepareFilter(exprStr)
	if err != nil {
		return nil, fmt.Errorf("parsing filter: %w", err)
	}
	var res []metrics.ResponseSample
	for _, r := range src.Responses() {
		ok, err := matches(expr, &r)
		if err != nil {
			return nil, fmt.Errorf("evaluating filter: %w", err)
		}
		if ok {
			res = append(res, r)
		}
	}
	if sortDesc {
		slices.SortStableFunc(res, func(a, b metrics.ResponseSample) bool {
			return a.Elapsed > b.Elapsed
		})
	}
	return res, nil
}

// Raw writes individual response samples as CSV
func Raw(w io.Writer, src Source, exprStr string, sortDesc bool) error {
	rows, err := RawRows(src, exprStr, sortDesc)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(RawHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writer.Write([]string{ns(r.Elapsed), string(r.Category), strconv.Itoa(int(r.Node))}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
