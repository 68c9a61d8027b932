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

package metrics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/eclesh/welford"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/facebook/plkan/powerlink/protocol"
)

// ErrEmptySet is returned when no samples match the filter
var ErrEmptySet = errors.New("no samples match")

// Quantiles reported in ResponseStats
const (
	Quartile1 = 0.25
	Median    = 0.5
	Quartile3 = 0.75
	// Percentile99 is exported alongside ResponseStats
	Percentile99 = 0.99
)

// ResponseStats is aggregate statistics over a set of durations.
// Mean, Stddev and JitterAbs are in nanoseconds.
type ResponseStats struct {
	Count     int
	Min       time.Duration
	Max       time.Duration
	Mean      float64
	Stddev    float64
	JitterAbs float64
	// JitterRel is JitterAbs relative to Mean, 0.05 means 5%
	JitterRel float64
	Quartile1 time.Duration
	Median    time.Duration
	Quartile3 time.Duration
}

// ErrorCount is number of identical errors
type ErrorCount struct {
	Kind        ErrorKind
	Node        uint8
	MasterState protocol.NMTState
	NodeState   protocol.NMTState
	Count       int
}

// values returns durations matching the filter, in insertion order
func (s *Store) values(f Filter) []time.Duration {
	var res []time.Duration
	switch f.Kind {
	case KindCycle:
		res = make([]time.Duration, 0, len(s.cycles))
		for _, c := range s.cycles {
			res = append(res, c.Interval)
		}
	case KindResponse:
		for i := range s.responses {
			if f.matchResponse(&s.responses[i]) {
				res = append(res, s.responses[i].Elapsed)
			}
		}
	}
	return res
}

func sortedValues(s *Store, f Filter) ([]time.Duration, error) {
	vals := s.values(f)
	if len(vals) == 0 {
		return nil, fmt.Errorf("%s: %w", f, ErrEmptySet)
	}
	slices.Sort(vals)
	return vals, nil
}

// rankEpsilon absorbs binary rounding of n*p, e.g. 100*0.07 = 7.000000000000001
const rankEpsilon = 1e-9

// nearestRank picks value at sorted position ceil(n*p), counting from 1
func nearestRank(sorted []time.Duration, p float64) time.Duration {
	rank := int(math.Ceil(float64(len(sorted))*p - rankEpsilon))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

func checkQuantile(p float64) error {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return fmt.Errorf("percentile must be within [0, 1], got %v", p)
	}
	return nil
}

// Percentile returns nearest-rank percentile of the matching values
func (s *Store) Percentile(f Filter, p float64) (time.Duration, error) {
	if err := checkQuantile(p); err != nil {
		return 0, err
	}
	sorted, err := sortedValues(s, f)
	if err != nil {
		return 0, err
	}
	return nearestRank(sorted, p), nil
}

// Aggregate computes ResponseStats over matching values
func (s *Store) Aggregate(f Filter) (*ResponseStats, error) {
	sorted, err := sortedValues(s, f)
	if err != nil {
		return nil, err
	}
	w := welford.New()
	var sum int64
	for _, v := range sorted {
		sum += int64(v)
		w.Add(float64(v))
	}
	n := len(sorted)
	stats := &ResponseStats{
		Count:     n,
		Min:       sorted[0],
		Max:       sorted[n-1],
		Mean:      float64(sum) / float64(n),
		Quartile1: nearestRank(sorted, Quartile1),
		Median:    nearestRank(sorted, Median),
		Quartile3: nearestRank(sorted, Quartile3),
	}
	if n > 1 {
		stats.Stddev = w.Stddev()
	}
	stats.JitterAbs = math.Max(stats.Mean-float64(stats.Min), float64(stats.Max)-stats.Mean)
	if stats.Mean != 0 {
		stats.JitterRel = stats.JitterAbs / stats.Mean
	}
	return stats, nil
}

// DistinctNodes returns ascending node ids seen in samples matching the filter
func (s *Store) DistinctNodes(f Filter) []uint8 {
	if f.Kind != KindResponse {
		return nil
	}
	seen := map[uint8]bool{}
	for i := range s.responses {
		if f.matchResponse(&s.responses[i]) {
			seen[s.responses[i].Node] = true
		}
	}
	nodes := maps.Keys(seen)
	slices.Sort(nodes)
	return nodes
}

// ErrorSummary groups errors by kind, node, master state and node state.
// Result is ordered by node, master state, node state and then kind.
func (s *Store) ErrorSummary() []ErrorCount {
	type key struct {
		kind        ErrorKind
		node        uint8
		masterState protocol.NMTState
		nodeState   protocol.NMTState
	}
	counts := map[key]int{}
	for _, e := range s.errors {
		counts[key{kind: e.Kind, node: e.Node, masterState: e.MasterState, nodeState: e.NodeState}]++
	}
	res := make([]ErrorCount, 0, len(counts))
	for k, c := range counts {
		res = append(res, ErrorCount{Kind: k.kind, Node: k.node, MasterState: k.masterState, NodeState: k.nodeState, Count: c})
	}
	slices.SortFunc(res, func(a, b ErrorCount) bool {
		if a.Node != b.Node {
			return a.Node < b.Node
		}
		if a.MasterState != b.MasterState {
			return a.MasterState < b.MasterState
		}
		if a.NodeState != b.NodeState {
			return a.NodeState < b.NodeState
		}
		return a.Kind < b.Kind
	})
	return res
}
