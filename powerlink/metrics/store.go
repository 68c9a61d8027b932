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
Package metrics implements the append-only sample store filled by the analyzer
and the aggregate statistics computed over it once the capture is fully consumed.

Store is not safe for concurrent use. Each analysis run owns its own Store.
*/
package metrics

import (
	"time"

	"golang.org/x/exp/slices"
)

// Totals describes the analyzed capture as a whole
type Totals struct {
	Frames int
	// Span is time between first and last frame of the capture
	Span time.Duration
}

// Store keeps all samples produced during one analysis run
type Store struct {
	cycles       []CycleSample
	responses    []ResponseSample
	errors       []ErrorSample
	stateChanges []StateChangeSample

	frames int
	first  time.Time
	last   time.Time
}

// NewStore returns empty Store
func NewStore() *Store {
	return &Store{}
}

// AddCycle appends cycle sample
func (s *Store) AddCycle(c CycleSample) {
	s.cycles = append(s.cycles, c)
}

// AddResponse appends response sample
func (s *Store) AddResponse(r ResponseSample) {
	s.responses = append(s.responses, r)
}

// AddError appends error sample
func (s *Store) AddError(e ErrorSample) {
	s.errors = append(s.errors, e)
}

// AddStateChange appends state change sample
func (s *Store) AddStateChange(c StateChangeSample) {
	s.stateChanges = append(s.stateChanges, c)
}

// ObserveFrame accounts frame for Totals
func (s *Store) ObserveFrame(ts time.Time) {
	if s.frames == 0 {
		s.first = ts
	}
	s.last = ts
	s.frames++
}

// Totals returns number of frames and time span of the capture
func (s *Store) Totals() Totals {
	return Totals{Frames: s.frames, Span: s.last.Sub(s.first)}
}

// Responses returns copy of all response samples in insertion order
func (s *Store) Responses() []ResponseSample {
	return slices.Clone(s.responses)
}

// Errors returns copy of all error samples in insertion order
func (s *Store) Errors() []ErrorSample {
	return slices.Clone(s.errors)
}

// Cycles returns copy of all cycle samples in insertion order
func (s *Store) Cycles() []CycleSample {
	return slices.Clone(s.cycles)
}

// StateChanges returns all state changes ordered by elapsed time
func (s *Store) StateChanges() []StateChangeSample {
	res := slices.Clone(s.stateChanges)
	slices.SortStableFunc(res, func(a, b StateChangeSample) bool {
		return a.Elapsed < b.Elapsed
	})
	return res
}
