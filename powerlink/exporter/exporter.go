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
Package exporter writes analysis results as Prometheus metrics in the
node_exporter textfile collector format.
*/
package exporter

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/facebook/plkan/powerlink/metrics"
	"github.com/facebook/plkan/powerlink/report"
)

// Exporter collects results of one or more analyzed captures
type Exporter struct {
	registry *prometheus.Registry
	latency  *prometheus.GaugeVec
	errors   *prometheus.GaugeVec
	frames   *prometheus.GaugeVec
	span     *prometheus.GaugeVec
}

// New creates Exporter with its own registry
func New() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plkan_latency_ns",
			Help: "Cycle and response time statistics, in ns. jitter_rel and count are plain numbers.",
		}, []string{"file", "category", "node", "stat"}),
		errors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plkan_errors",
			Help: "Number of protocol violations and capture diagnostics",
		}, []string{"file", "kind", "node"}),
		frames: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plkan_frames",
			Help: "Number of frames in the capture",
		}, []string{"file"}),
		span: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plkan_capture_span_ns",
			Help: "Time between first and last frame of the capture, in ns",
		}, []string{"file"}),
	}
	e.registry.MustRegister(e.latency, e.errors, e.frames, e.span)
	return e
}

// Add records results of a single capture file
func (e *Exporter) Add(file string, rows []report.Row, errs []metrics.ErrorCount, totals metrics.Totals) {
	for _, r := range rows {
		node := strconv.Itoa(int(r.Node))
		for stat, v := range statValues(&r) {
			e.latency.WithLabelValues(file, r.Label, node, stat).Set(v)
		}
	}
	for _, c := range errs {
		e.errors.WithLabelValues(file, string(c.Kind), strconv.Itoa(int(c.Node))).Add(float64(c.Count))
	}
	e.frames.WithLabelValues(file).Set(float64(totals.Frames))
	e.span.WithLabelValues(file).Set(float64(totals.Span.Nanoseconds()))
}

func statValues(r *report.Row) map[string]float64 {
	s := &r.Stats
	return map[string]float64{
		"p99":        float64(r.P99),
		"count":      float64(s.Count),
		"min":        float64(s.Min),
		"quartile1":  float64(s.Quartile1),
		"median":     float64(s.Median),
		"mean":       s.Mean,
		"quartile3":  float64(s.Quartile3),
		"max":        float64(s.Max),
		"stddev":     s.Stddev,
		"jitter_abs": s.JitterAbs,
		"jitter_rel": s.JitterRel,
	}
}

// WriteTextfile atomically writes all collected metrics to path
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteTextfile writes results of a single capture to path
func WriteTextfile(path, file string, rows []report.Row, errs []metrics.ErrorCount, totals metrics.Totals) error {
	e := New()
	e.Add(file, rows, errs, totals)
	return e.WriteTextfile(path)
}
