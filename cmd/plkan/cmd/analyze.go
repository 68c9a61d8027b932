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

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/facebook/plkan/powerlink/analyzer"
	"github.com/facebook/plkan/powerlink/capture"
	"github.com/facebook/plkan/powerlink/metrics"
)

// analyzeFile runs a fresh analyzer over a single capture file
func analyzeFile(ctx context.Context, path string) (*metrics.Store, error) {
	f, err := capture.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	store := metrics.NewStore()
	n, err := analyzer.Run(ctx, f, analyzer.New(store))
	if err != nil {
		return nil, err
	}
	log.Debugf("%s: analyzed %d frames", path, n)
	return store, nil
}

// analyzeFiles analyzes captures in parallel, at most jobs at a time.
// Every capture gets its own store, results are in the same order as paths.
func analyzeFiles(ctx context.Context, paths []string, jobs int) ([]*metrics.Store, error) {
	stores := make([]*metrics.Store, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			store, err := analyzeFile(ctx, path)
			if err != nil {
				return fmt.Errorf("analyzing %s: %w", path, err)
			}
			stores[i] = store
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return stores, nil
}
