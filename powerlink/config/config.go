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

package config

import (
	"fmt"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	yaml "gopkg.in/yaml.v2"

	"github.com/facebook/plkan/powerlink/report"
)

// Config specifies plkan run options
type Config struct {
	Output   string `yaml:"output"`   // report format, one of report.Formats
	Jobs     int    `yaml:"jobs"`     // how many capture files are analyzed in parallel
	Filter   string `yaml:"filter"`   // raw rows filter expression
	Sort     bool   `yaml:"sort"`     // sort raw rows by elapsed time, descending
	Textfile string `yaml:"textfile"` // write prometheus textfile here, if set
	Color    bool   `yaml:"color"`    // highlight errors in text report
}

// DefaultConfig returns Config initialized with default values
func DefaultConfig() *Config {
	return &Config{
		Output: report.FormatText,
		Jobs:   runtime.NumCPU(),
	}
}

// Validate config is sane
func (c *Config) Validate() error {
	if !slices.Contains(report.Formats, c.Output) {
		return fmt.Errorf("output must be one of %v", report.Formats)
	}
	if c.Jobs <= 0 {
		return fmt.Errorf("jobs must be greater than zero")
	}
	if _, err := report.PrepareFilter(c.Filter); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	return nil
}

// ReadConfig reads config from the file
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.UnmarshalStrict(cData, c); err != nil {
		return nil, err
	}
	return c, nil
}

// PrepareConfig prepares final version of config based on defaults, on-disk config and CLI flags, and validates resulting config.
// Only flags present in setFlags override values from the file.
func PrepareConfig(cfgPath string, flags *Config, setFlags map[string]bool) (*Config, error) {
	cfg := DefaultConfig()
	var err error
	if cfgPath != "" {
		cfg, err = ReadConfig(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("reading config from %q: %w", cfgPath, err)
		}
	}
	warn := func(name string) {
		if cfgPath != "" {
			log.Debugf("overriding %s from CLI flag", name)
		}
	}
	if setFlags["output"] {
		warn("output")
		cfg.Output = flags.Output
	}
	if setFlags["jobs"] {
		warn("jobs")
		cfg.Jobs = flags.Jobs
	}
	if setFlags["filter"] {
		warn("filter")
		cfg.Filter = flags.Filter
	}
	if setFlags["sort"] {
		warn("sort")
		cfg.Sort = flags.Sort
	}
	if setFlags["textfile"] {
		warn("textfile")
		cfg.Textfile = flags.Textfile
	}
	if setFlags["color"] {
		warn("color")
		cfg.Color = flags.Color
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	log.Debugf("config: %+v", cfg)
	return cfg, nil
}
