package gomart

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// StageReport records the row counts of one materialized stage.
type StageReport struct {
	Name     string        `yaml:"name"`
	RowsIn   int           `yaml:"rows_in"`
	RowsOut  int           `yaml:"rows_out"`
	Dropped  int           `yaml:"dropped"`
	Duration time.Duration `yaml:"duration"`
}

// Report summarizes a pipeline run.
type Report struct {
	RunID     string        `yaml:"run_id"`
	StartedAt time.Time     `yaml:"started_at"`
	Stages    []StageReport `yaml:"stages"`
	Merge     MergeAudit    `yaml:"merge"`
}

// Stage returns the report of the named stage.
func (r Report) Stage(name string) (StageReport, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageReport{}, false
}

// WriteYAML encodes the report as YAML.
func (r Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

// ReadReport decodes a report written by WriteYAML.
func ReadReport(r io.Reader) (Report, error) {
	var rep Report
	if err := yaml.NewDecoder(r).Decode(&rep); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	return rep, nil
}
