// Copyright (C) 2019-2026, Warp Core Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"strings"

	"github.com/luxfi/log"
)

// ValidationMode determines how strict validation should be.
type ValidationMode int

// ValidationMode values.
const (
	// StrictMode flags suboptimal-but-legal tuning as a warning.
	StrictMode ValidationMode = iota
	// SoftMode only rejects values Parameters.Validate itself would
	// reject; no advisory warnings are produced.
	SoftMode
)

// ValidationError describes one field that failed or merely deviated
// from recommended tuning.
type ValidationError struct {
	Field      string
	Value      interface{}
	Constraint string
	Severity   string // "error" or "warning"
	Suggestion string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s=%v violates constraint: %s", ve.Severity, ve.Field, ve.Value, ve.Constraint)
}

// ValidationResult collects every error and warning found by one
// ValidateDetailed call.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
	Valid    bool
}

// Validator applies StrictMode/SoftMode tuning advice on top of
// Parameters.Validate's hard constraints.
type Validator struct {
	mode ValidationMode
}

// NewValidator returns a StrictMode validator.
func NewValidator() *Validator {
	return &Validator{mode: StrictMode}
}

// WithMode sets the validation mode and returns v for chaining.
func (v *Validator) WithMode(mode ValidationMode) *Validator {
	v.mode = mode
	return v
}

// Validate returns a single combined error if p fails hard validation; nil
// otherwise. Warnings, including those StrictMode adds, never cause an
// error here; ValidateDetailed reports them.
func (v *Validator) Validate(p Parameters) error {
	result := v.ValidateDetailed(p)
	if !result.Valid {
		var msgs []string
		for _, e := range result.Errors {
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("config: validation failed:\n%s", strings.Join(msgs, "\n"))
	}
	return nil
}

// ValidateDetailed runs every check and returns the full result,
// including warnings, without discarding anything by returning early.
func (v *Validator) ValidateDetailed(p Parameters) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := p.Validate(); err != nil {
		v.addError(result, "Parameters", nil, err.Error(), "see Parameters field docs")
	}

	v.validateShardTuning(p, result)
	v.validateRetention(p, result)

	return result
}

func (v *Validator) validateShardTuning(p Parameters, result *ValidationResult) {
	if v.mode != StrictMode {
		return
	}
	if p.MaxWorkers > 0 && p.NumShards < p.MaxWorkers {
		v.addWarning(result, "NumShards", p.NumShards,
			fmt.Sprintf("fewer shards (%d) than workers (%d) starves some workers every tick", p.NumShards, p.MaxWorkers),
			fmt.Sprintf("set NumShards >= %d", p.MaxWorkers))
	}
	if p.NumShards > 4096 {
		log.Warn("excessive shard count may dominate scheduling overhead", "num_shards", p.NumShards)
		v.addWarning(result, "NumShards", p.NumShards,
			"very high shard count adds partitioning overhead for little parallelism gain",
			"consider NumShards <= 1024 unless profiling shows otherwise")
	}
}

func (v *Validator) validateRetention(p Parameters, result *ValidationResult) {
	if v.mode != StrictMode {
		return
	}
	if !p.Retention.Unbounded && p.Retention.MaxTicks < p.CheckpointEvery {
		v.addWarning(result, "Retention.MaxTicks", p.Retention.MaxTicks,
			fmt.Sprintf("retains fewer ticks (%d) than one checkpoint interval (%d)", p.Retention.MaxTicks, p.CheckpointEvery),
			fmt.Sprintf("set Retention.MaxTicks >= %d", p.CheckpointEvery))
	}
	if p.Retention.Unbounded {
		log.Warn("unbounded worldline retention configured", "checkpoint_every", p.CheckpointEvery)
	}
}

func (v *Validator) addError(result *ValidationResult, field string, value interface{}, constraint, suggestion string) {
	result.Errors = append(result.Errors, ValidationError{
		Field: field, Value: value, Constraint: constraint, Severity: "error", Suggestion: suggestion,
	})
	result.Valid = false
}

func (v *Validator) addWarning(result *ValidationResult, field string, value interface{}, constraint, suggestion string) {
	result.Warnings = append(result.Warnings, ValidationError{
		Field: field, Value: value, Constraint: constraint, Severity: "warning", Suggestion: suggestion,
	})
}
