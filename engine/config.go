package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/toolscript/batch"
	"github.com/jonwraymond/toolscript/registry"
)

// Config holds the configuration for an execution engine.
type Config struct {
	// Registry provides capability resolution. Each run pins the
	// snapshot current at its start, so a reload never changes
	// resolution mid-flight. Required.
	Registry *registry.Registry

	// DefaultTimeout is the wall-clock budget applied when Options does
	// not specify one. Zero means no default timeout.
	DefaultTimeout time.Duration

	// MaxToolCalls caps capability invocations per run. Zero means
	// unlimited. Per-run options may lower but never raise the cap.
	MaxToolCalls int

	// MaxBatchInFlight bounds concurrent batch dispatches. Zero uses
	// batch.DefaultMaxInFlight.
	MaxBatchInFlight int

	// Logger is an optional logger for observability.
	Logger Logger
}

// Validate checks that all required fields are set.
// Returns ErrConfiguration if any required field is missing.
func (c *Config) Validate() error {
	var missing []string
	if c.Registry == nil {
		missing = append(missing, "Registry")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s",
			ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.MaxBatchInFlight <= 0 {
		c.MaxBatchInFlight = batch.DefaultMaxInFlight
	}
}

// Options are per-run overrides.
type Options struct {
	// Timeout overrides Config.DefaultTimeout when positive.
	Timeout time.Duration

	// MaxToolCalls overrides Config.MaxToolCalls; the config value
	// still caps it.
	MaxToolCalls int
}

// resolveMaxCalls applies the config cap to a per-run override.
func (c *Config) resolveMaxCalls(opts Options) int {
	maxCalls := opts.MaxToolCalls
	if c.MaxToolCalls > 0 {
		if maxCalls == 0 || maxCalls > c.MaxToolCalls {
			maxCalls = c.MaxToolCalls
		}
	}
	return maxCalls
}
