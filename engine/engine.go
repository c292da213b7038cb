package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"

	"github.com/jonwraymond/toolscript/registry"
	"github.com/jonwraymond/toolscript/render"
	"github.com/jonwraymond/toolscript/script"
)

// Engine runs validated scripts against a registry snapshot.
//
// Contract:
// - Concurrency: safe for concurrent use; each run has isolated state.
// - Context: honors cancellation/deadlines; the wall-clock budget is
//   the only cancellation trigger and yields ErrTimeout.
// - Errors: dispatch failures carry the sentinel for their taxonomy
//   class; script faults surface as *ScriptError.
// - Ownership: the returned Outcome is caller-owned.
type Engine struct {
	cfg Config
}

// New creates an Engine with the given configuration.
// Returns ErrConfiguration if a required field is missing.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Engine{cfg: cfg}, nil
}

// Run executes a validated script once and extracts its result.
//
// The execution namespace binds every registry namespace to a dispatch
// proxy and predeclares the batch builtin. The registry snapshot is
// pinned at the start of the run, so a concurrent reload never changes
// resolution mid-flight.
//
// The Outcome is meaningful even when an error is returned: its Trace
// records every dispatch that completed before the failure. On timeout
// no partial value is returned.
func (e *Engine) Run(ctx context.Context, checked *script.Checked, opts Options) (Outcome, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = e.cfg.DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	state := &runState{
		ctx:         ctx,
		snapshot:    e.cfg.Registry.Current(),
		logger:      e.cfg.Logger,
		maxCalls:    e.cfg.resolveMaxCalls(opts),
		maxInFlight: e.cfg.MaxBatchInFlight,
	}

	predeclared := starlark.StringDict{"batch": state.batchBuiltin()}
	for _, ns := range state.snapshot.Namespaces() {
		predeclared[ns] = &namespaceValue{name: ns, state: state}
	}

	thread := &starlark.Thread{
		Name:  checked.Filename,
		Print: func(_ *starlark.Thread, msg string) { state.print(msg) },
		Load:  loadModule,
	}

	// Mirror context cancellation into the interpreter.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel("wall clock budget exceeded")
		case <-watchDone:
		}
	}()

	start := time.Now()
	globals, err := starlark.ExecFileOptions(script.FileOptions(), thread, checked.Filename, checked.ExecSource(), predeclared)
	close(watchDone)

	outcome := Outcome{
		Stdout:     state.stdoutString(),
		Trace:      state.traceSnapshot(),
		DurationMs: time.Since(start).Milliseconds(),
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return outcome, fmt.Errorf("%w: after %v", ErrTimeout, timeout)
		}
		return outcome, classifyError(err)
	}

	if v, ok := globals[script.ResultVar]; ok {
		gv, convErr := fromStarlark(v)
		if convErr != nil {
			return outcome, &ScriptError{Message: fmt.Sprintf("result value: %v", convErr), Err: ErrScriptExecution}
		}
		outcome.Value = render.Normalize(gv)
	}
	// The format directive never fails: a missing, non-string, or
	// unrecognized value falls through to the serializer default.
	if v, ok := globals[script.FormatVar]; ok {
		if s, ok := starlark.AsString(v); ok {
			outcome.Format = s
		}
	}

	if e.cfg.Logger != nil {
		e.cfg.Logger.Logf("executed %d capability calls in %dms", len(outcome.Trace), outcome.DurationMs)
	}
	return outcome, nil
}

// loadModule serves the load() allow-list: the bundled Starlark utility
// modules only. The validator rejects any other target before
// execution; this hook is the second line.
func loadModule(_ *starlark.Thread, module string) (starlark.StringDict, error) {
	switch module {
	case "json":
		return starlark.StringDict{"json": starlarkJSON}, nil
	case "math":
		return starlark.StringDict{"math": starlarkMath}, nil
	case "time":
		return starlark.StringDict{"time": starlarkTime}, nil
	default:
		return nil, fmt.Errorf("load of %q is not permitted", module)
	}
}

// classifyError maps interpreter errors onto the error taxonomy.
// Dispatch-originated sentinels pass through; everything else becomes a
// located ScriptError.
func classifyError(err error) error {
	var ee *starlark.EvalError
	if errors.As(err, &ee) {
		cause := ee.Unwrap()
		if cause != nil {
			switch {
			case errors.Is(cause, ErrResolution),
				errors.Is(cause, ErrCapability),
				errors.Is(cause, ErrLimitExceeded),
				errors.Is(cause, registry.ErrArgumentInvalid):
				return cause
			}
		}
		se := &ScriptError{Message: ee.Msg, Err: cause}
		if n := len(ee.CallStack); n > 0 {
			pos := ee.CallStack.At(n - 1).Pos
			se.Line = int(pos.Line)
			se.Column = int(pos.Col)
		}
		return se
	}

	var rerrs resolve.ErrorList
	if errors.As(err, &rerrs) && len(rerrs) > 0 {
		first := rerrs[0]
		se := &ScriptError{
			Message: first.Msg,
			Line:    int(first.Pos.Line),
			Column:  int(first.Pos.Col),
		}
		// An undefined top-level name is a reference to a namespace the
		// registry does not hold.
		if strings.HasPrefix(first.Msg, "undefined:") {
			se.Err = ErrResolution
		}
		return se
	}

	return &ScriptError{Message: err.Error(), Err: err}
}
