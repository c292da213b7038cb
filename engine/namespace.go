package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.starlark.net/starlark"

	"github.com/jonwraymond/toolscript/registry"
	"github.com/jonwraymond/toolscript/render"
)

// runState is the per-run execution state shared by the dispatch
// proxies and the batch builtin. The mutex guards the trace, the call
// counter, and the stdout buffer; it is never held across a capability
// call.
type runState struct {
	ctx         context.Context
	snapshot    *registry.Snapshot
	logger      Logger
	maxCalls    int
	maxInFlight int

	mu        sync.Mutex
	trace     []CallRecord
	callCount int
	stdout    strings.Builder
}

// dispatchCall resolves, validates, and invokes one capability call,
// recording a trace entry for every call that reaches validation.
func (s *runState) dispatchCall(ctx context.Context, ns, op string, args map[string]any) (any, error) {
	desc, err := s.snapshot.Resolve(ns, op)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolution, err)
	}

	s.mu.Lock()
	if s.maxCalls > 0 && s.callCount >= s.maxCalls {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: max capability calls (%d) exceeded", ErrLimitExceeded, s.maxCalls)
	}
	s.callCount++
	s.mu.Unlock()

	if err := desc.ValidateArgs(args); err != nil {
		s.record(CallRecord{
			Namespace: ns, Operation: op, Args: args,
			Error: err.Error(), Status: StatusError,
		})
		return nil, err
	}

	start := time.Now()
	value, err := desc.Handler(ctx, args)
	duration := time.Since(start).Milliseconds()

	rec := CallRecord{Namespace: ns, Operation: op, Args: args, DurationMs: duration}
	if err != nil {
		rec.Error = err.Error()
		rec.Status = StatusError
		s.record(rec)
		return nil, fmt.Errorf("%w: %s: %v", ErrCapability, desc.ID(), err)
	}

	value = render.Normalize(value)
	rec.Value = value
	rec.Status = StatusSuccess
	s.record(rec)

	if s.logger != nil {
		s.logger.Logf("dispatched %s in %dms", desc.ID(), duration)
	}
	return value, nil
}

func (s *runState) record(rec CallRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace = append(s.trace, rec)
}

func (s *runState) traceSnapshot() []CallRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CallRecord(nil), s.trace...)
}

func (s *runState) print(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stdout.WriteString(msg)
	s.stdout.WriteString("\n")
}

func (s *runState) stdoutString() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stdout.String()
}

// namespaceValue is the dispatch proxy bound to each registry namespace
// in the execution namespace. Attribute access resolves an operation
// and yields a kwargs-only builtin that dispatches through runState.
type namespaceValue struct {
	name  string
	state *runState
}

var (
	_ starlark.Value    = (*namespaceValue)(nil)
	_ starlark.HasAttrs = (*namespaceValue)(nil)
)

func (n *namespaceValue) String() string        { return "<namespace " + n.name + ">" }
func (n *namespaceValue) Type() string          { return "namespace" }
func (n *namespaceValue) Freeze()               {}
func (n *namespaceValue) Truth() starlark.Bool  { return starlark.True }
func (n *namespaceValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: namespace") }

func (n *namespaceValue) Attr(name string) (starlark.Value, error) {
	if _, err := n.state.snapshot.Resolve(n.name, name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolution, err)
	}
	full := n.name + "." + name
	return starlark.NewBuiltin(full, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: %s accepts keyword arguments only", registry.ErrArgumentInvalid, b.Name())
		}
		argMap, err := kwargsToMap(kwargs)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", registry.ErrArgumentInvalid, b.Name(), err)
		}
		value, err := n.state.dispatchCall(n.state.ctx, n.name, name, argMap)
		if err != nil {
			return nil, err
		}
		return toStarlark(value)
	}), nil
}

func (n *namespaceValue) AttrNames() []string {
	ops := n.state.snapshot.Operations(n.name)
	out := make([]string, len(ops))
	for i, d := range ops {
		out[i] = d.Operation
	}
	return out
}
