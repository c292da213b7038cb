// Package submit is the facade for one-shot script submissions.
// It composes the pipeline: registry snapshot, static validation,
// execution, and result serialization, and maps the outcome onto the
// wire-level response.
package submit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/toolscript/engine"
	"github.com/jonwraymond/toolscript/registry"
	"github.com/jonwraymond/toolscript/render"
	"github.com/jonwraymond/toolscript/script"
)

// Submission statuses.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusRejected = "rejected"
	StatusTimeout  = "timeout"
)

// Request is one script submission. Each submission is independent; no
// state persists between submissions.
type Request struct {
	// Source is the script text.
	Source string `json:"source"`

	// Timeout overrides the service's default wall-clock budget when
	// positive.
	Timeout time.Duration `json:"timeout,omitempty"`

	// MaxToolCalls overrides the service's capability-call cap; the
	// configured cap still applies.
	MaxToolCalls int `json:"maxToolCalls,omitempty"`
}

// TraceEntry is the wire form of one capability dispatch.
type TraceEntry struct {
	Namespace  string `json:"namespace"`
	Operation  string `json:"operation"`
	DurationMs int64  `json:"durationMs"`
	Status     string `json:"status"`
}

// Response is the result of one submission.
//
// A rejected submission carries the violation and no trace, since no
// capability ever ran. A timed-out submission carries no result and no
// trace. Every other response includes the trace of what ran, even
// when some or all of it failed.
type Response struct {
	ID         string            `json:"id"`
	Status     string            `json:"status"`
	Result     string            `json:"result,omitempty"`
	Format     string            `json:"format,omitempty"`
	Error      string            `json:"error,omitempty"`
	Violation  *script.Violation `json:"violation,omitempty"`
	Trace      []TraceEntry      `json:"trace,omitempty"`
	DurationMs int64             `json:"durationMs"`
}

// Config holds the configuration for a submission service.
type Config struct {
	// Registry provides capability resolution. Required.
	Registry *registry.Registry

	// Policy is the validation policy. Nil means script.DefaultPolicy.
	Policy *script.Policy

	// DefaultTimeout, MaxToolCalls, and MaxBatchInFlight configure the
	// engine; see engine.Config.
	DefaultTimeout   time.Duration
	MaxToolCalls     int
	MaxBatchInFlight int

	// Logger is an optional logger for observability.
	Logger engine.Logger
}

// Service runs the submission pipeline. Safe for concurrent use.
type Service struct {
	policy *script.Policy
	engine *engine.Engine
	logger engine.Logger
}

// New creates a Service. Returns engine.ErrConfiguration when required
// fields are missing.
func New(cfg Config) (*Service, error) {
	eng, err := engine.New(engine.Config{
		Registry:         cfg.Registry,
		DefaultTimeout:   cfg.DefaultTimeout,
		MaxToolCalls:     cfg.MaxToolCalls,
		MaxBatchInFlight: cfg.MaxBatchInFlight,
		Logger:           cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	policy := cfg.Policy
	if policy == nil {
		policy = script.DefaultPolicy()
	}
	return &Service{policy: policy, engine: eng, logger: cfg.Logger}, nil
}

// Submit validates, executes, and serializes one script submission.
// It never returns an error: every failure mode maps onto the response
// status and fields.
func (s *Service) Submit(ctx context.Context, req Request) Response {
	id := uuid.NewString()

	checked, violation := script.Validate("submission.star", req.Source, s.policy)
	if violation != nil {
		if s.logger != nil {
			s.logger.Logf("submission %s rejected: %v", id, violation)
		}
		return Response{ID: id, Status: StatusRejected, Violation: violation}
	}

	outcome, err := s.engine.Run(ctx, checked, engine.Options{
		Timeout:      req.Timeout,
		MaxToolCalls: req.MaxToolCalls,
	})

	resp := Response{
		ID:         id,
		Format:     outcome.Format,
		DurationMs: outcome.DurationMs,
	}

	if err != nil {
		if errors.Is(err, engine.ErrTimeout) {
			resp.Status = StatusTimeout
			resp.Error = err.Error()
			return resp
		}
		resp.Status = StatusError
		resp.Error = err.Error()
		resp.Trace = toTrace(outcome.Trace)
		return resp
	}

	text, serr := render.Serialize(outcome.Value, outcome.Format)
	if serr != nil {
		resp.Status = StatusError
		resp.Error = serr.Error()
		resp.Trace = toTrace(outcome.Trace)
		return resp
	}

	resp.Status = StatusSuccess
	resp.Result = text
	resp.Trace = toTrace(outcome.Trace)
	return resp
}

func toTrace(records []engine.CallRecord) []TraceEntry {
	out := make([]TraceEntry, len(records))
	for i, r := range records {
		out[i] = TraceEntry{
			Namespace:  r.Namespace,
			Operation:  r.Operation,
			DurationMs: r.DurationMs,
			Status:     r.Status,
		}
	}
	return out
}
