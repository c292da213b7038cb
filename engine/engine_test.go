package engine

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/toolscript/registry"
)

func TestNew_RequiresRegistry(t *testing.T) {
	_, err := New(Config{})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestRun_TrailingExpressionResult(t *testing.T) {
	eng := newTestEngine(t, Config{})
	outcome, err := runScript(t, eng, "result = 1 + 1\nresult\n", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Value != int64(2) {
		t.Errorf("expected 2, got %v (%T)", outcome.Value, outcome.Value)
	}
}

func TestRun_ExplicitResultWins(t *testing.T) {
	eng := newTestEngine(t, Config{})
	outcome, err := runScript(t, eng, "__out = \"chosen\"\n\"ignored\"\n", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Value != "chosen" {
		t.Errorf("expected explicit binding to win, got %v", outcome.Value)
	}
}

func TestRun_NoResult(t *testing.T) {
	eng := newTestEngine(t, Config{})
	outcome, err := runScript(t, eng, "x = 1\n", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Value != nil {
		t.Errorf("expected nil value, got %v", outcome.Value)
	}
}

func TestRun_FormatDirective(t *testing.T) {
	eng := newTestEngine(t, Config{})

	outcome, err := runScript(t, eng, "__format = \"yaml\"\n__out = 1\n", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Format != "yaml" {
		t.Errorf("expected yaml, got %q", outcome.Format)
	}

	// A non-string directive is ignored rather than failing the run.
	outcome, err = runScript(t, eng, "__format = 42\n__out = 1\n", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Format != "" {
		t.Errorf("expected empty format, got %q", outcome.Format)
	}
}

func TestRun_DispatchRecordsTrace(t *testing.T) {
	logger := &captureLogger{}
	eng := newTestEngine(t, Config{Logger: logger})

	outcome, err := runScript(t, eng, "__out = calc.add(a=20, b=22)\n", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Value != int64(42) {
		t.Errorf("expected 42, got %v", outcome.Value)
	}
	if len(outcome.Trace) != 1 {
		t.Fatalf("expected 1 trace entry, got %d", len(outcome.Trace))
	}
	rec := outcome.Trace[0]
	if rec.Namespace != "calc" || rec.Operation != "add" || rec.Status != StatusSuccess {
		t.Errorf("unexpected trace entry: %+v", rec)
	}
	if rec.Args["a"] != int64(20) {
		t.Errorf("expected recorded args, got %v", rec.Args)
	}
	if len(logger.lines()) == 0 {
		t.Error("expected dispatch to be logged")
	}
}

func TestRun_TraceLengthMatchesCalls(t *testing.T) {
	eng := newTestEngine(t, Config{})
	source := strings.Join([]string{
		"a = calc.add(a=1, b=2)",
		"b = calc.add(a=3, b=4)",
		"c = calc.add(a=5, b=6)",
		"__out = a + b + c",
	}, "\n")
	outcome, err := runScript(t, eng, source, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcome.Trace) != 3 {
		t.Errorf("expected 3 trace entries, got %d", len(outcome.Trace))
	}
	if outcome.Value != int64(21) {
		t.Errorf("expected 21, got %v", outcome.Value)
	}
}

func TestRun_UnknownNamespace(t *testing.T) {
	eng := newTestEngine(t, Config{})
	outcome, err := runScript(t, eng, "nosuch.query(q=\"x\")\n", Options{})
	if !errors.Is(err, ErrResolution) {
		t.Fatalf("expected ErrResolution, got %v", err)
	}
	if len(outcome.Trace) != 0 {
		t.Errorf("expected empty trace, got %d entries", len(outcome.Trace))
	}
}

func TestRun_UnknownOperation(t *testing.T) {
	eng := newTestEngine(t, Config{})
	_, err := runScript(t, eng, "calc.nosuch()\n", Options{})
	if !errors.Is(err, ErrResolution) {
		t.Fatalf("expected ErrResolution, got %v", err)
	}
}

func TestRun_PositionalArgsRejected(t *testing.T) {
	eng := newTestEngine(t, Config{})
	_, err := runScript(t, eng, "calc.add(1, 2)\n", Options{})
	if !errors.Is(err, registry.ErrArgumentInvalid) {
		t.Fatalf("expected ErrArgumentInvalid, got %v", err)
	}
}

func TestRun_InvalidArgsRecorded(t *testing.T) {
	eng := newTestEngine(t, Config{})
	outcome, err := runScript(t, eng, "calc.add(a=1)\n", Options{})
	if !errors.Is(err, registry.ErrArgumentInvalid) {
		t.Fatalf("expected ErrArgumentInvalid, got %v", err)
	}
	if len(outcome.Trace) != 1 || outcome.Trace[0].Status != StatusError {
		t.Errorf("expected a failed trace entry, got %+v", outcome.Trace)
	}
}

func TestRun_CapabilityFailureAbortsWithPartialTrace(t *testing.T) {
	eng := newTestEngine(t, Config{})
	source := strings.Join([]string{
		"a = calc.add(a=1, b=1)",
		"calc.fail()",
		"b = calc.add(a=2, b=2)",
	}, "\n")
	outcome, err := runScript(t, eng, source, Options{})
	if !errors.Is(err, ErrCapability) {
		t.Fatalf("expected ErrCapability, got %v", err)
	}
	// The statement after the failure never ran.
	if len(outcome.Trace) != 2 {
		t.Fatalf("expected 2 trace entries, got %d", len(outcome.Trace))
	}
	if outcome.Trace[1].Status != StatusError || !strings.Contains(outcome.Trace[1].Error, "backend unavailable") {
		t.Errorf("unexpected failure entry: %+v", outcome.Trace[1])
	}
}

func TestRun_MaxToolCallsEnforced(t *testing.T) {
	eng := newTestEngine(t, Config{MaxToolCalls: 2})
	source := strings.Join([]string{
		"calc.add(a=1, b=1)",
		"calc.add(a=2, b=2)",
		"calc.add(a=3, b=3)",
	}, "\n")
	outcome, err := runScript(t, eng, source, Options{})
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	if len(outcome.Trace) != 2 {
		t.Errorf("expected 2 completed calls, got %d", len(outcome.Trace))
	}
}

func TestRun_PerRunCapNeverRaisesConfigCap(t *testing.T) {
	eng := newTestEngine(t, Config{MaxToolCalls: 1})
	source := "calc.add(a=1, b=1)\ncalc.add(a=2, b=2)\n"
	_, err := runScript(t, eng, source, Options{MaxToolCalls: 10})
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected config cap to hold, got %v", err)
	}
}

func TestRun_Timeout(t *testing.T) {
	eng := newTestEngine(t, Config{DefaultTimeout: 50 * time.Millisecond})
	_, err := runScript(t, eng, "calc.block()\n", Options{})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestRun_ScriptRuntimeError(t *testing.T) {
	eng := newTestEngine(t, Config{})
	_, err := runScript(t, eng, "x = 1 + \"s\"\n", Options{})
	if !errors.Is(err, ErrScriptExecution) {
		t.Fatalf("expected ErrScriptExecution, got %v", err)
	}
	var se *ScriptError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ScriptError, got %T", err)
	}
	if se.Line == 0 {
		t.Error("expected a source location")
	}
}

func TestRun_PrintGoesToStdout(t *testing.T) {
	eng := newTestEngine(t, Config{})
	outcome, err := runScript(t, eng, "print(\"working\")\n__out = 1\n", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Stdout != "working\n" {
		t.Errorf("unexpected stdout: %q", outcome.Stdout)
	}
}

func TestRun_LoadBundledModule(t *testing.T) {
	eng := newTestEngine(t, Config{})
	source := "load(\"math\", \"math\")\n__out = math.sqrt(16.0)\n"
	outcome, err := runScript(t, eng, source, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Value != float64(4) {
		t.Errorf("expected 4.0, got %v", outcome.Value)
	}
}

func TestRun_BatchWithMiddleFailure(t *testing.T) {
	eng := newTestEngine(t, Config{})
	source := strings.Join([]string{
		"__out = batch([",
		"    {\"call\": \"calc.add\", \"args\": {\"a\": 1, \"b\": 2}},",
		"    {\"call\": \"calc.fail\"},",
		"    {\"call\": \"calc.add\", \"args\": {\"a\": 3, \"b\": 4}},",
		"])",
	}, "\n")
	outcome, err := runScript(t, eng, source, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, ok := outcome.Value.([]any)
	if !ok || len(results) != 3 {
		t.Fatalf("expected 3 results, got %#v", outcome.Value)
	}
	first := results[0].(map[string]any)
	if first["status"] != StatusSuccess || first["value"] != int64(3) {
		t.Errorf("unexpected first result: %v", first)
	}
	middle := results[1].(map[string]any)
	if middle["status"] != StatusError {
		t.Errorf("expected middle item to fail: %v", middle)
	}
	if _, hasValue := middle["value"]; hasValue {
		t.Error("failed item must not carry a value")
	}
	last := results[2].(map[string]any)
	if last["index"] != int64(2) || last["value"] != int64(7) {
		t.Errorf("unexpected last result: %v", last)
	}
	if len(outcome.Trace) != 3 {
		t.Errorf("expected 3 trace entries, got %d", len(outcome.Trace))
	}
}

func TestRun_BatchItemErrors(t *testing.T) {
	eng := newTestEngine(t, Config{})
	cases := []struct {
		name   string
		source string
	}{
		{"not a list", "batch(42)\n"},
		{"item not a dict", "batch([1])\n"},
		{"missing call", "batch([{\"args\": {}}])\n"},
		{"malformed reference", "batch([{\"call\": \"justaname\"}])\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := runScript(t, eng, tc.source, Options{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRun_SnapshotPinnedPerRun(t *testing.T) {
	reg := newTestRegistry(t)
	eng := newTestEngine(t, Config{Registry: reg})

	if _, _, err := reg.Reload(nil); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	// After the reload the calc namespace is gone for new runs.
	_, err := runScript(t, eng, "calc.add(a=1, b=2)\n", Options{})
	if !errors.Is(err, ErrResolution) {
		t.Fatalf("expected ErrResolution after reload, got %v", err)
	}
}
