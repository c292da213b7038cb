// Command toolscript runs one script submission from a file or stdin
// and prints the serialized result.
//
// Usage:
//
//	toolscript [-config host.yaml] [-trace] [-json] script.star
//	cat script.star | toolscript
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonwraymond/toolscript/config"
	"github.com/jonwraymond/toolscript/engine"
	"github.com/jonwraymond/toolscript/host"
	"github.com/jonwraymond/toolscript/registry"
	"github.com/jonwraymond/toolscript/submit"
)

func main() {
	var (
		configPath string
		timeout    time.Duration
		maxCalls   int
		showTrace  bool
		asJSON     bool
	)
	flag.StringVar(&configPath, "config", os.Getenv("TOOLSCRIPT_CONFIG"), "host configuration file (YAML)")
	flag.DurationVar(&timeout, "timeout", 0, "wall-clock budget override")
	flag.IntVar(&maxCalls, "max-calls", 0, "capability call cap override")
	flag.BoolVar(&showTrace, "trace", false, "print the capability trace to stderr")
	flag.BoolVar(&asJSON, "json", false, "print the full response envelope as JSON")
	flag.Parse()

	if err := run(configPath, timeout, maxCalls, showTrace, asJSON, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "toolscript: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, timeout time.Duration, maxCalls int, showTrace, asJSON bool, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	source, err := readSource(args)
	if err != nil {
		return err
	}

	modules, closer, err := host.Modules(cfg)
	if err != nil {
		return err
	}
	defer closer()

	reg, issues, err := registry.New(modules)
	if err != nil {
		return err
	}
	for _, issue := range issues {
		logger.Warn("capability module skipped", "namespace", issue.Namespace, "reason", issue.Reason)
	}

	svc, err := submit.New(submit.Config{
		Registry:         reg,
		DefaultTimeout:   cfg.Engine.Timeout,
		MaxToolCalls:     cfg.Engine.MaxToolCalls,
		MaxBatchInFlight: cfg.Engine.MaxBatch,
		Logger:           engine.NewSlogLogger(logger),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp := svc.Submit(ctx, submit.Request{
		Source:       source,
		Timeout:      timeout,
		MaxToolCalls: maxCalls,
	})

	if showTrace {
		for _, entry := range resp.Trace {
			fmt.Fprintf(os.Stderr, "%s.%s %s %dms\n",
				entry.Namespace, entry.Operation, entry.Status, entry.DurationMs)
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	switch resp.Status {
	case submit.StatusSuccess:
		fmt.Println(resp.Result)
		return nil
	case submit.StatusRejected:
		return fmt.Errorf("script rejected: %s", resp.Violation.Message)
	default:
		return fmt.Errorf("%s: %s", resp.Status, resp.Error)
	}
}

// readSource loads the script from the first positional argument, or
// from stdin when no file is given.
func readSource(args []string) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("expected at most one script file, got %d", len(args))
	}
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading script: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.SlogLevel())); err != nil {
		return nil, fmt.Errorf("logging level: %w", err)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}
