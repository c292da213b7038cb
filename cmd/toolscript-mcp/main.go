// Command toolscript-mcp exposes script submission as an MCP tool over
// stdio. An MCP client calls run_script with script source and gets
// back the full submission response: status, serialized result, and
// the capability trace.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/toolscript/config"
	"github.com/jonwraymond/toolscript/engine"
	"github.com/jonwraymond/toolscript/host"
	"github.com/jonwraymond/toolscript/registry"
	"github.com/jonwraymond/toolscript/submit"
)

const serverVersion = "0.1.0"

// runScriptArgs is the input schema for the run_script tool.
type runScriptArgs struct {
	Source       string `json:"source" jsonschema:"script source text"`
	TimeoutMs    int    `json:"timeout_ms,omitempty" jsonschema:"wall-clock budget override in milliseconds"`
	MaxToolCalls int    `json:"max_tool_calls,omitempty" jsonschema:"capability call cap override"`
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("TOOLSCRIPT_CONFIG"), "host configuration file (YAML)")
	flag.Parse()

	if err := run(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "toolscript-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.SlogLevel())); err != nil {
		return fmt.Errorf("logging level: %w", err)
	}
	// stdout carries the MCP transport; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

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

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "toolscript",
		Version: serverVersion,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "run_script",
		Description: "Submit a script against the host's capability namespaces. " +
			"Returns the serialized result and a trace of every capability call.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args runScriptArgs) (*mcp.CallToolResult, submit.Response, error) {
		resp := svc.Submit(ctx, submit.Request{
			Source:       args.Source,
			Timeout:      time.Duration(args.TimeoutMs) * time.Millisecond,
			MaxToolCalls: args.MaxToolCalls,
		})
		result := &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: resp.Result}},
			IsError: resp.Status != submit.StatusSuccess,
		}
		if resp.Status != submit.StatusSuccess {
			text := resp.Error
			if resp.Violation != nil {
				text = resp.Violation.Message
			}
			result.Content = []mcp.Content{&mcp.TextContent{Text: text}}
		}
		return result, resp, nil
	})

	logger.Info("toolscript MCP server starting", "version", serverVersion)
	return server.Run(context.Background(), &mcp.StdioTransport{})
}
