// Package host assembles capability modules from configuration. Both
// the CLI and the MCP server build their registries through it.
package host

import (
	"github.com/jonwraymond/toolscript/caps/diagram"
	"github.com/jonwraymond/toolscript/caps/docfetch"
	"github.com/jonwraymond/toolscript/caps/libdocs"
	"github.com/jonwraymond/toolscript/caps/sheets"
	"github.com/jonwraymond/toolscript/caps/sqlquery"
	"github.com/jonwraymond/toolscript/caps/websearch"
	"github.com/jonwraymond/toolscript/config"
	"github.com/jonwraymond/toolscript/registry"
)

// BuiltinDocs documents the scripting surface itself, so scripts can
// discover it via the libdocs namespace without any configuration.
var BuiltinDocs = []libdocs.Entry{
	{
		Name:    "result",
		Summary: "How a script produces its result value",
		Doc: "Assign to __out to set the script result explicitly. " +
			"When no assignment exists, the value of the script's final " +
			"expression statement becomes the result.",
		Aliases: []string{"__out", "output"},
	},
	{
		Name:    "format",
		Summary: "Result serialization formats",
		Doc: "Assign one of json, json-pretty, yaml, yaml-flow, table, or " +
			"raw to __format to choose how the result is serialized. " +
			"Unknown names fall back to json.",
		Aliases: []string{"__format", "serialization"},
	},
	{
		Name:    "batch",
		Summary: "Concurrent capability fan-out",
		Doc: "batch(items) runs a list of {\"call\": \"ns.op\", \"args\": {...}} " +
			"items concurrently and returns one result per item, in order. " +
			"A failing item reports its error without aborting the rest.",
	},
}

// Modules assembles the capability modules enabled by cfg. The
// diagram and libdocs namespaces are always present. The returned
// closer releases any resources the modules hold open.
func Modules(cfg *config.Config) ([]registry.Module, func(), error) {
	modules := []registry.Module{
		diagram.New(),
		libdocs.New(BuiltinDocs),
	}
	closer := func() {}

	if cfg.WebSearch.Enabled {
		modules = append(modules, websearch.New(websearch.Config{
			Endpoint:   cfg.WebSearch.Endpoint,
			APIKey:     cfg.WebSearch.APIKey,
			MaxResults: cfg.WebSearch.MaxResults,
		}))
	}
	if cfg.DocFetch.Enabled {
		modules = append(modules, docfetch.New(docfetch.Config{
			MaxBytes: cfg.DocFetch.MaxBytes,
		}))
	}
	if cfg.SQL.Enabled {
		db, err := sqlquery.Open(cfg.SQL.DSN)
		if err != nil {
			return nil, nil, err
		}
		modules = append(modules, db)
		closer = func() { _ = db.Close() }
	}
	if cfg.Sheets.Enabled {
		sh, err := sheets.New(cfg.Sheets.Roots)
		if err != nil {
			return nil, nil, err
		}
		modules = append(modules, sh)
	}
	return modules, closer, nil
}
