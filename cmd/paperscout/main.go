// Paperscout is a research assistant that finds academic papers.
//
// A language model decides which paper sources to search; Paperscout runs
// the searches, merges the results, and returns a short de-duplicated
// list. It can be used from the command line or as an HTTP API.
// Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	paperscout serve                 Start the API server
//	paperscout ask <question>        Search for papers once
//	paperscout -o html ask <q>       Render results as HTML
//	paperscout key set <value>       Store the model API key
//	paperscout key show              Show whether a key is configured
//	paperscout key test              Verify the key with a test call
//	paperscout init [dir]            Write an example config
//	paperscout version               Print version and build information
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nugget/paperscout/internal/buildinfo"
	"github.com/nugget/paperscout/internal/config"
)

// main constructs the OS-level environment and delegates to [run], which
// keeps os.Exit and os.Args out of the application logic.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. Results go to stdout and logs to stderr,
// so `ask -o json` output can be piped. Arguments are parsed by hand to
// avoid the flag package's global state in tests. Global flags may appear
// anywhere before a "--"; everything after it is passed to the command.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string
	var command string
	var cmdArgs []string

	passthrough := false
	for i := 0; i < len(args); i++ {
		switch {
		case passthrough:
			cmdArgs = append(cmdArgs, args[i])
		case args[i] == "--":
			passthrough = true
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		case command != "":
			cmdArgs = append(cmdArgs, args[i])
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	switch command {
	case "serve":
		return runServe(ctx, stderr, configPath)
	case "ask":
		return runAsk(ctx, stdout, stderr, configPath, outputFmt, cmdArgs)
	case "key":
		return runKey(ctx, stdout, stderr, configPath, cmdArgs)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata as text or JSON.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.BuildInfo()
	switch outputFmt {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "", "text":
	default:
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Paperscout - research paper search agent")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: paperscout [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve             Start the API server")
	fmt.Fprintln(w, "  ask <question>    Search for papers once")
	fmt.Fprintln(w, "  key set <value>   Store the model API key (empty value clears it)")
	fmt.Fprintln(w, "  key show          Show whether a key is configured")
	fmt.Fprintln(w, "  key test          Verify the key with a test call")
	fmt.Fprintln(w, "  init [dir]        Write an example config.yaml (default: .)")
	fmt.Fprintln(w, "  version           Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  ask: text, json, markdown, or html; version: text or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  "+strings.Join(config.DefaultSearchPaths(), ", "))
	return nil
}

// newLogger creates a structured logger that writes to w at the given
// level and format. Format must be "text" or "json"; any other value
// defaults to text.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// configuredLogger returns a logger using the level and format from cfg.
func configuredLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	// Validate has already checked the level.
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	return newLogger(w, level, cfg.LogFormat)
}

// loadConfig locates and parses the YAML configuration file. If explicit
// is non-empty, that exact path is used (and must exist). Otherwise,
// [config.FindConfig] searches the default locations.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}
