// Command pipeline validates, analyzes and runs pipeline documents.
//
// Usage:
//
//	pipeline run [flags] FILE
//	pipeline validate [flags] FILE
//	pipeline analyze [flags] FILE
//
// Configuration is read from an optional YAML file (-config), overridden by
// PIPELINE_* environment variables, then by flags.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/pipeline-go/graph"
	"github.com/dshills/pipeline-go/graph/document"
	"github.com/dshills/pipeline-go/graph/executors"
)

// Exit codes other than 0 and 1.
const (
	exitUsage    = 2
	exitRejected = 3
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.LookupEnv)
	stop()

	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintln(os.Stderr, exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

const usage = `pipeline - validate, analyze and run pipeline graphs.

Usage:
  pipeline run [flags] FILE       execute the pipeline and print node results
  pipeline validate [flags] FILE  check structure, ports and node types
  pipeline analyze [flags] FILE   count nodes and edges and check for cycles

Run "pipeline COMMAND -h" for the flags of a command.
`

func run(ctx context.Context, args []string, stdout, stderr io.Writer, lookup func(string) (string, bool)) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return &ExitError{Code: exitUsage}
	}

	switch args[0] {
	case "run":
		return runCommand(ctx, args[1:], stdout, stderr, lookup)
	case "validate":
		return validateCommand(args[1:], stdout, stderr, lookup)
	case "analyze":
		return analyzeCommand(args[1:], stdout, stderr, lookup)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return &ExitError{Code: exitUsage, Message: fmt.Sprintf("unknown command %q", args[0])}
	}
}

// commandFlags are the flags every sub-command accepts.
type commandFlags struct {
	fs         *flag.FlagSet
	configPath *string
	logLevel   *string
	logFormat  *string
	jsonOut    *bool
}

func newCommandFlags(name string, stderr io.Writer) *commandFlags {
	fs := flag.NewFlagSet("pipeline "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pipeline %s [flags] FILE\n\nFlags:\n", name)
		fs.PrintDefaults()
	}
	return &commandFlags{
		fs:         fs,
		configPath: fs.String("config", "", "Path to a YAML configuration file."),
		logLevel:   fs.String("log-level", "", "Log level: debug, info, warn or error."),
		logFormat:  fs.String("log-format", "", "Log format: text or json."),
		jsonOut:    fs.Bool("json", false, "Print machine-readable JSON."),
	}
}

// parse parses args and returns the loaded configuration and the
// document path. A nil config with a nil error means help was printed.
func (c *commandFlags) parse(args []string, lookup func(string) (string, bool)) (*Config, string, error) {
	if err := c.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, "", nil
		}
		return nil, "", &ExitError{Code: exitUsage, Message: err.Error()}
	}
	if c.fs.NArg() != 1 {
		c.fs.Usage()
		return nil, "", &ExitError{Code: exitUsage, Message: "exactly one pipeline file is required"}
	}

	cfg, err := LoadConfig(*c.configPath, lookup)
	if err != nil {
		return nil, "", &ExitError{Code: exitUsage, Message: err.Error()}
	}
	if *c.logLevel != "" {
		cfg.LogLevel = strings.ToLower(*c.logLevel)
	}
	if *c.logFormat != "" {
		cfg.LogFormat = strings.ToLower(*c.logFormat)
	}
	return &cfg, c.fs.Arg(0), nil
}

func loadDocument(path string) (*document.Document, error) {
	doc, err := document.Load(path)
	if err != nil {
		return nil, &ExitError{Code: exitUsage, Message: err.Error()}
	}
	return doc, nil
}

func runCommand(ctx context.Context, args []string, stdout, stderr io.Writer, lookup func(string) (string, bool)) error {
	cf := newCommandFlags("run", stderr)
	nodeTimeout := cf.fs.Duration("node-timeout", 0, "Default per-node timeout, e.g. 30s. 0 disables it.")
	reportPath := cf.fs.String("report", "", "Write the full run report as JSON to this file.")
	liveURL := cf.fs.String("live", "", "socket.io server URL that receives live progress.")
	metricsAddr := cf.fs.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090.")
	archiveDir := cf.fs.String("archive-dir", "", "Archive the run report into this directory.")

	cfg, path, err := cf.parse(args, lookup)
	if err != nil || cfg == nil {
		return err
	}
	cf.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "node-timeout":
			cfg.NodeTimeout = *nodeTimeout
		case "live":
			cfg.Live.URL = *liveURL
		case "metrics-addr":
			cfg.Metrics.Addr = *metricsAddr
		case "archive-dir":
			cfg.Archive.Kind = "file"
			cfg.Archive.Dir = *archiveDir
		}
	})
	if err := cfg.Validate(); err != nil {
		return &ExitError{Code: exitUsage, Message: "invalid configuration: " + err.Error()}
	}

	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, stderr)
	sess, err := newSession(ctx, *cfg, logger, uuid.NewString())
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()

	report, err := sess.engine.Run(ctx, doc.Nodes, doc.Edges)
	if err != nil {
		var engErr *graph.EngineError
		if errors.As(err, &engErr) && engErr.Validation != nil {
			printValidation(stdout, *engErr.Validation)
		}
		return &ExitError{Code: exitRejected, Message: err.Error()}
	}

	if *reportPath != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := os.WriteFile(*reportPath, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if sess.archiver != nil {
		location, err := sess.archiver.Archive(ctx, report)
		if err != nil {
			logger.Error("archive run report", "error", err)
		} else {
			logger.Info("run report archived", "location", location)
		}
	}

	if *cf.jsonOut {
		if err := writeJSON(stdout, report); err != nil {
			return err
		}
	} else {
		printRunSummary(stdout, report)
	}

	if failed := report.FailedNodes(); len(failed) > 0 {
		return &ExitError{
			Code:    1,
			Message: fmt.Sprintf("%d of %d nodes failed: %s", len(failed), len(report.ExecutionOrder), strings.Join(failed, ", ")),
		}
	}
	return nil
}

func validateCommand(args []string, stdout, stderr io.Writer, lookup func(string) (string, bool)) error {
	cf := newCommandFlags("validate", stderr)
	cfg, path, err := cf.parse(args, lookup)
	if err != nil || cfg == nil {
		return err
	}
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	report := graph.Validate(doc.Nodes, doc.Edges)
	report.Warnings = append(report.Warnings, unknownTypeWarnings(doc.Nodes)...)
	report.Warnings = append(report.Warnings, executors.PortWarnings(doc.Nodes, doc.Edges)...)

	if *cf.jsonOut {
		if err := writeJSON(stdout, report); err != nil {
			return err
		}
	} else {
		printValidation(stdout, report)
	}
	if !report.IsValid {
		return &ExitError{Code: exitRejected}
	}
	return nil
}

func analyzeCommand(args []string, stdout, stderr io.Writer, lookup func(string) (string, bool)) error {
	cf := newCommandFlags("analyze", stderr)
	cfg, path, err := cf.parse(args, lookup)
	if err != nil || cfg == nil {
		return err
	}
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	analysis := graph.Analyze(doc.Nodes, doc.Edges)
	if *cf.jsonOut {
		return writeJSON(stdout, analysis)
	}
	printAnalysis(stdout, analysis)
	return nil
}

// unknownTypeWarnings flags node types no built-in executor handles. Such
// nodes fail at run time with a missing-executor error.
func unknownTypeWarnings(nodes []graph.Node) []string {
	warnings := []string{}
	for _, n := range nodes {
		if n.Type == "" {
			continue
		}
		if _, ok := executors.PortsFor(n); !ok {
			warnings = append(warnings, fmt.Sprintf("node %s has unknown type %s", n.ID, n.Type))
		}
	}
	return warnings
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func printValidation(w io.Writer, report graph.ValidationReport) {
	if report.IsValid {
		fmt.Fprintln(w, "Pipeline is valid.")
	} else {
		fmt.Fprintln(w, "Pipeline is invalid:")
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  error: %s\n", e)
		}
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
}

func printAnalysis(w io.Writer, a graph.Analysis) {
	verdict := "Yes"
	if !a.IsDAG {
		verdict = "No"
	}
	fmt.Fprintln(w, "Pipeline Analysis Results")
	fmt.Fprintf(w, "Number of Nodes: %d\n", a.NumNodes)
	fmt.Fprintf(w, "Number of Edges: %d\n", a.NumEdges)
	fmt.Fprintf(w, "Is DAG: %s\n\n", verdict)
	if a.IsDAG {
		fmt.Fprintln(w, "The pipeline is valid and can be executed.")
	} else {
		fmt.Fprintln(w, "Warning: the pipeline contains cycles and cannot be executed.")
	}
}

func printRunSummary(w io.Writer, report *graph.RunReport) {
	fmt.Fprintf(w, "Run %s: %d nodes, %d failed, %s\n",
		report.RunID, len(report.ExecutionOrder), len(report.FailedNodes()),
		report.Duration().Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, id := range report.ExecutionOrder {
		res := report.Results[id]
		if res.Failed() {
			fmt.Fprintf(tw, "%d.\t%s\terror\t%s\n", i+1, id, res.Error)
			continue
		}
		data, err := json.Marshal(res)
		if err != nil {
			data = []byte(err.Error())
		}
		fmt.Fprintf(tw, "%d.\t%s\tok\t%s\n", i+1, id, data)
	}
	_ = tw.Flush()
}
