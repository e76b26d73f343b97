package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raxe-ai/raxe-ce-sub006/internal/config"
	"github.com/raxe-ai/raxe-ce-sub006/internal/guard"
	"github.com/raxe-ai/raxe-ce-sub006/internal/logging"
	"github.com/raxe-ai/raxe-ce-sub006/internal/pipeline"
	"github.com/raxe-ai/raxe-ce-sub006/internal/redact"
	"github.com/raxe-ai/raxe-ce-sub006/internal/rules"
	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
	"github.com/raxe-ai/raxe-ce-sub006/internal/telemetry"
)

var version = "dev"

// Exit codes: 0 clean, 1 scan could not be completed (fail closed), 2 scan
// completed and found threats.
const (
	exitError   = 1
	exitThreats = 2
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit exitCodeError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, redact.Error(err))
		os.Exit(exitError)
	}
}

// exitCodeError carries a non-zero exit code without an extra message.
type exitCodeError struct{ code int }

func (e exitCodeError) Error() string { return fmt.Sprintf("exit code %d", e.code) }

type scanOptions struct {
	preset       string
	presetsPath  string
	rulesPath    string
	bundleDir    string
	format       string
	logLevel     string
	logFormat    string
	otlpEndpoint string
	otlpProtocol string
	noML         bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "raxe",
		Short:         "Dual-layer threat detection for LLM-bound text",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScanCmd())
	return root
}

func newScanCmd() *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan [text]",
		Short: "Scan text for threats and print the classification",
		Long: `Scan runs the regex rule layer and the ML classifier ensemble on the
given text (or stdin when no argument is supplied) and prints the aggregated
result. Exit code 2 signals a non-SAFE classification.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.preset, "preset", config.PresetBalanced, "voting preset: balanced, high_security, or low_fp")
	flags.StringVar(&opts.presetsPath, "config", "", "path to a presets.yaml overlay")
	flags.StringVar(&opts.rulesPath, "rules", "", "path to a YAML rule corpus (default: built-in corpus)")
	flags.StringVar(&opts.bundleDir, "bundle", "", "path to the ONNX model bundle (default: heuristic stub)")
	flags.StringVar(&opts.format, "format", "summary", "output format: json or summary")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	flags.StringVar(&opts.logFormat, "log-format", "console", "log format: console or json")
	flags.StringVar(&opts.otlpEndpoint, "otlp-endpoint", "", "OTLP endpoint for telemetry (disabled when empty)")
	flags.StringVar(&opts.otlpProtocol, "otlp-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.BoolVar(&opts.noML, "no-ml", false, "disable the ML ensemble and classify from rules alone")
	return cmd
}

func runScan(cmd *cobra.Command, args []string, opts *scanOptions) error {
	logger := logging.Setup(opts.logLevel, opts.logFormat)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	text, err := readScanText(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	presets, err := config.Load(opts.presetsPath)
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}

	ruleEngine, err := loadRules(opts.rulesPath)
	if err != nil {
		return err
	}

	var heads pipeline.HeadInferencer
	if !opts.noML {
		heads, err = loadGuard(ctx, opts.bundleDir)
		if err != nil {
			return err
		}
	}

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  opts.otlpEndpoint != "",
		Endpoint: opts.otlpEndpoint,
		Protocol: opts.otlpProtocol,
		Service:  "raxe",
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer tel.Shutdown(ctx)

	p := pipeline.New(ruleEngine, heads, presets, tel, logger)
	result, err := p.Scan(ctx, text, opts.preset)
	if err != nil {
		// Fail closed: an error means detection could not be completed,
		// never an implicit SAFE verdict.
		return fmt.Errorf("scan failed: %w", err)
	}

	if err := printResult(cmd.OutOrStdout(), result, opts.format); err != nil {
		return err
	}
	if result.HasThreats() {
		return exitCodeError{code: exitThreats}
	}
	return nil
}

func readScanText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("no text to scan; pass it as an argument or on stdin")
	}
	return text, nil
}

func loadRules(path string) (*rules.Engine, error) {
	if path == "" {
		return rules.Default(), nil
	}
	eng, err := rules.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return eng, nil
}

func loadGuard(ctx context.Context, bundleDir string) (pipeline.HeadInferencer, error) {
	if bundleDir == "" {
		return guard.NewStub(), nil
	}
	model, err := guard.LoadModel(bundleDir)
	if err != nil {
		return nil, fmt.Errorf("load model bundle: %w", err)
	}
	if err := model.Warmup(ctx); err != nil {
		return nil, fmt.Errorf("warm up model: %w", err)
	}
	return model, nil
}

func printResult(w io.Writer, res *schema.ScanResult, format string) error {
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintf(w, "classification: %s\n", res.Classification)
	fmt.Fprintf(w, "action:         %s\n", res.Action)
	fmt.Fprintf(w, "risk score:     %.1f\n", res.RiskScore)
	if res.DisplayFamily != "" {
		fmt.Fprintf(w, "family:         %s\n", res.DisplayFamily)
	}
	if res.Voting != nil {
		fmt.Fprintf(w, "decision:       %s (%s, confidence %.2f)\n",
			res.Voting.Decision, res.Voting.DecisionRule, res.Voting.Confidence)
		fmt.Fprintf(w, "votes:          threat=%d safe=%d abstain=%d\n",
			res.Voting.ThreatVoteCount, res.Voting.SafeVoteCount, res.Voting.AbstainVoteCount)
	}
	if len(res.Detections) > 0 {
		fmt.Fprintf(w, "rule hits:      %d\n", len(res.Detections))
		for _, d := range res.Detections {
			fmt.Fprintf(w, "  - %s (%s/%s, confidence %.2f)\n", d.RuleID, d.Family, d.Severity, d.Confidence)
		}
	}
	if res.Degraded {
		fmt.Fprintln(w, "note: ML ensemble ran in degraded stub mode; install a model bundle for full coverage")
	}
	return nil
}
