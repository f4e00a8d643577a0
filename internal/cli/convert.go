package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/not-in-stock/terminal-profiles-hm/api/v1beta1/configs"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/assembler"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/config"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/convert"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/expr"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/font"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/fragment"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/preview"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/profile"
)

const convertExamples = `  # Write one fragment per profile to $TMPDIR:
  termpack profiles.json

  # Write binary plists to a directory:
  termpack profiles.yaml -o ~/terminal --format binary

  # Keep going past broken profiles and report them all:
  termpack profiles.hcl --on-error continue

  # Only convert dark profiles:
  termpack profiles.yaml --select 'luminance(profile.?backgroundColor).orValue(1.0) < 0.2'

  # Show what would change without writing:
  termpack profiles.yaml --dry-run

  # Convert again whenever the input changes:
  termpack profiles.yaml --watch

  # Read from stdin:
  cat profiles.yaml | termpack - --input-format yaml`

// ErrMissingInput is returned when a command needs an input path and none was
// given.
var ErrMissingInput = errors.New("input path is required")

type ConvertArgs struct {
	*RootArgs

	Input         string
	InputFormat   string
	ConfigPath    string
	OutputDir     string
	Format        string
	Extension     string
	OnError       string
	Duplicates    string
	Select        string
	FallbackFonts []string
	Parallelism   int
	DryRun        bool
	Watch         bool
	WriteConfig   bool
	ShowConfig    bool
}

func NewConvertArgs(rootArgs *RootArgs) *ConvertArgs {
	return &ConvertArgs{
		RootArgs: rootArgs,
	}
}

func (ca *ConvertArgs) AddFlags(cmd *cobra.Command) {
	addInputFlags(cmd, &ca.ConfigPath, &ca.InputFormat, &ca.FallbackFonts)

	cmd.Flags().StringVarP(&ca.OutputDir, "output-dir", "o", "", "Directory to write fragments to")
	cmd.Flags().StringVar(&ca.Format, "format", "",
		fmt.Sprintf("Property list format, one of: %s", []string{string(fragment.FormatXML), string(fragment.FormatBinary)}))
	cmd.Flags().StringVar(&ca.Extension, "extension", "", "File extension appended to every fragment")
	cmd.Flags().StringVar(&ca.OnError, "on-error", "",
		fmt.Sprintf("Failure policy, one of: %s", convert.AllFailurePolicies))
	cmd.Flags().StringVar(&ca.Duplicates, "duplicates", "",
		fmt.Sprintf("Duplicate name policy, one of: %s", convert.AllDuplicatePolicies))
	cmd.Flags().IntVarP(&ca.Parallelism, "parallelism", "p", 0, "Number of profiles converted at once")
	cmd.Flags().StringVar(&ca.Select, "select", "", "CEL expression selecting the profiles to convert")
	cmd.Flags().BoolVar(&ca.DryRun, "dry-run", false, "Print a diff against the existing fragments instead of writing")
	cmd.Flags().BoolVarP(&ca.Watch, "watch", "w", false, "Convert again whenever the input changes")
	cmd.Flags().BoolVar(&ca.WriteConfig, "write-config", false, "Write the default configuration file and exit")
	cmd.Flags().BoolVar(&ca.ShowConfig, "show-config", false, "Print the active configuration and exit")

	must(cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{string(fragment.FormatXML), string(fragment.FormatBinary)}, cobra.ShellCompDirectiveNoFileComp)))
	must(cmd.RegisterFlagCompletionFunc("on-error", cobra.FixedCompletions(
		convert.AllFailurePolicies, cobra.ShellCompDirectiveNoFileComp)))
	must(cmd.RegisterFlagCompletionFunc("duplicates", cobra.FixedCompletions(
		convert.AllDuplicatePolicies, cobra.ShellCompDirectiveNoFileComp)))
	must(cmd.MarkFlagDirname("output-dir"))
}

// Apply overrides cfg with the flags that were set and validates the result.
func (ca *ConvertArgs) Apply(cfg *configs.Config) error {
	if ca.OutputDir != "" {
		cfg.Output.Dir = ca.OutputDir
	}

	if ca.Format != "" {
		cfg.Output.Format = ca.Format
	}

	if ca.Extension != "" {
		cfg.Output.Extension = ca.Extension
	}

	if ca.OnError != "" {
		cfg.Batch.OnError = ca.OnError
	}

	if ca.Duplicates != "" {
		cfg.Batch.Duplicates = ca.Duplicates
	}

	if ca.Parallelism > 0 {
		cfg.Batch.Parallelism = ca.Parallelism
	}

	cfg.Fonts.Fallback = append(cfg.Fonts.Fallback, ca.FallbackFonts...)

	return cfg.Validate() //nolint:wrapcheck // Already wrapped.
}

func NewConvertCmd(ca *ConvertArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "convert [input]",
		Short:             "Default command, converts a profile list into plist fragments",
		Example:           convertExamples,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: inputCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				ca.Input = args[0]
			}

			return runConvert(cmd, ca)
		},
	}
	ca.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runConvert(cmd *cobra.Command, ca *ConvertArgs) error {
	if ca.WriteConfig {
		path := ca.ConfigPath
		if path == "" {
			path = configs.GetPath()
		}

		return configs.WriteDefault(path, false) //nolint:wrapcheck // Already wrapped.
	}

	resolved, err := config.Resolve(ca.ConfigPath, ca.Input)
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped.
	}

	cfg := resolved.Config

	err = ca.Apply(cfg)
	if err != nil {
		return err
	}

	if ca.ShowConfig {
		return showConfig(cmd.OutOrStdout(), resolved)
	}

	if ca.Input == "" {
		return ErrMissingInput
	}

	if ca.Watch && ca.Input == profile.StdinPath {
		return errors.New("--watch needs an input file, not stdin")
	}

	converter, err := newConverter(cfg, ca)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	diffs := preview.NewHighlighter("diff", preview.DefaultStyle, colorProfile(out))

	once := func(ctx context.Context) error {
		l, err := loadInput(ca.Input, ca.InputFormat, cmd.InOrStdin())
		if err != nil {
			return err
		}

		report, err := converter.Run(ctx, l)
		printReport(out, report, ca.DryRun, diffs)

		slog.DebugContext(ctx, "conversion finished",
			slog.Int("written", len(report.Written())),
			slog.Int("failed", len(report.Failed())),
		)

		return err //nolint:wrapcheck // Already wrapped.
	}

	ctx := cmd.Context()
	if !ca.Watch {
		return once(ctx)
	}

	err = once(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "conversion failed", slog.Any("err", err))
	}

	slog.InfoContext(ctx, "watching for changes", slog.String("path", ca.Input))

	return convert.Watch(ctx, ca.Input, once) //nolint:wrapcheck // Already wrapped.
}

func newConverter(cfg *configs.Config, ca *ConvertArgs) (*convert.Converter, error) {
	format, err := fragment.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped.
	}

	onError, err := convert.ParseFailurePolicy(cfg.Batch.OnError)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped.
	}

	duplicates, err := convert.ParseDuplicatePolicy(cfg.Batch.Duplicates)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped.
	}

	opts := []convert.Opt{
		convert.WithFailurePolicy(onError),
		convert.WithDuplicatePolicy(duplicates),
		convert.WithParallelism(cfg.Batch.Parallelism),
		convert.WithDryRun(ca.DryRun),
	}

	if ca.Select != "" {
		sel, err := expr.NewSelector(ca.Select)
		if err != nil {
			return nil, err //nolint:wrapcheck // Already wrapped.
		}

		opts = append(opts, convert.WithSelector(sel))
	}

	writer := fragment.NewWriter(
		fragment.WithDir(cfg.Output.Dir),
		fragment.WithExtension(cfg.Output.Extension),
		fragment.WithFormat(format),
		fragment.WithLogger(slog.Default()),
	)

	return convert.New(newAssembler(cfg), writer, opts...), nil
}

func newAssembler(cfg *configs.Config) *assembler.Assembler {
	registry := font.NewSystemRegistry(
		font.WithCacheDir(cfg.Fonts.CacheDir),
		font.WithLogger(slog.Default()),
	)

	return assembler.New(font.NewResolver(registry),
		assembler.WithFallbackFonts(cfg.Fonts.Fallback...),
		assembler.WithLogger(slog.Default()),
	)
}

func printReport(w io.Writer, report convert.Report, dryRun bool, diffs *preview.Highlighter) {
	for _, res := range report.Written() {
		if !dryRun {
			mustN(fmt.Fprintf(w, "%s\t%s\n", res.Name, res.Location))

			continue
		}

		if res.Diff == "" {
			continue
		}

		diff, err := diffs.Highlight(res.Diff)
		if err != nil {
			diff = res.Diff
		}

		mustN(fmt.Fprint(w, diff))

		if !strings.HasSuffix(diff, "\n") {
			mustN(fmt.Fprintln(w))
		}
	}
}

func showConfig(w io.Writer, resolved *config.Resolved) error {
	slog.Info("active configuration",
		slog.String("source", string(resolved.Source)),
		slog.String("path", resolved.Path),
	)

	b, err := resolved.Config.MarshalYAML()
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}

	pretty, err := preview.NewHighlighter("YAML", preview.DefaultStyle, colorProfile(w)).Highlight(string(b))
	if err != nil {
		mustN(fmt.Fprint(w, string(b)))

		return err //nolint:wrapcheck // Already wrapped.
	}

	mustN(fmt.Fprint(w, pretty))

	return nil
}
