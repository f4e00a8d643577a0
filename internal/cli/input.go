package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/preview"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/profile"
)

var inputFormats = []string{string(profile.FormatJSON), string(profile.FormatYAML), string(profile.FormatHCL)}

// addInputFlags adds the flags shared by every command that reads profiles.
func addInputFlags(cmd *cobra.Command, configPath, inputFormat *string, fallbackFonts *[]string) {
	cmd.Flags().StringVar(configPath, "config", "", "Path to the termpack configuration file")
	cmd.Flags().StringVar(inputFormat, "input-format", "",
		fmt.Sprintf("Input format, one of: %s (default: from the file extension)", inputFormats))
	cmd.Flags().StringSliceVar(fallbackFonts, "fallback-font", nil, "Font tried after every profile's own fallbacks")

	must(cmd.MarkFlagFilename("config", "yaml", "yml"))
	must(cmd.RegisterFlagCompletionFunc("input-format", cobra.FixedCompletions(
		inputFormats, cobra.ShellCompDirectiveNoFileComp)))
}

// loadInput reads the profile list at path, decoding it as format when set.
func loadInput(path, format string, stdin io.Reader) (profile.List, error) {
	if format == "" {
		return profile.Load(path, stdin) //nolint:wrapcheck // Already wrapped.
	}

	f, err := profile.ParseFormat(format)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already wrapped.
	}

	return profile.LoadAs(path, f, stdin) //nolint:wrapcheck // Already wrapped.
}

// colorProfile returns the color profile for output written to w.
func colorProfile(w io.Writer) termenv.Profile {
	f, ok := w.(*os.File)
	if !ok {
		return termenv.Ascii
	}

	return preview.ColorProfile(f)
}
