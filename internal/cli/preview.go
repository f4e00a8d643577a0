package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/config"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/preview"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/profile"
)

const previewExamples = `  # Preview every profile:
  termpack preview profiles.yaml

  # Preview one profile with its colors:
  termpack preview profiles.yaml --name "Solarized Dark" --swatches`

type PreviewArgs struct {
	*RootArgs

	Input         string
	InputFormat   string
	ConfigPath    string
	Name          string
	Style         string
	FallbackFonts []string
	Swatches      bool
}

func NewPreviewArgs(rootArgs *RootArgs) *PreviewArgs {
	return &PreviewArgs{
		RootArgs: rootArgs,
	}
}

func (pa *PreviewArgs) AddFlags(cmd *cobra.Command) {
	addInputFlags(cmd, &pa.ConfigPath, &pa.InputFormat, &pa.FallbackFonts)

	cmd.Flags().StringVar(&pa.Name, "name", "", "Only preview the profile with this name")
	cmd.Flags().StringVar(&pa.Style, "style", preview.DefaultStyle, "Chroma style used for highlighting")
	cmd.Flags().BoolVar(&pa.Swatches, "swatches", false, "Show the resolved font and a swatch for every color")
}

func NewPreviewCmd(pa *PreviewArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "preview <input>",
		Short:             "Print the fragments a profile list converts to, without writing them",
		Example:           previewExamples,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: inputCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			pa.Input = args[0]

			return runPreview(cmd, pa)
		},
	}
	pa.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func runPreview(cmd *cobra.Command, pa *PreviewArgs) error {
	resolved, err := config.Resolve(pa.ConfigPath, pa.Input)
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped.
	}

	cfg := resolved.Config
	cfg.Fonts.Fallback = append(cfg.Fonts.Fallback, pa.FallbackFonts...)

	l, err := loadInput(pa.Input, pa.InputFormat, cmd.InOrStdin())
	if err != nil {
		return err
	}

	if pa.Name != "" {
		p, ok := l.Get(pa.Name)
		if !ok {
			return fmt.Errorf("profile %q not found, have: %q", pa.Name, l.Names())
		}

		l = profile.List{p}
	}

	out := cmd.OutOrStdout()
	asm := newAssembler(cfg)
	r := preview.New(out,
		preview.WithColorProfile(colorProfile(out)),
		preview.WithStyle(pa.Style),
		preview.WithSwatches(pa.Swatches),
	)

	for i, p := range l {
		doc, err := asm.Assemble(p)
		if err != nil {
			return fmt.Errorf("profile %q: %w", p.Name, err)
		}

		if i > 0 {
			mustN(fmt.Fprintln(out))
		}

		err = r.Render(p.Name, doc)
		if err != nil {
			return err //nolint:wrapcheck // Already wrapped.
		}
	}

	return nil
}
