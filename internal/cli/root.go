package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/not-in-stock/terminal-profiles-hm/pkg/log"
)

const (
	cmdName = "termpack"
	cmdDesc = `Convert terminal profile definitions into Terminal.app plist fragments.`
)

type RootArgs struct {
	LogLevel  string
	LogFormat string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))

	var err error

	err = cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}

	err = cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	)
	if err != nil {
		panic(err)
	}
}

// NewRootCmd creates the termpack command. Without a subcommand it behaves
// like convert.
func NewRootCmd() *cobra.Command {
	args := NewRootArgs()
	convertArgs := NewConvertArgs(args)

	convertCmd := NewConvertCmd(convertArgs)
	cmd := &cobra.Command{
		Use:               cmdName + " [input]",
		Short:             cmdDesc,
		Example:           convertExamples,
		PersistentPreRunE: setupLogging(args),
		ValidArgsFunction: inputCompletion,
		Args:              convertCmd.Args,
		RunE:              convertCmd.RunE,
	}

	args.AddFlags(cmd)
	convertArgs.AddFlags(cmd)
	cmd.AddCommand(
		convertCmd,
		NewPreviewCmd(NewPreviewArgs(args)),
		NewSchemaCmd(),
	)

	bindEnvVars(cmd)

	return cmd
}

func setupLogging(rc *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		_, err := log.Setup(cmd.ErrOrStderr(), rc.LogLevel, rc.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		return nil
	}
}

func inputCompletion(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return []cobra.Completion{"json", "yaml", "yml", "hcl"}, cobra.ShellCompDirectiveFilterFileExt
	}

	return nil, cobra.ShellCompDirectiveNoFileComp
}
