package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bindEnvVars fills every flag of cmd that was not set on the command line
// from its TERMPACK_<FLAG_NAME> environment variable, e.g. TERMPACK_LOG_LEVEL
// for --log-level. Slice flags such as --fallback-font take a comma separated
// list, which replaces the default.
//
// The variable name is appended to each flag's usage so that it shows in the
// help output.
func bindEnvVars(cmd *cobra.Command) {
	for _, flags := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
		flags.VisitAll(bindFlagToEnv)
	}
}

func bindFlagToEnv(flag *pflag.Flag) {
	envName := flagToEnvName(flag.Name)

	hint := "($" + envName + ")"
	if !strings.HasSuffix(flag.Usage, hint) {
		flag.Usage += " " + hint
	}

	if flag.Changed {
		return
	}

	value, ok := os.LookupEnv(envName)
	if !ok {
		return
	}

	var err error
	if sv, isSlice := flag.Value.(pflag.SliceValue); isSlice {
		err = sv.Replace(splitList(value))
	} else {
		err = flag.Value.Set(value)
	}

	if err != nil {
		// The default stays in effect.
		slog.Warn("ignoring invalid environment variable",
			slog.String("flag", flag.Name),
			slog.String("env", envName),
			slog.String("value", value),
			slog.Any("err", err),
		)
	}
}

// splitList splits a comma separated list, dropping empty items.
func splitList(s string) []string {
	var items []string

	for item := range strings.SplitSeq(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}

	return items
}

// flagToEnvName returns the environment variable bound to flagName.
func flagToEnvName(flagName string) string {
	return strings.ToUpper(cmdName + "_" + strings.ReplaceAll(flagName, "-", "_"))
}
