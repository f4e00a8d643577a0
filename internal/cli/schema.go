package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/not-in-stock/terminal-profiles-hm/api/v1beta1/configs"
	"github.com/not-in-stock/terminal-profiles-hm/pkg/profile"
)

func NewSchemaCmd() *cobra.Command {
	var configSchema bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of profile lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema := profile.Schema
			if configSchema {
				schema = configs.Schema
			}

			b, err := schema()
			if err != nil {
				return fmt.Errorf("generate schema: %w", err)
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout(), string(b)))

			return nil
		},
	}

	cmd.Flags().BoolVar(&configSchema, "config", false, "Print the configuration file schema instead")

	bindEnvVars(cmd)

	return cmd
}
