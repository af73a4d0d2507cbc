package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Test the connection to the domain root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, logger, err := ctx.directory(cmd)
			if err != nil {
				return err
			}

			root, err := data.ValidateConnection(cmd.Context(), logger)
			if err != nil {
				return fmt.Errorf("connection test failed: %w", err)
			}

			authMethod := cfg.ConnectionConfig().AuthMethodFor(data.Credentials)
			fmt.Fprintln(cmd.OutOrStdout(), renderFields([][2]string{
				{"Root path", data.RootPath},
				{"Root DN", root.DN},
				{"Authentication", authMethod.String()},
			}))
			fmt.Fprintln(cmd.OutOrStdout(), "Connection OK")
			return nil
		},
	}
}
