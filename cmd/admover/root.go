package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	return newRootCommandWith(&commandContext{})
}

func newRootCommandWith(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "admover",
		Short:         "Browse Active Directory OUs and relocate computer objects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newTreeCommand(ctx))
	rootCmd.AddCommand(newMoveCommand(ctx))
	rootCmd.AddCommand(newWhoAmICommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newCommandCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
