package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/isometry/terraform-provider-admover/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var path string
	var force bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := path
			if target == "" {
				target = ctx.configPath
			}
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return err
				}
				target = expanded
			}

			if _, err := os.Stat(target); err == nil && !force {
				return fmt.Errorf("%s already exists; pass --force to overwrite", target)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat %s: %w", target, err)
			}

			if err := config.CreateSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "Where to write the file (default: the --config path or ~/.config/admover/config.toml)")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rootPath, err := cfg.RootPath()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration valid (root path %s)\n", rootPath)
			return nil
		},
	}

	configCmd.AddCommand(initCmd, validateCmd)
	return configCmd
}
