package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

func newTreeCommand(ctx *commandContext) *cobra.Command {
	var (
		rootPath         string
		includeComputers bool
		requireComputers bool
		ousOnly          bool
		output           string
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the OU tree",
		Long: "Show the organizational units, Computers containers and computers below the domain root.\n" +
			"Use --ous-only for the destination view: OUs that hold a computer somewhere below them.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, logger, err := ctx.directory(cmd)
			if err != nil {
				return err
			}
			if rootPath == "" {
				rootPath = data.RootPath
			}
			if ousOnly {
				includeComputers = false
				requireComputers = true
			}

			nodes, err := data.Browser(logger).Traverse(cmd.Context(), rootPath, data.Credentials, includeComputers, requireComputers)
			if err != nil {
				return err
			}
			return printTree(cmd, output, rootPath, nodes)
		},
	}

	cmd.Flags().StringVar(&rootPath, "root", "", "Directory path to start from (default: domain root)")
	cmd.Flags().BoolVar(&includeComputers, "include-computers", true, "Show computer objects")
	cmd.Flags().BoolVar(&requireComputers, "require-computers", false, "Hide branches without computers")
	cmd.Flags().BoolVar(&ousOnly, "ous-only", false, "Show only OUs with computers below them, without the computers")
	cmd.Flags().StringVarP(&output, "output", "o", "tree", "Output format (tree, table, json)")
	return cmd
}

func printTree(cmd *cobra.Command, output, rootPath string, nodes []*ldapclient.DirectoryObject) error {
	out := cmd.OutOrStdout()
	switch output {
	case "tree":
		fmt.Fprintln(out, renderTree(rootPath, nodes))
	case "table":
		fmt.Fprintln(out, renderTreeTable(nodes))
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(treeJSON(nodes))
	default:
		return fmt.Errorf("unsupported output format %q", output)
	}
	return nil
}
