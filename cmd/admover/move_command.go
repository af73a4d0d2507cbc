package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

func newMoveCommand(ctx *commandContext) *cobra.Command {
	var (
		yes      bool
		showTree bool
	)

	cmd := &cobra.Command{
		Use:   "move <computer> <target-ou>",
		Short: "Move a computer to another OU",
		Long: "Move a computer object under another organizational unit.\n\n" +
			"The computer may be given as a directory path, a distinguished name or a computer name; " +
			"the target as a directory path or distinguished name. A direct move is tried first, then " +
			"the delegated PowerShell command. On failure the command to run by hand is printed.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, logger, err := ctx.directory(cmd)
			if err != nil {
				return err
			}
			root, err := ldapclient.ParseDirectoryPath(data.RootPath)
			if err != nil {
				return fmt.Errorf("root path: %w", err)
			}

			computerPath, err := resolveComputer(cmd.Context(), data, logger, root, args[0])
			if err != nil {
				return err
			}
			targetPath, err := resolveDirectoryArg(root, args[1])
			if err != nil {
				return fmt.Errorf("target: %w", err)
			}

			if !yes {
				ok, err := confirm(cmd, ctx, fmt.Sprintf("Move %s to %s?", computerPath, targetPath))
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("move cancelled")
				}
			}

			outcome := data.Relocator(logger).Relocate(cmd.Context(), computerPath, targetPath)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderOutcome(outcome))

			switch {
			case outcome.Success:
				if !showTree {
					return nil
				}
				nodes, err := data.Browser(logger).FullStructure(cmd.Context(), data.RootPath, data.Credentials)
				if err != nil {
					return fmt.Errorf("refresh tree: %w", err)
				}
				fmt.Fprintln(out, renderTree(data.RootPath, nodes))
				return nil
			case outcome.Message == ldapclient.MessageAlreadyInTarget:
				return nil
			default:
				if manual := ldapclient.ManualCommand(outcome); manual != "" {
					fmt.Fprintf(out, "\nTo move the computer by hand, run:\n\n  %s\n", manual)
				}
				return fmt.Errorf("relocation failed: %s", outcome.Message)
			}
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Move without asking for confirmation")
	cmd.Flags().BoolVar(&showTree, "show-tree", false, "Show the refreshed tree after a successful move")
	return cmd
}

// resolveDirectoryArg accepts a directory path or a distinguished name on
// the root's server.
func resolveDirectoryArg(root ldapclient.DirectoryPath, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if strings.Contains(arg, "://") {
		path, err := ldapclient.ParseDirectoryPath(arg)
		if err != nil {
			return "", err
		}
		return path.String(), nil
	}
	if err := ldapclient.ValidateDNSyntax(arg); err != nil {
		return "", err
	}
	return root.Child(arg).String(), nil
}

// resolveComputer also accepts a bare computer name, looked up in the full
// tree below root.
func resolveComputer(ctx context.Context, data *ldapclient.ProviderData, logger ldapclient.Logger, root ldapclient.DirectoryPath, arg string) (string, error) {
	if strings.Contains(arg, "://") || strings.Contains(arg, "=") {
		path, err := resolveDirectoryArg(root, arg)
		if err != nil {
			return "", fmt.Errorf("computer: %w", err)
		}
		return path, nil
	}

	nodes, err := data.Browser(logger).FullStructure(ctx, data.RootPath, data.Credentials)
	if err != nil {
		return "", err
	}
	computer := ldapclient.FindComputer(nodes, arg)
	if computer == nil {
		return "", fmt.Errorf("computer %q not found below %s", arg, data.RootPath)
	}
	return computer.Path, nil
}

func confirm(cmd *cobra.Command, ctx *commandContext, prompt string) (bool, error) {
	in := cmd.InOrStdin()
	if !ctx.terminal(in) {
		return false, errors.New("confirmation required but stdin is not a terminal; pass --yes to move without asking")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func renderOutcome(outcome ldapclient.MoveOutcome) string {
	result := "failed"
	switch {
	case outcome.Success:
		result = "moved"
	case outcome.Message == ldapclient.MessageAlreadyInTarget:
		result = "unchanged"
	}

	rendered := renderFields([][2]string{
		{"Result", result},
		{"Method", outcome.MethodUsed},
		{"Source DN", outcome.SourceDN},
		{"Target DN", outcome.TargetDN},
		{"New DN", outcome.NewDN},
		{"Message", outcome.Message},
	})
	if len(outcome.AttemptErrors) == 0 {
		return rendered
	}

	rows := make([][]string, 0, len(outcome.AttemptErrors))
	for i, attemptErr := range outcome.AttemptErrors {
		rows = append(rows, []string{strconv.Itoa(i + 1), attemptErr})
	}
	return rendered + "\n" + renderTable([]string{"Attempt", "Error"}, rows)
}
