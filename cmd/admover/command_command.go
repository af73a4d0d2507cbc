package main

import (
	"fmt"

	"github.com/spf13/cobra"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

func newCommandCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "command <computer-dn> <target-ou-dn>",
		Short: "Print the PowerShell command that performs a move",
		Long: "Print the Move-ADObject command for moving a computer by hand. Both arguments may be " +
			"distinguished names or directory paths. Nothing is sent to the directory.",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := dnArgument(args[0])
			if err != nil {
				return fmt.Errorf("computer: %w", err)
			}
			target, err := dnArgument(args[1])
			if err != nil {
				return fmt.Errorf("target: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), ldapclient.BuildMoveScript(source, target, ldapclient.Credentials{}))
			return nil
		},
	}
}

// dnArgument returns the DN of a directory path, or arg itself when it is
// a valid DN.
func dnArgument(arg string) (string, error) {
	if path, err := ldapclient.ParseDirectoryPath(arg); err == nil {
		return path.DN, nil
	}
	if err := ldapclient.ValidateDNSyntax(arg); err != nil {
		return "", err
	}
	return arg, nil
}
