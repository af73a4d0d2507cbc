package main

import (
	"fmt"

	"github.com/spf13/cobra"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

func newWhoAmICommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity the directory sees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, logger, err := ctx.directory(cmd)
			if err != nil {
				return err
			}

			result, err := ldapclient.WhoAmI(cmd.Context(), data.DialerFor(logger), data.RootPath, data.Credentials)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderFields([][2]string{
				{"Authorization ID", result.AuthzID},
				{"Format", result.Format},
				{"Distinguished name", result.DN},
				{"User principal name", result.UserPrincipalName},
				{"SAM account name", result.SAMAccountName},
				{"SID", result.SID},
			}))
			return nil
		},
	}
}
