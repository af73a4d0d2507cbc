package provider

import (
	"errors"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/diag"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

// addDirectoryError adds an error diagnostic for a failed directory
// operation, distinguishing unreachable objects from failed reads.
func addDirectoryError(diags *diag.Diagnostics, action string, err error) {
	var connErr *ldapclient.ConnectionError
	var readErr *ldapclient.DirectoryReadError

	switch {
	case errors.As(err, &readErr):
		diags.AddError(
			"Error Reading Directory",
			fmt.Sprintf("Could not %s: %s", action, readErr.Error()),
		)
	case errors.As(err, &connErr):
		diags.AddError(
			"Unable to Reach Directory Object",
			fmt.Sprintf("Could not %s: %s", action, err.Error()),
		)
	default:
		diags.AddError(
			"Directory Operation Failed",
			fmt.Sprintf("Could not %s: %s", action, err.Error()),
		)
	}
}

// unexpectedConfigureType returns the detail for a provider data type mismatch.
func unexpectedConfigureType(got any) string {
	return fmt.Sprintf("Expected *ldapclient.ProviderData, got: %T. Please report this issue to the provider developers.", got)
}
