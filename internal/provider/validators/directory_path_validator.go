package validators

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

// Ensure the implementation satisfies the expected interface.
var _ validator.String = directoryPathValidator{}

// directoryPathValidator validates that a string is a directory path such as
// LDAP://OU=Sales,DC=example,DC=com or ldaps://dc1.example.com/DC=example,DC=com.
type directoryPathValidator struct{}

// Description describes the validation in plain text.
func (v directoryPathValidator) Description(_ context.Context) string {
	return "value must be a directory path (ldap[s]://[host[:port]/]<DN>)"
}

// MarkdownDescription describes the validation in Markdown.
func (v directoryPathValidator) MarkdownDescription(ctx context.Context) string {
	return v.Description(ctx)
}

// ValidateString performs the validation.
func (v directoryPathValidator) ValidateString(ctx context.Context, request validator.StringRequest, response *validator.StringResponse) {
	// Skip validation for unknown or null values
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	value := request.ConfigValue.ValueString()

	if _, err := ldapclient.ParseDirectoryPath(value); err != nil {
		response.Diagnostics.AddAttributeError(
			request.Path,
			"Invalid Directory Path",
			fmt.Sprintf("The value %q is not a valid directory path: %s", value, err.Error()),
		)
	}
}

// IsValidDirectoryPath returns a validator which ensures that any configured
// attribute value is a parseable directory path with a valid DN.
//
// Unknown values and null values are skipped from validation.
func IsValidDirectoryPath() validator.String {
	return directoryPathValidator{}
}
