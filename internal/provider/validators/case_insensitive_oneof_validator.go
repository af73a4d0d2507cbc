package validators

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
)

var _ validator.String = caseInsensitiveOneOfValidator{}

// caseInsensitiveOneOfValidator accepts enumerated settings such as
// containment_check, where AD_* environment values and HCL are often
// written with different capitalisation.
type caseInsensitiveOneOfValidator struct {
	values  []string            // canonical spelling, in declaration order
	allowed map[string]struct{} // lowercased values
}

func (v caseInsensitiveOneOfValidator) Description(_ context.Context) string {
	return fmt.Sprintf("value must be one of: %s (case-insensitive)", strings.Join(v.values, ", "))
}

func (v caseInsensitiveOneOfValidator) MarkdownDescription(_ context.Context) string {
	quoted := make([]string, len(v.values))
	for i, value := range v.values {
		quoted[i] = "`" + value + "`"
	}
	return fmt.Sprintf("value must be one of: %s (case-insensitive)", strings.Join(quoted, ", "))
}

func (v caseInsensitiveOneOfValidator) ValidateString(_ context.Context, request validator.StringRequest, response *validator.StringResponse) {
	if request.ConfigValue.IsNull() || request.ConfigValue.IsUnknown() {
		return
	}

	value := request.ConfigValue.ValueString()
	if _, ok := v.allowed[strings.ToLower(strings.TrimSpace(value))]; ok {
		return
	}

	response.Diagnostics.AddAttributeError(
		request.Path,
		"Invalid Value",
		fmt.Sprintf("The value %q is not valid. Must be one of: %s (case-insensitive, surrounding spaces ignored)",
			value, strings.Join(v.values, ", ")),
	)
}

// CaseInsensitiveOneOf accepts a value equal to one of values ignoring case
// and surrounding whitespace, so containment_check = "Parent" selects the
// parent policy. Null and unknown values are not checked.
func CaseInsensitiveOneOf(values ...string) validator.String {
	allowed := make(map[string]struct{}, len(values))
	for _, value := range values {
		allowed[strings.ToLower(value)] = struct{}{}
	}
	return caseInsensitiveOneOfValidator{values: values, allowed: allowed}
}
