package types

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types/basetypes"
	"github.com/hashicorp/terraform-plugin-go/tftypes"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

// Ensure the implementation satisfies the expected interfaces.
var (
	_ basetypes.StringTypable                    = DirectoryPathType{}
	_ basetypes.StringValuable                   = DirectoryPathValue{}
	_ basetypes.StringValuableWithSemanticEquals = DirectoryPathValue{}
)

// DirectoryPathType is a custom string type for directory paths such as
// LDAP://OU=Sales,DC=example,DC=com. Paths that name the same object on the
// same server are semantically equal, so scheme and DN case differences
// returned by Active Directory do not show up as drift.
type DirectoryPathType struct {
	basetypes.StringType
}

// String returns a human readable string of the type name.
func (t DirectoryPathType) String() string {
	return "DirectoryPathType"
}

// ValueType returns the Value type.
func (t DirectoryPathType) ValueType(ctx context.Context) attr.Value {
	return DirectoryPathValue{}
}

// Equal returns true if the given type is equivalent.
func (t DirectoryPathType) Equal(o attr.Type) bool {
	other, ok := o.(DirectoryPathType)
	if !ok {
		return false
	}

	return t.StringType.Equal(other.StringType)
}

// ValueFromString returns a StringValuable type given a StringValue.
func (t DirectoryPathType) ValueFromString(ctx context.Context, in basetypes.StringValue) (basetypes.StringValuable, diag.Diagnostics) {
	return DirectoryPathValue{StringValue: in}, nil
}

// ValueFromTerraform returns a Value given a tftypes.Value.
func (t DirectoryPathType) ValueFromTerraform(ctx context.Context, in tftypes.Value) (attr.Value, error) {
	attrValue, err := t.StringType.ValueFromTerraform(ctx, in)
	if err != nil {
		return nil, err
	}

	stringValue, ok := attrValue.(basetypes.StringValue)
	if !ok {
		return nil, fmt.Errorf("expected basetypes.StringValue, got: %T", attrValue)
	}

	stringValuable, diags := t.ValueFromString(ctx, stringValue)
	if diags.HasError() {
		return nil, fmt.Errorf("could not create DirectoryPathValue: %v", diags.Errors())
	}

	return stringValuable, nil
}

// DirectoryPathValue is a directory path with semantic equality.
type DirectoryPathValue struct {
	basetypes.StringValue
}

// Equal returns true if the given value is equivalent.
func (v DirectoryPathValue) Equal(o attr.Value) bool {
	other, ok := o.(DirectoryPathValue)
	if !ok {
		return false
	}

	return v.StringValue.Equal(other.StringValue)
}

// Type returns the type of the value.
func (v DirectoryPathValue) Type(ctx context.Context) attr.Type {
	return DirectoryPathType{}
}

// StringSemanticEquals reports whether both paths locate the same object:
// same scheme, server and port, and DNs equal ignoring case.
func (v DirectoryPathValue) StringSemanticEquals(ctx context.Context, newValuable basetypes.StringValuable) (bool, diag.Diagnostics) {
	var diags diag.Diagnostics

	newValue, ok := newValuable.(DirectoryPathValue)
	if !ok {
		diags.AddError(
			"Semantic Equality Check Error",
			"An unexpected value type was received while attempting to perform semantic equality checks. "+
				"This is always an error in the provider. Please report the following to the provider developer:\n\n"+
				fmt.Sprintf("Expected DirectoryPathValue, but got: %T", newValuable),
		)
		return false, diags
	}

	if v.IsNull() || v.IsUnknown() || newValue.IsNull() || newValue.IsUnknown() {
		return v.Equal(newValue), diags
	}

	return SamePath(v.ValueString(), newValue.ValueString()), diags
}

// SamePath reports whether a and b locate the same directory object.
// Unparseable paths fall back to a case-insensitive string comparison.
func SamePath(a, b string) bool {
	pa, errA := ldapclient.ParseDirectoryPath(a)
	pb, errB := ldapclient.ParseDirectoryPath(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}

	return pa.Scheme == pb.Scheme &&
		strings.EqualFold(pa.Host, pb.Host) &&
		pa.Port == pb.Port &&
		ldapclient.EqualDN(pa.DN, pb.DN)
}

// DirectoryPath is a helper function to create a DirectoryPathValue.
func DirectoryPath(value string) DirectoryPathValue {
	return DirectoryPathValue{
		StringValue: basetypes.NewStringValue(value),
	}
}

// DirectoryPathNull is a helper function to create a null DirectoryPathValue.
func DirectoryPathNull() DirectoryPathValue {
	return DirectoryPathValue{
		StringValue: basetypes.NewStringNull(),
	}
}

// DirectoryPathUnknown is a helper function to create an unknown DirectoryPathValue.
func DirectoryPathUnknown() DirectoryPathValue {
	return DirectoryPathValue{
		StringValue: basetypes.NewStringUnknown(),
	}
}
