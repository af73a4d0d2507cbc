// Package helpers converts between Terraform attribute values and plain Go
// values for provider functions that accept dynamic arguments.
package helpers

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/attr"
	"github.com/hashicorp/terraform-plugin-framework/types"
)

// TerraformValueToGo converts a Terraform value to its Go equivalent:
// strings, int64, float64, bool, []any and map[string]any.
// Null converts to nil; unknown values are an error.
func TerraformValueToGo(ctx context.Context, value attr.Value) (any, error) {
	if value.IsNull() {
		return nil, nil
	}
	if value.IsUnknown() {
		return nil, fmt.Errorf("cannot process unknown values")
	}

	switch v := value.(type) {
	case types.String:
		return v.ValueString(), nil
	case types.Int64:
		return v.ValueInt64(), nil
	case types.Float64:
		return v.ValueFloat64(), nil
	case types.Bool:
		return v.ValueBool(), nil
	case types.Number:
		bigFloat := v.ValueBigFloat()
		if bigFloat == nil {
			return nil, fmt.Errorf("number value is nil")
		}
		if bigFloat.IsInt() {
			if i, accuracy := bigFloat.Int64(); accuracy == 0 {
				return i, nil
			}
		}
		f, _ := bigFloat.Float64()
		return f, nil
	case types.List:
		return elementsToGo(ctx, v.Elements())
	case types.Set:
		return elementsToGo(ctx, v.Elements())
	case types.Tuple:
		return elementsToGo(ctx, v.Elements())
	case types.Map:
		return attributesToGo(ctx, v.Elements())
	case types.Object:
		return attributesToGo(ctx, v.Attributes())
	case types.Dynamic:
		return TerraformValueToGo(ctx, v.UnderlyingValue())
	default:
		// custom string types such as directory paths
		if s, ok := value.(interface{ ValueString() string }); ok {
			return s.ValueString(), nil
		}
		return nil, fmt.Errorf("unsupported type: %T", value)
	}
}

func elementsToGo(ctx context.Context, elements []attr.Value) ([]any, error) {
	result := make([]any, len(elements))
	for i, elem := range elements {
		goVal, err := TerraformValueToGo(ctx, elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		result[i] = goVal
	}
	return result, nil
}

func attributesToGo(ctx context.Context, attributes map[string]attr.Value) (map[string]any, error) {
	result := make(map[string]any, len(attributes))
	for name, val := range attributes {
		goVal, err := TerraformValueToGo(ctx, val)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		result[name] = goVal
	}
	return result, nil
}

// DynamicValueToMap converts a dynamic value holding an object or map to a
// Go map.
func DynamicValueToMap(ctx context.Context, value types.Dynamic) (map[string]any, error) {
	if value.IsNull() || value.IsUnknown() {
		return nil, fmt.Errorf("value cannot be null or unknown")
	}

	switch v := value.UnderlyingValue().(type) {
	case types.Object:
		return attributesToGo(ctx, v.Attributes())
	case types.Map:
		return attributesToGo(ctx, v.Elements())
	default:
		return nil, fmt.Errorf("expected object or map value, got %T", v)
	}
}

// DynamicValueToObjects converts a dynamic value holding a list, set or
// tuple of objects to a slice of Go maps.
func DynamicValueToObjects(ctx context.Context, value types.Dynamic) ([]map[string]any, error) {
	if value.IsNull() || value.IsUnknown() {
		return nil, fmt.Errorf("value cannot be null or unknown")
	}

	var elements []attr.Value
	switch v := value.UnderlyingValue().(type) {
	case types.List:
		elements = v.Elements()
	case types.Set:
		elements = v.Elements()
	case types.Tuple:
		elements = v.Elements()
	default:
		return nil, fmt.Errorf("expected list, set or tuple value, got %T", v)
	}

	result := make([]map[string]any, 0, len(elements))
	for i, elem := range elements {
		goVal, err := TerraformValueToGo(ctx, elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		obj, ok := goVal.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("element %d must be an object, got %T", i, goVal)
		}
		result = append(result, obj)
	}
	return result, nil
}

// GoValueToTerraform converts a Go value back to a Terraform value. Maps
// become objects and slices become tuples so that heterogeneous nested
// nodes keep their own types.
func GoValueToTerraform(ctx context.Context, value any) (attr.Value, error) {
	if value == nil {
		return types.StringNull(), nil
	}

	switch v := value.(type) {
	case string:
		return types.StringValue(v), nil
	case int:
		return types.Int64Value(int64(v)), nil
	case int64:
		return types.Int64Value(v), nil
	case float64:
		return types.Float64Value(v), nil
	case bool:
		return types.BoolValue(v), nil
	case map[string]any:
		attrTypes := make(map[string]attr.Type, len(v))
		attrValues := make(map[string]attr.Value, len(v))
		for key, val := range v {
			terraformVal, err := GoValueToTerraform(ctx, val)
			if err != nil {
				return nil, fmt.Errorf("failed to convert map element %s: %w", key, err)
			}
			attrValues[key] = terraformVal
			attrTypes[key] = terraformVal.Type(ctx)
		}
		return types.ObjectValueMust(attrTypes, attrValues), nil
	case []any:
		elements := make([]attr.Value, len(v))
		elementTypes := make([]attr.Type, len(v))
		for i, val := range v {
			terraformVal, err := GoValueToTerraform(ctx, val)
			if err != nil {
				return nil, fmt.Errorf("failed to convert list element %d: %w", i, err)
			}
			elements[i] = terraformVal
			elementTypes[i] = terraformVal.Type(ctx)
		}
		return types.TupleValueMust(elementTypes, elements), nil
	default:
		return nil, fmt.Errorf("unsupported Go type for conversion: %T", value)
	}
}
