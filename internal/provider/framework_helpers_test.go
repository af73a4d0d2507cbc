package provider

import (
	"context"
	"testing"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/tfsdk"
	"github.com/hashicorp/terraform-plugin-go/tftypes"
	"github.com/stretchr/testify/require"
)

// objectValue builds an object of typ with attrs set and every other
// attribute null.
func objectValue(t *testing.T, typ tftypes.Type, attrs map[string]tftypes.Value) tftypes.Value {
	t.Helper()

	objectType, ok := typ.(tftypes.Object)
	require.True(t, ok, "schema type must be an object")

	values := make(map[string]tftypes.Value, len(objectType.AttributeTypes))
	for name, attrType := range objectType.AttributeTypes {
		if v, ok := attrs[name]; ok {
			values[name] = v
			continue
		}
		values[name] = tftypes.NewValue(attrType, nil)
	}
	for name := range attrs {
		_, ok := objectType.AttributeTypes[name]
		require.True(t, ok, "unknown attribute %s", name)
	}

	return tftypes.NewValue(objectType, values)
}

func str(s string) tftypes.Value {
	return tftypes.NewValue(tftypes.String, s)
}

func boolean(b bool) tftypes.Value {
	return tftypes.NewValue(tftypes.Bool, b)
}

// readDataSource runs Read on ds with the given configuration.
func readDataSource(t *testing.T, ds datasource.DataSource, attrs map[string]tftypes.Value) *datasource.ReadResponse {
	t.Helper()
	ctx := context.Background()

	schemaResp := &datasource.SchemaResponse{}
	ds.Schema(ctx, datasource.SchemaRequest{}, schemaResp)
	require.False(t, schemaResp.Diagnostics.HasError())

	schemaType := schemaResp.Schema.Type().TerraformType(ctx)
	req := datasource.ReadRequest{
		Config: tfsdk.Config{
			Schema: schemaResp.Schema,
			Raw:    objectValue(t, schemaType, attrs),
		},
	}
	resp := &datasource.ReadResponse{
		State: tfsdk.State{
			Schema: schemaResp.Schema,
			Raw:    tftypes.NewValue(schemaType, nil),
		},
	}

	ds.Read(ctx, req, resp)
	return resp
}

func resourceSchema(t *testing.T, r resource.Resource) resource.SchemaResponse {
	t.Helper()
	resp := resource.SchemaResponse{}
	r.Schema(context.Background(), resource.SchemaRequest{}, &resp)
	require.False(t, resp.Diagnostics.HasError())
	return resp
}

// createResource runs Create on r with a plan holding attrs.
func createResource(t *testing.T, r resource.Resource, attrs map[string]tftypes.Value) *resource.CreateResponse {
	t.Helper()
	ctx := context.Background()

	schemaResp := resourceSchema(t, r)
	schemaType := schemaResp.Schema.Type().TerraformType(ctx)

	req := resource.CreateRequest{
		Plan: tfsdk.Plan{
			Schema: schemaResp.Schema,
			Raw:    objectValue(t, schemaType, attrs),
		},
	}
	resp := &resource.CreateResponse{
		State: tfsdk.State{
			Schema: schemaResp.Schema,
			Raw:    tftypes.NewValue(schemaType, nil),
		},
	}

	r.Create(ctx, req, resp)
	return resp
}
