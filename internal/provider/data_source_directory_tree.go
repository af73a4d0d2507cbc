package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
	"github.com/isometry/terraform-provider-admover/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &DirectoryTreeDataSource{}
var _ datasource.DataSourceWithConfigure = &DirectoryTreeDataSource{}

func NewDirectoryTreeDataSource() datasource.DataSource {
	return &DirectoryTreeDataSource{}
}

// DirectoryTreeDataSource defines the data source implementation.
type DirectoryTreeDataSource struct {
	providerData *ldapclient.ProviderData
}

// DirectoryTreeDataSourceModel describes the data source data model.
type DirectoryTreeDataSourceModel struct {
	ID                        types.String `tfsdk:"id"`
	RootPath                  types.String `tfsdk:"root_path"`
	IncludeComputers          types.Bool   `tfsdk:"include_computers"`
	RequireComputersInSubtree types.Bool   `tfsdk:"require_computers_in_subtree"`

	Nodes         []DirectoryTreeNodeModel `tfsdk:"nodes"`
	ComputerCount types.Int64              `tfsdk:"computer_count"`
	OUCount       types.Int64              `tfsdk:"ou_count"`
}

// DirectoryTreeNodeModel is one flattened tree node.
type DirectoryTreeNodeModel struct {
	Name       types.String `tfsdk:"name"`
	Path       types.String `tfsdk:"path"`
	DN         types.String `tfsdk:"dn"`
	Kind       types.String `tfsdk:"kind"`
	ParentPath types.String `tfsdk:"parent_path"`
	Depth      types.Int64  `tfsdk:"depth"`
	ChildCount types.Int64  `tfsdk:"child_count"`
}

func (d *DirectoryTreeDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_directory_tree"
}

func (d *DirectoryTreeDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Traverses the organizational unit hierarchy below a root path. " +
			"Organizational units, the `CN=Computers` container and, optionally, computer objects are returned " +
			"as a pre-order list: every node is followed by its subtree, and siblings keep the order returned by the server.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The root path the tree was read from.",
				Computed:            true,
			},
			"root_path": schema.StringAttribute{
				MarkdownDescription: "Directory path to start from (e.g., `LDAP://OU=Workstations,DC=example,DC=com`). " +
					"Defaults to the provider's domain root.",
				Optional: true,
				Computed: true,
				Validators: []validator.String{
					validators.IsValidDirectoryPath(),
				},
			},
			"include_computers": schema.BoolAttribute{
				MarkdownDescription: "Include computer objects as leaf nodes. Defaults to `true`.",
				Optional:            true,
				Computed:            true,
			},
			"require_computers_in_subtree": schema.BoolAttribute{
				MarkdownDescription: "Omit containers with no computer anywhere below them. Defaults to `false`.",
				Optional:            true,
				Computed:            true,
			},
			"nodes": schema.ListNestedAttribute{
				MarkdownDescription: "Tree nodes in pre-order.",
				Computed:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"name": schema.StringAttribute{
							MarkdownDescription: "Display name of the object.",
							Computed:            true,
						},
						"path": schema.StringAttribute{
							MarkdownDescription: "Directory path of the object, usable as `computer_path` or `target_ou_path`.",
							Computed:            true,
						},
						"dn": schema.StringAttribute{
							MarkdownDescription: "Distinguished Name of the object.",
							Computed:            true,
						},
						"kind": schema.StringAttribute{
							MarkdownDescription: "One of `organizational_unit`, `container` or `computer`.",
							Computed:            true,
						},
						"parent_path": schema.StringAttribute{
							MarkdownDescription: "Directory path of the parent node, empty for top-level nodes.",
							Computed:            true,
						},
						"depth": schema.Int64Attribute{
							MarkdownDescription: "Nesting depth, zero for top-level nodes.",
							Computed:            true,
						},
						"child_count": schema.Int64Attribute{
							MarkdownDescription: "Number of immediate children in the returned tree.",
							Computed:            true,
						},
					},
				},
			},
			"computer_count": schema.Int64Attribute{
				MarkdownDescription: "Number of computer nodes returned.",
				Computed:            true,
			},
			"ou_count": schema.Int64Attribute{
				MarkdownDescription: "Number of organizational unit and container nodes returned.",
				Computed:            true,
			},
		},
	}
}

func (d *DirectoryTreeDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return
	}

	providerData, ok := req.ProviderData.(*ldapclient.ProviderData)
	if !ok {
		resp.Diagnostics.AddError("Unexpected Data Source Configure Type", unexpectedConfigureType(req.ProviderData))
		return
	}

	d.providerData = providerData
}

func (d *DirectoryTreeDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data DirectoryTreeDataSourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	if data.RootPath.IsNull() || data.RootPath.ValueString() == "" {
		data.RootPath = types.StringValue(d.providerData.RootPath)
	}
	if data.IncludeComputers.IsNull() {
		data.IncludeComputers = types.BoolValue(true)
	}
	if data.RequireComputersInSubtree.IsNull() {
		data.RequireComputersInSubtree = types.BoolValue(false)
	}

	rootPath := data.RootPath.ValueString()
	logCompletion := ldapclient.LogDataSourceOperation(ctx, "ad_directory_tree", "read", map[string]any{
		"root_path":                    rootPath,
		"include_computers":            data.IncludeComputers.ValueBool(),
		"require_computers_in_subtree": data.RequireComputersInSubtree.ValueBool(),
	})
	defer func() {
		logCompletion(diagnosticsError(resp.Diagnostics))
	}()

	browser := d.providerData.Browser(subsystemLogger(ctx, subsystemBrowser))
	tree, err := browser.Traverse(ctx, rootPath, d.providerData.Credentials,
		data.IncludeComputers.ValueBool(), data.RequireComputersInSubtree.ValueBool())
	if err != nil {
		addDirectoryError(&resp.Diagnostics, fmt.Sprintf("read directory tree at %s", rootPath), err)
		return
	}

	mapTreeToModel(tree, &data)
	data.ID = types.StringValue(rootPath)

	tflog.Debug(ctx, "Successfully read directory tree", map[string]any{
		"root_path":      rootPath,
		"nodes":          len(data.Nodes),
		"computer_count": data.ComputerCount.ValueInt64(),
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// mapTreeToModel flattens tree into the node list and counters.
func mapTreeToModel(tree []*ldapclient.DirectoryObject, data *DirectoryTreeDataSourceModel) {
	flat := ldapclient.Flatten(tree)

	data.Nodes = make([]DirectoryTreeNodeModel, 0, len(flat))
	var computers, containers int64
	for _, node := range flat {
		if node.Kind == ldapclient.KindComputer {
			computers++
		} else {
			containers++
		}

		data.Nodes = append(data.Nodes, DirectoryTreeNodeModel{
			Name:       types.StringValue(node.Name),
			Path:       types.StringValue(node.Path),
			DN:         types.StringValue(node.DistinguishedName),
			Kind:       types.StringValue(node.Kind.String()),
			ParentPath: types.StringValue(node.ParentPath),
			Depth:      types.Int64Value(int64(node.Depth)),
			ChildCount: types.Int64Value(int64(node.ChildCount)),
		})
	}

	data.ComputerCount = types.Int64Value(computers)
	data.OUCount = types.Int64Value(containers)
}
