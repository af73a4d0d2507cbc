package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/terraform-plugin-framework-validators/datasourcevalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
	"github.com/isometry/terraform-provider-admover/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ datasource.DataSource = &ComputerDataSource{}
var _ datasource.DataSourceWithConfigValidators = &ComputerDataSource{}

func NewComputerDataSource() datasource.DataSource {
	return &ComputerDataSource{}
}

// ComputerDataSource defines the data source implementation.
type ComputerDataSource struct {
	providerData *ldapclient.ProviderData
}

// ComputerDataSourceModel describes the data source data model.
type ComputerDataSourceModel struct {
	// Lookup methods (mutually exclusive)
	ID   types.String `tfsdk:"id"`   // objectGUID lookup
	Path types.String `tfsdk:"path"` // directory path lookup

	// Computed outputs
	DN         types.String `tfsdk:"dn"`
	Name       types.String `tfsdk:"name"`
	GUID       types.String `tfsdk:"guid"`
	SID        types.String `tfsdk:"sid"`
	ParentDN   types.String `tfsdk:"parent_dn"`
	ParentPath types.String `tfsdk:"parent_path"`
}

func (d *ComputerDataSource) Metadata(ctx context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_computer"
}

func (d *ComputerDataSource) Schema(ctx context.Context, req datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Retrieves an Active Directory computer object by directory path or objectGUID.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The objectGUID of the computer. Set it to look the computer up wherever it currently is. " +
					"Format: `550e8400-e29b-41d4-a716-446655440000`",
				Optional: true,
				Computed: true,
			},
			"path": schema.StringAttribute{
				MarkdownDescription: "Directory path of the computer (e.g., `LDAP://CN=PC01,OU=Sales,DC=example,DC=com`).",
				Optional:            true,
				Computed:            true,
				Validators: []validator.String{
					validators.IsValidDirectoryPath(),
				},
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "The Distinguished Name of the computer.",
				Computed:            true,
			},
			"name": schema.StringAttribute{
				MarkdownDescription: "The name of the computer.",
				Computed:            true,
			},
			"guid": schema.StringAttribute{
				MarkdownDescription: "The objectGUID of the computer.",
				Computed:            true,
			},
			"sid": schema.StringAttribute{
				MarkdownDescription: "The objectSid of the computer, null if unreadable.",
				Computed:            true,
			},
			"parent_dn": schema.StringAttribute{
				MarkdownDescription: "The Distinguished Name of the container holding the computer.",
				Computed:            true,
			},
			"parent_path": schema.StringAttribute{
				MarkdownDescription: "Directory path of the container holding the computer.",
				Computed:            true,
			},
		},
	}
}

// ConfigValidators implements datasource.DataSourceWithConfigValidators.
func (d *ComputerDataSource) ConfigValidators(ctx context.Context) []datasource.ConfigValidator {
	return []datasource.ConfigValidator{
		datasourcevalidator.ExactlyOneOf(
			path.MatchRoot("id"),
			path.MatchRoot("path"),
		),
	}
}

func (d *ComputerDataSource) Configure(ctx context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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

func (d *ComputerDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var data ComputerDataSourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	logCompletion := ldapclient.LogDataSourceOperation(ctx, "ad_computer", "read", map[string]any{
		"id":   data.ID.ValueString(),
		"path": data.Path.ValueString(),
	})
	defer func() {
		logCompletion(diagnosticsError(resp.Diagnostics))
	}()

	entry, lookupPath := d.retrieveComputer(ctx, &data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	if entry == nil {
		resp.Diagnostics.AddError(
			"Computer Not Found",
			fmt.Sprintf("No object with objectGUID %s exists below %s.", data.ID.ValueString(), d.providerData.RootPath),
		)
		return
	}

	if kind := ldapclient.Classify(entry); kind != ldapclient.KindComputer {
		resp.Diagnostics.AddError(
			"Not a Computer Object",
			fmt.Sprintf("The object %s is a %s, not a computer.", entry.DN, kind),
		)
		return
	}

	tflog.Debug(ctx, "Successfully retrieved AD computer", map[string]any{
		"computer_guid": entry.GUID,
		"computer_dn":   entry.DN,
	})

	mapComputerToModel(entry, lookupPath, &data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

// retrieveComputer reads the computer by GUID or path. It returns the entry
// and the path its server should be addressed by.
func (d *ComputerDataSource) retrieveComputer(ctx context.Context, data *ComputerDataSourceModel, diags *diag.Diagnostics) (*ldapclient.Entry, ldapclient.DirectoryPath) {
	dialer := d.providerData.DialerFor(subsystemLogger(ctx, subsystemLDAP))
	creds := d.providerData.Credentials

	if !data.ID.IsNull() && data.ID.ValueString() != "" {
		guid := data.ID.ValueString()
		if _, err := uuid.Parse(guid); err != nil {
			diags.AddAttributeError(
				path.Root("id"),
				"Invalid GUID Format",
				fmt.Sprintf("The provided GUID '%s' is not in valid format. Expected format: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx", guid),
			)
			return nil, ldapclient.DirectoryPath{}
		}

		tflog.Debug(ctx, "Looking up computer by objectGUID", map[string]any{"guid": guid})
		root, err := ldapclient.ParseDirectoryPath(d.providerData.RootPath)
		if err != nil {
			diags.AddError("Invalid Root Path", err.Error())
			return nil, root
		}

		entry, err := ldapclient.FindByGUID(ctx, dialer, d.providerData.RootPath, creds, guid)
		if err != nil {
			addDirectoryError(diags, "search for computer "+guid, err)
		}
		return entry, root
	}

	raw := data.Path.ValueString()
	tflog.Debug(ctx, "Looking up computer by path", map[string]any{"path": raw})
	lookupPath, err := ldapclient.ParseDirectoryPath(raw)
	if err != nil {
		diags.AddAttributeError(path.Root("path"), "Invalid Directory Path", err.Error())
		return nil, lookupPath
	}

	entry, err := ldapclient.Lookup(ctx, dialer, raw, creds)
	if err != nil {
		addDirectoryError(diags, "read computer "+raw, err)
	}
	return entry, lookupPath
}

// mapComputerToModel maps the directory entry to the Terraform model.
func mapComputerToModel(entry *ldapclient.Entry, lookupPath ldapclient.DirectoryPath, data *ComputerDataSourceModel, diags *diag.Diagnostics) {
	parentDN, err := ldapclient.ParentDN(entry.DN)
	if err != nil {
		diags.AddError("Invalid Computer DN", err.Error())
		return
	}

	// configured lookup values are kept as written
	if data.ID.IsNull() {
		data.ID = types.StringValue(entry.GUID)
	}
	if data.Path.IsNull() {
		data.Path = types.StringValue(lookupPath.Child(entry.DN).String())
	}
	data.GUID = types.StringValue(entry.GUID)
	data.DN = types.StringValue(entry.DN)
	data.Name = types.StringValue(entry.Name)
	data.ParentDN = types.StringValue(parentDN)
	data.ParentPath = types.StringValue(lookupPath.Child(parentDN).String())

	data.SID = stringOrNull(entry.SID)
}
