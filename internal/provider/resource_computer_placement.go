package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/planmodifier"
	"github.com/hashicorp/terraform-plugin-framework/resource/schema/stringplanmodifier"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
	customtypes "github.com/isometry/terraform-provider-admover/internal/provider/types"
	"github.com/isometry/terraform-provider-admover/internal/provider/validators"
)

// Ensure provider defined types fully satisfy framework interfaces.
var _ resource.Resource = &ComputerPlacementResource{}
var _ resource.ResourceWithConfigure = &ComputerPlacementResource{}
var _ resource.ResourceWithImportState = &ComputerPlacementResource{}

func NewComputerPlacementResource() resource.Resource {
	return &ComputerPlacementResource{}
}

// ComputerPlacementResource keeps a computer object in a target OU.
type ComputerPlacementResource struct {
	providerData *ldapclient.ProviderData
}

// ComputerPlacementResourceModel describes the resource data model.
type ComputerPlacementResourceModel struct {
	ID           types.String                      `tfsdk:"id"`             // Computed - objectGUID
	ComputerPath customtypes.DirectoryPathValue `tfsdk:"computer_path"`  // Required - where the computer was found
	TargetOUPath customtypes.DirectoryPathValue `tfsdk:"target_ou_path"` // Required - where it should be

	DN            types.String `tfsdk:"dn"`             // Computed - current DN
	MethodUsed    types.String `tfsdk:"method_used"`    // Computed - "direct", "delegated-cli" or null
	AttemptErrors types.List   `tfsdk:"attempt_errors"` // Computed - failed attempts before success
	Message       types.String `tfsdk:"message"`        // Computed - outcome message
}

func (r *ComputerPlacementResource) Metadata(ctx context.Context, req resource.MetadataRequest, resp *resource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_computer_placement"
}

func (r *ComputerPlacementResource) Schema(ctx context.Context, req resource.SchemaRequest, resp *resource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Places an existing computer object in an organizational unit. " +
			"A direct LDAP move is attempted first; when it fails, `Move-ADObject` is run through the provider's delegated command. " +
			"The computer is tracked by objectGUID, so a later move outside Terraform shows up as drift. " +
			"Destroying this resource leaves the computer where it is.",

		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "The objectGUID of the computer.",
				Computed:            true,
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.UseStateForUnknown(),
				},
			},
			"computer_path": schema.StringAttribute{
				MarkdownDescription: "Directory path of the computer when the placement is created " +
					"(e.g., `LDAP://CN=PC01,CN=Computers,DC=example,DC=com`). Changing this forces a new resource.",
				Required:   true,
				CustomType: customtypes.DirectoryPathType{},
				Validators: []validator.String{
					validators.IsValidDirectoryPath(),
				},
				PlanModifiers: []planmodifier.String{
					stringplanmodifier.RequiresReplace(),
				},
			},
			"target_ou_path": schema.StringAttribute{
				MarkdownDescription: "Directory path of the organizational unit the computer belongs in " +
					"(e.g., `LDAP://OU=Workstations,DC=example,DC=com`).",
				Required:   true,
				CustomType: customtypes.DirectoryPathType{},
				Validators: []validator.String{
					validators.IsValidDirectoryPath(),
				},
			},
			"dn": schema.StringAttribute{
				MarkdownDescription: "The current Distinguished Name of the computer.",
				Computed:            true,
			},
			"method_used": schema.StringAttribute{
				MarkdownDescription: "How the last move succeeded: `direct` or `delegated-cli`. " +
					"Null when the computer was already in place.",
				Computed: true,
			},
			"attempt_errors": schema.ListAttribute{
				MarkdownDescription: "Errors of the attempts that failed before the last move succeeded, in order.",
				ElementType:         types.StringType,
				Computed:            true,
			},
			"message": schema.StringAttribute{
				MarkdownDescription: "Outcome message of the last placement.",
				Computed:            true,
			},
		},
	}
}

func (r *ComputerPlacementResource) Configure(ctx context.Context, req resource.ConfigureRequest, resp *resource.ConfigureResponse) {
	// Prevent panic if the provider has not been configured.
	if req.ProviderData == nil {
		return
	}

	providerData, ok := req.ProviderData.(*ldapclient.ProviderData)
	if !ok {
		resp.Diagnostics.AddError("Unexpected Resource Configure Type", unexpectedConfigureType(req.ProviderData))
		return
	}

	r.providerData = providerData
}

func (r *ComputerPlacementResource) Create(ctx context.Context, req resource.CreateRequest, resp *resource.CreateResponse) {
	var data ComputerPlacementResourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Plan.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	logCompletion := ldapclient.LogResourceOperation(ctx, "ad_computer_placement", "create", map[string]any{
		"computer_path":  data.ComputerPath.ValueString(),
		"target_ou_path": data.TargetOUPath.ValueString(),
	})
	defer func() {
		logCompletion(diagnosticsError(resp.Diagnostics))
	}()

	computerPath := data.ComputerPath.ValueString()
	computer := r.lookupComputer(ctx, computerPath, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	data.ID = types.StringValue(computer.GUID)
	r.place(ctx, computerPath, &data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *ComputerPlacementResource) Read(ctx context.Context, req resource.ReadRequest, resp *resource.ReadResponse) {
	var data ComputerPlacementResourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	tflog.Debug(ctx, "Reading AD computer placement", map[string]any{
		"guid": data.ID.ValueString(),
	})

	dialer := r.providerData.DialerFor(subsystemLogger(ctx, subsystemLDAP))
	entry, err := ldapclient.FindByGUID(ctx, dialer, r.providerData.RootPath, r.providerData.Credentials, data.ID.ValueString())
	if err != nil {
		addDirectoryError(&resp.Diagnostics, "read computer with objectGUID "+data.ID.ValueString(), err)
		return
	}

	if entry == nil {
		tflog.Warn(ctx, "Computer no longer exists, removing placement from state", map[string]any{
			"guid": data.ID.ValueString(),
		})
		resp.State.RemoveResource(ctx)
		return
	}

	r.refreshFromEntry(ctx, entry, &data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
}

func (r *ComputerPlacementResource) Update(ctx context.Context, req resource.UpdateRequest, resp *resource.UpdateResponse) {
	var plan, state ComputerPlacementResourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.Plan.Get(ctx, &plan)...)
	resp.Diagnostics.Append(req.State.Get(ctx, &state)...)
	if resp.Diagnostics.HasError() {
		return
	}

	logCompletion := ldapclient.LogResourceOperation(ctx, "ad_computer_placement", "update", map[string]any{
		"guid":           state.ID.ValueString(),
		"current_dn":     state.DN.ValueString(),
		"target_ou_path": plan.TargetOUPath.ValueString(),
	})
	defer func() {
		logCompletion(diagnosticsError(resp.Diagnostics))
	}()

	// The computer is moved from where it is now, not from computer_path.
	currentPath, err := currentComputerPath(state.ComputerPath.ValueString(), state.DN.ValueString())
	if err != nil {
		resp.Diagnostics.AddError("Invalid Computer State", err.Error())
		return
	}

	plan.ID = state.ID
	r.place(ctx, currentPath, &plan, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &plan)...)
}

// Delete forgets the placement. The computer stays where it is.
func (r *ComputerPlacementResource) Delete(ctx context.Context, req resource.DeleteRequest, resp *resource.DeleteResponse) {
	var data ComputerPlacementResourceModel

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	resp.Diagnostics.Append(req.State.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	tflog.Info(ctx, "Removing AD computer placement from state, the computer object is not moved", map[string]any{
		"guid": data.ID.ValueString(),
		"dn":   data.DN.ValueString(),
	})
}

// ImportState imports by computer directory path or objectGUID. The
// computer's current container becomes the target.
func (r *ComputerPlacementResource) ImportState(ctx context.Context, req resource.ImportStateRequest, resp *resource.ImportStateResponse) {
	importID := strings.TrimSpace(req.ID)

	// Initialize logging subsystem for consistent logging
	ctx = initializeLogging(ctx)

	tflog.Debug(ctx, "Importing AD computer placement", map[string]any{
		"import_id": importID,
	})

	var (
		entry      *ldapclient.Entry
		lookupPath string
	)

	if _, err := uuid.Parse(importID); err == nil {
		dialer := r.providerData.DialerFor(subsystemLogger(ctx, subsystemLDAP))
		entry, err = ldapclient.FindByGUID(ctx, dialer, r.providerData.RootPath, r.providerData.Credentials, importID)
		if err != nil {
			addDirectoryError(&resp.Diagnostics, "import computer with objectGUID "+importID, err)
			return
		}
		if entry == nil {
			resp.Diagnostics.AddError(
				"Computer Not Found",
				fmt.Sprintf("No object with objectGUID %s exists below %s.", importID, r.providerData.RootPath),
			)
			return
		}
		lookupPath = r.providerData.RootPath
	} else {
		entry = r.lookupComputer(ctx, importID, &resp.Diagnostics)
		if resp.Diagnostics.HasError() {
			return
		}
		lookupPath = importID
	}

	if kind := ldapclient.Classify(entry); kind != ldapclient.KindComputer {
		resp.Diagnostics.AddError(
			"Not a Computer Object",
			fmt.Sprintf("The object %s is a %s, not a computer.", entry.DN, kind),
		)
		return
	}

	base, err := ldapclient.ParseDirectoryPath(lookupPath)
	if err != nil {
		resp.Diagnostics.AddError("Invalid Import ID", err.Error())
		return
	}
	parentDN, err := ldapclient.ParentDN(entry.DN)
	if err != nil {
		resp.Diagnostics.AddError("Invalid Computer DN", err.Error())
		return
	}

	data := ComputerPlacementResourceModel{
		ID:            types.StringValue(entry.GUID),
		ComputerPath:  customtypes.DirectoryPath(base.Child(entry.DN).String()),
		TargetOUPath:  customtypes.DirectoryPath(base.Child(parentDN).String()),
		DN:            types.StringValue(entry.DN),
		MethodUsed:    types.StringNull(),
		AttemptErrors: types.ListValueMust(types.StringType, nil),
		Message:       types.StringValue("imported"),
	}

	tflog.Debug(ctx, "Imported AD computer placement", map[string]any{
		"guid": entry.GUID,
		"dn":   entry.DN,
	})

	resp.Diagnostics.Append(resp.State.Set(ctx, &data)...)
	resp.Diagnostics.Append(resp.State.SetAttribute(ctx, path.Root("id"), entry.GUID)...)
}

// lookupComputer reads the object at raw and checks that it is a computer.
func (r *ComputerPlacementResource) lookupComputer(ctx context.Context, raw string, diags *diag.Diagnostics) *ldapclient.Entry {
	dialer := r.providerData.DialerFor(subsystemLogger(ctx, subsystemLDAP))
	entry, err := ldapclient.Lookup(ctx, dialer, raw, r.providerData.Credentials)
	if err != nil {
		addDirectoryError(diags, "read computer "+raw, err)
		return nil
	}

	if kind := ldapclient.Classify(entry); kind != ldapclient.KindComputer {
		diags.AddAttributeError(
			path.Root("computer_path"),
			"Not a Computer Object",
			fmt.Sprintf("The object %s is a %s, not a computer.", entry.DN, kind),
		)
		return nil
	}

	if entry.GUID == "" {
		diags.AddError(
			"Missing objectGUID",
			fmt.Sprintf("The computer %s has no readable objectGUID.", entry.DN),
		)
		return nil
	}

	return entry
}

// place relocates the computer at computerPath to the planned target and
// records the outcome in data.
func (r *ComputerPlacementResource) place(ctx context.Context, computerPath string, data *ComputerPlacementResourceModel, diags *diag.Diagnostics) {
	relocator := r.providerData.Relocator(subsystemLogger(ctx, subsystemRelocator))
	outcome := relocator.Relocate(ctx, computerPath, data.TargetOUPath.ValueString())

	alreadyPlaced := !outcome.Success && outcome.Message == ldapclient.MessageAlreadyInTarget
	if !outcome.Success && !alreadyPlaced {
		diags.AddError("Unable to Move Computer", relocationFailureDetail(outcome))
		return
	}

	if alreadyPlaced {
		diags.AddWarning(
			"Computer Already in Target",
			fmt.Sprintf("The computer %s is already in %s. No move was performed.", outcome.SourceDN, outcome.TargetDN),
		)
		data.DN = types.StringValue(outcome.SourceDN)
		data.MethodUsed = types.StringNull()
	} else {
		data.DN = types.StringValue(outcome.NewDN)
		data.MethodUsed = types.StringValue(outcome.MethodUsed)
	}

	attemptErrors, d := types.ListValueFrom(ctx, types.StringType, outcome.AttemptErrors)
	diags.Append(d...)
	data.AttemptErrors = attemptErrors
	data.Message = types.StringValue(outcome.Message)

	tflog.Debug(ctx, "Computer placement applied", map[string]any{
		"guid":        data.ID.ValueString(),
		"dn":          data.DN.ValueString(),
		"method_used": outcome.MethodUsed,
		"attempts":    len(outcome.AttemptErrors),
	})
}

// refreshFromEntry updates data from the computer's current entry. A
// computer outside the target is reported as drift on target_ou_path.
func (r *ComputerPlacementResource) refreshFromEntry(ctx context.Context, entry *ldapclient.Entry, data *ComputerPlacementResourceModel, diags *diag.Diagnostics) {
	data.DN = types.StringValue(entry.DN)

	target, err := ldapclient.ParseDirectoryPath(data.TargetOUPath.ValueString())
	if err != nil {
		diags.AddAttributeError(path.Root("target_ou_path"), "Invalid Directory Path", err.Error())
		return
	}

	if r.providerData.Relocation.Containment.Contains(entry.DN, target.DN) {
		return
	}

	parentDN, err := ldapclient.ParentDN(entry.DN)
	if err != nil {
		diags.AddError("Invalid Computer DN", err.Error())
		return
	}

	tflog.Warn(ctx, "Computer has moved out of its target organizational unit", map[string]any{
		"guid":      data.ID.ValueString(),
		"dn":        entry.DN,
		"target_dn": target.DN,
	})
	data.TargetOUPath = customtypes.DirectoryPath(target.Child(parentDN).String())
}

// currentComputerPath addresses dn on the server named by computerPath.
func currentComputerPath(computerPath, dn string) (string, error) {
	base, err := ldapclient.ParseDirectoryPath(computerPath)
	if err != nil {
		return "", err
	}
	if dn == "" {
		return base.String(), nil
	}
	return base.Child(dn).String(), nil
}

// relocationFailureDetail describes a failed relocation with every attempt
// error and the command an operator can run by hand.
func relocationFailureDetail(outcome ldapclient.MoveOutcome) string {
	var b strings.Builder
	b.WriteString(outcome.Message)

	if len(outcome.AttemptErrors) > 0 {
		b.WriteString("\n\nAttempts:")
		for _, attemptErr := range outcome.AttemptErrors {
			b.WriteString("\n  - ")
			b.WriteString(attemptErr)
		}
	}

	if command := ldapclient.ManualCommand(outcome); command != "" {
		b.WriteString("\n\nTo move the computer manually, run in PowerShell:\n\n  ")
		b.WriteString(command)
	}

	return b.String()
}
