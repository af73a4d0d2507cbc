package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/function"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

var _ function.Function = &ManualMoveCommandFunction{}

// ManualMoveCommandFunction implements the manual_move_command function.
type ManualMoveCommandFunction struct{}

// NewManualMoveCommandFunction creates a new instance of the manual_move_command function.
func NewManualMoveCommandFunction() function.Function {
	return &ManualMoveCommandFunction{}
}

func (f ManualMoveCommandFunction) Metadata(_ context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "manual_move_command"
}

func (f ManualMoveCommandFunction) Definition(_ context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary:     "Build a manual computer move command",
		Description: "Returns the PowerShell Move-ADObject command that moves an object to a target container. Both arguments accept a distinguished name or a directory path. The command carries no credentials and runs as the operator's own identity.",
		MarkdownDescription: "Returns the PowerShell `Move-ADObject` command that moves an object to a target container. " +
			"Both arguments accept a distinguished name or a directory path such as `LDAP://CN=PC01,OU=Sales,DC=example,DC=com`. " +
			"The command carries no credentials and runs as the operator's own identity.",
		Parameters: []function.Parameter{
			function.StringParameter{
				Name:        "source",
				Description: "Distinguished name or directory path of the object to move.",
			},
			function.StringParameter{
				Name:        "target",
				Description: "Distinguished name or directory path of the destination container.",
			},
		},
		Return: function.StringReturn{},
	}
}

func (f ManualMoveCommandFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var source, target string

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &source, &target))
	if resp.Error != nil {
		return
	}

	sourceDN, err := dnFromArgument(source)
	if err != nil {
		resp.Error = function.NewArgumentFuncError(0, fmt.Sprintf("Invalid source: %s", err.Error()))
		return
	}
	targetDN, err := dnFromArgument(target)
	if err != nil {
		resp.Error = function.NewArgumentFuncError(1, fmt.Sprintf("Invalid target: %s", err.Error()))
		return
	}

	resp.Error = resp.Result.Set(ctx, ldapclient.BuildMoveScript(sourceDN, targetDN, ldapclient.Credentials{}))
}

// dnFromArgument accepts a bare DN or a directory path and returns the DN.
func dnFromArgument(value string) (string, error) {
	if p, err := ldapclient.ParseDirectoryPath(value); err == nil {
		return p.DN, nil
	}
	if err := ldapclient.ValidateDNSyntax(value); err != nil {
		return "", err
	}
	return value, nil
}
