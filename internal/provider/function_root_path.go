package provider

import (
	"context"

	"github.com/hashicorp/terraform-plugin-framework/function"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

var _ function.Function = &RootPathFunction{}

// RootPathFunction implements the root_path function.
type RootPathFunction struct{}

// NewRootPathFunction creates a new instance of the root_path function.
func NewRootPathFunction() function.Function {
	return &RootPathFunction{}
}

func (f RootPathFunction) Metadata(_ context.Context, req function.MetadataRequest, resp *function.MetadataResponse) {
	resp.Name = "root_path"
}

func (f RootPathFunction) Definition(_ context.Context, req function.DefinitionRequest, resp *function.DefinitionResponse) {
	resp.Definition = function.Definition{
		Summary:             "Derive the root path of a domain",
		Description:         "Returns the serverless directory path of a DNS domain's root, for example LDAP://DC=example,DC=com for example.com.",
		MarkdownDescription: "Returns the serverless directory path of a DNS domain's root, for example `LDAP://DC=example,DC=com` for `example.com`.",
		Parameters: []function.Parameter{
			function.StringParameter{
				Name:        "domain",
				Description: "DNS domain name.",
			},
		},
		Return: function.StringReturn{},
	}
}

func (f RootPathFunction) Run(ctx context.Context, req function.RunRequest, resp *function.RunResponse) {
	var domain string

	resp.Error = function.ConcatFuncErrors(resp.Error, req.Arguments.Get(ctx, &domain))
	if resp.Error != nil {
		return
	}

	rootPath := ldapclient.RootPathForDomain(domain)
	if rootPath == "" {
		resp.Error = function.NewArgumentFuncError(0, "domain cannot be empty")
		return
	}

	resp.Error = resp.Result.Set(ctx, rootPath)
}
