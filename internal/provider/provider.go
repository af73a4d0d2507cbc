package provider

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/terraform-plugin-framework-validators/int64validator"
	"github.com/hashicorp/terraform-plugin-framework-validators/providervalidator"
	"github.com/hashicorp/terraform-plugin-framework-validators/stringvalidator"
	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/ephemeral"
	"github.com/hashicorp/terraform-plugin-framework/function"
	"github.com/hashicorp/terraform-plugin-framework/path"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/schema/validator"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
	"github.com/isometry/terraform-provider-admover/internal/provider/validators"
)

// Ensure ActiveDirectoryProvider satisfies various provider interfaces.
var _ provider.Provider = &ActiveDirectoryProvider{}
var _ provider.ProviderWithFunctions = &ActiveDirectoryProvider{}
var _ provider.ProviderWithEphemeralResources = &ActiveDirectoryProvider{}
var _ provider.ProviderWithConfigValidators = &ActiveDirectoryProvider{}

// ActiveDirectoryProvider defines the provider implementation.
type ActiveDirectoryProvider struct {
	// Version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	Version string
}

// ActiveDirectoryProviderModel describes the provider data model.
type ActiveDirectoryProviderModel struct {
	// Connection settings - domain and ldap_url are mutually exclusive
	Domain   types.String `tfsdk:"domain"`
	LdapURL  types.String `tfsdk:"ldap_url"`
	RootPath types.String `tfsdk:"root_path"`

	// Authentication settings
	Username   types.String `tfsdk:"username"`
	Password   types.String `tfsdk:"password"`
	SimpleBind types.Bool   `tfsdk:"simple_bind"`

	// Kerberos settings (optional)
	KerberosRealm  types.String `tfsdk:"kerberos_realm"`
	KerberosKeytab types.String `tfsdk:"kerberos_keytab"`
	KerberosConfig types.String `tfsdk:"kerberos_config"`
	KerberosCCache types.String `tfsdk:"kerberos_ccache"`
	KerberosSPN    types.String `tfsdk:"kerberos_spn"`

	// TLS settings
	UseTLS        types.Bool   `tfsdk:"use_tls"`
	SkipTLSVerify types.Bool   `tfsdk:"skip_tls_verify"`
	TLSCACertFile types.String `tfsdk:"tls_ca_cert_file"`
	TLSCACert     types.String `tfsdk:"tls_ca_cert"`

	ConnectTimeout types.Int64 `tfsdk:"connect_timeout"`

	// Relocation settings
	DelegatedCommand     types.String `tfsdk:"delegated_command"`
	DisableDelegatedMove types.Bool   `tfsdk:"disable_delegated_move"`
	ContainmentCheck     types.String `tfsdk:"containment_check"`
}

// providerSettings is the resolved provider configuration.
type providerSettings struct {
	Connection  *ldapclient.ConnectionConfig
	Credentials ldapclient.Credentials
	RootPath    string
	Delegated   string // delegated command executable, empty when disabled
	Relocation  ldapclient.RelocatorOptions
}

func (p *ActiveDirectoryProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "ad"
	resp.Version = p.Version
}

func (p *ActiveDirectoryProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "The Active Directory provider browses the organizational unit hierarchy and relocates computer objects between OUs. " +
			"It supports SRV-based domain controller discovery, NTLM, simple and Kerberos binds, and the caller's ambient identity.",
		Attributes: map[string]schema.Attribute{
			// Connection settings - mutually exclusive
			"domain": schema.StringAttribute{
				MarkdownDescription: "Active Directory domain name for SRV-based discovery (e.g., `example.com`). " +
					"Mutually exclusive with `ldap_url`. Can be set via the `AD_DOMAIN` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"ldap_url": schema.StringAttribute{
				MarkdownDescription: "Direct LDAP/LDAPS URL of a domain controller (e.g., `ldaps://dc1.example.com:636`). " +
					"Used for every path that names no server. Mutually exclusive with `domain`. " +
					"Can be set via the `AD_LDAP_URL` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"root_path": schema.StringAttribute{
				MarkdownDescription: "Directory path of the domain root (e.g., `LDAP://DC=example,DC=com`). " +
					"Defaults to the root of `domain`, or to the distinguished name carried by `ldap_url`. " +
					"Can be set via the `AD_ROOT_PATH` environment variable.",
				Optional: true,
				Validators: []validator.String{
					validators.IsValidDirectoryPath(),
				},
			},

			// Authentication settings
			"username": schema.StringAttribute{
				MarkdownDescription: "Username for authentication in `DOMAIN\\user`, UPN or bare name form. " +
					"Leave unset together with `password` to use the ambient identity of the running process. " +
					"Can be set via the `AD_USERNAME` environment variable.",
				Optional: true,
			},
			"password": schema.StringAttribute{
				MarkdownDescription: "Password for authentication. " +
					"Can be set via the `AD_PASSWORD` environment variable.",
				Optional:  true,
				Sensitive: true,
			},
			"simple_bind": schema.BoolAttribute{
				MarkdownDescription: "Use an LDAP simple bind instead of NTLM for username/password authentication. Defaults to `false`. " +
					"Can be set via the `AD_SIMPLE_BIND` environment variable.",
				Optional: true,
			},

			// Kerberos settings
			"kerberos_realm": schema.StringAttribute{
				MarkdownDescription: "Kerberos realm for GSSAPI authentication (e.g., `EXAMPLE.COM`). " +
					"Can be set via the `AD_KERBEROS_REALM` environment variable.",
				Optional: true,
			},
			"kerberos_keytab": schema.StringAttribute{
				MarkdownDescription: "Path to Kerberos keytab file for authentication. " +
					"Can be set via the `AD_KERBEROS_KEYTAB` environment variable.",
				Optional: true,
			},
			"kerberos_config": schema.StringAttribute{
				MarkdownDescription: "Path to Kerberos configuration file. Defaults to system default. " +
					"Can be set via the `AD_KERBEROS_CONFIG` environment variable.",
				Optional: true,
			},
			"kerberos_ccache": schema.StringAttribute{
				MarkdownDescription: "Path to Kerberos credential cache file for authentication. " +
					"Can be set via the `AD_KERBEROS_CCACHE` environment variable.",
				Optional: true,
			},
			"kerberos_spn": schema.StringAttribute{
				MarkdownDescription: "Override Service Principal Name (SPN) for Kerberos authentication. " +
					"Format: `ldap/<hostname>` (e.g., `ldap/dc1.example.com`). " +
					"Can be set via the `AD_KERBEROS_SPN` environment variable.",
				Optional: true,
			},

			// TLS settings
			"use_tls": schema.BoolAttribute{
				MarkdownDescription: "Upgrade plain `ldap://` connections with StartTLS. Defaults to `true`. " +
					"Can be set via the `AD_USE_TLS` environment variable.",
				Optional: true,
			},
			"skip_tls_verify": schema.BoolAttribute{
				MarkdownDescription: "Skip TLS certificate verification. Not recommended for production. Defaults to `false`. " +
					"Can be set via the `AD_SKIP_TLS_VERIFY` environment variable.",
				Optional: true,
			},
			"tls_ca_cert_file": schema.StringAttribute{
				MarkdownDescription: "Path to custom CA certificate file for TLS verification. " +
					"Can be set via the `AD_TLS_CA_CERT_FILE` environment variable.",
				Optional: true,
			},
			"tls_ca_cert": schema.StringAttribute{
				MarkdownDescription: "Custom CA certificate content for TLS verification. " +
					"Can be set via the `AD_TLS_CA_CERT` environment variable.",
				Optional:  true,
				Sensitive: true,
			},
			"connect_timeout": schema.Int64Attribute{
				MarkdownDescription: "Connection timeout in seconds. Defaults to `30`; `0` waits indefinitely. " +
					"Can be set via the `AD_CONNECT_TIMEOUT` environment variable.",
				Optional: true,
				Validators: []validator.Int64{
					int64validator.AtLeast(0),
				},
			},

			// Relocation settings
			"delegated_command": schema.StringAttribute{
				MarkdownDescription: "Executable used for the delegated `Move-ADObject` fallback when a direct move fails. " +
					"Defaults to `powershell.exe`. Can be set via the `AD_DELEGATED_COMMAND` environment variable.",
				Optional: true,
				Validators: []validator.String{
					stringvalidator.LengthAtLeast(1),
				},
			},
			"disable_delegated_move": schema.BoolAttribute{
				MarkdownDescription: "Never fall back to the delegated command. Defaults to `false`. " +
					"Can be set via the `AD_DISABLE_DELEGATED_MOVE` environment variable.",
				Optional: true,
			},
			"containment_check": schema.StringAttribute{
				MarkdownDescription: "How to decide that a computer is already in the target OU. " +
					"`parent` compares the computer's parent DN with the target DN; " +
					"`substring` matches the target DN anywhere in the computer DN. Defaults to `parent`. " +
					"Can be set via the `AD_CONTAINMENT_CHECK` environment variable.",
				Optional: true,
				Validators: []validator.String{
					validators.CaseInsensitiveOneOf(string(ldapclient.ContainmentParent), string(ldapclient.ContainmentSubstring)),
				},
			},
		},
	}
}

// ConfigValidators implements provider.ProviderWithConfigValidators.
func (p *ActiveDirectoryProvider) ConfigValidators(ctx context.Context) []provider.ConfigValidator {
	return []provider.ConfigValidator{
		// Domain and ldap_url are mutually exclusive
		providervalidator.Conflicting(
			path.MatchRoot("domain"),
			path.MatchRoot("ldap_url"),
		),
		// TLS cert file and cert content are mutually exclusive
		providervalidator.Conflicting(
			path.MatchRoot("tls_ca_cert_file"),
			path.MatchRoot("tls_ca_cert"),
		),
		// A delegated command makes no sense when delegation is disabled
		providervalidator.Conflicting(
			path.MatchRoot("delegated_command"),
			path.MatchRoot("disable_delegated_move"),
		),
	}
}

func (p *ActiveDirectoryProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data ActiveDirectoryProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)
	if resp.Diagnostics.HasError() {
		return
	}

	ctx = p.configureLogging(ctx)

	tflog.Info(ctx, "Configuring Active Directory provider", map[string]any{
		"version": p.Version,
	})

	settings := p.buildSettings(&data, &resp.Diagnostics)
	if resp.Diagnostics.HasError() {
		return
	}

	providerData := ldapclient.NewProviderData(
		ldapclient.NewDialer(settings.Connection, nil),
		settings.Credentials,
		settings.RootPath,
	)
	providerData.Relocation = settings.Relocation
	if settings.Delegated != "" {
		mover := ldapclient.NewPowerShellMover(nil)
		mover.Executable = settings.Delegated
		providerData.Delegated = mover
	}

	// Test connection and authentication against the domain root
	start := time.Now()
	root, err := providerData.ValidateConnection(ctx, subsystemLogger(ctx, subsystemLDAP))
	if err != nil {
		tflog.Error(ctx, "Connection test failed", map[string]any{
			"error":       err.Error(),
			"root_path":   settings.RootPath,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		resp.Diagnostics.AddError(
			"Unable to Connect to Active Directory",
			"The provider could not open the domain root. "+
				"Please verify your connection and authentication settings.\n\n"+
				"Connection Error: "+err.Error(),
		)
		return
	}

	tflog.Info(ctx, "Active Directory provider configured successfully", map[string]any{
		"root_dn":     root.DN,
		"auth_method": settings.Connection.AuthMethodFor(settings.Credentials).String(),
		"delegated":   providerData.Delegated != nil,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	// Make provider data available to resources and data sources
	resp.DataSourceData = providerData
	resp.ResourceData = providerData
}

// configureLogging sets up logging configuration based on environment variables.
func (p *ActiveDirectoryProvider) configureLogging(ctx context.Context) context.Context {
	ctx = tflog.SetField(ctx, "provider", "ad")
	ctx = tflog.SetField(ctx, "provider_version", p.Version)

	tflog.Debug(ctx, "Active Directory provider logging configured")

	return ctx
}

// buildSettings resolves the provider configuration from provider config and environment variables.
func (p *ActiveDirectoryProvider) buildSettings(data *ActiveDirectoryProviderModel, diags *diag.Diagnostics) *providerSettings {
	config := ldapclient.DefaultConfig()
	settings := &providerSettings{Connection: config}

	// Connection settings
	config.Domain = p.getStringValue(data.Domain, "AD_DOMAIN")
	config.LDAPURL = p.getStringValue(data.LdapURL, "AD_LDAP_URL")
	if config.Domain != "" && config.LDAPURL != "" {
		diags.AddError(
			"Conflicting Connection Configuration",
			"Only one of 'domain' (AD_DOMAIN) and 'ldap_url' (AD_LDAP_URL) may be set.",
		)
		return settings
	}
	if config.LDAPURL != "" {
		if _, err := ldapclient.ParseLDAPURL(config.LDAPURL); err != nil {
			diags.AddAttributeError(
				path.Root("ldap_url"),
				"Invalid LDAP URL",
				"The LDAP URL could not be parsed: "+err.Error(),
			)
			return settings
		}
	}

	settings.RootPath = p.resolveRootPath(data, config, diags)
	if diags.HasError() {
		return settings
	}

	// Authentication settings
	settings.Credentials = ldapclient.Credentials{
		Username: p.getStringValue(data.Username, "AD_USERNAME"),
		Password: p.getStringValue(data.Password, "AD_PASSWORD"),
	}
	config.SimpleBind = p.getBoolValue(data.SimpleBind, "AD_SIMPLE_BIND", false)
	config.KerberosRealm = p.getStringValue(data.KerberosRealm, "AD_KERBEROS_REALM")
	config.KerberosKeytab = p.getStringValue(data.KerberosKeytab, "AD_KERBEROS_KEYTAB")
	config.KerberosConfig = p.getStringValue(data.KerberosConfig, "AD_KERBEROS_CONFIG")
	config.KerberosCCache = p.getStringValue(data.KerberosCCache, "AD_KERBEROS_CCACHE")
	config.KerberosSPN = p.getStringValue(data.KerberosSPN, "AD_KERBEROS_SPN")

	// a keytab or credential cache stands in for the password
	hasSecret := settings.Credentials.Password != "" || config.KerberosKeytab != "" || config.KerberosCCache != ""
	if settings.Credentials.Username == "" && settings.Credentials.Password != "" ||
		settings.Credentials.Username != "" && !hasSecret {
		diags.AddError(
			"Incomplete Authentication Configuration",
			"'username' must be set with 'password', 'kerberos_keytab' or 'kerberos_ccache'. "+
				"Leave 'username' and 'password' unset to authenticate with the ambient identity of the running process.",
		)
		return settings
	}

	// TLS settings
	config.UseTLS = p.getBoolValue(data.UseTLS, "AD_USE_TLS", true)
	config.SkipTLSVerify = p.getBoolValue(data.SkipTLSVerify, "AD_SKIP_TLS_VERIFY", false)
	if config.SkipTLSVerify {
		config.TLSConfig.InsecureSkipVerify = true
	}
	config.TLSCACertFile = p.getStringValue(data.TLSCACertFile, "AD_TLS_CA_CERT_FILE")
	config.TLSCACert = p.getStringValue(data.TLSCACert, "AD_TLS_CA_CERT")
	if config.TLSCACertFile != "" && config.TLSCACert != "" {
		diags.AddError(
			"Conflicting TLS Configuration",
			"Only one of 'tls_ca_cert_file' (AD_TLS_CA_CERT_FILE) and 'tls_ca_cert' (AD_TLS_CA_CERT) may be set.",
		)
		return settings
	}

	if connectTimeout := p.getInt64Value(data.ConnectTimeout, "AD_CONNECT_TIMEOUT", 30); connectTimeout >= 0 {
		config.Timeout = time.Duration(connectTimeout) * time.Second
	}

	// Relocation settings
	containment := strings.ToLower(p.getStringValue(data.ContainmentCheck, "AD_CONTAINMENT_CHECK"))
	switch ldapclient.ContainmentPolicy(containment) {
	case "", ldapclient.ContainmentParent:
		settings.Relocation.Containment = ldapclient.ContainmentParent
	case ldapclient.ContainmentSubstring:
		settings.Relocation.Containment = ldapclient.ContainmentSubstring
	default:
		diags.AddAttributeError(
			path.Root("containment_check"),
			"Invalid Containment Check",
			"'containment_check' must be one of 'parent' or 'substring', got: "+containment,
		)
		return settings
	}

	settings.Relocation.DisableDelegated = p.getBoolValue(data.DisableDelegatedMove, "AD_DISABLE_DELEGATED_MOVE", false)
	if !settings.Relocation.DisableDelegated {
		settings.Delegated = p.getStringValue(data.DelegatedCommand, "AD_DELEGATED_COMMAND")
		if settings.Delegated == "" {
			settings.Delegated = ldapclient.DefaultPowerShell
		}
	}

	return settings
}

// resolveRootPath returns root_path, or derives it from the domain or the
// distinguished name carried by the LDAP URL.
func (p *ActiveDirectoryProvider) resolveRootPath(data *ActiveDirectoryProviderModel, config *ldapclient.ConnectionConfig, diags *diag.Diagnostics) string {
	if rootPath := p.getStringValue(data.RootPath, "AD_ROOT_PATH"); rootPath != "" {
		if _, err := ldapclient.ParseDirectoryPath(rootPath); err != nil {
			diags.AddAttributeError(
				path.Root("root_path"),
				"Invalid Root Path",
				"The root path could not be parsed: "+err.Error(),
			)
		}
		return rootPath
	}

	if config.Domain != "" {
		return ldapclient.RootPathForDomain(config.Domain)
	}

	if config.LDAPURL != "" {
		if parsed, err := ldapclient.ParseDirectoryPath(config.LDAPURL); err == nil {
			return parsed.String()
		}
	}

	diags.AddError(
		"Missing Connection Configuration",
		"The domain root could not be determined. "+
			"Set 'domain' (AD_DOMAIN), set 'root_path' (AD_ROOT_PATH), "+
			"or include the base DN in 'ldap_url' (e.g., ldaps://dc1.example.com/DC=example,DC=com).",
	)
	return ""
}

// Helper functions for configuration value resolution

func (p *ActiveDirectoryProvider) getStringValue(configValue types.String, envVar string) string {
	if !configValue.IsNull() && configValue.ValueString() != "" {
		return configValue.ValueString()
	}
	return os.Getenv(envVar)
}

func (p *ActiveDirectoryProvider) getBoolValue(configValue types.Bool, envVar string, defaultValue bool) bool {
	if !configValue.IsNull() {
		return configValue.ValueBool()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseBool(envValue); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *ActiveDirectoryProvider) getInt64Value(configValue types.Int64, envVar string, defaultValue int64) int64 {
	if !configValue.IsNull() {
		return configValue.ValueInt64()
	}
	if envValue := os.Getenv(envVar); envValue != "" {
		if parsed, err := strconv.ParseInt(envValue, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func (p *ActiveDirectoryProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewComputerPlacementResource,
	}
}

func (p *ActiveDirectoryProvider) EphemeralResources(ctx context.Context) []func() ephemeral.EphemeralResource {
	return []func() ephemeral.EphemeralResource{
		// No ephemeral resources defined yet
	}
}

func (p *ActiveDirectoryProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewComputerDataSource,
		NewDirectoryTreeDataSource,
		NewWhoAmIDataSource,
	}
}

func (p *ActiveDirectoryProvider) Functions(ctx context.Context) []func() function.Function {
	return []func() function.Function{
		NewManualMoveCommandFunction,
		NewRootPathFunction,
		NewNestTreeFunction,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &ActiveDirectoryProvider{
			Version: version,
		}
	}
}
