package provider

import (
	"testing"
	"time"

	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

// emptyProviderModel returns a model with every attribute null.
func emptyProviderModel() ActiveDirectoryProviderModel {
	return ActiveDirectoryProviderModel{
		Domain:               types.StringNull(),
		LdapURL:              types.StringNull(),
		RootPath:             types.StringNull(),
		Username:             types.StringNull(),
		Password:             types.StringNull(),
		SimpleBind:           types.BoolNull(),
		KerberosRealm:        types.StringNull(),
		KerberosKeytab:       types.StringNull(),
		KerberosConfig:       types.StringNull(),
		KerberosCCache:       types.StringNull(),
		KerberosSPN:          types.StringNull(),
		UseTLS:               types.BoolNull(),
		SkipTLSVerify:        types.BoolNull(),
		TLSCACertFile:        types.StringNull(),
		TLSCACert:            types.StringNull(),
		ConnectTimeout:       types.Int64Null(),
		DelegatedCommand:     types.StringNull(),
		DisableDelegatedMove: types.BoolNull(),
		ContainmentCheck:     types.StringNull(),
	}
}

// clearProviderEnv unsets every AD_* variable the provider reads.
func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"AD_DOMAIN", "AD_LDAP_URL", "AD_ROOT_PATH", "AD_USERNAME", "AD_PASSWORD", "AD_SIMPLE_BIND",
		"AD_KERBEROS_REALM", "AD_KERBEROS_KEYTAB", "AD_KERBEROS_CONFIG", "AD_KERBEROS_CCACHE", "AD_KERBEROS_SPN",
		"AD_USE_TLS", "AD_SKIP_TLS_VERIFY", "AD_TLS_CA_CERT_FILE", "AD_TLS_CA_CERT", "AD_CONNECT_TIMEOUT",
		"AD_DELEGATED_COMMAND", "AD_DISABLE_DELEGATED_MOVE", "AD_CONTAINMENT_CHECK",
	} {
		t.Setenv(name, "")
	}
}

func buildTestSettings(t *testing.T, mutate func(*ActiveDirectoryProviderModel)) (*providerSettings, diag.Diagnostics) {
	t.Helper()
	data := emptyProviderModel()
	if mutate != nil {
		mutate(&data)
	}

	var diags diag.Diagnostics
	settings := (&ActiveDirectoryProvider{Version: "test"}).buildSettings(&data, &diags)
	return settings, diags
}

func TestBuildSettings_Defaults(t *testing.T) {
	clearProviderEnv(t)

	settings, diags := buildTestSettings(t, func(d *ActiveDirectoryProviderModel) {
		d.Domain = types.StringValue("example.com")
	})
	require.False(t, diags.HasError(), "%v", diags)

	assert.Equal(t, "LDAP://DC=example,DC=com", settings.RootPath)
	assert.True(t, settings.Credentials.IsEmpty(), "no credentials selects the ambient identity")
	assert.True(t, settings.Connection.UseTLS)
	assert.Equal(t, 30*time.Second, settings.Connection.Timeout)
	assert.Equal(t, ldapclient.ContainmentParent, settings.Relocation.Containment)
	assert.False(t, settings.Relocation.DisableDelegated)
	assert.Equal(t, ldapclient.DefaultPowerShell, settings.Delegated)
}

func TestBuildSettings_EnvironmentFallback(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("AD_DOMAIN", "corp.example.com")
	t.Setenv("AD_USERNAME", `CORP\operator`)
	t.Setenv("AD_PASSWORD", "hunter2")
	t.Setenv("AD_CONNECT_TIMEOUT", "5")
	t.Setenv("AD_SKIP_TLS_VERIFY", "true")
	t.Setenv("AD_CONTAINMENT_CHECK", "Substring")
	t.Setenv("AD_DELEGATED_COMMAND", "pwsh")

	settings, diags := buildTestSettings(t, nil)
	require.False(t, diags.HasError(), "%v", diags)

	assert.Equal(t, "LDAP://DC=corp,DC=example,DC=com", settings.RootPath)
	assert.Equal(t, ldapclient.Credentials{Username: `CORP\operator`, Password: "hunter2"}, settings.Credentials)
	assert.Equal(t, 5*time.Second, settings.Connection.Timeout)
	assert.True(t, settings.Connection.TLSConfig.InsecureSkipVerify)
	assert.Equal(t, ldapclient.ContainmentSubstring, settings.Relocation.Containment)
	assert.Equal(t, "pwsh", settings.Delegated)
}

func TestBuildSettings_ZeroTimeoutDisablesLimit(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("AD_CONNECT_TIMEOUT", "45")

	settings, diags := buildTestSettings(t, func(d *ActiveDirectoryProviderModel) {
		d.Domain = types.StringValue("example.com")
		d.ConnectTimeout = types.Int64Value(0)
	})
	require.False(t, diags.HasError(), "%v", diags)

	assert.Zero(t, settings.Connection.Timeout)
}

func TestBuildSettings_ConfigOverridesEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("AD_USE_TLS", "true")

	settings, diags := buildTestSettings(t, func(d *ActiveDirectoryProviderModel) {
		d.Domain = types.StringValue("example.com")
		d.UseTLS = types.BoolValue(false)
		d.DisableDelegatedMove = types.BoolValue(true)
	})
	require.False(t, diags.HasError(), "%v", diags)

	assert.False(t, settings.Connection.UseTLS)
	assert.True(t, settings.Relocation.DisableDelegated)
	assert.Empty(t, settings.Delegated)
}

func TestBuildSettings_RootPath(t *testing.T) {
	tests := map[string]struct {
		mutate   func(*ActiveDirectoryProviderModel)
		expected string
		summary  string
	}{
		"explicit root path wins": {
			mutate: func(d *ActiveDirectoryProviderModel) {
				d.Domain = types.StringValue("example.com")
				d.RootPath = types.StringValue("LDAP://OU=Managed,DC=example,DC=com")
			},
			expected: "LDAP://OU=Managed,DC=example,DC=com",
		},
		"from domain": {
			mutate: func(d *ActiveDirectoryProviderModel) {
				d.Domain = types.StringValue("example.com.")
			},
			expected: "LDAP://DC=example,DC=com",
		},
		"from ldap url with base dn": {
			mutate: func(d *ActiveDirectoryProviderModel) {
				d.LdapURL = types.StringValue("ldaps://dc1.example.com:636/DC=example,DC=com")
			},
			expected: "ldaps://dc1.example.com:636/DC=example,DC=com",
		},
		"ldap url without base dn": {
			mutate: func(d *ActiveDirectoryProviderModel) {
				d.LdapURL = types.StringValue("ldaps://dc1.example.com:636")
			},
			summary: "Missing Connection Configuration",
		},
		"invalid root path": {
			mutate: func(d *ActiveDirectoryProviderModel) {
				d.RootPath = types.StringValue("DC=example,DC=com")
			},
			summary: "Invalid Root Path",
		},
		"nothing configured": {
			summary: "Missing Connection Configuration",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			clearProviderEnv(t)

			settings, diags := buildTestSettings(t, tc.mutate)
			if tc.summary != "" {
				require.True(t, diags.HasError())
				assert.Equal(t, tc.summary, diags.Errors()[0].Summary())
				return
			}
			require.False(t, diags.HasError(), "%v", diags)
			assert.Equal(t, tc.expected, settings.RootPath)
		})
	}
}

func TestBuildSettings_Errors(t *testing.T) {
	tests := map[string]struct {
		mutate  func(*ActiveDirectoryProviderModel)
		summary string
	}{
		"domain and ldap url": {
			mutate: func(d *ActiveDirectoryProviderModel) {
				d.Domain = types.StringValue("example.com")
				d.LdapURL = types.StringValue("ldaps://dc1.example.com")
			},
			summary: "Conflicting Connection Configuration",
		},
		"invalid ldap url": {
			mutate: func(d *ActiveDirectoryProviderModel) {
				d.LdapURL = types.StringValue("http://dc1.example.com")
			},
			summary: "Invalid LDAP URL",
		},
		"username without password": {
			mutate: func(d *ActiveDirectoryProviderModel) {
				d.Domain = types.StringValue("example.com")
				d.Username = types.StringValue("operator")
			},
			summary: "Incomplete Authentication Configuration",
		},
		"password without username": {
			mutate: func(d *ActiveDirectoryProviderModel) {
				d.Domain = types.StringValue("example.com")
				d.Password = types.StringValue("hunter2")
			},
			summary: "Incomplete Authentication Configuration",
		},
		"both ca settings": {
			mutate: func(d *ActiveDirectoryProviderModel) {
				d.Domain = types.StringValue("example.com")
				d.TLSCACertFile = types.StringValue("/etc/ssl/ca.pem")
				d.TLSCACert = types.StringValue("-----BEGIN CERTIFICATE-----")
			},
			summary: "Conflicting TLS Configuration",
		},
		"unknown containment check": {
			mutate: func(d *ActiveDirectoryProviderModel) {
				d.Domain = types.StringValue("example.com")
				d.ContainmentCheck = types.StringValue("exact")
			},
			summary: "Invalid Containment Check",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			clearProviderEnv(t)

			_, diags := buildTestSettings(t, tc.mutate)
			require.True(t, diags.HasError())
			assert.Equal(t, tc.summary, diags.Errors()[0].Summary())
		})
	}
}

func TestBuildSettings_KerberosKeytabWithoutPassword(t *testing.T) {
	clearProviderEnv(t)

	settings, diags := buildTestSettings(t, func(d *ActiveDirectoryProviderModel) {
		d.Domain = types.StringValue("example.com")
		d.Username = types.StringValue("svc-terraform")
		d.KerberosRealm = types.StringValue("EXAMPLE.COM")
		d.KerberosKeytab = types.StringValue("/etc/krb5.keytab")
	})
	require.False(t, diags.HasError(), "%v", diags)

	assert.Equal(t, "svc-terraform", settings.Credentials.Username)
	assert.Equal(t, ldapclient.AuthMethodKerberos, settings.Connection.AuthMethodFor(settings.Credentials))
}
