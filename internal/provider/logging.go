package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/terraform-plugin-framework/diag"
	"github.com/hashicorp/terraform-plugin-log/tflog"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

// Logging subsystems. Each level is controlled by
// TF_LOG_PROVIDER_AD_<SUBSYSTEM>.
const (
	subsystemProvider  = "provider"
	subsystemLDAP      = "ldap"
	subsystemBrowser   = "browser"
	subsystemRelocator = "relocator"
)

// initializeLogging initializes the provider subsystem for consistent logging.
// This should be called at the beginning of each data source Read method
// and resource Create/Read/Update/Delete methods.
func initializeLogging(ctx context.Context) context.Context {
	return newSubsystem(ctx, subsystemProvider)
}

func newSubsystem(ctx context.Context, subsystem string) context.Context {
	return tflog.NewSubsystem(ctx, subsystem,
		tflog.WithLevelFromEnv("TF_LOG_PROVIDER_AD_"+strings.ToUpper(subsystem)))
}

// subsystemLogger returns an ldap.Logger writing to subsystem for the
// lifetime of ctx.
func subsystemLogger(ctx context.Context, subsystem string) ldapclient.Logger {
	return ldapclient.NewTFLogger(newSubsystem(ctx, subsystem), subsystem)
}

// diagnosticsError returns the first error diagnostic as an error for
// completion logging, or nil.
func diagnosticsError(diags diag.Diagnostics) error {
	errs := diags.Errors()
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %s", errs[0].Summary(), errs[0].Detail())
}
