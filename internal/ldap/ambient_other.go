//go:build !windows

package ldap

import (
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
	krb5client "github.com/jcmturner/gokrb5/v8/client"
)

// newAmbientClient returns a GSSAPI client for the current user. Outside
// Windows this is the Kerberos credential cache (kinit).
func newAmbientClient(cfg *ConnectionConfig) (ldap.GSSAPIClient, error) {
	ccache := cfg.KerberosCCache
	if ccache == "" {
		ccache = defaultCCachePath()
	}
	if !fileExists(ccache) {
		return nil, fmt.Errorf("no credentials supplied and no Kerberos credential cache found at %s", ccache)
	}

	krb5conf := cfg.KerberosConfig
	if krb5conf == "" {
		krb5conf = defaultKrb5Conf
	}

	return gssapi.NewClientFromCCache(ccache, krb5conf, krb5client.DisablePAFXFAST(true))
}
