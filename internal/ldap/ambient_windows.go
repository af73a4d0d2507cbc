//go:build windows

package ldap

import (
	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
)

// newAmbientClient returns an SSPI client bound to the current logon session.
func newAmbientClient(_ *ConnectionConfig) (ldap.GSSAPIClient, error) {
	return gssapi.NewSSPIClient()
}
