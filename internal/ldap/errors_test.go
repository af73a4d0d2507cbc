package ldap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLDAPError(t *testing.T) {
	tests := []struct {
		name         string
		operation    string
		err          error
		wantCategory ErrorCategory
		wantCode     uint16
	}{
		{
			name:         "invalid credentials",
			operation:    "bind",
			err:          ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("80090308: LdapErr: DSID-0C09044E")),
			wantCategory: ErrorCategoryAuthentication,
			wantCode:     ldap.LDAPResultInvalidCredentials,
		},
		{
			name:         "insufficient access",
			operation:    "modify_dn",
			err:          ldap.NewError(ldap.LDAPResultInsufficientAccessRights, errors.New("access denied")),
			wantCategory: ErrorCategoryPermission,
			wantCode:     ldap.LDAPResultInsufficientAccessRights,
		},
		{
			name:         "no such object",
			operation:    "search",
			err:          ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("0000208D")),
			wantCategory: ErrorCategoryNotFound,
			wantCode:     ldap.LDAPResultNoSuchObject,
		},
		{
			name:         "network",
			operation:    "search",
			err:          ldap.NewError(ldap.ErrorNetwork, errors.New("connection reset")),
			wantCategory: ErrorCategoryConnection,
			wantCode:     ldap.ErrorNetwork,
		},
		{
			name:         "generic timeout",
			operation:    "connect",
			err:          errors.New("dial tcp 10.0.0.1:636: i/o timeout"),
			wantCategory: ErrorCategoryConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewLDAPError(tt.operation, "CN=PC01,OU=Sales,DC=example,DC=com", tt.err)

			require.NotNil(t, result)
			assert.Equal(t, tt.wantCategory, result.Category)
			assert.Equal(t, tt.wantCode, result.LDAPCode)
			assert.Equal(t, tt.operation, result.Operation)
			assert.ErrorIs(t, result, tt.err)
			assert.Contains(t, result.Error(), "DN: CN=PC01,OU=Sales,DC=example,DC=com")
		})
	}
}

func TestNewLDAPError_Nil(t *testing.T) {
	assert.Nil(t, NewLDAPError("search", "", nil))
}

func TestLDAPError_Error(t *testing.T) {
	err := NewLDAPError("modify_dn", "CN=PC01,OU=Sales,DC=example,DC=com",
		ldap.NewError(ldap.LDAPResultInsufficientAccessRights, errors.New("00002098: SecErr")))

	msg := err.Error()
	assert.Contains(t, msg, "LDAP modify_dn failed (code 50)")
	assert.Contains(t, msg, ldap.LDAPResultCodeMap[ldap.LDAPResultInsufficientAccessRights])
	assert.Contains(t, msg, "server: 00002098: SecErr")
}

func TestErrorCategoryHelpers(t *testing.T) {
	notFound := fmt.Errorf("lookup: %w", NewLDAPError("search", "", ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("missing"))))
	auth := ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad password"))
	denied := errors.New("Access is denied")

	assert.True(t, IsNotFoundError(notFound))
	assert.False(t, IsNotFoundError(auth))
	assert.True(t, IsAuthenticationError(auth))
	assert.True(t, IsPermissionError(denied))
	assert.Equal(t, ErrorCategoryUnknown, GetErrorCategory(nil))
	assert.Equal(t, ErrorCategoryUnknown, GetErrorCategory(errors.New("something odd")))
}

func TestConnectionError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewConnectionError("LDAP://DC=example,DC=com", "failed to open directory connection", true, cause)

	assert.Equal(t, "failed to open directory connection at LDAP://DC=example,DC=com: connection refused", err.Error())
	assert.True(t, err.IsRetryable())
	assert.ErrorIs(t, err, cause)

	bare := NewConnectionError("", "authentication failed", false, nil)
	assert.Equal(t, "authentication failed", bare.Error())
	assert.False(t, bare.IsRetryable())
}

func TestDirectoryReadError(t *testing.T) {
	cause := errors.New("operations error")
	err := NewDirectoryReadError("ldap://OU=Sales,DC=example,DC=com", cause)

	assert.EqualError(t, err, "directory read failed at ldap://OU=Sales,DC=example,DC=com: operations error")
	assert.ErrorIs(t, err, cause)

	// nested failures keep the innermost path
	outer := NewDirectoryReadError("ldap://DC=example,DC=com", err)
	assert.Same(t, err, outer)

	var readErr *DirectoryReadError
	require.ErrorAs(t, outer, &readErr)
	assert.Equal(t, "ldap://OU=Sales,DC=example,DC=com", readErr.Path)
}
