package provider

import (
	"github.com/isometry/terraform-provider-admover/internal/ldap/ldaptest"
)

const (
	testRootDN   = "DC=example,DC=com"
	testRootPath = "LDAP://DC=example,DC=com"
)

func newFakeDirectory() *ldaptest.Directory {
	return ldaptest.NewDirectory(testRootDN)
}
