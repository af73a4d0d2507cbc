package ldap

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// NormalizeDNCase uppercases the attribute type descriptors of a DN to match
// Active Directory's canonical format.
//
// Input:  "cn=pc01,ou=sales,dc=example,dc=com"
// Output: "CN=pc01,OU=sales,DC=example,DC=com"
func NormalizeDNCase(dn string) (string, error) {
	dn = strings.TrimSpace(dn)
	if dn == "" {
		return "", nil
	}

	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("invalid DN syntax: %w", err)
	}

	return formatDN(parsed.RDNs), nil
}

func formatDN(rdns []*ldap.RelativeDN) string {
	parts := make([]string, 0, len(rdns))
	for _, rdn := range rdns {
		attrs := make([]string, 0, len(rdn.Attributes))
		for _, attr := range rdn.Attributes {
			attrs = append(attrs, strings.ToUpper(attr.Type)+"="+EscapeDNValue(attr.Value))
		}
		parts = append(parts, strings.Join(attrs, "+"))
	}
	return strings.Join(parts, ",")
}

// ValidateDNSyntax validates that a string is a properly formatted Distinguished Name.
func ValidateDNSyntax(dn string) error {
	if dn == "" {
		return fmt.Errorf("DN cannot be empty")
	}

	if _, err := ldap.ParseDN(dn); err != nil {
		return fmt.Errorf("invalid DN syntax: %w", err)
	}

	return nil
}

// EqualDN compares two DNs component-wise, ignoring case. Unparseable DNs
// are never equal.
func EqualDN(a, b string) bool {
	pa, err := ldap.ParseDN(a)
	if err != nil {
		return false
	}
	pb, err := ldap.ParseDN(b)
	if err != nil {
		return false
	}
	return pa.EqualFold(pb)
}

// ParentDN returns the DN with its first RDN removed.
// "CN=PC01,OU=Sales,DC=example,DC=com" becomes "OU=Sales,DC=example,DC=com".
func ParentDN(dn string) (string, error) {
	if dn == "" {
		return "", fmt.Errorf("DN cannot be empty")
	}

	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("invalid DN syntax: %w", err)
	}
	if len(parsed.RDNs) <= 1 {
		return "", fmt.Errorf("DN has no parent: %s", dn)
	}

	return formatDN(parsed.RDNs[1:]), nil
}

// IsDNChild checks if childDN is a direct or indirect child of parentDN.
func IsDNChild(childDN, parentDN string) (bool, error) {
	if childDN == "" || parentDN == "" {
		return false, fmt.Errorf("DNs cannot be empty")
	}

	child, err := ldap.ParseDN(childDN)
	if err != nil {
		return false, fmt.Errorf("invalid child DN syntax: %w", err)
	}
	parent, err := ldap.ParseDN(parentDN)
	if err != nil {
		return false, fmt.Errorf("invalid parent DN syntax: %w", err)
	}

	return parent.AncestorOfFold(child), nil
}

// splitRDN returns the first RDN of dn exactly as written, and the rest.
func splitRDN(dn string) (rdn, parent string) {
	escaped := false
	for i := 0; i < len(dn); i++ {
		switch {
		case escaped:
			escaped = false
		case dn[i] == '\\':
			escaped = true
		case dn[i] == ',':
			return strings.TrimSpace(dn[:i]), strings.TrimSpace(dn[i+1:])
		}
	}
	return strings.TrimSpace(dn), ""
}

// RDNValue returns the unescaped value of the first RDN, for example
// "PC01" for "CN=PC01,OU=Sales,DC=example,DC=com".
func RDNValue(dn string) string {
	parsed, err := ldap.ParseDN(dn)
	if err != nil || len(parsed.RDNs) == 0 || len(parsed.RDNs[0].Attributes) == 0 {
		return ""
	}
	return parsed.RDNs[0].Attributes[0].Value
}

// EscapeDNValue escapes special characters in a DN attribute value
// according to RFC 4514.
func EscapeDNValue(value string) string {
	if value == "" {
		return value
	}

	var b strings.Builder
	b.Grow(len(value) + 8)

	for i, r := range value {
		switch {
		case strings.ContainsRune(`,+"\<>;`, r):
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '#' && i == 0:
			b.WriteString(`\#`)
		case r == ' ' && (i == 0 || i == len(value)-1):
			b.WriteString(`\ `)
		case r == 0:
			b.WriteString(`\00`)
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}
