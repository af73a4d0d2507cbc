package ldap

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Active Directory stores objectGUID in mixed-endian order: the first three
// fields are little-endian and the last eight bytes are kept as-is.
var guidByteOrder = [16]int{3, 2, 1, 0, 5, 4, 7, 6, 8, 9, 10, 11, 12, 13, 14, 15}

// DecodeGUID converts a raw objectGUID value to its hyphenated string form.
func DecodeGUID(raw []byte) (string, error) {
	if len(raw) != 16 {
		return "", fmt.Errorf("invalid GUID byte length: expected 16, got %d", len(raw))
	}

	var u uuid.UUID
	for i, j := range guidByteOrder {
		u[i] = raw[j]
	}
	return u.String(), nil
}

// EncodeGUID converts a GUID string to the byte order Active Directory stores.
func EncodeGUID(guid string) ([]byte, error) {
	u, err := uuid.Parse(strings.TrimSpace(guid))
	if err != nil {
		return nil, fmt.Errorf("invalid GUID format: %w", err)
	}

	raw := make([]byte, 16)
	for i, j := range guidByteOrder {
		raw[j] = u[i]
	}
	return raw, nil
}

// GUIDSearchFilter returns an equality filter on objectGUID with every
// byte hex-escaped.
func GUIDSearchFilter(guid string) (string, error) {
	raw, err := EncodeGUID(guid)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("(objectGUID=")
	for _, c := range raw {
		fmt.Fprintf(&b, `\%02x`, c)
	}
	b.WriteString(")")
	return b.String(), nil
}
