package ldap

import (
	"strings"

	"github.com/bwmarrin/go-objectsid"
)

// DecodeSID converts a binary objectSid to its S-1-5-... form. An empty
// or truncated value decodes to an empty string.
func DecodeSID(raw []byte) string {
	if len(raw) < 8 || len(raw) < 8+4*int(raw[1]) {
		return ""
	}
	return objectsid.Decode(raw).String()
}

// IsSIDString reports whether s looks like a string SID.
func IsSIDString(s string) bool {
	if !strings.HasPrefix(s, "S-") || len(s) < 5 {
		return false
	}
	for _, part := range strings.Split(s[2:], "-") {
		if part == "" || strings.Trim(part, "0123456789") != "" {
			return false
		}
	}
	return true
}
