package ldap

import (
	"strings"
)

// classificationRule maps an objectClass to a kind. When RDN is set the
// entry's own RDN must also match it, ignoring case.
type classificationRule struct {
	ObjectClass string
	RDN         string
	Kind        ObjectKind
}

// classificationTable lists every class the browser understands. Only the
// well-known Computers container is treated as a container; other generic
// containers (Users, Builtin, System, ...) are skipped.
var classificationTable = []classificationRule{
	{ObjectClass: "organizationalUnit", Kind: KindOrganizationalUnit},
	{ObjectClass: "container", RDN: "CN=Computers", Kind: KindContainer},
	{ObjectClass: "computer", Kind: KindComputer},
}

// computerFilter selects computer objects in subtree probes.
const computerFilter = "(objectClass=computer)"

// Classify determines the kind of an entry from its most specific
// (last listed) objectClass.
func Classify(entry *Entry) ObjectKind {
	if entry == nil || len(entry.ObjectClasses) == 0 {
		return KindUnknown
	}

	class := entry.ObjectClasses[len(entry.ObjectClasses)-1]
	for _, rule := range classificationTable {
		if !strings.EqualFold(rule.ObjectClass, class) {
			continue
		}
		if rule.RDN != "" && !rdnMatches(entry.DN, rule.RDN) {
			continue
		}
		return rule.Kind
	}

	return KindUnknown
}

func rdnMatches(dn, want string) bool {
	rdn, _ := splitRDN(dn)
	return EqualDN(rdn, want)
}
