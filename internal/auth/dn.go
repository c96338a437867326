package auth

import (
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// FirstCN extracts the first CN component from a DN-like string such as
// "cn=Admins,ou=Groups,dc=example,dc=com". Matching is case-insensitive and
// escaped characters inside values (e.g. "cn=Ops\, East,...") are handled
// by the DN grammar instead of a naive split.
func FirstCN(dn string) (string, bool) {
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", false
	}

	for _, rdn := range parsed.RDNs {
		for _, attr := range rdn.Attributes {
			if strings.EqualFold(attr.Type, "cn") {
				return attr.Value, true
			}
		}
	}

	return "", false
}

// validDN reports whether s parses as a distinguished name with at least
// one component. The empty string parses but names nothing bindable.
func validDN(s string) bool {
	parsed, err := ldap.ParseDN(s)
	return err == nil && len(parsed.RDNs) > 0
}
