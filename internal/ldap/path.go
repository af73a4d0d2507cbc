package ldap

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// DirectoryPath is a protocol-addressable locator for a directory object:
//
//	ldap[s]://[host[:port]/]<DN>
//
// A path without a host is serverless; the server is located from the
// domain named by the DN's DC components.
type DirectoryPath struct {
	Scheme string // "ldap" or "ldaps"
	Host   string // empty for serverless paths
	Port   int    // zero when not given explicitly
	DN     string
}

// ParseDirectoryPath parses an LDAP URL or an ADSI-style path such as
// LDAP://DC=example,DC=com. The scheme is matched case-insensitively.
func ParseDirectoryPath(raw string) (DirectoryPath, error) {
	var p DirectoryPath

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return p, fmt.Errorf("directory path cannot be empty")
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return p, fmt.Errorf("directory path %q has no scheme, expected ldap:// or ldaps://", raw)
	}

	p.Scheme = strings.ToLower(scheme)
	if p.Scheme != "ldap" && p.Scheme != "ldaps" {
		return p, fmt.Errorf("unsupported scheme %q, must be ldap:// or ldaps://", scheme)
	}

	dn := rest
	switch idx := strings.Index(rest, "/"); {
	case idx == 0:
		dn = rest[1:]
	case idx > 0 && !strings.Contains(rest[:idx], "="):
		if err := p.setHostPort(rest[:idx]); err != nil {
			return p, err
		}
		dn = rest[idx+1:]
	case idx < 0 && rest != "" && !strings.Contains(rest, "="):
		// host only
		if err := p.setHostPort(rest); err != nil {
			return p, err
		}
		dn = ""
	}

	if strings.Contains(dn, "%") {
		if unescaped, err := url.PathUnescape(dn); err == nil {
			dn = unescaped
		}
	}
	dn = strings.ReplaceAll(dn, `\/`, "/")

	if dn == "" {
		return p, fmt.Errorf("directory path %q has no distinguished name", raw)
	}
	if _, err := ldap.ParseDN(dn); err != nil {
		return p, fmt.Errorf("invalid distinguished name in path %q: %w", raw, err)
	}
	p.DN = dn

	return p, nil
}

func (p *DirectoryPath) setHostPort(hostport string) error {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		// no port
		p.Host = strings.Trim(hostport, "[]")
		return nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	p.Host = host
	p.Port = port
	return nil
}

// MustParseDirectoryPath is like ParseDirectoryPath but panics on error.
func MustParseDirectoryPath(raw string) DirectoryPath {
	p, err := ParseDirectoryPath(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// dnEscaper percent-encodes the DN characters ParseDirectoryPath decodes,
// so that rendered paths parse back to the same DN.
var dnEscaper = strings.NewReplacer("%", "%25", "/", "%2F")

// String renders the path as an LDAP URL.
func (p DirectoryPath) String() string {
	dn := dnEscaper.Replace(p.DN)
	if p.Host == "" {
		return p.Scheme + "://" + dn
	}

	host := p.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if p.Port != 0 {
		host = host + ":" + strconv.Itoa(p.Port)
	}

	return p.Scheme + "://" + host + "/" + dn
}

// Child returns the path of dn on the same server.
func (p DirectoryPath) Child(dn string) DirectoryPath {
	child := p
	child.DN = dn
	return child
}

// UseTLS reports whether the path requests LDAPS.
func (p DirectoryPath) UseTLS() bool {
	return p.Scheme == "ldaps"
}

// Server returns the server named by the path, or nil for serverless paths.
func (p DirectoryPath) Server() *ServerInfo {
	if p.Host == "" {
		return nil
	}

	port := p.Port
	if port == 0 {
		port = 389
		if p.UseTLS() {
			port = 636
		}
	}

	return &ServerInfo{
		Host:   p.Host,
		Port:   port,
		UseTLS: p.UseTLS(),
		Weight: 100,
		Source: "path",
	}
}

// Domain returns the DNS domain derived from the DN's DC components.
func (p DirectoryPath) Domain() string {
	return DomainFromDN(p.DN)
}

// DomainFromDN joins the DC components of dn with dots.
func DomainFromDN(dn string) string {
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return ""
	}

	var labels []string
	for _, rdn := range parsed.RDNs {
		for _, attr := range rdn.Attributes {
			if strings.EqualFold(attr.Type, "DC") {
				labels = append(labels, attr.Value)
			}
		}
	}

	return strings.Join(labels, ".")
}

// RootPathForDomain returns the serverless root path of a DNS domain,
// for example LDAP://DC=example,DC=com for example.com.
func RootPathForDomain(domain string) string {
	domain = strings.Trim(strings.TrimSpace(domain), ".")
	if domain == "" {
		return ""
	}
	return "LDAP://DC=" + strings.ReplaceAll(domain, ".", ",DC=")
}
