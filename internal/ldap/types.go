package ldap

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/creasty/defaults"
)

// ConnectionConfig holds configuration for LDAP connections.
type ConnectionConfig struct {
	// Connection settings
	Domain   string        // Domain for SRV discovery when a path names no server
	LDAPURL  string        // Server URL used when a path names no server (overrides domain)
	Timeout  time.Duration `default:"30s"` // Dial, request and search time limit; zero disables it
	PageSize uint32        `default:"500"` // Page size for child enumeration

	// Authentication settings
	SimpleBind     bool   // Use simple bind instead of NTLM for username/password
	KerberosRealm  string // Kerberos realm for GSSAPI authentication
	KerberosKeytab string // Path to Kerberos keytab file
	KerberosConfig string // Path to Kerberos config file (krb5.conf)
	KerberosCCache string // Path to Kerberos credential cache
	KerberosSPN    string // Override for the LDAP service principal

	// TLS settings
	TLSConfig     *tls.Config // Custom TLS configuration
	UseTLS        bool        `default:"true"` // Upgrade plain LDAP with StartTLS
	SkipTLSVerify bool        // Skip certificate verification (not recommended)
	TLSCACertFile string      // Path to CA certificate file
	TLSCACert     string      // CA certificate content
}

// DefaultConfig returns a secure default configuration.
func DefaultConfig() *ConnectionConfig {
	cfg := &ConnectionConfig{}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("invalid connection defaults: %v", err))
	}
	cfg.TLSConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	return cfg
}

// Credentials are the username and password supplied at connection time.
// Empty credentials select the caller's ambient identity.
type Credentials struct {
	Username string
	Password string
}

// IsEmpty reports whether no explicit credentials were supplied.
func (c Credentials) IsEmpty() bool {
	return c.Username == "" && c.Password == ""
}

// HasPassword reports whether both a username and a password were
// supplied. Kerberos keytab and ccache logins carry a username only.
func (c Credentials) HasPassword() bool {
	return c.Username != "" && c.Password != ""
}

// splitDomainUser splits DOMAIN\user into its parts. UPNs and bare names
// are returned unchanged with an empty domain.
func (c Credentials) splitDomainUser() (domain, user string) {
	if i := strings.Index(c.Username, `\`); i > 0 {
		return c.Username[:i], c.Username[i+1:]
	}
	return "", c.Username
}

// ServerInfo contains information about an LDAP server.
type ServerInfo struct {
	Host     string
	Port     int
	UseTLS   bool
	Priority int
	Weight   int
	Source   string // "srv", "config", "path", "fallback"
}

// AuthMethod defines authentication method types.
type AuthMethod int

const (
	AuthMethodNTLM       AuthMethod = iota // Username/password over NTLM
	AuthMethodSimpleBind                   // Username/password simple bind
	AuthMethodKerberos                     // GSSAPI/Kerberos authentication
	AuthMethodAmbient                      // Current logon identity
)

// String returns string representation of authentication method.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodNTLM:
		return "ntlm"
	case AuthMethodSimpleBind:
		return "simple"
	case AuthMethodKerberos:
		return "kerberos"
	case AuthMethodAmbient:
		return "ambient"
	default:
		return "unknown"
	}
}

// AuthMethodFor determines the authentication method for the given credentials.
func (c *ConnectionConfig) AuthMethodFor(creds Credentials) AuthMethod {
	if creds.IsEmpty() {
		return AuthMethodAmbient
	}

	// Kerberos authentication takes precedence
	if c.KerberosRealm != "" {
		return AuthMethodKerberos
	}

	if c.SimpleBind {
		return AuthMethodSimpleBind
	}

	return AuthMethodNTLM
}

// ObjectKind is the classification of a directory object.
type ObjectKind int

const (
	KindUnknown ObjectKind = iota
	KindOrganizationalUnit
	KindContainer
	KindComputer
)

func (k ObjectKind) String() string {
	switch k {
	case KindOrganizationalUnit:
		return "organizational_unit"
	case KindContainer:
		return "container"
	case KindComputer:
		return "computer"
	default:
		return "unknown"
	}
}

// IsContainer reports whether objects of this kind may hold children.
func (k ObjectKind) IsContainer() bool {
	return k == KindOrganizationalUnit || k == KindContainer
}

// Entry is a directory entry as read from an open session.
type Entry struct {
	DN            string
	Name          string
	ObjectClasses []string
	GUID          string // hyphenated objectGUID, empty if unavailable
	SID           string // S-1-5-... objectSid, empty if unavailable
}

// DirectoryObject is a node in a traversed directory tree.
type DirectoryObject struct {
	Name              string
	Path              string
	DistinguishedName string
	Kind              ObjectKind
	Children          []*DirectoryObject // always empty for computers
}

// MoveOutcome is the result of a single relocation request.
type MoveOutcome struct {
	Success       bool
	Message       string
	MethodUsed    string // "direct", "delegated-cli" or empty
	SourceDN      string
	TargetDN      string
	NewDN         string   // DN of the computer after a successful move
	AttemptErrors []string // one entry per failed attempt, in order
}

// WhoAmIResult contains the parsed result of a WhoAmI operation.
type WhoAmIResult struct {
	AuthzID           string // Raw authorization ID returned by the server
	Format            string // "dn", "upn", "sam", "sid", "empty" or "unknown"
	DN                string
	UserPrincipalName string
	SAMAccountName    string
	SID               string
}
