package ldap

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/go-ldap/ldap/v3/gssapi"
	krb5client "github.com/jcmturner/gokrb5/v8/client"
)

const defaultKrb5Conf = "/etc/krb5.conf"

// kerberosSettings is the resolved Kerberos configuration for one bind.
type kerberosSettings struct {
	Realm    string
	Username string
	Password string
	Keytab   string
	CCache   string
	Krb5Conf string
	SPN      string
}

// resolveKerberosSettings merges credentials into the Kerberos settings of
// cfg. A realm in the username (user@REALM) fills an empty realm.
func resolveKerberosSettings(cfg *ConnectionConfig, creds Credentials) (*kerberosSettings, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	s := &kerberosSettings{
		Realm:    cfg.KerberosRealm,
		Username: creds.Username,
		Password: creds.Password,
		Keytab:   cfg.KerberosKeytab,
		CCache:   cfg.KerberosCCache,
		Krb5Conf: cfg.KerberosConfig,
		SPN:      cfg.KerberosSPN,
	}
	if s.Krb5Conf == "" {
		s.Krb5Conf = defaultKrb5Conf
	}

	if user, realm, ok := strings.Cut(s.Username, "@"); ok {
		s.Username = user
		if s.Realm == "" {
			s.Realm = realm
		}
	}

	if s.Realm == "" {
		return nil, fmt.Errorf("kerberos realm is required (set kerberos_realm or include realm in username)")
	}
	if s.Username == "" && !fileExists(s.CCache) {
		return nil, fmt.Errorf("username (principal) is required for Kerberos authentication")
	}

	return s, nil
}

// newKerberosClient creates a GSSAPI client from the available credentials.
// Priority order: credential cache → keytab → password.
func newKerberosClient(s *kerberosSettings) (ldap.GSSAPIClient, error) {
	if !fileExists(s.Krb5Conf) {
		return nil, fmt.Errorf("kerberos configuration file not found at %s; "+
			"create it or set kerberos_config. Example minimal configuration:\n%s",
			s.Krb5Conf, exampleKrb5Conf(s.Realm))
	}

	if fileExists(s.CCache) {
		return gssapi.NewClientFromCCache(s.CCache, s.Krb5Conf, krb5client.DisablePAFXFAST(true))
	}

	if fileExists(s.Keytab) {
		return gssapi.NewClientWithKeytab(s.Username, s.Realm, s.Keytab, s.Krb5Conf, krb5client.DisablePAFXFAST(true))
	}

	if s.Password != "" {
		return gssapi.NewClientWithPassword(s.Username, s.Realm, s.Password, s.Krb5Conf, krb5client.DisablePAFXFAST(true))
	}

	return nil, fmt.Errorf("no suitable credentials found for Kerberos authentication")
}

// servicePrincipal returns the LDAP service principal for server.
func servicePrincipal(override string, server *ServerInfo) (string, error) {
	if override != "" {
		return override, nil
	}
	if server == nil || server.Host == "" {
		return "", fmt.Errorf("hostname is required for service principal")
	}
	return "ldap/" + server.Host, nil
}

// bindGSSAPI performs a GSSAPI bind with client and releases its context.
func bindGSSAPI(conn binder, client ldap.GSSAPIClient, spn string) error {
	defer func() {
		_ = client.DeleteSecContext()
	}()

	if err := conn.GSSAPIBind(client, spn, ""); err != nil {
		return fmt.Errorf("GSSAPI bind failed: %w", err)
	}
	return nil
}

// defaultCCachePath returns the default credential cache location.
func defaultCCachePath() string {
	if ccache := os.Getenv("KRB5CCNAME"); ccache != "" {
		return strings.TrimPrefix(ccache, "FILE:")
	}
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func exampleKrb5Conf(realm string) string {
	if realm == "" {
		realm = "YOUR.REALM.COM"
	}
	domain := strings.ToLower(realm)

	return fmt.Sprintf(`[libdefaults]
    default_realm = %[1]s
    dns_lookup_kdc = true

[domain_realm]
    .%[2]s = %[1]s
    %[2]s = %[1]s`, realm, domain)
}
