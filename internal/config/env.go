package config

import (
	"fmt"
	"strconv"
	"strings"
)

// applyEnv overlays AD_* variables that are set and non-empty.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	stringVars := map[string]*string{
		"AD_DOMAIN":            &c.Connection.Domain,
		"AD_LDAP_URL":          &c.Connection.LDAPURL,
		"AD_ROOT_PATH":         &c.Connection.RootPath,
		"AD_TLS_CA_CERT_FILE":  &c.Connection.TLSCACertFile,
		"AD_USERNAME":          &c.Auth.Username,
		"AD_PASSWORD":          &c.Auth.Password,
		"AD_KERBEROS_REALM":    &c.Auth.KerberosRealm,
		"AD_KERBEROS_KEYTAB":   &c.Auth.KerberosKeytab,
		"AD_KERBEROS_CONFIG":   &c.Auth.KerberosConfig,
		"AD_KERBEROS_CCACHE":   &c.Auth.KerberosCCache,
		"AD_KERBEROS_SPN":      &c.Auth.KerberosSPN,
		"AD_DELEGATED_COMMAND": &c.Relocation.DelegatedCommand,
		"AD_CONTAINMENT_CHECK": &c.Relocation.ContainmentCheck,
		"AD_LOG_LEVEL":         &c.Logging.Level,
		"AD_LOG_FORMAT":        &c.Logging.Format,
	}
	for name, target := range stringVars {
		if value, ok := lookup(name); ok && value != "" {
			*target = value
		}
	}

	boolVars := map[string]*bool{
		"AD_USE_TLS":                &c.Connection.UseTLS,
		"AD_SKIP_TLS_VERIFY":        &c.Connection.SkipTLSVerify,
		"AD_SIMPLE_BIND":            &c.Auth.SimpleBind,
		"AD_DISABLE_DELEGATED_MOVE": &c.Relocation.DisableDelegated,
	}
	for name, target := range boolVars {
		value, ok := lookup(name)
		if !ok || value == "" {
			continue
		}
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", name, value)
		}
		*target = parsed
	}

	if value, ok := lookup("AD_CONNECT_TIMEOUT"); ok && value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("AD_CONNECT_TIMEOUT: invalid number of seconds %q", value)
		}
		c.Connection.ConnectTimeout = parsed
	}

	return nil
}

func (c *Config) normalize() {
	c.Connection.Domain = strings.TrimSpace(c.Connection.Domain)
	c.Connection.LDAPURL = strings.TrimSpace(c.Connection.LDAPURL)
	c.Connection.RootPath = strings.TrimSpace(c.Connection.RootPath)
	c.Relocation.ContainmentCheck = strings.ToLower(strings.TrimSpace(c.Relocation.ContainmentCheck))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}
