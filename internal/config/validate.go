package config

import (
	"errors"
	"fmt"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConnection(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateRelocation(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateConnection() error {
	if c.Connection.Domain != "" && c.Connection.LDAPURL != "" {
		return errors.New("connection: only one of domain (AD_DOMAIN) and ldap_url (AD_LDAP_URL) may be set")
	}
	if c.Connection.LDAPURL != "" {
		if _, err := ldapclient.ParseLDAPURL(c.Connection.LDAPURL); err != nil {
			return fmt.Errorf("connection.ldap_url: %w", err)
		}
	}
	if c.Connection.RootPath != "" {
		if _, err := ldapclient.ParseDirectoryPath(c.Connection.RootPath); err != nil {
			return fmt.Errorf("connection.root_path: %w", err)
		}
	}
	if c.Connection.ConnectTimeout < 0 {
		return fmt.Errorf("connection.connect_timeout must not be negative, got %d", c.Connection.ConnectTimeout)
	}
	return nil
}

func (c *Config) validateAuth() error {
	a := c.Auth
	// a keytab or credential cache stands in for the password
	hasSecret := a.Password != "" || a.KerberosKeytab != "" || a.KerberosCCache != ""
	switch {
	case a.Username == "" && a.Password != "":
		return errors.New("auth: password is set without username")
	case a.Username != "" && !hasSecret:
		return errors.New("auth: username must be set with password, kerberos_keytab or kerberos_ccache")
	}
	return nil
}

func (c *Config) validateRelocation() error {
	switch ldapclient.ContainmentPolicy(c.Relocation.ContainmentCheck) {
	case ldapclient.ContainmentParent, ldapclient.ContainmentSubstring:
		return nil
	default:
		return fmt.Errorf("relocation.containment_check must be one of parent or substring, got %q", c.Relocation.ContainmentCheck)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
