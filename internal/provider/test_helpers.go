package provider

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

// Test environment configuration constants.
const (
	// Environment variables for test configuration.
	EnvTestDomain       = "AD_TEST_DOMAIN"
	EnvTestLDAPURL      = "AD_TEST_LDAP_URL"
	EnvTestUsername     = "AD_TEST_USERNAME"
	EnvTestPassword     = "AD_TEST_PASSWORD"
	EnvTestRootPath     = "AD_TEST_ROOT_PATH"
	EnvTestComputerPath = "AD_TEST_COMPUTER_PATH"
	EnvTestTargetOUPath = "AD_TEST_TARGET_OU_PATH"
	EnvTestKeytab       = "AD_TEST_KEYTAB"
	EnvTestRealm        = "AD_TEST_REALM"

	// Default values for testing.
	DefaultTestDomain = "example.com"
)

// TestConfig holds common test configuration.
type TestConfig struct {
	Domain       string
	LDAPURL      string
	Username     string
	Password     string
	RootPath     string
	ComputerPath string
	TargetOUPath string
	Keytab       string
	Realm        string
	UseKerberos  bool
	UseAmbient   bool
}

// GetTestConfig returns the test configuration from environment variables.
func GetTestConfig() *TestConfig {
	config := &TestConfig{
		Domain:       getEnvWithDefault(EnvTestDomain, DefaultTestDomain),
		LDAPURL:      os.Getenv(EnvTestLDAPURL),
		Username:     os.Getenv(EnvTestUsername),
		Password:     os.Getenv(EnvTestPassword),
		RootPath:     os.Getenv(EnvTestRootPath),
		ComputerPath: os.Getenv(EnvTestComputerPath),
		TargetOUPath: os.Getenv(EnvTestTargetOUPath),
		Keytab:       os.Getenv(EnvTestKeytab),
		Realm:        os.Getenv(EnvTestRealm),
	}

	if config.RootPath == "" {
		config.RootPath = ldapclient.RootPathForDomain(config.Domain)
	}

	config.UseKerberos = config.Keytab != "" && config.Realm != ""
	config.UseAmbient = config.Username == ""

	return config
}

// IsAccTest returns true if acceptance tests should run.
func IsAccTest() bool {
	return os.Getenv("TF_ACC") != ""
}

// SkipIfNotAccTest skips the test if TF_ACC is not set.
func SkipIfNotAccTest(t *testing.T) {
	if !IsAccTest() {
		t.Skip("Skipping acceptance test - set TF_ACC=1 to run")
	}
}

// testAccPreCheckWithConfig skips unless a real directory is configured.
// Without a username the tests run as the ambient identity.
func testAccPreCheckWithConfig(t *testing.T) *TestConfig {
	SkipIfNotAccTest(t)

	config := GetTestConfig()

	if config.Username != "" && config.Password == "" && !config.UseKerberos {
		t.Skipf("Skipping test: %s must be set with %s (or configure Kerberos)", EnvTestPassword, EnvTestUsername)
	}

	if config.LDAPURL == "" && config.Domain == DefaultTestDomain {
		t.Skipf("Skipping test: Either %s or %s must be set to a real AD environment", EnvTestLDAPURL, EnvTestDomain)
	}

	return config
}

// TestProviderConfig generates provider configuration for tests.
func TestProviderConfig() string {
	config := GetTestConfig()

	var providerConfig strings.Builder
	providerConfig.WriteString("provider \"ad\" {\n")

	if config.LDAPURL != "" {
		providerConfig.WriteString(fmt.Sprintf("  ldap_url = %q\n", config.LDAPURL))
	} else {
		providerConfig.WriteString(fmt.Sprintf("  domain = %q\n", config.Domain))
	}
	providerConfig.WriteString(fmt.Sprintf("  root_path = %q\n", config.RootPath))

	if !config.UseAmbient {
		providerConfig.WriteString(fmt.Sprintf("  username = %q\n", config.Username))
		if config.UseKerberos {
			providerConfig.WriteString(fmt.Sprintf("  kerberos_realm = %q\n", config.Realm))
			providerConfig.WriteString(fmt.Sprintf("  kerberos_keytab = %q\n", config.Keytab))
		} else {
			providerConfig.WriteString(fmt.Sprintf("  password = %q\n", config.Password))
		}
	}

	providerConfig.WriteString("}\n")
	return providerConfig.String()
}

// testAccProviderData connects the way the provider does for out-of-band
// checks in acceptance tests.
func testAccProviderData() (*ldapclient.ProviderData, error) {
	config := GetTestConfig()

	cfg := ldapclient.DefaultConfig()
	cfg.Domain = config.Domain
	cfg.LDAPURL = config.LDAPURL
	cfg.KerberosRealm = config.Realm
	cfg.KerberosKeytab = config.Keytab

	creds := ldapclient.Credentials{Username: config.Username, Password: config.Password}
	providerData := ldapclient.NewProviderData(ldapclient.NewDialer(cfg, nil), creds, config.RootPath)

	if _, err := providerData.ValidateConnection(context.Background(), nil); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", config.RootPath, err)
	}
	return providerData, nil
}

// getEnvWithDefault returns the environment variable value or a default.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
