package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/pelletier/go-toml/v2"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

//go:embed sample_config.toml
var sampleConfig string

const defaultConfigPath = "~/.config/admover/config.toml"

// Connection locates the directory.
type Connection struct {
	Domain         string `toml:"domain"`
	LDAPURL        string `toml:"ldap_url"`
	RootPath       string `toml:"root_path"`
	ConnectTimeout int    `toml:"connect_timeout" default:"30"` // seconds
	UseTLS         bool   `toml:"use_tls" default:"true"`
	SkipTLSVerify  bool   `toml:"skip_tls_verify"`
	TLSCACertFile  string `toml:"tls_ca_cert_file"`
}

// Auth selects the bind. Leave username and password empty for the ambient
// identity.
type Auth struct {
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	SimpleBind     bool   `toml:"simple_bind"`
	KerberosRealm  string `toml:"kerberos_realm"`
	KerberosKeytab string `toml:"kerberos_keytab"`
	KerberosConfig string `toml:"kerberos_config"`
	KerberosCCache string `toml:"kerberos_ccache"`
	KerberosSPN    string `toml:"kerberos_spn"`
}

// Relocation configures the move fallback and the already-in-target check.
type Relocation struct {
	DelegatedCommand string `toml:"delegated_command" default:"powershell.exe"`
	DisableDelegated bool   `toml:"disable_delegated_move"`
	ContainmentCheck string `toml:"containment_check" default:"parent"`
}

// Logging configures diagnostic output on stderr.
type Logging struct {
	Level  string `toml:"level" default:"warn"`
	Format string `toml:"format" default:"text"`
}

// Config holds every CLI setting.
type Config struct {
	Connection Connection `toml:"connection"`
	Auth       Auth       `toml:"auth"`
	Relocation Relocation `toml:"relocation"`
	Logging    Logging    `toml:"logging"`
}

// Default returns a Config holding the struct defaults.
func Default() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Sprintf("invalid config defaults: %v", err))
	}
	return cfg
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load reads the file at path (or the default location when path is empty),
// overlays the environment and validates the result. A missing file is not
// an error; the returned bool reports whether one was read.
func Load(path string) (*Config, string, bool, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, "", false, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return "", false, err
	}

	info, err := os.Stat(expanded)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return expanded, false, nil
	case err != nil:
		return "", false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// ExpandPath resolves a leading ~ and makes pathValue absolute.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes a commented sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	// the file may end up holding a password
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ConnectionConfig returns the ldap connection settings.
func (c *Config) ConnectionConfig() *ldapclient.ConnectionConfig {
	cfg := ldapclient.DefaultConfig()
	cfg.Domain = c.Connection.Domain
	cfg.LDAPURL = c.Connection.LDAPURL
	cfg.Timeout = time.Duration(c.Connection.ConnectTimeout) * time.Second
	cfg.UseTLS = c.Connection.UseTLS
	cfg.SkipTLSVerify = c.Connection.SkipTLSVerify
	cfg.TLSCACertFile = c.Connection.TLSCACertFile

	cfg.SimpleBind = c.Auth.SimpleBind
	cfg.KerberosRealm = c.Auth.KerberosRealm
	cfg.KerberosKeytab = c.Auth.KerberosKeytab
	cfg.KerberosConfig = c.Auth.KerberosConfig
	cfg.KerberosCCache = c.Auth.KerberosCCache
	cfg.KerberosSPN = c.Auth.KerberosSPN
	return cfg
}

// Credentials returns the bind credentials, empty for the ambient identity.
func (c *Config) Credentials() ldapclient.Credentials {
	return ldapclient.Credentials{Username: c.Auth.Username, Password: c.Auth.Password}
}

// RootPath returns root_path, or derives it from the domain or the DN
// carried by ldap_url.
func (c *Config) RootPath() (string, error) {
	if c.Connection.RootPath != "" {
		return c.Connection.RootPath, nil
	}
	if c.Connection.Domain != "" {
		return ldapclient.RootPathForDomain(c.Connection.Domain), nil
	}
	if c.Connection.LDAPURL != "" {
		if parsed, err := ldapclient.ParseDirectoryPath(c.Connection.LDAPURL); err == nil {
			return parsed.String(), nil
		}
	}
	return "", errors.New("domain root unknown: set connection.domain (AD_DOMAIN), connection.root_path (AD_ROOT_PATH) or a base DN in connection.ldap_url")
}

// RelocatorOptions returns the relocation policy.
func (c *Config) RelocatorOptions() ldapclient.RelocatorOptions {
	return ldapclient.RelocatorOptions{
		Containment:      ldapclient.ContainmentPolicy(c.Relocation.ContainmentCheck),
		DisableDelegated: c.Relocation.DisableDelegated,
	}
}

// DelegatedMover returns the PowerShell fallback, or nil when disabled.
func (c *Config) DelegatedMover(runner ldapclient.CommandRunner) ldapclient.DelegatedMover {
	if c.Relocation.DisableDelegated {
		return nil
	}
	mover := ldapclient.NewPowerShellMover(runner)
	if c.Relocation.DelegatedCommand != "" {
		mover.Executable = c.Relocation.DelegatedCommand
	}
	return mover
}
