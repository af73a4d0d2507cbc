package ldap

import (
	"fmt"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// binder is the subset of *ldap.Conn used for authentication.
type binder interface {
	Bind(username, password string) error
	NTLMBind(domain, username, password string) error
	GSSAPIBind(client ldap.GSSAPIClient, servicePrincipal, authzid string) error
}

// authenticator binds a fresh connection with the configured method.
type authenticator struct {
	config *ConnectionConfig
	logger Logger

	// overridable in tests
	newKerberosClient func(*kerberosSettings) (ldap.GSSAPIClient, error)
	newAmbientClient  func(*ConnectionConfig) (ldap.GSSAPIClient, error)
}

func newAuthenticator(cfg *ConnectionConfig, logger Logger) *authenticator {
	return &authenticator{
		config:            cfg,
		logger:            loggerOrNop(logger),
		newKerberosClient: newKerberosClient,
		newAmbientClient:  newAmbientClient,
	}
}

// authenticate performs authentication based on the credentials supplied.
func (a *authenticator) authenticate(conn binder, creds Credentials, server *ServerInfo) error {
	method := a.config.AuthMethodFor(creds)
	fields := map[string]any{
		"auth_method": method.String(),
		"server":      server.Host,
	}
	if !creds.IsEmpty() {
		fields["username"] = creds.Username
	}

	a.logger.Debug("Performing authentication", fields)
	start := time.Now()

	var err error
	switch method {
	case AuthMethodNTLM:
		domain, user := creds.splitDomainUser()
		err = conn.NTLMBind(domain, user, creds.Password)
	case AuthMethodSimpleBind:
		err = conn.Bind(creds.Username, creds.Password)
	case AuthMethodKerberos:
		err = a.bindKerberos(conn, creds, server)
	case AuthMethodAmbient:
		err = a.bindAmbient(conn, server)
	default:
		err = fmt.Errorf("unsupported authentication method: %s", method.String())
	}

	fields["duration_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		logLDAPError(a.logger, method.String()+"_bind", err, fields)
		return err
	}

	a.logger.Debug("Authentication successful", fields)
	return nil
}

func (a *authenticator) bindKerberos(conn binder, creds Credentials, server *ServerInfo) error {
	settings, err := resolveKerberosSettings(a.config, creds)
	if err != nil {
		return fmt.Errorf("kerberos configuration error: %w", err)
	}

	spn, err := servicePrincipal(settings.SPN, server)
	if err != nil {
		return err
	}

	client, err := a.newKerberosClient(settings)
	if err != nil {
		return fmt.Errorf("failed to create GSSAPI client: %w", err)
	}

	return bindGSSAPI(conn, client, spn)
}

func (a *authenticator) bindAmbient(conn binder, server *ServerInfo) error {
	spn, err := servicePrincipal(a.config.KerberosSPN, server)
	if err != nil {
		return err
	}

	client, err := a.newAmbientClient(a.config)
	if err != nil {
		return fmt.Errorf("ambient identity unavailable: %w", err)
	}

	return bindGSSAPI(conn, client, spn)
}
