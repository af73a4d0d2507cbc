package ldap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Dialer opens scoped sessions on directory paths.
type Dialer interface {
	// Open connects, authenticates and verifies that path exists. Any
	// failure is returned as a *ConnectionError.
	Open(ctx context.Context, path DirectoryPath, creds Credentials) (Session, error)
}

// Session is an open, authenticated handle on one directory object. It is
// not safe for concurrent use and must be closed by the caller.
type Session interface {
	Path() DirectoryPath
	// Entry returns the object the session was opened on.
	Entry(ctx context.Context) (*Entry, error)
	// Children enumerates immediate children in server order.
	Children(ctx context.Context) ([]*Entry, error)
	// HasDescendant reports whether filter matches anything below the object.
	HasDescendant(ctx context.Context, filter string) (bool, error)
	// MoveTo moves the object under newParentDN, keeping its RDN, and
	// returns the new DN.
	MoveTo(ctx context.Context, newParentDN string) (string, error)
	// FindByGUID searches below the object for an objectGUID; nil if absent.
	FindByGUID(ctx context.Context, guid string) (*Entry, error)
	WhoAmI(ctx context.Context) (*WhoAmIResult, error)
	Close() error
}

// entryAttributes are read for every entry.
var entryAttributes = []string{"name", "objectClass", "distinguishedName", "objectGUID", "objectSid"}

// LDAPDialer opens a fresh connection for every session.
type LDAPDialer struct {
	config    *ConnectionConfig
	logger    Logger
	discovery *SRVDiscovery
	auth      *authenticator
}

// NewDialer creates a dialer for cfg. A nil cfg uses DefaultConfig.
func NewDialer(cfg *ConnectionConfig, logger Logger) *LDAPDialer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger = loggerOrNop(logger)

	return &LDAPDialer{
		config:    cfg,
		logger:    logger,
		discovery: NewSRVDiscovery(logger, nil),
		auth:      newAuthenticator(cfg, logger),
	}
}

// Config returns the dialer's connection configuration.
func (d *LDAPDialer) Config() *ConnectionConfig {
	return d.config
}

// WithLogger returns a dialer with the same configuration logging to logger.
func (d *LDAPDialer) WithLogger(logger Logger) Dialer {
	return NewDialer(d.config, logger)
}

func (d *LDAPDialer) Open(ctx context.Context, path DirectoryPath, creds Credentials) (Session, error) {
	servers, err := d.serversFor(ctx, path)
	if err != nil {
		return nil, NewConnectionError(path.String(), "no directory server available", false, err)
	}

	var lastErr error
	for _, server := range servers {
		if err := ctx.Err(); err != nil {
			return nil, NewConnectionError(path.String(), "connection cancelled", false, err)
		}

		conn, err := d.connect(server)
		if err != nil {
			d.logger.Debug("Connection attempt failed", map[string]any{
				"server": ServerInfoToURL(server),
				"error":  err.Error(),
			})
			lastErr = err
			continue
		}

		if err := d.auth.authenticate(conn, creds, server); err != nil {
			conn.Close()
			// credentials are rejected the same way by every DC
			return nil, NewConnectionError(path.String(), "authentication failed", false, NewLDAPError("bind", "", err))
		}

		session := &ldapSession{
			conn:    conn,
			path:    path,
			timeout: d.config.Timeout,
			paging:  d.config.PageSize,
			logger:  d.logger,
		}

		entry, err := session.readEntry(path.DN)
		if err != nil {
			conn.Close()
			return nil, NewConnectionError(path.String(), "cannot bind to directory object", false, err)
		}
		session.entry = entry

		d.logger.Debug("Session opened", map[string]any{
			"server": ServerInfoToURL(server),
			"dn":     entry.DN,
		})
		return session, nil
	}

	return nil, NewConnectionError(path.String(), "failed to open directory connection", true, lastErr)
}

// serversFor returns candidate servers for path, in order of preference.
func (d *LDAPDialer) serversFor(ctx context.Context, path DirectoryPath) ([]*ServerInfo, error) {
	if server := path.Server(); server != nil {
		return []*ServerInfo{server}, nil
	}

	if d.config.LDAPURL != "" {
		server, err := ParseLDAPURL(d.config.LDAPURL)
		if err != nil {
			return nil, err
		}
		return []*ServerInfo{server}, nil
	}

	domain := path.Domain()
	if domain == "" {
		domain = d.config.Domain
	}
	if domain == "" {
		return nil, fmt.Errorf("path %s names no server and no domain could be derived", path)
	}

	return d.discovery.DiscoverServers(ctx, domain)
}

func (d *LDAPDialer) connect(server *ServerInfo) (*ldap.Conn, error) {
	url := ServerInfoToURL(server)

	tlsCfg, err := tlsConfigFor(d.config, server.Host)
	if err != nil {
		return nil, err
	}

	opts := []ldap.DialOpt{ldap.DialWithDialer(&net.Dialer{Timeout: d.config.Timeout})}
	if server.UseTLS {
		opts = append(opts, ldap.DialWithTLSConfig(tlsCfg))
	}

	conn, err := ldap.DialURL(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	if !server.UseTLS && d.config.UseTLS {
		if err := conn.StartTLS(tlsCfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("StartTLS with %s failed: %w", url, err)
		}
	}

	conn.SetTimeout(d.config.Timeout)
	return conn, nil
}

type ldapSession struct {
	conn    *ldap.Conn
	path    DirectoryPath
	entry   *Entry
	timeout time.Duration
	paging  uint32
	logger  Logger
}

func (s *ldapSession) Path() DirectoryPath {
	return s.path
}

func (s *ldapSession) dn() string {
	if s.entry != nil && s.entry.DN != "" {
		return s.entry.DN
	}
	return s.path.DN
}

func (s *ldapSession) timeLimit() int {
	return int(s.timeout / time.Second)
}

func (s *ldapSession) Entry(ctx context.Context) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.entry == nil {
		entry, err := s.readEntry(s.path.DN)
		if err != nil {
			return nil, err
		}
		s.entry = entry
	}
	return s.entry, nil
}

func (s *ldapSession) readEntry(dn string) (*Entry, error) {
	req := ldap.NewSearchRequest(
		dn, ldap.ScopeBaseObject, ldap.NeverDerefAliases,
		1, s.timeLimit(), false,
		"(objectClass=*)", entryAttributes, nil,
	)

	result, err := s.conn.Search(req)
	if err != nil {
		return nil, NewLDAPError("read", dn, err)
	}
	if len(result.Entries) == 0 {
		return nil, NewLDAPError("read", dn, ldap.NewError(ldap.LDAPResultNoSuchObject, errors.New("entry not found")))
	}

	return entryFromLDAP(result.Entries[0]), nil
}

func (s *ldapSession) Children(ctx context.Context) ([]*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dn := s.dn()
	req := ldap.NewSearchRequest(
		dn, ldap.ScopeSingleLevel, ldap.NeverDerefAliases,
		0, s.timeLimit(), false,
		"(objectClass=*)", entryAttributes, nil,
	)

	var entries []*Entry
	err := logOperation(s.logger, "children", map[string]any{"dn": dn}, func() error {
		result, err := s.conn.SearchWithPaging(req, s.paging)
		if err != nil {
			return NewLDAPError("search", dn, err)
		}
		entries = make([]*Entry, 0, len(result.Entries))
		for _, e := range result.Entries {
			entries = append(entries, entryFromLDAP(e))
		}
		return nil
	})

	return entries, err
}

func (s *ldapSession) HasDescendant(ctx context.Context, filter string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	dn := s.dn()
	req := ldap.NewSearchRequest(
		dn, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		1, s.timeLimit(), false,
		filter, []string{"1.1"}, nil,
	)

	result, err := s.conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
			return true, nil
		}
		return false, NewLDAPError("search", dn, err)
	}

	return len(result.Entries) > 0, nil
}

func (s *ldapSession) MoveTo(ctx context.Context, newParentDN string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dn := s.dn()
	rdn, _ := splitRDN(dn)
	req := ldap.NewModifyDNRequest(dn, rdn, true, newParentDN)

	if err := s.conn.ModifyDN(req); err != nil {
		return "", NewLDAPError("modify_dn", dn, err)
	}

	newDN := rdn + "," + newParentDN
	s.entry = nil
	s.path = s.path.Child(newDN)
	return newDN, nil
}

func (s *ldapSession) FindByGUID(ctx context.Context, guid string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filter, err := GUIDSearchFilter(guid)
	if err != nil {
		return nil, err
	}

	dn := s.dn()
	req := ldap.NewSearchRequest(
		dn, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases,
		1, s.timeLimit(), false,
		filter, entryAttributes, nil,
	)

	result, err := s.conn.Search(req)
	if err != nil && !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return nil, NewLDAPError("search", dn, err)
	}
	if result == nil || len(result.Entries) == 0 {
		return nil, nil
	}

	return entryFromLDAP(result.Entries[0]), nil
}

func (s *ldapSession) WhoAmI(ctx context.Context) (*WhoAmIResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.conn.WhoAmI(nil)
	if err != nil {
		return nil, NewLDAPError("whoami", "", err)
	}

	return ParseAuthzID(result.AuthzID), nil
}

func (s *ldapSession) Close() error {
	s.conn.Close()
	return nil
}

func entryFromLDAP(e *ldap.Entry) *Entry {
	dn := e.GetAttributeValue("distinguishedName")
	if dn == "" {
		dn = e.DN
	}

	name := e.GetAttributeValue("name")
	if name == "" {
		name = RDNValue(dn)
	}

	guid, _ := DecodeGUID(e.GetRawAttributeValue("objectGUID"))

	return &Entry{
		DN:            dn,
		Name:          name,
		ObjectClasses: e.GetAttributeValues("objectClass"),
		GUID:          guid,
		SID:           DecodeSID(e.GetRawAttributeValue("objectSid")),
	}
}

// ParseAuthzID parses a WhoAmI authorization ID into its identity format.
func ParseAuthzID(authzID string) *WhoAmIResult {
	result := &WhoAmIResult{AuthzID: authzID}

	id := strings.TrimPrefix(strings.TrimPrefix(authzID, "dn:"), "u:")
	switch {
	case id == "":
		result.Format = "empty"
	case IsSIDString(id):
		result.Format = "sid"
		result.SID = id
	case strings.Contains(id, "=") && ValidateDNSyntax(id) == nil:
		result.Format = "dn"
		result.DN = id
	case strings.Contains(id, "@") && !strings.Contains(id, `\`):
		result.Format = "upn"
		result.UserPrincipalName = id
	case strings.Contains(id, `\`):
		result.Format = "sam"
		result.SAMAccountName = id
	default:
		result.Format = "unknown"
	}

	return result
}
