package ldap

import (
	"context"
)

// withSession opens raw, runs fn and closes the session on every path.
func withSession(ctx context.Context, dialer Dialer, raw string, creds Credentials, fn func(Session) error) error {
	path, err := ParseDirectoryPath(raw)
	if err != nil {
		return NewConnectionError(raw, "invalid directory path", false, err)
	}

	session, err := dialer.Open(ctx, path, creds)
	if err != nil {
		return asConnectionError(path, err)
	}
	defer session.Close()

	return fn(session)
}

// Lookup reads the object at raw. It doubles as a connection test when raw
// is the domain root.
func Lookup(ctx context.Context, dialer Dialer, raw string, creds Credentials) (*Entry, error) {
	var entry *Entry
	err := withSession(ctx, dialer, raw, creds, func(s Session) error {
		var err error
		entry, err = s.Entry(ctx)
		if err != nil {
			return NewDirectoryReadError(raw, err)
		}
		return nil
	})
	return entry, err
}

// FindByGUID searches below rootPath for the object with the given
// objectGUID. It returns nil without error when nothing matches.
func FindByGUID(ctx context.Context, dialer Dialer, rootPath string, creds Credentials, guid string) (*Entry, error) {
	var entry *Entry
	err := withSession(ctx, dialer, rootPath, creds, func(s Session) error {
		var err error
		entry, err = s.FindByGUID(ctx, guid)
		if err != nil {
			return NewDirectoryReadError(rootPath, err)
		}
		return nil
	})
	return entry, err
}

// WhoAmI reports the identity the server associates with creds.
func WhoAmI(ctx context.Context, dialer Dialer, rootPath string, creds Credentials) (*WhoAmIResult, error) {
	var result *WhoAmIResult
	err := withSession(ctx, dialer, rootPath, creds, func(s Session) error {
		var err error
		result, err = s.WhoAmI(ctx)
		if err != nil {
			return NewDirectoryReadError(rootPath, err)
		}
		return nil
	})
	return result, err
}
