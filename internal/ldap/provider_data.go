package ldap

import (
	"context"
	"fmt"
)

// ProviderData carries everything Terraform resources and data sources
// need to reach the directory. It holds no connections.
type ProviderData struct {
	Dialer      Dialer           // Opens a session per operation
	Credentials Credentials      // Empty for the ambient identity
	RootPath    string           // Domain root, e.g. LDAP://DC=example,DC=com
	Delegated   DelegatedMover   // Fallback mover, nil when disabled
	Relocation  RelocatorOptions // Containment policy and fallback switch
}

// NewProviderData creates a new provider data wrapper.
func NewProviderData(dialer Dialer, creds Credentials, rootPath string) *ProviderData {
	return &ProviderData{
		Dialer:      dialer,
		Credentials: creds,
		RootPath:    rootPath,
	}
}

// loggingDialer is implemented by dialers that can be rebound to a
// per-request logger.
type loggingDialer interface {
	WithLogger(logger Logger) Dialer
}

// DialerFor returns the dialer, logging to logger when it supports that.
func (pd *ProviderData) DialerFor(logger Logger) Dialer {
	if d, ok := pd.Dialer.(loggingDialer); ok && logger != nil {
		return d.WithLogger(logger)
	}
	return pd.Dialer
}

// Browser returns a browser logging to logger.
func (pd *ProviderData) Browser(logger Logger) *Browser {
	return NewBrowser(pd.DialerFor(logger), logger)
}

// Relocator returns a relocator logging to logger.
func (pd *ProviderData) Relocator(logger Logger) *Relocator {
	return NewRelocator(pd.DialerFor(logger), pd.Credentials, pd.Delegated, logger, pd.Relocation)
}

// ValidateConnection opens the root path and reads it.
func (pd *ProviderData) ValidateConnection(ctx context.Context, logger Logger) (*Entry, error) {
	if pd.Dialer == nil {
		return nil, fmt.Errorf("directory dialer is not initialized")
	}
	if pd.RootPath == "" {
		return nil, fmt.Errorf("root path is not configured")
	}

	return Lookup(ctx, pd.DialerFor(logger), pd.RootPath, pd.Credentials)
}
