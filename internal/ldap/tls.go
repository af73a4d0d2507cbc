package ldap

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// tlsConfigFor returns the TLS configuration for a connection to serverName,
// including any custom CA from file or inline PEM.
func tlsConfigFor(cfg *ConnectionConfig, serverName string) (*tls.Config, error) {
	var tlsCfg *tls.Config
	if cfg.TLSConfig != nil {
		tlsCfg = cfg.TLSConfig.Clone()
	} else {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	if tlsCfg.ServerName == "" {
		tlsCfg.ServerName = serverName
	}
	if cfg.SkipTLSVerify {
		tlsCfg.InsecureSkipVerify = true
	}

	pem := []byte(cfg.TLSCACert)
	if cfg.TLSCACertFile != "" {
		data, err := os.ReadFile(cfg.TLSCACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file: %w", err)
		}
		pem = data
	}

	if len(pem) > 0 {
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no valid PEM certificates found in CA certificate")
		}
		tlsCfg.RootCAs = pool
	}

	return tlsCfg, nil
}
