package ldap

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"
)

// SRVResolver is the subset of net.Resolver used for discovery.
type SRVResolver interface {
	LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
}

// SRVDiscovery handles DNS SRV record discovery for domain controllers.
type SRVDiscovery struct {
	logger   Logger
	resolver SRVResolver
}

// NewSRVDiscovery creates a new SRV discovery instance.
func NewSRVDiscovery(logger Logger, resolver SRVResolver) *SRVDiscovery {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &SRVDiscovery{
		logger:   loggerOrNop(logger),
		resolver: resolver,
	}
}

// DiscoverServers discovers LDAP servers for a domain using SRV records
// in order of preference:
//  1. _ldaps._tcp.<domain>
//  2. _ldap._tcp.<domain>
//  3. _gc._tcp.<domain>
//
// When no records are found the domain name itself is tried on 636 and 389.
func (d *SRVDiscovery) DiscoverServers(ctx context.Context, domain string) ([]*ServerInfo, error) {
	if domain == "" {
		return nil, fmt.Errorf("domain cannot be empty")
	}

	start := time.Now()
	d.logger.Debug("Starting server discovery for domain", map[string]any{
		"domain": domain,
	})

	records := []struct {
		service string
		useTLS  bool
	}{
		{"_ldaps._tcp." + domain, true},
		{"_ldap._tcp." + domain, false},
		{"_gc._tcp." + domain, false},
	}

	var servers []*ServerInfo
	for _, record := range records {
		found, err := d.lookupSRV(ctx, record.service, record.useTLS)
		if err != nil {
			d.logger.Debug("SRV lookup failed, continuing to next service", map[string]any{
				"service": record.service,
				"error":   err.Error(),
			})
			continue
		}
		servers = append(servers, found...)

		// LDAPS servers win outright
		if record.useTLS && len(found) > 0 {
			break
		}
	}

	if len(servers) == 0 {
		d.logger.Debug("No SRV records found, using fallback servers", map[string]any{
			"domain":      domain,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return fallbackServers(domain), nil
	}

	sortServersByPriority(servers)

	d.logger.Debug("Server discovery completed", map[string]any{
		"domain":       domain,
		"server_count": len(servers),
		"duration_ms":  time.Since(start).Milliseconds(),
	})
	return servers, nil
}

func (d *SRVDiscovery) lookupSRV(ctx context.Context, service string, useTLS bool) ([]*ServerInfo, error) {
	_, records, err := d.resolver.LookupSRV(ctx, "", "", service)
	if err != nil {
		return nil, fmt.Errorf("SRV lookup failed for %s: %w", service, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no SRV records found for %s", service)
	}

	servers := make([]*ServerInfo, 0, len(records))
	for _, srv := range records {
		servers = append(servers, &ServerInfo{
			Host:     strings.TrimSuffix(srv.Target, "."),
			Port:     int(srv.Port),
			UseTLS:   useTLS,
			Priority: int(srv.Priority),
			Weight:   int(srv.Weight),
			Source:   "srv",
		})
	}

	return servers, nil
}

func fallbackServers(domain string) []*ServerInfo {
	return []*ServerInfo{
		{Host: domain, Port: 636, UseTLS: true, Priority: 0, Weight: 100, Source: "fallback"},
		{Host: domain, Port: 389, UseTLS: false, Priority: 1, Weight: 100, Source: "fallback"},
	}
}

// sortServersByPriority orders by priority ascending, then weight descending (RFC 2782).
func sortServersByPriority(servers []*ServerInfo) {
	sort.SliceStable(servers, func(i, j int) bool {
		if servers[i].Priority != servers[j].Priority {
			return servers[i].Priority < servers[j].Priority
		}
		return servers[i].Weight > servers[j].Weight
	})
}

// ServerInfoToURL converts ServerInfo to LDAP URL.
func ServerInfoToURL(server *ServerInfo) string {
	scheme := "ldap"
	if server.UseTLS {
		scheme = "ldaps"
	}

	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(server.Host, fmt.Sprint(server.Port)))
}

// ParseLDAPURL parses a server URL such as ldaps://dc1.example.com:636.
func ParseLDAPURL(raw string) (*ServerInfo, error) {
	if raw == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return nil, fmt.Errorf("unsupported scheme, must be ldap:// or ldaps://")
	}

	p := DirectoryPath{Scheme: strings.ToLower(scheme)}
	if p.Scheme != "ldap" && p.Scheme != "ldaps" {
		return nil, fmt.Errorf("unsupported scheme, must be ldap:// or ldaps://")
	}

	hostport, _, _ := strings.Cut(rest, "/")
	if err := p.setHostPort(hostport); err != nil {
		return nil, err
	}
	if p.Host == "" {
		return nil, fmt.Errorf("server host cannot be empty")
	}

	server := p.Server()
	server.Source = "config"
	return server, nil
}
