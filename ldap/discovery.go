package ldap

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Endpoint identifies one directory server to connect to. It is immutable
// for the duration of a connection attempt.
type Endpoint struct {
	Host     string
	Port     int
	UseTLS   bool
	Priority int
	Weight   int
	Source   string // "srv", "config", "fallback"
}

// URL renders the endpoint as an ldap:// or ldaps:// URL.
func (e *Endpoint) URL() string {
	scheme := "ldap"
	if e.UseTLS {
		scheme = "ldaps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, e.Host, e.Port)
}

func validateEndpoint(e *Endpoint) error {
	if e.Host == "" {
		return fmt.Errorf("endpoint host cannot be empty")
	}
	if e.Port <= 0 || e.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", e.Port)
	}
	return nil
}

// ParseEndpointURL parses an ldap:// or ldaps:// URL into an Endpoint,
// filling in the standard port for the scheme when none is given.
func ParseEndpointURL(rawURL string) (*Endpoint, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid LDAP URL %q: %w", rawURL, err)
	}

	var useTLS bool
	switch u.Scheme {
	case "ldap":
	case "ldaps":
		useTLS = true
	default:
		return nil, fmt.Errorf("unsupported scheme %q, must be ldap:// or ldaps://", u.Scheme)
	}

	host := u.Hostname()
	port := 0
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid port number: %s", p)
		}
	} else if useTLS {
		port = DefaultTLSPort
	} else {
		port = DefaultPort
	}

	ep := &Endpoint{
		Host:   host,
		Port:   port,
		UseTLS: useTLS,
		Weight: 100,
		Source: "config",
	}

	return ep, validateEndpoint(ep)
}

// Discovery resolves directory endpoints for a domain through DNS SRV
// records.
type Discovery struct {
	resolver *net.Resolver
	logger   Logger
}

// NewDiscovery creates a Discovery using the default DNS resolver.
func NewDiscovery(logger Logger) *Discovery {
	if logger == nil {
		logger = NewLogger(nil)
	}
	return &Discovery{
		resolver: net.DefaultResolver,
		logger:   logger,
	}
}

// Discover finds directory endpoints for a domain. LDAPS records are
// preferred; when present, plain-LDAP records are not consulted. If no SRV
// records exist at all, the domain itself on the standard ports is returned
// as a fallback.
func (d *Discovery) Discover(ctx context.Context, domain string) ([]*Endpoint, error) {
	if domain == "" {
		return nil, fmt.Errorf("domain cannot be empty")
	}

	services := []struct {
		name   string
		useTLS bool
	}{
		{"_ldaps._tcp." + domain, true},
		{"_ldap._tcp." + domain, false},
	}

	var endpoints []*Endpoint
	for _, svc := range services {
		found, err := d.lookupSRV(ctx, svc.name, svc.useTLS)
		if err != nil {
			d.logger.Debug("srv lookup failed", map[string]any{
				"service": svc.name,
				"error":   err.Error(),
			})
			continue
		}
		endpoints = append(endpoints, found...)
		if svc.useTLS && len(found) > 0 {
			break
		}
	}

	if len(endpoints) == 0 {
		d.logger.Debug("no srv records found, using standard ports", map[string]any{
			"domain": domain,
		})
		return fallbackEndpoints(domain), nil
	}

	sortEndpoints(endpoints)

	d.logger.Debug("endpoint discovery completed", map[string]any{
		"domain":         domain,
		"endpoint_count": len(endpoints),
	})
	return endpoints, nil
}

func (d *Discovery) lookupSRV(ctx context.Context, service string, useTLS bool) ([]*Endpoint, error) {
	_, records, err := d.resolver.LookupSRV(ctx, "", "", service)
	if err != nil {
		return nil, fmt.Errorf("SRV lookup failed for %s: %w", service, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no SRV records for %s", service)
	}

	endpoints := make([]*Endpoint, 0, len(records))
	for _, srv := range records {
		endpoints = append(endpoints, &Endpoint{
			Host:     strings.TrimSuffix(srv.Target, "."),
			Port:     int(srv.Port),
			UseTLS:   useTLS,
			Priority: int(srv.Priority),
			Weight:   int(srv.Weight),
			Source:   "srv",
		})
	}
	return endpoints, nil
}

// fallbackEndpoints returns the domain itself on the standard LDAPS and LDAP
// ports, LDAPS first.
func fallbackEndpoints(domain string) []*Endpoint {
	return []*Endpoint{
		{Host: domain, Port: DefaultTLSPort, UseTLS: true, Weight: 100, Source: "fallback"},
		{Host: domain, Port: DefaultPort, UseTLS: false, Priority: 1, Weight: 100, Source: "fallback"},
	}
}

// sortEndpoints orders by SRV priority (ascending), then weight (descending)
// per RFC 2782.
func sortEndpoints(endpoints []*Endpoint) {
	sort.SliceStable(endpoints, func(i, j int) bool {
		if endpoints[i].Priority != endpoints[j].Priority {
			return endpoints[i].Priority < endpoints[j].Priority
		}
		return endpoints[i].Weight > endpoints[j].Weight
	})
}
