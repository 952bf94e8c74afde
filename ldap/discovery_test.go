package ldap

import (
	"testing"
)

func TestParseEndpointURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    *Endpoint
		wantErr bool
	}{
		{
			name: "ldap with port",
			url:  "ldap://dc1.example.com:389",
			want: &Endpoint{Host: "dc1.example.com", Port: 389, UseTLS: false},
		},
		{
			name: "ldaps with port",
			url:  "ldaps://dc1.example.com:636",
			want: &Endpoint{Host: "dc1.example.com", Port: 636, UseTLS: true},
		},
		{
			name: "ldap default port",
			url:  "ldap://dc1.example.com",
			want: &Endpoint{Host: "dc1.example.com", Port: DefaultPort, UseTLS: false},
		},
		{
			name: "ldaps default port",
			url:  "ldaps://dc1.example.com",
			want: &Endpoint{Host: "dc1.example.com", Port: DefaultTLSPort, UseTLS: true},
		},
		{
			name: "non-standard port",
			url:  "ldap://dc1.example.com:3268",
			want: &Endpoint{Host: "dc1.example.com", Port: 3268, UseTLS: false},
		},
		{
			name:    "empty url",
			url:     "",
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			url:     "http://dc1.example.com",
			wantErr: true,
		},
		{
			name:    "port out of range",
			url:     "ldap://dc1.example.com:99999",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEndpointURL(tt.url)

			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseEndpointURL(%q) expected error, got %+v", tt.url, got)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseEndpointURL(%q) unexpected error: %v", tt.url, err)
			}
			if got.Host != tt.want.Host || got.Port != tt.want.Port || got.UseTLS != tt.want.UseTLS {
				t.Errorf("ParseEndpointURL(%q) = %+v, expected %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name string
		ep   *Endpoint
		want string
	}{
		{
			name: "plain",
			ep:   &Endpoint{Host: "dc1.example.com", Port: 389},
			want: "ldap://dc1.example.com:389",
		},
		{
			name: "tls",
			ep:   &Endpoint{Host: "dc1.example.com", Port: 636, UseTLS: true},
			want: "ldaps://dc1.example.com:636",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ep.URL(); got != tt.want {
				t.Errorf("URL() = %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestSortEndpoints(t *testing.T) {
	endpoints := []*Endpoint{
		{Host: "dc3", Priority: 10, Weight: 50},
		{Host: "dc1", Priority: 0, Weight: 100},
		{Host: "dc4", Priority: 10, Weight: 80},
		{Host: "dc2", Priority: 0, Weight: 60},
	}

	sortEndpoints(endpoints)

	want := []string{"dc1", "dc2", "dc4", "dc3"}
	for i, host := range want {
		if endpoints[i].Host != host {
			t.Errorf("endpoints[%d] = %s, expected %s", i, endpoints[i].Host, host)
		}
	}
}

func TestFallbackEndpoints(t *testing.T) {
	endpoints := fallbackEndpoints("example.com")

	if len(endpoints) != 2 {
		t.Fatalf("got %d fallback endpoints, expected 2", len(endpoints))
	}

	// LDAPS preferred.
	if !endpoints[0].UseTLS || endpoints[0].Port != DefaultTLSPort {
		t.Errorf("first fallback = %+v, expected ldaps on %d", endpoints[0], DefaultTLSPort)
	}
	if endpoints[1].UseTLS || endpoints[1].Port != DefaultPort {
		t.Errorf("second fallback = %+v, expected ldap on %d", endpoints[1], DefaultPort)
	}
	for _, ep := range endpoints {
		if ep.Host != "example.com" {
			t.Errorf("fallback host = %q, expected example.com", ep.Host)
		}
		if ep.Source != "fallback" {
			t.Errorf("fallback source = %q", ep.Source)
		}
	}
}

func TestDiscoverEmptyDomain(t *testing.T) {
	d := NewDiscovery(nil)
	if _, err := d.Discover(t.Context(), ""); err == nil {
		t.Error("Discover(\"\") expected error")
	}
}
