package ldap

import (
	"crypto/tls"
	"path/filepath"
	"testing"
)

func TestRegisterTrustStoreFirstCallWins(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing-bundle.pem")

	first := RegisterTrustStore(missing)
	if first == nil {
		t.Fatal("RegisterTrustStore() expected error for missing bundle")
	}

	// Registration is one-shot for the process: a later call with a
	// different path reports the first call's outcome.
	second := RegisterTrustStore("/also/missing.pem")
	if second != first {
		t.Errorf("second registration = %v, expected first outcome %v", second, first)
	}
}

func TestTLSConfigFor(t *testing.T) {
	cfg := testConfig()
	c := NewConnection(cfg, nil)

	plain := &Endpoint{Host: "dc1.example.com", Port: 389}
	if got := c.tlsConfigFor(plain); got != nil {
		t.Errorf("plain endpoint without StartTLS should need no TLS config, got %+v", got)
	}

	secure := &Endpoint{Host: "dc1.example.com", Port: 636, UseTLS: true}
	tc := c.tlsConfigFor(secure)
	if tc == nil {
		t.Fatal("TLS endpoint requires a TLS config")
	}
	if tc.ServerName != "dc1.example.com" {
		t.Errorf("ServerName = %q", tc.ServerName)
	}
	if tc.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %d, expected TLS 1.2", tc.MinVersion)
	}

	cfg.StartTLS = true
	if c.tlsConfigFor(plain) == nil {
		t.Error("StartTLS upgrade requires a TLS config on a plain endpoint")
	}
}
