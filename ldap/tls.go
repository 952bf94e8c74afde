package ldap

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
)

// The trust store is process-wide, shared by every connection opened after
// registration. Registration is a one-time, order-sensitive step: it must
// happen before the first TLS connection is opened, and only the first call
// takes effect.
var trustStore struct {
	once sync.Once
	pool *x509.CertPool
	path string
	err  error
}

// RegisterTrustStore loads the PEM certificate bundle at path and installs it
// as the source of trusted roots for all subsequent TLS connections in this
// process. The first call wins; later calls return the first call's outcome
// and a different path is ignored. When no trust store is registered, the
// system roots are used.
func RegisterTrustStore(path string) error {
	trustStore.once.Do(func() {
		pem, err := os.ReadFile(path)
		if err != nil {
			trustStore.err = fmt.Errorf("failed to read trust store: %w", err)
			return
		}

		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			trustStore.err = fmt.Errorf("no certificates found in %s", path)
			return
		}

		trustStore.pool = pool
		trustStore.path = path
	})

	return trustStore.err
}

// trustedRoots returns the registered root pool, or nil to select the system
// roots.
func trustedRoots() *x509.CertPool {
	return trustStore.pool
}

// tlsConfigFor builds the TLS client configuration for an endpoint, or nil
// when the connection is plain and no StartTLS upgrade is requested.
func (c *Connection) tlsConfigFor(ep *Endpoint) *tls.Config {
	if !ep.UseTLS && !c.config.StartTLS {
		return nil
	}

	return &tls.Config{
		ServerName: ep.Host,
		MinVersion: tls.VersionTLS12,
		RootCAs:    trustedRoots(),
	}
}
