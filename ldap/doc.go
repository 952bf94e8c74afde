/*
Package ldap implements a directory-service authentication connector.

The package drives an LDAP directory for the authentication needs of a host
application: it opens and binds connections, resolves loose login identifiers
into canonical distinguished names, executes single-shot and paginated
searches, verifies credentials through directory-side compares, and converts
directory attributes into a host-neutral key/value form.

# Architecture Overview

The package is organized into a handful of cooperating components:

  - Connection: transport + bind lifecycle, search constraints, close
  - DN resolution: identifier-to-DN canonicalization with an anonymous lookup
  - Search: first-match convenience search and lazy paginated results
  - Attributes: binary-aware conversion of directory attributes
  - Escaping: pure DN-value and filter-value escaping utilities
  - Discovery: DNS SRV endpoint discovery with standard-port fallback

# Connection Lifecycle

A Connection is created unopened, opened (connect + constraints + bind) and
closed explicitly by the caller:

	cfg := ldap.DefaultConfig()
	cfg.Host = "directory.example.com"
	cfg.UseTLS = true
	cfg.BaseDN = "dc=example,dc=com"

	conn := ldap.NewConnection(cfg, logger)
	if err := conn.Open("jdoe@example.com", "secret"); err != nil {
		return err
	}
	defer conn.Close()

	if conn.CheckPassword(userDN, candidate) {
		// authenticated
	}

Close is always safe to call, even when Open never succeeded, and never
propagates transport-level disconnect errors.

# Trust Store Registration

TLS trust material is process-wide state. RegisterTrustStore must be called
once, before the first TLS connection is opened; later calls with a different
path have no effect. This mirrors the order-sensitive, globally visible nature
of trust-store installation rather than hiding it inside Open.

# Concurrency

A single Connection is not safe for unsynchronized concurrent use; callers
must sequence operations on it. Distinct Connections (including the throwaway
connections opened internally during DN resolution) are independent and may be
used from different goroutines.
*/
package ldap
