package ldap

import (
	"errors"
	"fmt"
	"time"

	"github.com/creasty/defaults"
)

// Standard directory ports, used when no port is configured explicitly.
const (
	DefaultPort    = 389 // plain LDAP
	DefaultTLSPort = 636 // LDAPS
)

// Config holds everything needed to open and drive a directory connection.
// It is supplied by the host application and read-only from this package's
// perspective.
type Config struct {
	// Endpoint settings. Host takes precedence; when Host is empty and
	// Domain is set, endpoints are discovered through DNS SRV records.
	Host   string
	Port   int // 0 selects DefaultPort or DefaultTLSPort by transport mode
	Domain string

	// BaseDN is the search base for DN resolution and attribute lookups.
	BaseDN string

	// Transport security. UseTLS dials LDAPS directly; StartTLS upgrades a
	// plain connection after connect. TrustStorePath names a PEM bundle
	// registered process-wide via RegisterTrustStore.
	UseTLS         bool
	StartTLS       bool
	TrustStorePath string

	// Bind credential used by OpenWithConfig. BindDN may be a full DN or a
	// loose identifier; it goes through DN resolution either way.
	BindDN       string
	BindPassword string

	// Operation constraints applied to every network exchange.
	Timeout         time.Duration `default:"10s"`
	MaxResults      int           `default:"1000"`
	PageSize        uint32        `default:"500"`
	FollowReferrals bool          `default:"true"`

	// BinaryAttributes names the attributes retrieved and represented as raw
	// bytes rather than text. Case-sensitive; replaced wholesale, never
	// edited incrementally.
	BinaryAttributes []string

	// Kerberos settings for GSSAPI binds. Realm plus a keytab, credential
	// cache or password selects the Kerberos auth method.
	KerberosRealm  string
	KerberosConfig string // path to krb5.conf, default /etc/krb5.conf
	KerberosKeytab string
	KerberosCCache string
}

// DefaultConfig returns a configuration with the struct-tag defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.MustSet(cfg)
	return cfg
}

// Validate checks that the configuration can support a connection attempt.
func (c *Config) Validate() error {
	if c.Host == "" && c.Domain == "" {
		return errors.New("either Host or Domain must be set")
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", c.Port)
	}

	if c.Timeout <= 0 {
		return errors.New("Timeout must be positive")
	}

	if c.MaxResults <= 0 {
		return errors.New("MaxResults must be positive")
	}

	if c.PageSize == 0 {
		return errors.New("PageSize must be positive")
	}

	return nil
}

// AuthMethod selects how a connection authenticates after connecting.
type AuthMethod int

const (
	AuthMethodSimpleBind AuthMethod = iota // DN/password simple bind
	AuthMethodKerberos                     // GSSAPI bind via gokrb5
)

// String returns the string representation of the authentication method.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodSimpleBind:
		return "simple"
	case AuthMethodKerberos:
		return "kerberos"
	default:
		return "unknown"
	}
}

// GetAuthMethod determines the authentication method from the configuration.
// Kerberos takes precedence when a realm and some credential source are
// configured; everything else is a simple bind.
func (c *Config) GetAuthMethod() AuthMethod {
	if c.KerberosRealm != "" && (c.KerberosKeytab != "" || c.KerberosCCache != "" || c.BindPassword != "") {
		return AuthMethodKerberos
	}

	return AuthMethodSimpleBind
}
