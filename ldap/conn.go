package ldap

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// protocolConn is the slice of the go-ldap connection surface this package
// drives. *ldap.Conn satisfies it; tests substitute fakes.
type protocolConn interface {
	Bind(username, password string) error
	UnauthenticatedBind(username string) error
	GSSAPIBind(client ldap.GSSAPIClient, servicePrincipal, authzID string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Compare(dn, attribute, value string) (bool, error)
	StartTLS(cfg *tls.Config) error
	SetTimeout(timeout time.Duration)
	Close() error
}

// dialFunc opens a transport to one endpoint.
type dialFunc func(ep *Endpoint, tlsCfg *tls.Config) (protocolConn, error)

// ReferralHandler opens an authenticated connection to a server named in a
// referral. The handler installed at Open time closes over the original
// identifier and secret, so the referred server is re-authenticated with the
// caller's own credentials.
type ReferralHandler func(referralURL string) (*Connection, error)

// SearchConstraints are the per-operation limits and the referral policy
// fixed at connection-open time.
type SearchConstraints struct {
	TimeLimit       time.Duration
	MaxResults      int
	PageSize        uint32
	FollowReferrals bool
	ReferralHandler ReferralHandler
}

// Connection is a live session to one directory endpoint. It is created
// unopened by NewConnection, becomes usable after a successful Open, and is
// released by Close. A Connection must not be used for searches or compares
// before Open succeeds, and is not safe for unsynchronized concurrent use.
type Connection struct {
	id          string
	config      *Config
	logger      Logger
	discovery   *Discovery
	conn        protocolConn
	constraints SearchConstraints
	binary      BinaryAttributeSet
	bound       bool

	dial dialFunc
}

// NewConnection creates an unopened connection for the given configuration.
// A nil logger discards all output.
func NewConnection(cfg *Config, logger Logger) *Connection {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = NewLogger(nil)
	}

	c := &Connection{
		id:        uuid.NewString(),
		config:    cfg,
		logger:    logger,
		discovery: NewDiscovery(logger),
		binary:    NewBinaryAttributeSet(cfg.BinaryAttributes...),
	}
	c.dial = c.dialEndpoint

	return c
}

// Constraints returns the search constraints installed at open time.
func (c *Connection) Constraints() SearchConstraints {
	return c.constraints
}

// Bound reports whether the connection has successfully bound.
func (c *Connection) Bound() bool {
	return c.bound
}

// OpenWithConfig opens the connection using the bind credential from the
// configuration.
func (c *Connection) OpenWithConfig() error {
	return c.Open(c.config.BindDN, c.config.BindPassword)
}

// Open connects to the directory and binds as the given identifier. The
// identifier is first resolved to a canonical DN and is never used directly
// as a bind DN. Transport and bind failures are both reported as a single
// open failure; the wrapped Error's Category records which stage failed.
// Reopening an already-open connection replaces its transport.
//
// On any failure after the transport connected, the transport is released
// before returning.
func (c *Connection) Open(identifier, secret string) error {
	cfg := c.config
	if err := cfg.Validate(); err != nil {
		return &Error{Op: "open", Category: ErrorCategoryValidation, Cause: err}
	}

	c.binary = NewBinaryAttributeSet(cfg.BinaryAttributes...)

	// Trust material must be installed before the first TLS dial.
	if (cfg.UseTLS || cfg.StartTLS) && cfg.TrustStorePath != "" {
		if err := RegisterTrustStore(cfg.TrustStorePath); err != nil {
			return &Error{Op: "open", Category: ErrorCategoryValidation, Cause: err}
		}
	}

	dn := c.ResolveDN(identifier)

	// A previous transport must not leak when the connection is reopened.
	c.Close()

	ep, conn, err := c.connectAny()
	if err != nil {
		c.logger.Error("directory connect failed", errorFields("connect", err))
		return &Error{Op: "open", Category: ErrorCategoryConnection, Retryable: true, Cause: err}
	}

	conn.SetTimeout(cfg.Timeout)
	c.conn = conn

	c.constraints = SearchConstraints{
		TimeLimit:       cfg.Timeout,
		MaxResults:      cfg.MaxResults,
		PageSize:        cfg.PageSize,
		FollowReferrals: cfg.FollowReferrals,
	}
	if cfg.FollowReferrals {
		c.constraints.ReferralHandler = c.referralHandler(identifier, secret)
	}

	c.logger.Debug("binding to directory", map[string]any{
		"conn_id":  c.id,
		"endpoint": ep.URL(),
		"bind_dn":  dn,
	})

	if err := c.bind(ep, identifier, dn, secret); err != nil {
		c.logger.Error("directory bind failed", errorFields("bind", err))
		c.Close()
		return &Error{Op: "open", Category: ErrorCategoryAuthentication, DN: dn, Cause: err}
	}

	c.bound = true

	c.logger.Info("directory connection opened", map[string]any{
		"conn_id":     c.id,
		"endpoint":    ep.URL(),
		"auth_method": cfg.GetAuthMethod().String(),
	})
	return nil
}

// connectAny dials the configured endpoints in order and returns the first
// transport that connects, aggregating the failures otherwise.
func (c *Connection) connectAny() (*Endpoint, protocolConn, error) {
	endpoints, err := c.endpoints()
	if err != nil {
		return nil, nil, err
	}

	var dialErrs *multierror.Error
	for _, ep := range endpoints {
		conn, err := c.dial(ep, c.tlsConfigFor(ep))
		if err != nil {
			c.logger.Debug("endpoint dial failed", map[string]any{
				"endpoint": ep.URL(),
				"error":    err.Error(),
			})
			dialErrs = multierror.Append(dialErrs, err)
			continue
		}
		return ep, conn, nil
	}

	return nil, nil, dialErrs.ErrorOrNil()
}

// endpoints resolves the configured host, or discovers endpoints for the
// configured domain.
func (c *Connection) endpoints() ([]*Endpoint, error) {
	cfg := c.config

	if cfg.Host != "" {
		port := cfg.Port
		if port <= 0 {
			if cfg.UseTLS {
				port = DefaultTLSPort
			} else {
				port = DefaultPort
			}
		}
		return []*Endpoint{{Host: cfg.Host, Port: port, UseTLS: cfg.UseTLS, Weight: 100, Source: "config"}}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	return c.discovery.Discover(ctx, cfg.Domain)
}

// dialEndpoint is the default dialFunc.
func (c *Connection) dialEndpoint(ep *Endpoint, tlsCfg *tls.Config) (protocolConn, error) {
	dialer := &net.Dialer{Timeout: c.config.Timeout}

	if ep.UseTLS {
		return ldap.DialURL(ep.URL(), ldap.DialWithDialer(dialer), ldap.DialWithTLSConfig(tlsCfg))
	}

	conn, err := ldap.DialURL(ep.URL(), ldap.DialWithDialer(dialer))
	if err != nil {
		return nil, err
	}

	if c.config.StartTLS {
		if err := conn.StartTLS(tlsCfg); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return conn, nil
}

// bind authenticates the connected transport. Simple binds use protocol v3
// with the secret as UTF-8; an empty secret downgrades to an unauthenticated
// bind rather than sending an empty simple bind.
func (c *Connection) bind(ep *Endpoint, identifier, dn, secret string) error {
	// Residual backslash escapes are stripped so the wire DN matches the
	// canonical form the resolver produces.
	dn = strings.ReplaceAll(dn, `\`, "")

	if c.config.GetAuthMethod() == AuthMethodKerberos {
		return c.bindGSSAPI(ep, identifier, secret)
	}

	if secret == "" {
		return c.conn.UnauthenticatedBind(dn)
	}
	return c.conn.Bind(dn, secret)
}

// referralHandler builds the handler installed into the search constraints.
// It re-opens against the referred server with the original credentials and
// with referral following disabled, bounding the chase to one hop.
func (c *Connection) referralHandler(identifier, secret string) ReferralHandler {
	return func(referralURL string) (*Connection, error) {
		ep, err := ParseEndpointURL(referralURL)
		if err != nil {
			return nil, err
		}

		cfg := *c.config
		cfg.Host = ep.Host
		cfg.Port = ep.Port
		cfg.UseTLS = ep.UseTLS
		cfg.Domain = ""
		cfg.FollowReferrals = false

		rc := NewConnection(&cfg, c.logger)
		rc.dial = c.dial
		if err := rc.Open(identifier, secret); err != nil {
			return nil, err
		}
		return rc, nil
	}
}

// Close releases the transport. It is always safe to call, including when
// Open never succeeded, and may be called repeatedly. Disconnect errors are
// logged and swallowed so that close never masks an already-decided outcome.
func (c *Connection) Close() {
	if c.conn == nil {
		return
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Debug("directory close failed", map[string]any{
			"conn_id": c.id,
			"error":   err.Error(),
		})
	}

	c.conn = nil
	c.bound = false
}

// CheckPassword verifies a secret against the userPassword attribute of the
// target entry.
func (c *Connection) CheckPassword(userDN, password string) bool {
	return c.CheckPasswordAttribute(userDN, password, "userPassword")
}

// CheckPasswordAttribute verifies a secret through a directory-side compare
// of the named attribute. The secret is sent to the comparison; the stored
// value is never fetched. Every failure (unknown entry, missing attribute,
// transport trouble) yields false; only a directory compare-true yields
// true.
func (c *Connection) CheckPasswordAttribute(userDN, password, passwordField string) bool {
	match, err := c.conn.Compare(userDN, passwordField, password)
	if err != nil {
		switch {
		case ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject):
			c.logger.Debug("unable to locate entry for password check", map[string]any{
				"dn": userDN,
			})
		case ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchAttribute):
			c.logger.Debug("password attribute not present on entry", map[string]any{
				"dn":        userDN,
				"attribute": passwordField,
			})
		default:
			c.logger.Debug("unable to verify password", errorFields("compare", err))
		}
		return false
	}

	return match
}

// doSearch issues a single search on this connection, following at most one
// search referral when the constraints allow it. A connection opened to the
// referred server is released before returning.
func (c *Connection) doSearch(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	res, rc, err := c.searchFollowingReferral(req)
	if rc != nil {
		rc.Close()
	}
	return res, err
}

// searchFollowingReferral issues a search, chasing at most one referral.
// When a referral was followed, the connection to the referred server is
// returned still open: paging cookies issued by that server are only valid
// there, so a paginated sequence must keep fetching from it. The caller owns
// releasing it.
func (c *Connection) searchFollowingReferral(req *ldap.SearchRequest) (*ldap.SearchResult, *Connection, error) {
	if c.conn == nil {
		return nil, nil, NewError("search", errors.New("connection is not open"))
	}

	res, err := c.conn.Search(req)
	if err != nil {
		return nil, nil, err
	}

	if len(res.Referrals) == 0 || len(res.Entries) > 0 {
		return res, nil, nil
	}

	h := c.constraints.ReferralHandler
	if !c.constraints.FollowReferrals || h == nil {
		return res, nil, nil
	}

	referral := res.Referrals[0]
	c.logger.Debug("following search referral", map[string]any{
		"conn_id":  c.id,
		"referral": referral,
	})

	rc, err := h(referral)
	if err != nil {
		c.logger.Warn("referral follow failed", errorFields("referral", err))
		return res, nil, nil
	}

	rres, err := rc.conn.Search(req)
	if err != nil {
		rc.Close()
		return nil, nil, err
	}
	return rres, rc, nil
}
