package ldap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// ResolveDN resolves a loose identifier into a canonical distinguished name.
// It is total over its input and never fails: when the lookup cannot produce
// a DN, the original identifier is returned unchanged.
//
// Identifiers carry a dual identity: a caller may pass either a pre-formed
// (possibly escaped) DN or a raw lookup key such as a mail address. The two
// cases are told apart by an explicit heuristic: an identifier containing
// the substring "uid" is treated as already canonical, has its backslash
// escapes stripped and is returned without any network call; everything else
// goes through an anonymous directory lookup by mail address.
func (c *Connection) ResolveDN(identifier string) string {
	if identifier == "" {
		return identifier
	}

	if looksLikeDN(identifier) {
		return strings.ReplaceAll(identifier, `\`, "")
	}

	if dn, ok := c.lookupDNByMail(identifier); ok {
		return dn
	}

	return identifier
}

// looksLikeDN is the canonical-form branch of the identifier heuristic.
func looksLikeDN(identifier string) bool {
	return strings.Contains(identifier, "uid")
}

// lookupDNByMail searches the directory anonymously for an entry whose mail
// attribute equals the identifier and returns that entry's DN. The lookup
// uses a throwaway connection that is released on every exit path. The first
// successfully retrieved entry wins; entries after a failed retrieval are
// only consulted when the failure was not a timeout or connect error.
func (c *Connection) lookupDNByMail(identifier string) (string, bool) {
	endpoints, err := c.endpoints()
	if err != nil {
		c.logger.Debug("dn lookup skipped", map[string]any{"error": err.Error()})
		return "", false
	}

	var conn protocolConn
	for _, ep := range endpoints {
		pc, err := c.dial(ep, c.tlsConfigFor(ep))
		if err != nil {
			c.logger.Debug("dn lookup dial failed", map[string]any{
				"endpoint": ep.URL(),
				"error":    err.Error(),
			})
			continue
		}
		conn = pc
		break
	}
	if conn == nil {
		return "", false
	}
	defer func() {
		if err := conn.Close(); err != nil {
			c.logger.Debug("dn lookup close failed", map[string]any{"error": err.Error()})
		}
	}()

	conn.SetTimeout(c.config.Timeout)

	if err := conn.UnauthenticatedBind(""); err != nil {
		c.logger.Debug("anonymous bind failed", errorFields("anonymous_bind", err))
		return "", false
	}

	throwaway := &Connection{
		config: c.config,
		logger: c.logger,
		conn:   conn,
		dial:   c.dial,
		constraints: SearchConstraints{
			TimeLimit:  c.config.Timeout,
			MaxResults: c.config.MaxResults,
			PageSize:   c.config.PageSize,
		},
	}

	// The identifier is interpolated verbatim, matching the historical
	// lookup contract. Callers that cannot guarantee injection-free input
	// must pre-escape with EscapeFilterValue.
	filter := fmt.Sprintf("(mail=%s)", identifier)

	results := throwaway.SearchPaginated(c.config.BaseDN, ScopeSub, filter, []string{"uid"}, false)
	defer func() {
		_ = results.Close()
	}()

	for {
		entry, err := results.Next()
		if err != nil {
			if errors.Is(err, ErrResultsExhausted) {
				return "", false
			}
			if ldap.IsErrorWithCode(err, ldap.LDAPResultTimeout) ||
				ldap.IsErrorWithCode(err, ldap.LDAPResultTimeLimitExceeded) ||
				ldap.IsErrorWithCode(err, ldap.LDAPResultConnectError) ||
				ldap.IsErrorWithCode(err, ldap.ErrorNetwork) {
				c.logger.Debug("dn lookup aborted", errorFields("dn_lookup", err))
				return "", false
			}
			c.logger.Debug("skipping unreadable entry", errorFields("dn_lookup", err))
			continue
		}

		c.logger.Debug("resolved identifier to dn", map[string]any{
			"identifier": identifier,
			"dn":         entry.DN,
		})
		return entry.DN, true
	}
}
