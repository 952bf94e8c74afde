package ldap

import (
	"errors"

	"github.com/go-ldap/ldap/v3"
)

// SearchFirst executes a search and returns the first matching entry as a
// sequence of host-neutral attributes, led by a synthetic "dn" pair carrying
// the entry's resolved DN. The base DN goes through the same identifier
// resolution as a bind identifier before the search is issued.
//
// A nil return means no entry matched or the search failed; protocol errors
// are logged and not propagated, so callers treat both uniformly as absent.
func (c *Connection) SearchFirst(baseDN, filter string, attrs []string, scope Scope) []SearchAttribute {
	base := c.ResolveDN(baseDN)

	results := c.SearchPaginated(base, scope, filter, attrs, false)
	defer func() {
		_ = results.Close()
	}()

	if !results.HasMore() {
		return nil
	}

	entry, err := results.Next()
	if err != nil {
		if !errors.Is(err, ErrResultsExhausted) {
			c.logger.Debug("search failed", errorFields("search_first", err))
		}
		return nil
	}

	found := []SearchAttribute{{Name: "dn", Value: entry.DN}}
	found = AppendEntryAttributes(found, entry, c.binary)

	c.logger.Trace("search found entry", map[string]any{
		"conn_id":         c.id,
		"dn":              entry.DN,
		"attribute_count": len(found) - 1,
	})

	return found
}

// Search executes a single-shot, unpaginated search under the connection's
// constraints and returns the raw protocol result.
func (c *Connection) Search(baseDN string, scope Scope, filter string, attrs []string, typesOnly bool) (*ldap.SearchResult, error) {
	req := ldap.NewSearchRequest(
		baseDN,
		int(scope),
		ldap.NeverDerefAliases,
		c.constraints.MaxResults,
		int(c.constraints.TimeLimit.Seconds()),
		typesOnly,
		filter,
		attrs,
		nil,
	)

	res, err := c.doSearch(req)
	if err != nil {
		return nil, NewError("search", err)
	}

	return res, nil
}
