package ldap

import (
	"github.com/go-ldap/ldap/v3"
)

// Scope is the breadth of a directory search.
type Scope int

const (
	ScopeBase Scope = ldap.ScopeBaseObject   // the base entry only
	ScopeOne  Scope = ldap.ScopeSingleLevel  // immediate children of the base
	ScopeSub  Scope = ldap.ScopeWholeSubtree // the base and its full subtree
)

// PagedSearchResults is a lazy, finite, non-restartable sequence of entries
// produced by a search under the LDAP paging control. Pages are fetched from
// the server as the sequence is advanced.
//
// The sequence holds server-side paging state, so callers must always Close
// it, including on early return and on error. Close is idempotent; a closed
// sequence reports no further entries even when a page was left buffered.
type PagedSearchResults struct {
	conn    *Connection
	req     *ldap.SearchRequest
	control *ldap.ControlPaging

	// Set when the first page arrived via a referral. Paging cookies are
	// only valid on the server that issued them, so every later page and
	// the final release go to this connection instead of conn.
	referred *Connection

	buffer    []*ldap.Entry
	pos       int
	exhausted bool
	closed    bool
	fetchErr  error
}

// SearchPaginated starts a paginated search using the page size from the
// connection's constraints. No network exchange happens until the sequence
// is first advanced.
func (c *Connection) SearchPaginated(baseDN string, scope Scope, filter string, attrs []string, typesOnly bool) *PagedSearchResults {
	pageSize := c.constraints.PageSize
	if pageSize == 0 {
		pageSize = c.config.PageSize
	}

	control := ldap.NewControlPaging(pageSize)
	req := ldap.NewSearchRequest(
		baseDN,
		int(scope),
		ldap.NeverDerefAliases,
		c.constraints.MaxResults,
		int(c.constraints.TimeLimit.Seconds()),
		typesOnly,
		filter,
		attrs,
		[]ldap.Control{control},
	)

	return &PagedSearchResults{
		conn:    c,
		req:     req,
		control: control,
	}
}

// HasMore reports whether another entry is available, fetching the next page
// from the server when the buffered one is spent. A closed sequence never
// has more.
func (r *PagedSearchResults) HasMore() bool {
	if r.closed {
		return false
	}
	if r.pos < len(r.buffer) {
		return true
	}
	if r.exhausted || r.fetchErr != nil {
		return r.fetchErr != nil
	}

	r.fetch()
	return r.pos < len(r.buffer) || r.fetchErr != nil
}

// Next returns the next entry. A page-retrieval failure is reported once,
// after which the sequence is exhausted; a fully consumed or closed sequence
// returns ErrResultsExhausted.
func (r *PagedSearchResults) Next() (*ldap.Entry, error) {
	if r.closed {
		return nil, ErrResultsExhausted
	}

	if r.pos < len(r.buffer) {
		entry := r.buffer[r.pos]
		r.pos++
		return entry, nil
	}

	if r.fetchErr == nil && !r.exhausted {
		r.fetch()
	}

	if r.fetchErr != nil {
		err := r.fetchErr
		r.fetchErr = nil
		return nil, err
	}

	if r.pos < len(r.buffer) {
		entry := r.buffer[r.pos]
		r.pos++
		return entry, nil
	}

	return nil, ErrResultsExhausted
}

// fetch retrieves the next page and advances the paging cookie. An empty
// cookie in the response means the server has no further pages. Once a page
// came through a referral, all later pages come from the referred server.
func (r *PagedSearchResults) fetch() {
	var res *ldap.SearchResult
	var err error
	if r.referred != nil {
		res, err = r.referred.doSearch(r.req)
	} else {
		var rc *Connection
		res, rc, err = r.conn.searchFollowingReferral(r.req)
		if rc != nil {
			r.referred = rc
		}
	}
	if err != nil {
		r.fetchErr = err
		r.exhausted = true
		return
	}

	r.buffer = res.Entries
	r.pos = 0

	paging, ok := ldap.FindControl(res.Controls, ldap.ControlTypePaging).(*ldap.ControlPaging)
	if ok && len(paging.Cookie) > 0 {
		r.control.SetCookie(paging.Cookie)
	} else {
		r.exhausted = true
	}
}

// Close releases the sequence. If the server still holds paging state, a
// zero-size paging request with the live cookie tells it to discard that
// state; the request goes to the server that issued the cookie. A connection
// opened for a referral is released as well. Close never fails the caller's
// path: release errors are logged and swallowed. Safe to call repeatedly.
func (r *PagedSearchResults) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	conn := r.conn
	if r.referred != nil {
		conn = r.referred
	}

	if !r.exhausted && len(r.control.Cookie) > 0 {
		r.control.PagingSize = 0
		if _, err := conn.doSearch(r.req); err != nil {
			r.conn.logger.Debug("paged search release failed", errorFields("paged_release", err))
		}
	}

	if r.referred != nil {
		r.referred.Close()
		r.referred = nil
	}

	return nil
}
