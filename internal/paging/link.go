package paging

import (
	"net/url"
)

// OlderLink returns base with its before/after parameters replaced by the
// older cursor, or "" when there is no older page.
func (p *Page) OlderLink(base *url.URL) string {
	return link(base, "before", p.Older)
}

// NewerLink returns base with its before/after parameters replaced by the
// newer cursor, or "" when there is no newer page.
func (p *Page) NewerLink(base *url.URL) string {
	return link(base, "after", p.Newer)
}

// link appends param=c to base's other query parameters. The cursor is
// already query-escaped and is added as is.
func link(base *url.URL, param, c string) string {
	if c == "" {
		return ""
	}

	u := *base
	q := u.Query()
	q.Del("before")
	q.Del("after")

	raw := q.Encode()
	if raw != "" {
		raw += "&"
	}
	u.RawQuery = raw + param + "=" + c
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
