// CLAUDE:SUMMARY Strips tracking query parameters from a URL using generic or per-domain rules; rebuilds without re-encoding.
// CLAUDE:EXPORTS Sanitizer, New, Rules, Result, Unchanged, Cleaned
// Package sanitize removes tracking parameters from URLs.
//
// A domain rule, when one matches the host, fully replaces the generic
// parameter list. Kept query items are copied byte for byte; only removal
// happens, so a cleaned URL sanitizes to Unchanged.
package sanitize

import (
	"net/url"
	"strings"

	"github.com/hazyhaar/urlsentry/rules"
)

// Rules is the lookup surface a Sanitizer needs. *rules.TrackingRules
// implements it.
type Rules interface {
	DomainRule(host string) (rules.DomainRule, bool)
	IsGeneric(name string) bool
}

// Sanitizer applies a rule set to URLs. It holds no mutable state and is
// safe for concurrent use.
type Sanitizer struct {
	rules Rules
}

// New creates a Sanitizer over r.
func New(r Rules) *Sanitizer {
	return &Sanitizer{rules: r}
}

// queryItem is one name[=value] segment of a raw query.
type queryItem struct {
	raw  string
	name string
}

// Sanitize returns Cleaned with the rebuilt URL when at least one query item
// is dropped, and Unchanged otherwise. Input that does not parse, or a
// rebuild that does not parse back, yields Unchanged.
func (s *Sanitizer) Sanitize(raw string) Result {
	u, err := url.Parse(raw)
	if err != nil {
		return Unchanged()
	}

	items := splitQuery(u.RawQuery)
	if len(items) == 0 {
		return Unchanged()
	}

	keep := s.keeper(u.Hostname())

	kept := make([]string, 0, len(items))
	var removed []string
	named := 0
	for _, it := range items {
		if it.raw == "" {
			kept = append(kept, "")
			continue
		}
		if keep(it.name) {
			kept = append(kept, it.raw)
			named++
			continue
		}
		removed = append(removed, it.name)
	}
	if len(removed) == 0 {
		return Unchanged()
	}
	if named == 0 {
		kept = nil
	}

	out := rebuild(raw, kept)
	if _, err := url.Parse(out); err != nil {
		return Unchanged()
	}
	return Cleaned(out, removed...)
}

// keeper picks the filtering policy for host: the domain rule when one
// matches, the generic list otherwise. The two are never combined.
func (s *Sanitizer) keeper(host string) func(name string) bool {
	if rule, ok := s.rules.DomainRule(host); ok {
		return rule.Keeps
	}
	return func(name string) bool {
		return !s.rules.IsGeneric(name)
	}
}

// splitQuery splits a raw query on '&'. Empty segments are returned with an
// empty raw so the rebuild keeps them in place. Names are percent-decoded ('+' stays literal) and lower-cased for
// matching; the raw segment is kept for the rebuild.
func splitQuery(rawQuery string) []queryItem {
	if rawQuery == "" {
		return nil
	}
	segs := strings.Split(rawQuery, "&")
	items := make([]queryItem, 0, len(segs))
	for _, seg := range segs {
		if seg == "" {
			items = append(items, queryItem{})
			continue
		}
		name, _, _ := strings.Cut(seg, "=")
		if dec, err := url.PathUnescape(name); err == nil {
			name = dec
		}
		items = append(items, queryItem{raw: seg, name: strings.ToLower(name)})
	}
	return items
}

// rebuild replaces the query of raw with the kept segments. Everything
// before '?' and from '#' on is copied unchanged. No '?' is written when
// nothing is kept; callers pass nil when only empty segments survive.
func rebuild(raw string, kept []string) string {
	base, frag, hasFrag := strings.Cut(raw, "#")
	prefix, _, _ := strings.Cut(base, "?")

	var b strings.Builder
	b.Grow(len(raw))
	b.WriteString(prefix)
	if len(kept) > 0 {
		b.WriteByte('?')
		b.WriteString(strings.Join(kept, "&"))
	}
	if hasFrag {
		b.WriteByte('#')
		b.WriteString(frag)
	}
	return b.String()
}
