// CLAUDE:SUMMARY Tracking rule model: generic params, ordered domain rules, substring host lookup.
// CLAUDE:EXPORTS TrackingRules, DomainRule, Domain, New, Empty, NormalizeHost
// Package rules holds the tracking-parameter rule set used to clean URLs.
//
// A rule set has two parts: generic parameter names stripped for any host,
// and per-domain rules that replace the generic list entirely for hosts they
// match. Domain rules are matched by substring containment on the host, in
// document order, so a rule keyed "amazon." covers www.amazon.co.uk.
//
// Every name and domain key is lower-cased once when the set is built; the
// lookup methods expect lower-cased input.
package rules

import (
	"strings"

	"golang.org/x/net/idna"
)

// DomainRule lists the parameters to strip for one domain and the ones that
// must survive even when also listed as tracking.
type DomainRule struct {
	tracking map[string]struct{}
	preserve map[string]struct{}
}

// NewDomainRule builds a DomainRule from raw name lists.
func NewDomainRule(tracking, preserve []string) DomainRule {
	return DomainRule{
		tracking: nameSet(tracking),
		preserve: nameSet(preserve),
	}
}

// Tracks reports whether name is listed as a tracking parameter.
func (r DomainRule) Tracks(name string) bool {
	_, ok := r.tracking[name]
	return ok
}

// Preserves reports whether name is on the preserve list.
func (r DomainRule) Preserves(name string) bool {
	_, ok := r.preserve[name]
	return ok
}

// Keeps reports whether a query item called name survives this rule.
// Preservation wins over tracking.
func (r DomainRule) Keeps(name string) bool {
	return !r.Tracks(name) || r.Preserves(name)
}

// Domain is one keyed entry used to build a TrackingRules.
type Domain struct {
	Key      string
	Tracking []string
	Preserve []string
}

type domainEntry struct {
	key  string
	rule DomainRule
}

// TrackingRules is an immutable rule set. It is safe for concurrent reads.
type TrackingRules struct {
	generic map[string]struct{}
	domains []domainEntry
}

// New builds a rule set. Domain order is kept for lookups. When two domains
// normalize to the same key the later definition replaces the earlier one in
// the earlier position.
func New(generic []string, domains []Domain) *TrackingRules {
	tr := &TrackingRules{generic: nameSet(generic)}
	index := make(map[string]int, len(domains))
	for _, d := range domains {
		key := NormalizeHost(d.Key)
		rule := NewDomainRule(d.Tracking, d.Preserve)
		if i, ok := index[key]; ok {
			tr.domains[i].rule = rule
			continue
		}
		index[key] = len(tr.domains)
		tr.domains = append(tr.domains, domainEntry{key: key, rule: rule})
	}
	return tr
}

// Empty returns a rule set that strips nothing.
func Empty() *TrackingRules {
	return New(nil, nil)
}

// DomainRule returns the first rule whose key is contained in host.
// The match is plain substring containment, not suffix or label matching.
func (tr *TrackingRules) DomainRule(host string) (DomainRule, bool) {
	h := NormalizeHost(host)
	for _, d := range tr.domains {
		if strings.Contains(h, d.key) {
			return d.rule, true
		}
	}
	return DomainRule{}, false
}

// IsGeneric reports whether name is a generic tracking parameter.
func (tr *TrackingRules) IsGeneric(name string) bool {
	_, ok := tr.generic[name]
	return ok
}

// Len returns the number of generic parameters and domain rules.
func (tr *TrackingRules) Len() (generic, domains int) {
	return len(tr.generic), len(tr.domains)
}

// Domains returns the domain keys in lookup order.
func (tr *TrackingRules) Domains() []string {
	keys := make([]string, len(tr.domains))
	for i, d := range tr.domains {
		keys[i] = d.key
	}
	return keys
}

// NormalizeHost lower-cases s and decodes punycode labels so that rule keys
// and hosts compare in the same form. Undecodable input is only lower-cased.
func NormalizeHost(s string) string {
	s = strings.ToLower(s)
	if !strings.Contains(s, "xn--") {
		return s
	}
	u, err := idna.Punycode.ToUnicode(s)
	if err != nil {
		return s
	}
	return u
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}
