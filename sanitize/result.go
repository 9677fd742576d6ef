package sanitize

// Result is the outcome of Sanitize: either unchanged, or a cleaned URL.
type Result struct {
	changed bool
	url     string
	removed []string
}

// Unchanged is the result for a URL that needs no rewrite.
func Unchanged() Result { return Result{} }

// Cleaned is the result for a URL rewritten to u after dropping the named
// parameters.
func Cleaned(u string, removed ...string) Result {
	return Result{changed: true, url: u, removed: removed}
}

// Changed reports whether a rewrite happened.
func (r Result) Changed() bool { return r.changed }

// URL returns the cleaned URL, or "" when unchanged.
func (r Result) URL() string { return r.url }

// Removed returns the names of the dropped parameters, in query order.
func (r Result) Removed() []string { return r.removed }

func (r Result) String() string {
	if !r.Changed() {
		return "Unchanged"
	}
	return "Cleaned(" + r.url + ")"
}
