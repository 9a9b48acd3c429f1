package harness

import (
	"strings"

	"rtfcheck/internal/extract"
)

type Predicate func(extract.Result) bool

// HasHeaders reports whether at least one header is non-blank. An empty list
// and a list of blank headers are treated the same.
func HasHeaders(r extract.Result) bool {
	for _, h := range r.Headers {
		if !isBlank(h) {
			return true
		}
	}
	return false
}

// AllHeadersNamed requires a non-empty list with no blank header.
func AllHeadersNamed(r extract.Result) bool {
	if len(r.Headers) == 0 {
		return false
	}
	for _, h := range r.Headers {
		if isBlank(h) {
			return false
		}
	}
	return true
}

func MissingHeaders(r extract.Result) bool {
	return !HasHeaders(r)
}

func Not(p Predicate) Predicate {
	return func(r extract.Result) bool { return !p(r) }
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
