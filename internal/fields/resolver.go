// Package fields resolves values whose label differs between firms: invoice and contact
// custom fields, and column headers of the price list.
package fields

import (
	"strings"

	"zbtools/pkg/models"
)

// Resolver matches labels against an ordered list of candidate patterns.
// Matching is a case-insensitive substring test; earlier patterns win.
type Resolver struct {
	patterns []string
}

// NewResolver builds a resolver for the given candidate patterns.
func NewResolver(patterns []string) Resolver {
	r := Resolver{patterns: make([]string, 0, len(patterns))}
	for _, p := range patterns {
		p = normalize(p)
		if p != "" {
			r.patterns = append(r.patterns, p)
		}
	}
	return r
}

// Empty reports whether the resolver has no patterns.
func (r Resolver) Empty() bool {
	return len(r.patterns) == 0
}

// Resolve returns the first non-empty custom field value matching a pattern.
func (r Resolver) Resolve(fields []models.CustomField) (string, bool) {
	for _, p := range r.patterns {
		for _, f := range fields {
			if !matches(p, f.Label) && !matches(p, f.APIName) {
				continue
			}
			if v := f.Text(); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// Value is Resolve without the found flag.
func (r Resolver) Value(fields []models.CustomField) string {
	v, _ := r.Resolve(fields)
	return v
}

// Column returns the index of the first header matching a pattern, or -1.
func (r Resolver) Column(headers []string) int {
	for _, p := range r.patterns {
		for i, h := range headers {
			if matches(p, h) {
				return i
			}
		}
	}
	return -1
}

func matches(pattern, label string) bool {
	label = normalize(label)
	return label != "" && strings.Contains(label, pattern)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
