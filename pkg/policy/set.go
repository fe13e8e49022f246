package policy

import (
	"sort"
	"strings"
)

// Set is a case-insensitive set of names.  Entries are stored lower case.
type Set map[string]struct{}

// NewSet builds a Set containing the provided items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Has returns true if name is a member of the set, ignoring case.  A nil Set contains nothing.
func (s Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s[strings.ToLower(name)]
	return ok
}

// Add inserts the provided names.
func (s Set) Add(names ...string) {
	for _, name := range names {
		s[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
}

// Remove deletes the provided names.
func (s Set) Remove(names ...string) {
	for _, name := range names {
		delete(s, strings.ToLower(strings.TrimSpace(name)))
	}
}

// Items returns the members of the set in sorted order.
func (s Set) Items() []string {
	items := make([]string, 0, len(s))
	for k := range s {
		items = append(items, k)
	}
	sort.Strings(items)
	return items
}

// Clone returns an independent copy of the set; cloning nil yields nil.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	c := make(Set, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}
