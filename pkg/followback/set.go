package followback

import "sort"

// Set is a set of usernames
type Set map[string]struct{}

// NewSet builds a set from names, dropping duplicates
func NewSet(names []string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// Contains reports whether name is in the set
func (s Set) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Difference returns the members of s missing from other, sorted
func (s Set) Difference(other Set) []string {
	diff := make([]string, 0)
	for name := range s {
		if !other.Contains(name) {
			diff = append(diff, name)
		}
	}
	sort.Strings(diff)
	return diff
}
