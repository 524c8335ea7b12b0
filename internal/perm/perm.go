// Package perm implements the permission algebra of spec §3/§4.5: a closed
// lattice of capability-style effects, set operations over it (modeled on
// the teacher's own generic set idiom), and the strongly-connected-component
// fixed point that infers each function's effect set from its call graph.
package perm

import (
	"fmt"
	"strings"
)

// Permission is one element of the closed effect lattice.
type Permission string

const (
	ReadFile     Permission = "ReadFile"
	WriteFile    Permission = "WriteFile"
	ReadNetwork  Permission = "ReadNetwork"
	WriteNetwork Permission = "WriteNetwork"
	ReadEnv      Permission = "ReadEnv"
	WriteEnv     Permission = "WriteEnv"
)

// All enumerates the closed lattice, in declaration order.
var All = []Permission{ReadFile, WriteFile, ReadNetwork, WriteNetwork, ReadEnv, WriteEnv}

// Parse recognizes one of the closed lattice names.
func Parse(name string) (Permission, bool) {
	for _, p := range All {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// Set is the lattice element: a set of Permissions, ordered by inclusion,
// joined by union. Mirrors the teacher's SVSet[V] shape (Add/Union/
// Intersection/Difference/Has/Equal/String), specialized to a closed enum
// instead of free-form string keys.
type Set map[Permission]struct{}

// NewSet returns a Set containing perms.
func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// ParseSet parses every name in names as a Permission, returning the
// resulting Set plus any names that were not part of the closed lattice.
func ParseSet(names []string) (Set, []string) {
	s := make(Set, len(names))
	var invalid []string
	for _, name := range names {
		p, ok := Parse(name)
		if !ok {
			invalid = append(invalid, name)
			continue
		}
		s[p] = struct{}{}
	}
	return s, invalid
}

func (s Set) Add(p Permission) {
	s[p] = struct{}{}
}

func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func (s Set) Empty() bool {
	return len(s) == 0
}

func (s Set) Len() int {
	return len(s)
}

// Copy returns an independent copy of s.
func (s Set) Copy() Set {
	return s.Union(nil)
}

// Union returns a new Set holding every permission in s or o.
func (s Set) Union(o Set) Set {
	out := make(Set, len(s)+len(o))
	for p := range s {
		out[p] = struct{}{}
	}
	for p := range o {
		out[p] = struct{}{}
	}
	return out
}

// Difference returns a new Set holding every permission in s that is not
// in o - the "missing" permissions when s is inferred and o is declared.
func (s Set) Difference(o Set) Set {
	out := make(Set, len(s))
	for p := range s {
		if !o.Has(p) {
			out[p] = struct{}{}
		}
	}
	return out
}

// SubsetOf reports whether every permission in s is also in o - the
// subsumption order of the lattice (spec §3: "subsumption order is set
// inclusion").
func (s Set) SubsetOf(o Set) bool {
	for p := range s {
		if !o.Has(p) {
			return false
		}
	}
	return true
}

// Equal reports whether s and o contain exactly the same permissions.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	return s.SubsetOf(o)
}

// Sorted returns s's members in the canonical (All) order, for
// deterministic diagnostics and reports.
func (s Set) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for _, p := range All {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// String renders s as "{A, B}" in canonical order, or "{}" when empty.
func (s Set) String() string {
	sorted := s.Sorted()
	names := make([]string, len(sorted))
	for i, p := range sorted {
		names[i] = string(p)
	}
	return fmt.Sprintf("{%s}", strings.Join(names, ", "))
}

// StringOrdered is an alias of String kept for symmetry with the teacher's
// ISet interface; Set is always rendered in canonical lattice order.
func (s Set) StringOrdered() string {
	return s.String()
}
