package domain

import "strings"

// DefaultCurrencies seeds the registry when no currency document exists yet.
var DefaultCurrencies = []string{"money_1", "money_2"}

// NormalizeCurrency returns the canonical (lower-cased, trimmed) form of a currency identifier.
func NormalizeCurrency(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Registry is the ordered set of currency identifiers recognised system-wide.
type Registry []string

// Contains reports whether id is registered. The comparison is case-insensitive.
func (r Registry) Contains(id string) bool {
	return r.indexOf(id) >= 0
}

// Add appends id in canonical form. It returns false if id is already registered.
func (r *Registry) Add(id string) bool {
	if r.Contains(id) {
		return false
	}
	*r = append(*r, NormalizeCurrency(id))
	return true
}

// Remove deletes id, keeping the order of the remaining entries.
// It returns false if id was not registered.
func (r *Registry) Remove(id string) bool {
	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	*r = append((*r)[:i:i], (*r)[i+1:]...)
	return true
}

// Clone returns an independent copy.
func (r Registry) Clone() Registry {
	out := make(Registry, len(r))
	copy(out, r)
	return out
}

func (r Registry) indexOf(id string) int {
	id = NormalizeCurrency(id)
	for i, c := range r {
		if c == id {
			return i
		}
	}
	return -1
}
