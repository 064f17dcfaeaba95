package permission

import (
	"fmt"
	"sort"
	"strings"
)

// Grant is a resolved (module, action) pair an identity is allowed to perform.
// Example string form: "projects:edit".
type Grant struct {
	Module Module
	Action Action
}

func (g Grant) String() string { return fmt.Sprintf("%s:%s", g.Module, g.Action) }

// NewGrant validates raw module/action strings once at the boundary and
// returns a typed Grant.
func NewGrant(module, action string) (Grant, error) {
	m, ok := ParseModule(module)
	if !ok {
		return Grant{}, fmt.Errorf("unknown permission module: %q", module)
	}
	a, ok := ParseAction(action)
	if !ok {
		return Grant{}, fmt.Errorf("unknown permission action: %q", action)
	}
	return Grant{Module: m, Action: a}, nil
}

// ParseGrant parses "module:action" to a Grant.
func ParseGrant(s string) (Grant, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Grant{}, fmt.Errorf("invalid permission string: %q", s)
	}
	return NewGrant(parts[0], parts[1])
}

// Set is a deduplicated grant collection ordered by (module, action). A Set is
// always derived per request, never persisted or cached across requests.
type Set []Grant

// NewSet dedups and orders grants by (module, action) so downstream output is
// deterministic.
func NewSet(grants ...Grant) Set {
	seen := make(map[Grant]struct{}, len(grants))
	out := make(Set, 0, len(grants))
	for _, g := range grants {
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Module != out[j].Module {
			return out[i].Module < out[j].Module
		}
		return out[i].Action < out[j].Action
	})
	return out
}

// Has reports whether the set contains the exact pair.
func (s Set) Has(g Grant) bool {
	for _, have := range s {
		if have == g {
			return true
		}
	}
	return false
}

// HasAll reports whether every given grant is present (ALL-of semantics).
// Vacuously true for an empty argument list.
func (s Set) HasAll(grants ...Grant) bool {
	for _, g := range grants {
		if !s.Has(g) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one given grant is present (ANY-of
// semantics). False for an empty argument list.
func (s Set) HasAny(grants ...Grant) bool {
	for _, g := range grants {
		if s.Has(g) {
			return true
		}
	}
	return false
}

// Strings returns the canonical "module:action" form of every grant, in set
// order.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, g := range s {
		out[i] = g.String()
	}
	return out
}
