package rbac

import (
	"slices"
	"sort"
	"strings"

	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

// Policy answers permission checks for actors.
type Policy struct {
	grants []Grant
}

// NewPolicy constructs a Policy from grants. No grants means DefaultGrants.
func NewPolicy(grants ...Grant) *Policy {
	if len(grants) == 0 {
		grants = DefaultGrants()
	}
	normalized := make([]Grant, 0, len(grants))
	for _, g := range grants {
		normalized = append(normalized, Grant{
			Role:        shared.Role(strings.ToLower(string(g.Role))),
			Departments: normalizePermissions(g.Departments),
			Permissions: normalizePermissions(g.Permissions),
		})
	}
	return &Policy{grants: normalized}
}

// EffectivePermissions lists the permissions granted to actor, sorted.
func (p *Policy) EffectivePermissions(actor shared.Actor) []string {
	if p == nil {
		return nil
	}
	role := shared.Role(strings.ToLower(string(actor.Role)))
	dept := strings.ToLower(strings.TrimSpace(actor.Department))
	set := make(map[string]struct{})
	for _, g := range p.grants {
		if g.Role != role {
			continue
		}
		if len(g.Departments) > 0 && !slices.Contains(g.Departments, dept) {
			continue
		}
		for _, perm := range g.Permissions {
			set[perm] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for perm := range set {
		out = append(out, perm)
	}
	sort.Strings(out)
	return out
}

// Can reports whether actor holds perm.
func (p *Policy) Can(actor shared.Actor, perm string) bool {
	if actor.ID <= 0 {
		return false
	}
	return hasAllPermissions(p.EffectivePermissions(actor), normalizePermissions([]string{perm}))
}
