package admin

import (
	"strings"

	"counseling/internal/domain"
)

// Policy is the explicit set of administrator identities.
// An empty policy grants administrator rights to nobody.
type Policy struct {
	ids map[string]struct{}
}

func NewPolicy(ids ...string) *Policy {
	p := &Policy{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			p.ids[id] = struct{}{}
		}
	}
	return p
}

func (p *Policy) IsAdmin(userID string) bool {
	if p == nil || userID == "" {
		return false
	}
	_, ok := p.ids[userID]
	return ok
}

// Authorize checks the caller: no identity is Unauthenticated, an identity
// outside the set is Forbidden.
func (p *Policy) Authorize(callerID string) error {
	if callerID == "" {
		return domain.ErrUnauthenticated
	}
	if !p.IsAdmin(callerID) {
		return domain.ErrForbidden
	}
	return nil
}

func (p *Policy) Len() int {
	if p == nil {
		return 0
	}
	return len(p.ids)
}
