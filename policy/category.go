package policy

import (
	"sync"

	"treasuryguard/domain"
)

// CategoryPolicy restricts proposals to a configured set of permitted
// categories. An empty RequiredCategories set disables the membership check
// but a transaction still needs a category present in the context.
type CategoryPolicy struct {
	mu       sync.RWMutex
	id       string
	enabled  bool
	required map[domain.Category]struct{}
}

// NewCategoryPolicy constructs a policy with the given required category
// set. An empty set means any category is accepted, provided one is set.
func NewCategoryPolicy(id string, required ...domain.Category) *CategoryPolicy {
	set := make(map[domain.Category]struct{}, len(required))
	for _, c := range required {
		set[c] = struct{}{}
	}
	return &CategoryPolicy{id: id, enabled: true, required: set}
}

func (p *CategoryPolicy) PolicyID() string   { return p.id }
func (p *CategoryPolicy) PolicyType() string { return "category" }
func (p *CategoryPolicy) Enabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}
func (p *CategoryPolicy) SetEnabled(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = v
}

// Validate implements Policy.
func (p *CategoryPolicy) Validate(_ domain.Transaction, ctx *Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if ctx.Category == "" {
		return violation(p.id, "proposal has no category")
	}
	if len(p.required) == 0 {
		return nil
	}
	if _, ok := p.required[ctx.Category]; !ok {
		return violation(p.id, "category %q is not permitted", ctx.Category)
	}
	return nil
}
