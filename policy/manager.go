package policy

import (
	"fmt"
	"sync"

	"treasuryguard/domain"
)

// Manager holds the active policy set for a treasury and composes their
// validation and contribution results. Policy order is insertion order,
// tracked explicitly so audit trails and required-threshold/time-lock
// computation are reproducible across runs.
type Manager struct {
	mu       sync.RWMutex
	order    []string
	policies map[string]Policy
}

// NewManager returns an empty policy manager.
func NewManager() *Manager {
	return &Manager{policies: make(map[string]Policy)}
}

// AddPolicy registers p under its own PolicyID, rejecting duplicates so a
// misconfigured caller cannot silently shadow an existing policy.
func (m *Manager) AddPolicy(p Policy) error {
	if p == nil {
		return domain.NewInvalidArgument("policy must not be nil")
	}
	id := p.PolicyID()
	if id == "" {
		return domain.NewInvalidArgument("policy id must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.policies[id]; exists {
		return domain.NewInvalidArgument("policy %q already registered", id)
	}
	m.policies[id] = p
	m.order = append(m.order, id)
	return nil
}

// RemovePolicy deletes the policy with the given id, if present.
func (m *Manager) RemovePolicy(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.policies[id]; !ok {
		return domain.NewNotFound("policy %q not found", id)
	}
	delete(m.policies, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// GetPolicy returns the policy registered under id.
func (m *Manager) GetPolicy(id string) (Policy, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.policies[id]
	return p, ok
}

// ListPolicies returns every registered policy in insertion order.
func (m *Manager) ListPolicies() []Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Policy, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.policies[id])
	}
	return out
}

// ValidateTransaction runs every enabled policy's Validate against tx in
// insertion order, aborting on the first violation.
func (m *Manager) ValidateTransaction(tx domain.Transaction, ctx *Context) error {
	for _, p := range m.ListPolicies() {
		if !p.Enabled() {
			continue
		}
		if err := p.Validate(tx, ctx); err != nil {
			return err
		}
	}
	return nil
}

// RequiredTimeLock computes the maximum time-lock duration contributed by
// every enabled TimeLockContributor across every transaction in the
// proposal.
func (m *Manager) RequiredTimeLock(transactions []domain.Transaction, category domain.Category) int64 {
	var max int64
	for _, p := range m.ListPolicies() {
		if !p.Enabled() {
			continue
		}
		contributor, ok := p.(TimeLockContributor)
		if !ok {
			continue
		}
		for _, tx := range transactions {
			if d := contributor.TimeLockSeconds(tx, category); d > max {
				max = d
			}
		}
	}
	return max
}

// defaultThreshold is the signature count required when no enabled
// ThresholdContributor has an opinion.
const defaultThreshold = 2

// RequiredThreshold computes the maximum signature threshold contributed by
// every enabled ThresholdContributor across every transaction's amount,
// falling back to defaultThreshold when no policy contributes.
func (m *Manager) RequiredThreshold(transactions []domain.Transaction) int {
	max := 0
	contributed := false
	for _, p := range m.ListPolicies() {
		if !p.Enabled() {
			continue
		}
		contributor, ok := p.(ThresholdContributor)
		if !ok {
			continue
		}
		for _, tx := range transactions {
			contributed = true
			if n := contributor.ThresholdFor(tx.Amount); n > max {
				max = n
			}
		}
	}
	if !contributed {
		return defaultThreshold
	}
	return max
}

func violation(id, format string, args ...interface{}) error {
	return domain.NewPolicyViolation(id, fmt.Sprintf(format, args...))
}
