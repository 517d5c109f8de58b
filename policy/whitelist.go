package policy

import (
	"sync"
	"time"

	"treasuryguard/domain"
)

// WhitelistPolicy rejects transactions whose recipient is not on an approved
// or not-yet-expired temporary allowlist, and unconditionally rejects
// blacklisted recipients regardless of any other list membership.
type WhitelistPolicy struct {
	mu          sync.RWMutex
	id          string
	enabled     bool
	approved    map[string]struct{}
	blacklisted map[string]struct{}
	temporary   map[string]time.Time // recipient -> expires_at
}

// NewWhitelistPolicy constructs an empty whitelist policy.
func NewWhitelistPolicy(id string) *WhitelistPolicy {
	return &WhitelistPolicy{
		id:          id,
		enabled:     true,
		approved:    make(map[string]struct{}),
		blacklisted: make(map[string]struct{}),
		temporary:   make(map[string]time.Time),
	}
}

func (p *WhitelistPolicy) PolicyID() string   { return p.id }
func (p *WhitelistPolicy) PolicyType() string { return "whitelist" }
func (p *WhitelistPolicy) Enabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}
func (p *WhitelistPolicy) SetEnabled(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = v
}

// AddApproved permanently allows recipient. Rejected if recipient is
// currently blacklisted; the blacklist must be lifted first.
func (p *WhitelistPolicy) AddApproved(recipient string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, blocked := p.blacklisted[recipient]; blocked {
		return domain.NewInvalidState("recipient %q is blacklisted", recipient)
	}
	p.approved[recipient] = struct{}{}
	return nil
}

// AddTemporary allows recipient until expiresAt. Rejected if recipient is
// currently blacklisted.
func (p *WhitelistPolicy) AddTemporary(recipient string, expiresAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, blocked := p.blacklisted[recipient]; blocked {
		return domain.NewInvalidState("recipient %q is blacklisted", recipient)
	}
	p.temporary[recipient] = expiresAt
	return nil
}

// Blacklist marks recipient as permanently disallowed, purging any approved
// or temporary entry for the same recipient.
func (p *WhitelistPolicy) Blacklist(recipient string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blacklisted[recipient] = struct{}{}
	delete(p.approved, recipient)
	delete(p.temporary, recipient)
}

// RemoveBlacklist lifts a blacklist entry, after which the recipient may be
// re-added to the approved or temporary lists.
func (p *WhitelistPolicy) RemoveBlacklist(recipient string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.blacklisted, recipient)
}

// Validate implements Policy.
func (p *WhitelistPolicy) Validate(tx domain.Transaction, ctx *Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, blocked := p.blacklisted[tx.Recipient]; blocked {
		return violation(p.id, "recipient %q is blacklisted", tx.Recipient)
	}
	if _, ok := p.approved[tx.Recipient]; ok {
		return nil
	}
	if expiresAt, ok := p.temporary[tx.Recipient]; ok {
		if ctx.CurrentTime.Before(expiresAt) {
			return nil
		}
		// Strictly expired (current_time >= expires_at): purge and fall
		// through to the rejection below.
		delete(p.temporary, tx.Recipient)
	}
	return violation(p.id, "recipient %q is not on the whitelist", tx.Recipient)
}
