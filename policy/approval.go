package policy

import (
	"sync"

	"treasuryguard/domain"
)

// ApprovalPolicy rejects execution that proceeds without every member of a
// per-category required-signer set, and unconditionally rejects a veto
// signer's presence regardless of category.
//
// Required-signer membership is only meaningful once signatures exist, so
// the check only runs when ctx.Phase == PhaseExecute; at PhaseCreate a
// proposal's signature set is empty by construction and the check would
// reject every proposal on creation. Veto is checked in both phases since a
// vetoer's signature being present at all is already disqualifying.
type ApprovalPolicy struct {
	mu       sync.RWMutex
	id       string
	enabled  bool
	required map[domain.Category]domain.SignerSet
	vetoers  domain.SignerSet
}

// NewApprovalPolicy constructs a policy with no required signers or vetoers
// configured.
func NewApprovalPolicy(id string) *ApprovalPolicy {
	return &ApprovalPolicy{
		id:       id,
		enabled:  true,
		required: make(map[domain.Category]domain.SignerSet),
		vetoers:  domain.NewSignerSet(nil),
	}
}

func (p *ApprovalPolicy) PolicyID() string   { return p.id }
func (p *ApprovalPolicy) PolicyType() string { return "approval" }
func (p *ApprovalPolicy) Enabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}
func (p *ApprovalPolicy) SetEnabled(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = v
}

// RequireSigners sets the set of signers that must all have signed before a
// transaction in category may execute.
func (p *ApprovalPolicy) RequireSigners(category domain.Category, signers ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.required[category] = domain.NewSignerSet(signers)
}

// AddVetoer adds a signer whose signature on the proposal, present in any
// category, blocks execution outright.
func (p *ApprovalPolicy) AddVetoer(signer string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vetoers.Add(signer)
}

// RemoveVetoer removes signer from the veto set.
func (p *ApprovalPolicy) RemoveVetoer(signer string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vetoers.Remove(signer)
}

// Validate implements Policy.
func (p *ApprovalPolicy) Validate(_ domain.Transaction, ctx *Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for signer := range ctx.Signatures {
		if p.vetoers.Contains(signer) {
			return violation(p.id, "signer %q has veto authority and has signed", signer)
		}
	}

	if ctx.Phase != PhaseExecute {
		return nil
	}
	required, ok := p.required[ctx.Category]
	if !ok || required.Len() == 0 {
		return nil
	}
	for _, signer := range required.Sorted() {
		if _, signed := ctx.Signatures[signer]; !signed {
			return violation(p.id, "required signer %q has not signed", signer)
		}
	}
	return nil
}
