// Package emergency implements the out-of-band freeze sub-protocol: a
// signer quorum distinct from (or overlapping with) the ordinary proposal
// signers can freeze a treasury immediately, bypassing the proposal
// pipeline entirely. Unfreezing is deliberately asymmetric and requires
// only a single emergency signer.
package emergency

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"treasuryguard/domain"
)

// ActionTypeFreeze is the only emergency action type currently implemented.
const ActionTypeFreeze = "freeze"

// TreasuryView is the narrow slice of treasury state the emergency module
// needs to read and mutate. The treasury package implements it; keeping the
// dependency as an interface avoids an import cycle between the two
// packages.
type TreasuryView interface {
	EmergencySigners() domain.SignerSet
	EmergencyThreshold() int
	CooldownSeconds() int64
	LastEmergencyAt() *time.Time
	SetLastEmergencyAt(t time.Time)
	Frozen() bool
	SetFrozen(v bool)
	AppendAudit(action, actor, proposalID string, details map[string]interface{})
}

// Module owns the set of in-flight and completed emergency actions for one
// treasury.
type Module struct {
	mu      sync.RWMutex
	actions map[string]*domain.EmergencyAction
}

// New returns an empty emergency module.
func New() *Module {
	return &Module{actions: make(map[string]*domain.EmergencyAction)}
}

// CanTrigger reports whether enough time has elapsed since the last
// emergency action for a new one to be created, per view's cooldown.
func CanTrigger(view TreasuryView, at time.Time) bool {
	last := view.LastEmergencyAt()
	if last == nil {
		return true
	}
	elapsed := at.Sub(*last)
	return elapsed >= time.Duration(view.CooldownSeconds())*time.Second
}

// CreateAction registers a new emergency action initiated by initiator, who
// must be a member of the emergency signer set. The cooldown is enforced
// here so a treasury already subject to a recent freeze cannot be re-armed.
func (m *Module) CreateAction(view TreasuryView, initiator, actionType, reason string, at time.Time) (*domain.EmergencyAction, error) {
	if !view.EmergencySigners().Contains(initiator) {
		return nil, domain.NewPermissionDenied("%q is not an emergency signer", initiator)
	}
	if !CanTrigger(view, at) {
		return nil, domain.NewRuntimeFault("emergency cooldown active")
	}

	action := &domain.EmergencyAction{
		ActionID:    uuid.NewString(),
		ActionType:  actionType,
		InitiatedBy: initiator,
		InitiatedAt: at,
		Reason:      reason,
		Signatures:  make(map[string]domain.Signature),
	}

	m.mu.Lock()
	m.actions[action.ActionID] = action
	m.mu.Unlock()

	view.AppendAudit("emergency_freeze_initiated", initiator, "", map[string]interface{}{
		"action_id":   action.ActionID,
		"action_type": actionType,
		"reason":      reason,
	})
	return action.Clone(), nil
}

// SignAction records signer's signature against action, who must be an
// emergency signer that has not yet signed this action.
func (m *Module) SignAction(view TreasuryView, actionID, signer string, sig domain.Signature, at time.Time) error {
	if !view.EmergencySigners().Contains(signer) {
		return domain.NewPermissionDenied("%q is not an emergency signer", signer)
	}

	m.mu.Lock()
	action, ok := m.actions[actionID]
	if !ok {
		m.mu.Unlock()
		return domain.NewNotFound("emergency action %q not found", actionID)
	}
	if action.Executed {
		m.mu.Unlock()
		return domain.NewInvalidState("emergency action %q already executed", actionID)
	}
	if _, signed := action.Signatures[signer]; signed {
		m.mu.Unlock()
		return domain.NewInvalidState("%q has already signed emergency action %q", signer, actionID)
	}
	action.Signatures[signer] = sig
	m.mu.Unlock()

	view.AppendAudit("emergency_action_signed", signer, "", map[string]interface{}{
		"action_id": actionID,
	})
	return nil
}

// ExecuteAction applies action once it has at least view's emergency
// threshold worth of signatures. Only ActionTypeFreeze is implemented: it
// sets the treasury frozen and stamps LastEmergencyAt.
func (m *Module) ExecuteAction(view TreasuryView, actionID, executor string, at time.Time) error {
	m.mu.Lock()
	action, ok := m.actions[actionID]
	if !ok {
		m.mu.Unlock()
		return domain.NewNotFound("emergency action %q not found", actionID)
	}
	if action.Executed {
		m.mu.Unlock()
		return domain.NewInvalidState("emergency action %q already executed", actionID)
	}
	if len(action.Signatures) < view.EmergencyThreshold() {
		m.mu.Unlock()
		return domain.NewRuntimeFault("emergency action %q has %d signatures, needs %d", actionID, len(action.Signatures), view.EmergencyThreshold())
	}
	action.Executed = true
	executedAt := at
	action.ExecutedAt = &executedAt
	actionType := action.ActionType
	m.mu.Unlock()

	switch actionType {
	case ActionTypeFreeze:
		view.SetFrozen(true)
		view.SetLastEmergencyAt(at)
	}

	view.AppendAudit("emergency_action_executed", executor, "", map[string]interface{}{
		"action_id":   actionID,
		"action_type": actionType,
	})
	return nil
}

// Unfreeze lifts a frozen treasury. Unlike freezing, a single emergency
// signer suffices — no quorum is required. This asymmetry is intentional;
// operators who want symmetric protection should require the full quorum at
// the call site.
func (m *Module) Unfreeze(view TreasuryView, signer, reason string, at time.Time) error {
	if !view.EmergencySigners().Contains(signer) {
		return domain.NewPermissionDenied("%q is not an emergency signer", signer)
	}
	if !view.Frozen() {
		return domain.NewInvalidState("treasury is not frozen")
	}
	view.SetFrozen(false)
	view.AppendAudit("treasury_unfrozen", signer, "", map[string]interface{}{
		"reason": reason,
	})
	return nil
}

// GetAction returns a defensive copy of the action with the given id.
func (m *Module) GetAction(actionID string) (*domain.EmergencyAction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	action, ok := m.actions[actionID]
	if !ok {
		return nil, false
	}
	return action.Clone(), true
}
