package treasury

import (
	"sync"
	"time"

	"treasuryguard/domain"
)

// Audit action names emitted by the treasury core. Kept as named constants
// so callers matching on action_name do not depend on string literals
// scattered through the package.
const (
	ActionDeposit                   = "deposit"
	ActionAddSigner                 = "add_signer"
	ActionRemoveSigner              = "remove_signer"
	ActionCreateProposal            = "create_proposal"
	ActionSignProposal              = "sign_proposal"
	ActionExecuteProposal           = "execute_proposal"
	ActionExecuteProposalFailed     = "execute_proposal_failed"
	ActionCancelProposal            = "cancel_proposal"
	ActionEmergencyFreezeInitiated  = "emergency_freeze_initiated"
	ActionEmergencyActionSigned     = "emergency_action_signed"
	ActionEmergencyActionExecuted   = "emergency_action_executed"
	ActionTreasuryUnfrozen          = "treasury_unfrozen"
)

// auditLog is an append-only log guarded by its own mutex, so GetAuditLogs
// can read it without taking the treasury's lock. Entries are timestamped with wall
// clock time at the moment of append, not the caller's injected current_time
// — a deliberate carry-over of the source's minor timestamp inconsistency,
// isolated here behind a clock hook so tests can pin it.
type auditLog struct {
	mu      sync.Mutex
	entries []domain.AuditLogEntry
	clock   func() time.Time
}

func newAuditLog() *auditLog {
	return &auditLog{clock: time.Now}
}

func (l *auditLog) append(action, actor, proposalID string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, domain.AuditLogEntry{
		Timestamp:  l.clock(),
		ActionName: action,
		Actor:      actor,
		ProposalID: proposalID,
		Details:    details,
	})
}

// all returns a defensive copy of every entry in append order.
func (l *auditLog) all() []domain.AuditLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.AuditLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
