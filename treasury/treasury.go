// Package treasury implements the proposal state machine: the core owning
// balances, proposals, spending history and the audit log, orchestrating
// policy validation and atomic multi-transaction execution.
package treasury

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"treasuryguard/domain"
	"treasuryguard/emergency"
	"treasuryguard/events"
	"treasuryguard/observability/logging"
	"treasuryguard/observability/metrics"
	"treasuryguard/policy"
)

const maxTransactionsPerProposal = 50

// Option configures optional Treasury dependencies at construction time.
type Option func(*Treasury)

// WithLogger overrides the default slog logger (slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(t *Treasury) { t.logger = logger }
}

// WithPolicyManager overrides the default empty policy manager, letting
// callers pre-populate policies before any proposal is created.
func WithPolicyManager(m *policy.Manager) Option {
	return func(t *Treasury) { t.policies = m }
}

// WithEmergencyCooldownSeconds overrides DefaultEmergencyCooldownSeconds.
func WithEmergencyCooldownSeconds(seconds int64) Option {
	return func(t *Treasury) { t.config.EmergencyCooldownSeconds = seconds }
}

// WithMetrics attaches a Prometheus metrics registry. Callers typically pass
// metrics.Treasury(); a nil receiver on every TreasuryMetrics method makes
// this option optional.
func WithMetrics(m *metrics.TreasuryMetrics) Option {
	return func(t *Treasury) { t.metrics = m }
}

// WithEmitter attaches an events.Emitter so an external shell can subscribe
// to proposal and emergency state changes without polling the audit log.
// Defaults to events.NoopEmitter{}.
func WithEmitter(e events.Emitter) Option {
	return func(t *Treasury) { t.emitter = e }
}

// Treasury is the single owner of one treasury's balances, proposals,
// spending history, and audit log. It is safe for concurrent use, though the
// design assumes a single serialized caller per the governing specification;
// the mutex exists to make that assumption safe rather than to enable
// genuine concurrent throughput.
type Treasury struct {
	mu sync.Mutex

	config     domain.TreasuryConfig
	balances   map[string]domain.TreasuryBalance
	proposals  map[string]*domain.Proposal
	spending   []domain.SpendingRecord
	frozen     bool
	audit      *auditLog
	policies   *policy.Manager
	emergency  *emergency.Module
	logger     *slog.Logger
	metrics    *metrics.TreasuryMetrics
	emitter    events.Emitter
}

// New constructs a Treasury. emergencyThreshold defaults to
// floor(len(signers)/2)+1 and emergencySigners defaults to signers when the
// corresponding argument is zero/nil.
func New(treasuryID string, signers []string, threshold int, emergencyThreshold int, emergencySigners []string, opts ...Option) (*Treasury, error) {
	signerSet := domain.NewSignerSet(signers)
	if signerSet.Len() == 0 {
		return nil, domain.NewInvalidArgument("treasury must have at least one signer")
	}
	if threshold < 1 || threshold > signerSet.Len() {
		return nil, domain.NewInvalidArgument("threshold must be between 1 and %d, got %d", signerSet.Len(), threshold)
	}

	emergencySet := domain.NewSignerSet(emergencySigners)
	if emergencySet.Len() == 0 {
		emergencySet = signerSet.Clone()
	}
	if emergencyThreshold <= 0 {
		emergencyThreshold = signerSet.Len()/2 + 1
	}
	if emergencyThreshold > emergencySet.Len() {
		return nil, domain.NewInvalidArgument("emergency threshold must be at most %d, got %d", emergencySet.Len(), emergencyThreshold)
	}

	t := &Treasury{
		config: domain.TreasuryConfig{
			TreasuryID:               treasuryID,
			Signers:                  signerSet,
			Threshold:                threshold,
			EmergencyThreshold:       emergencyThreshold,
			EmergencySigners:         emergencySet,
			EmergencyCooldownSeconds: domain.DefaultEmergencyCooldownSeconds,
		},
		balances:  make(map[string]domain.TreasuryBalance),
		proposals: make(map[string]*domain.Proposal),
		audit:     newAuditLog(),
		policies:  policy.NewManager(),
		emergency: emergency.New(),
		logger:    slog.Default(),
		emitter:   events.NoopEmitter{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Policies returns the treasury's policy manager so callers can register
// policies before proposals start flowing.
func (t *Treasury) Policies() *policy.Manager { return t.policies }

// --- Deposits & balances -------------------------------------------------

// Deposit credits coinType's balance by amount, which must be strictly
// positive. No signer check is performed; depositor is recorded in the
// audit log only.
func (t *Treasury) Deposit(depositor, coinType string, amount float64, at time.Time) error {
	if amount <= 0 {
		return domain.NewInvalidArgument("deposit amount must be positive, got %v", amount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	bal := t.balances[coinType]
	bal.CoinType = coinType
	bal.Amount += amount
	bal.LastUpdated = at
	t.balances[coinType] = bal

	t.audit.append(ActionDeposit, depositor, "", map[string]interface{}{
		"coin_type": coinType,
		"amount":    amount,
	})
	return nil
}

// GetBalance returns the balance for coinType, or the zero balance if none.
func (t *Treasury) GetBalance(coinType string) domain.TreasuryBalance {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[coinType]
}

// GetAllBalances returns every tracked balance.
func (t *Treasury) GetAllBalances() []domain.TreasuryBalance {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.TreasuryBalance, 0, len(t.balances))
	for _, b := range t.balances {
		out = append(out, b)
	}
	return out
}

// --- Signer management ----------------------------------------------------

// AddSigner adds newSigner unconditionally, provided authorizer is a current
// signer.
func (t *Treasury) AddSigner(newSigner, authorizer string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.config.Signers.Contains(authorizer) {
		return domain.NewPermissionDenied("%q is not a current signer", authorizer)
	}
	t.config.Signers.Add(newSigner)
	t.audit.append(ActionAddSigner, authorizer, "", map[string]interface{}{"new_signer": newSigner})
	return nil
}

// RemoveSigner removes target, provided authorizer is a current signer and
// the removal would not drop the signer count below the configured
// threshold. target is also purged from the emergency signer set.
func (t *Treasury) RemoveSigner(target, authorizer string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.config.Signers.Contains(authorizer) {
		return domain.NewPermissionDenied("%q is not a current signer", authorizer)
	}
	if t.config.Signers.Len()-1 < t.config.Threshold {
		return domain.NewInvalidState("removing %q would drop signer count below threshold %d", target, t.config.Threshold)
	}
	t.config.Signers.Remove(target)
	t.config.EmergencySigners.Remove(target)
	t.audit.append(ActionRemoveSigner, authorizer, "", map[string]interface{}{"removed_signer": target})
	return nil
}

// --- Proposal lifecycle ----------------------------------------------------

// CreateProposal validates and registers a new proposal. The policy set
// computes the proposal's required threshold (at least config.Threshold)
// and time-lock duration at creation time.
func (t *Treasury) CreateProposal(creator string, transactions []domain.Transaction, category domain.Category, description string, at time.Time) (*domain.Proposal, error) {
	if len(transactions) == 0 {
		return nil, domain.NewInvalidArgument("proposal must contain at least one transaction")
	}
	if len(transactions) > maxTransactionsPerProposal {
		return nil, domain.NewInvalidArgument("proposal exceeds max of %d transactions", maxTransactionsPerProposal)
	}
	if !category.Valid() {
		return nil, domain.NewInvalidArgument("invalid category %q", category)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.config.Signers.Contains(creator) {
		return nil, domain.NewPermissionDenied("%q is not a current signer", creator)
	}
	if t.frozen {
		return nil, domain.NewRuntimeFault("treasury is frozen")
	}

	createCtx := policy.NewContext(category, at, nil, policy.PhaseCreate)
	for _, tx := range transactions {
		if err := t.policies.ValidateTransaction(tx, createCtx); err != nil {
			if policyID, ok := err.(*domain.Error); ok {
				t.metrics.RecordPolicyViolation(policyID.PolicyID)
			}
			return nil, err
		}
	}

	threshold := t.policies.RequiredThreshold(transactions)
	if threshold < t.config.Threshold {
		threshold = t.config.Threshold
	}
	lockSeconds := t.policies.RequiredTimeLock(transactions, category)

	proposal := &domain.Proposal{
		ProposalID:              uuid.NewString(),
		Creator:                 creator,
		Transactions:            append([]domain.Transaction(nil), transactions...),
		Category:                category,
		Description:             description,
		ThresholdRequired:       threshold,
		CreatedAt:               at,
		TimeLockDurationSeconds: lockSeconds,
		Status:                  domain.ProposalTimeLocked,
		Signatures:              make(map[string]domain.Signature),
	}
	t.proposals[proposal.ProposalID] = proposal

	t.audit.append(ActionCreateProposal, creator, proposal.ProposalID, map[string]interface{}{
		"threshold_required":         threshold,
		"time_lock_duration_seconds": lockSeconds,
		"category":                   string(category),
	})
	t.logger.Info("proposal created",
		"proposal_id", proposal.ProposalID,
		"creator", creator,
		"threshold_required", threshold,
		"time_lock_duration_seconds", lockSeconds,
	)
	t.metrics.RecordProposalCreated(string(category))
	t.emitter.Emit(events.Attributed{Type: "proposal_created", Attributes: map[string]string{
		"proposal_id": proposal.ProposalID,
		"creator":     creator,
		"category":    string(category),
	}})
	return proposal.Clone(), nil
}

// SignProposal records signer's signature against proposal, which must be
// signable (non-terminal) and a current signer at the moment of signing.
// Signer removal does not retroactively invalidate a signature already
// recorded.
func (t *Treasury) SignProposal(proposalID, signer string, sig domain.Signature, at time.Time) error {
	if !sig.Valid() {
		return domain.NewInvalidArgument("signature must carry a non-empty signer and payload")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	proposal, ok := t.proposals[proposalID]
	if !ok {
		return domain.NewNotFound("proposal %q not found", proposalID)
	}
	if !t.config.Signers.Contains(signer) {
		return domain.NewPermissionDenied("%q is not a current signer", signer)
	}
	if !proposal.Status.Signable() {
		return domain.NewInvalidState("proposal %q is not in a signable state (%s)", proposalID, proposal.Status)
	}
	if _, exists := proposal.Signatures[signer]; exists {
		return domain.NewInvalidArgument("%q has already signed proposal %q", signer, proposalID)
	}

	sig.Timestamp = at
	proposal.Signatures[signer] = sig

	t.audit.append(ActionSignProposal, signer, proposalID, map[string]interface{}{
		"signature_count": len(proposal.Signatures),
	})
	t.logger.Info("proposal signed",
		"proposal_id", proposalID,
		"signer", signer,
		logging.MaskField("signature_bytes", string(sig.SignatureBytes)),
		"signatures_collected", len(proposal.Signatures),
		"threshold_required", proposal.ThresholdRequired,
	)
	t.metrics.RecordSignature(signer)
	t.emitter.Emit(events.Attributed{Type: "proposal_signed", Attributes: map[string]string{
		"proposal_id": proposalID,
		"signer":      signer,
	}})
	return nil
}

// CancelProposal transitions proposal to Cancelled. Permitted for the
// original creator or any existing signatory; rejected on terminal states.
func (t *Treasury) CancelProposal(proposalID, actor string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	proposal, ok := t.proposals[proposalID]
	if !ok {
		return domain.NewNotFound("proposal %q not found", proposalID)
	}
	if proposal.Status.Terminal() {
		return domain.NewInvalidState("proposal %q is already in terminal status %s", proposalID, proposal.Status)
	}
	_, isSigner := proposal.Signatures[actor]
	if actor != proposal.Creator && !isSigner {
		return domain.NewPermissionDenied("%q is neither the creator nor a signatory of proposal %q", actor, proposalID)
	}

	cancelledAt := at
	proposal.Status = domain.ProposalCancelled
	proposal.CancelledAt = &cancelledAt

	t.audit.append(ActionCancelProposal, actor, proposalID, nil)
	t.metrics.RecordProposalCancelled()
	t.emitter.Emit(events.Attributed{Type: "proposal_cancelled", Attributes: map[string]string{
		"proposal_id": proposalID,
		"actor":       actor,
	}})
	return nil
}

// ExecuteProposal checks the three execution preconditions, re-validates
// every transaction against fresh state, and — only if every transaction
// passes — debits balances and appends spending records. Unlike the source
// this module was adapted from, execution is two-phase: all planned debits
// are computed and validated before any balance is mutated, so a failure
// partway through never leaves the treasury in a partially-debited state.
func (t *Treasury) ExecuteProposal(proposalID, executor string, at time.Time) error {
	started := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()

	proposal, ok := t.proposals[proposalID]
	if !ok {
		return domain.NewNotFound("proposal %q not found", proposalID)
	}
	if proposal.Status.Terminal() {
		return domain.NewInvalidState("proposal %q is already in terminal status %s", proposalID, proposal.Status)
	}

	unlockAt := proposal.CreatedAt.Add(time.Duration(proposal.TimeLockDurationSeconds) * time.Second)
	if at.Before(unlockAt) {
		return domain.NewInvalidState("proposal %q is still time-locked until %s", proposalID, unlockAt)
	}
	if len(proposal.Signatures) < proposal.ThresholdRequired {
		return domain.NewInvalidState("proposal %q has %d signatures, needs %d", proposalID, len(proposal.Signatures), proposal.ThresholdRequired)
	}

	execCtx := policy.NewContext(proposal.Category, at, proposal.Signatures, policy.PhaseExecute)

	type plannedDebit struct {
		coinType string
		amount   float64
		txHash   string
	}
	planned := make([]plannedDebit, 0, len(proposal.Transactions))
	committed := make(map[string]float64)

	for _, tx := range proposal.Transactions {
		if err := t.policies.ValidateTransaction(tx, execCtx); err != nil {
			t.failProposal(proposal, executor, err, started)
			return err
		}
		bal, exists := t.balances[tx.CoinType]
		if !exists || bal.Amount-committed[tx.CoinType] < tx.Amount {
			err := domain.NewRuntimeFault("insufficient balance of %s for transaction %s", tx.CoinType, tx.TxID)
			t.failProposal(proposal, executor, err, started)
			return err
		}
		committed[tx.CoinType] += tx.Amount
		planned = append(planned, plannedDebit{coinType: tx.CoinType, amount: tx.Amount, txHash: tx.Hash()})
	}

	for _, d := range planned {
		bal := t.balances[d.coinType]
		bal.Amount -= d.amount
		bal.LastUpdated = at
		t.balances[d.coinType] = bal

		t.spending = append(t.spending, domain.SpendingRecord{
			Amount:     d.amount,
			Timestamp:  at,
			Category:   proposal.Category,
			ProposalID: proposal.ProposalID,
			TxHash:     d.txHash,
		})
	}

	executedAt := at
	proposal.Status = domain.ProposalExecuted
	proposal.ExecutedAt = &executedAt

	t.audit.append(ActionExecuteProposal, executor, proposalID, map[string]interface{}{
		"transaction_count": len(proposal.Transactions),
	})
	t.logger.Info("proposal executed", "proposal_id", proposalID, "executor", executor)
	t.metrics.RecordProposalExecuted(string(proposal.Category), time.Since(started))
	t.emitter.Emit(events.Attributed{Type: "proposal_executed", Attributes: map[string]string{
		"proposal_id": proposalID,
		"executor":    executor,
	}})
	return nil
}

// failProposal transitions proposal to Failed and logs the reason. Called
// only while t.mu is already held.
func (t *Treasury) failProposal(proposal *domain.Proposal, executor string, cause error, started time.Time) {
	proposal.Status = domain.ProposalFailed
	t.audit.append(ActionExecuteProposalFailed, executor, proposal.ProposalID, map[string]interface{}{
		"reason": cause.Error(),
	})
	t.logger.Warn("proposal execution failed", "proposal_id", proposal.ProposalID, "executor", executor, "error", cause)
	t.metrics.RecordProposalFailed(string(proposal.Category), time.Since(started))
	if policyErr, ok := cause.(*domain.Error); ok && policyErr.PolicyID != "" {
		t.metrics.RecordPolicyViolation(policyErr.PolicyID)
	}
	t.emitter.Emit(events.Attributed{Type: "proposal_failed", Attributes: map[string]string{
		"proposal_id": proposal.ProposalID,
		"executor":    executor,
		"reason":      cause.Error(),
	}})
}

// GetProposal returns a defensive copy of the proposal with the given id.
func (t *Treasury) GetProposal(proposalID string) (*domain.Proposal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	proposal, ok := t.proposals[proposalID]
	if !ok {
		return nil, domain.NewNotFound("proposal %q not found", proposalID)
	}
	return proposal.Clone(), nil
}

// ListProposals returns every proposal, optionally filtered to a single
// status.
func (t *Treasury) ListProposals(status *domain.ProposalStatus) []*domain.Proposal {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*domain.Proposal, 0, len(t.proposals))
	for _, p := range t.proposals {
		if status != nil && p.Status != *status {
			continue
		}
		out = append(out, p.Clone())
	}
	return out
}

// GetSpendingHistory returns every spending record, optionally filtered to a
// single category.
func (t *Treasury) GetSpendingHistory(category *domain.Category) []domain.SpendingRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.SpendingRecord, 0, len(t.spending))
	for _, r := range t.spending {
		if category != nil && r.Category != *category {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SpendingSince implements policy.HistoryProvider, letting every
// SpendingLimitPolicy instance query the treasury's single spending-record
// store instead of maintaining a desynchronized copy of its own. It does not
// take t.mu: policies call it from inside CreateProposal and ExecuteProposal,
// which already hold the lock. Other callers read history through
// GetSpendingHistory.
func (t *Treasury) SpendingSince(start time.Time) []domain.SpendingRecord {
	out := make([]domain.SpendingRecord, 0)
	for _, r := range t.spending {
		if !r.Timestamp.Before(start) {
			out = append(out, r)
		}
	}
	return out
}

// --- Emergency module pass-throughs ---------------------------------------

// TriggerEmergencyFreeze initiates a freeze action. initiator must be a
// current emergency signer and the cooldown must have elapsed.
func (t *Treasury) TriggerEmergencyFreeze(initiator, reason string, at time.Time) (*domain.EmergencyAction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	action, err := t.emergency.CreateAction(t, initiator, emergency.ActionTypeFreeze, reason, at)
	outcome := "created"
	if err != nil {
		outcome = "rejected"
	}
	t.metrics.RecordEmergencyAction(emergency.ActionTypeFreeze, outcome)
	return action, err
}

// SignEmergencyAction records signer's signature against an emergency action.
func (t *Treasury) SignEmergencyAction(actionID, signer string, sig domain.Signature, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.emergency.SignAction(t, actionID, signer, sig, at)
	outcome := "signed"
	if err != nil {
		outcome = "rejected"
	}
	t.metrics.RecordEmergencyAction(emergency.ActionTypeFreeze, outcome)
	return err
}

// ExecuteEmergencyAction applies an emergency action once it has reached the
// emergency threshold.
func (t *Treasury) ExecuteEmergencyAction(actionID, executor string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.emergency.ExecuteAction(t, actionID, executor, at)
	if err != nil {
		t.metrics.RecordEmergencyAction(emergency.ActionTypeFreeze, "rejected")
		return err
	}
	t.metrics.RecordEmergencyAction(emergency.ActionTypeFreeze, "executed")
	t.metrics.SetFrozen(t.frozen)
	t.emitter.Emit(events.Attributed{Type: "treasury_frozen", Attributes: map[string]string{
		"action_id": actionID,
		"executor":  executor,
	}})
	return nil
}

// UnfreezeTreasury lifts a frozen treasury. A single emergency signer
// suffices; no quorum is required (documented asymmetry, see emergency
// package).
func (t *Treasury) UnfreezeTreasury(signer, reason string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.emergency.Unfreeze(t, signer, reason, at)
	if err != nil {
		return err
	}
	t.metrics.SetFrozen(t.frozen)
	t.emitter.Emit(events.Attributed{Type: "treasury_unfrozen", Attributes: map[string]string{
		"signer": signer,
		"reason": reason,
	}})
	return nil
}

// GetAuditLogs returns every audit entry in append order.
func (t *Treasury) GetAuditLogs() []domain.AuditLogEntry {
	return t.audit.all()
}

// TreasuryState is a read-only snapshot of a treasury's configuration and
// live status, returned by GetTreasuryState.
type TreasuryState struct {
	Config   domain.TreasuryConfig
	Frozen   bool
	Balances []domain.TreasuryBalance
}

// GetTreasuryState returns a snapshot of the treasury's configuration,
// frozen flag, and current balances.
func (t *Treasury) GetTreasuryState() TreasuryState {
	t.mu.Lock()
	defer t.mu.Unlock()
	balances := make([]domain.TreasuryBalance, 0, len(t.balances))
	for _, b := range t.balances {
		balances = append(balances, b)
	}
	cfg := t.config
	cfg.Signers = t.config.Signers.Clone()
	cfg.EmergencySigners = t.config.EmergencySigners.Clone()
	return TreasuryState{Config: cfg, Frozen: t.frozen, Balances: balances}
}

// --- emergency.TreasuryView implementation --------------------------------
//
// These methods assume t.mu is already held by the caller (every entry point
// above that reaches into the emergency module locks first), matching the
// emergency package's expectation of a single-threaded view.

func (t *Treasury) EmergencySigners() domain.SignerSet { return t.config.EmergencySigners }
func (t *Treasury) EmergencyThreshold() int            { return t.config.EmergencyThreshold }
func (t *Treasury) CooldownSeconds() int64             { return t.config.EmergencyCooldownSeconds }
func (t *Treasury) LastEmergencyAt() *time.Time        { return t.config.LastEmergencyAt }

func (t *Treasury) SetLastEmergencyAt(at time.Time) {
	t.config.LastEmergencyAt = &at
}

func (t *Treasury) Frozen() bool { return t.frozen }

func (t *Treasury) SetFrozen(v bool) { t.frozen = v }

func (t *Treasury) AppendAudit(action, actor, proposalID string, details map[string]interface{}) {
	t.audit.append(action, actor, proposalID, details)
}
