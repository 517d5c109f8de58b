package treasury

import (
	"testing"
	"time"

	"treasuryguard/domain"
	"treasuryguard/policy"
)

// Scenario 1: basic execution with no policies registered.
func TestScenarioBasicExecution(t *testing.T) {
	tr := newTestTreasury(t, []string{"a", "b", "c", "d", "e"}, 3)
	t0 := time.Unix(0, 0)
	if err := tr.Deposit("treasurer", "SUI", 100000, t0); err != nil {
		t.Fatalf("unexpected deposit error: %v", err)
	}

	txs := []domain.Transaction{{TxID: "tx1", TxType: domain.TxTransfer, Recipient: "r", Amount: 2500, CoinType: "SUI"}}
	p, err := tr.CreateProposal("a", txs, domain.CategoryOperations, "basic spend", t0)
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	for _, s := range []string{"a", "b", "c"} {
		if err := tr.SignProposal(p.ProposalID, s, sig(s), t0); err != nil {
			t.Fatalf("unexpected sign error for %s: %v", s, err)
		}
	}

	execAt := t0.Add(3601 * time.Second)
	if err := tr.ExecuteProposal(p.ProposalID, "a", execAt); err != nil {
		t.Fatalf("unexpected execute error: %v", err)
	}

	got, _ := tr.GetProposal(p.ProposalID)
	if got.Status != domain.ProposalExecuted {
		t.Fatalf("expected status Executed, got %s", got.Status)
	}
	if bal := tr.GetBalance("SUI").Amount; bal != 97500 {
		t.Fatalf("expected balance 97500, got %v", bal)
	}
}

// Scenario 2: spending-limit block at the policy level.
func TestScenarioSpendingLimitBlock(t *testing.T) {
	limit := 1000.0
	p := policy.NewSpendingLimitPolicy("spend-limit", policy.PeriodDaily, &fakeNoHistory{})
	p.SetMaxPerTransaction(&limit)

	ctx := policy.NewContext(domain.CategoryOperations, time.Now(), nil, policy.PhaseCreate)
	err := p.Validate(domain.Transaction{Amount: 1500}, ctx)
	if err == nil {
		t.Fatal("expected a policy violation for a transaction above max_per_transaction")
	}
	kind, ok := domain.KindOf(err)
	if !ok || kind != domain.ErrPolicyViolation {
		t.Fatalf("expected PolicyViolation kind, got %v (%v)", kind, ok)
	}
	violationErr, ok := err.(*domain.Error)
	if !ok || violationErr.PolicyID != "spend-limit" {
		t.Fatalf("expected violation to carry policy id spend-limit, got %+v", err)
	}
}

type fakeNoHistory struct{}

func (fakeNoHistory) SpendingSince(time.Time) []domain.SpendingRecord { return nil }

// Scenario 3: whitelist temporary expiry at the policy level.
func TestScenarioWhitelistTemporaryExpiry(t *testing.T) {
	wl := policy.NewWhitelistPolicy("whitelist")
	t0 := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if err := wl.AddTemporary("R", t0.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	passCtx := policy.NewContext(domain.CategoryOperations, t0.Add(30*time.Minute), nil, policy.PhaseCreate)
	if err := wl.Validate(domain.Transaction{Recipient: "R"}, passCtx); err != nil {
		t.Fatalf("expected validation to pass at t0+30m, got %v", err)
	}

	failCtx := policy.NewContext(domain.CategoryOperations, t0.Add(time.Hour), nil, policy.PhaseCreate)
	if err := wl.Validate(domain.Transaction{Recipient: "R"}, failCtx); err == nil {
		t.Fatal("expected validation to fail at t0+1h (strictly expired)")
	}
}

// Scenario 4: amount-threshold escalation drives the treasury's effective
// required signature count above the configured base threshold.
func TestScenarioAmountThresholdEscalation(t *testing.T) {
	manager := policy.NewManager()
	amountPolicy := policy.NewAmountThresholdPolicy("amount-threshold",
		policy.ThresholdRange{Min: 0, Max: 1000, Threshold: 2},
		policy.ThresholdRange{Min: 1000, Max: 10000, Threshold: 3},
		policy.ThresholdRange{Min: 10000, Max: 0, Threshold: 4},
	)
	if err := manager.AddPolicy(amountPolicy); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tr, err := New("treasury-escalation", []string{"a", "b", "c", "d", "e"}, 3, 0, nil, WithPolicyManager(manager))
	if err != nil {
		t.Fatalf("unexpected error constructing treasury: %v", err)
	}
	t0 := time.Unix(0, 0)
	_ = tr.Deposit("treasurer", "SUI", 1_000_000, t0)

	txs := []domain.Transaction{{TxID: "tx1", TxType: domain.TxTransfer, Recipient: "r", Amount: 50000, CoinType: "SUI"}}
	p, err := tr.CreateProposal("a", txs, domain.CategoryOperations, "large spend", t0)
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if p.ThresholdRequired != 4 {
		t.Fatalf("expected required threshold 4, got %d", p.ThresholdRequired)
	}

	for _, s := range []string{"a", "b", "c"} {
		_ = tr.SignProposal(p.ProposalID, s, sig(s), t0)
	}
	if err := tr.ExecuteProposal(p.ProposalID, "a", t0.Add(time.Hour)); err == nil {
		t.Fatal("expected execution to fail with only 3 of 4 required signatures")
	}

	_ = tr.SignProposal(p.ProposalID, "d", sig("d"), t0)
	if err := tr.ExecuteProposal(p.ProposalID, "a", t0.Add(time.Hour)); err != nil {
		t.Fatalf("expected execution to succeed with 4 signatures, got %v", err)
	}
}

// Scenario 5: emergency freeze blocks subsequent proposal creation.
func TestScenarioEmergencyFreeze(t *testing.T) {
	tr, err := New("treasury-emergency", []string{"a", "b", "c"}, 2, 2, []string{"e1", "e2", "e3"})
	if err != nil {
		t.Fatalf("unexpected error constructing treasury: %v", err)
	}
	t0 := time.Unix(0, 0)

	action, err := tr.TriggerEmergencyFreeze("e1", "suspected compromise", t0)
	if err != nil {
		t.Fatalf("unexpected error creating freeze action: %v", err)
	}
	if err := tr.SignEmergencyAction(action.ActionID, "e1", sig("e1"), t0); err != nil {
		t.Fatalf("unexpected error signing with e1: %v", err)
	}
	if err := tr.SignEmergencyAction(action.ActionID, "e2", sig("e2"), t0); err != nil {
		t.Fatalf("unexpected error signing with e2: %v", err)
	}
	if err := tr.ExecuteEmergencyAction(action.ActionID, "e1", t0); err != nil {
		t.Fatalf("unexpected error executing freeze: %v", err)
	}

	if !tr.GetTreasuryState().Frozen {
		t.Fatal("expected treasury.frozen to be true")
	}

	txs := []domain.Transaction{{TxID: "tx1", TxType: domain.TxTransfer, Recipient: "r", Amount: 1, CoinType: "SUI"}}
	_, err = tr.CreateProposal("a", txs, domain.CategoryOperations, "blocked", t0)
	if err == nil {
		t.Fatal("expected create_proposal to fail while frozen")
	}
	kind, ok := domain.KindOf(err)
	if !ok || kind != domain.ErrRuntimeFault {
		t.Fatalf("expected RuntimeFault kind, got %v (%v)", kind, ok)
	}
}

// Scenario 6: time-lock escalation via TimeLockPolicy.
func TestScenarioTimeLockEscalation(t *testing.T) {
	manager := policy.NewManager()
	timeLock := policy.NewTimeLockPolicy("time-lock")
	timeLock.SetBaseLockSeconds(domain.CategoryOperations, 3600)
	if err := manager.AddPolicy(timeLock); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tr, err := New("treasury-timelock", []string{"a", "b"}, 1, 0, nil, WithPolicyManager(manager))
	if err != nil {
		t.Fatalf("unexpected error constructing treasury: %v", err)
	}
	t0 := time.Unix(0, 0)
	_ = tr.Deposit("treasurer", "SUI", 100000, t0)

	txs := []domain.Transaction{{TxID: "tx1", TxType: domain.TxTransfer, Recipient: "r", Amount: 5000, CoinType: "SUI"}}
	p, err := tr.CreateProposal("a", txs, domain.CategoryOperations, "escalated spend", t0)
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	wantLock := int64(3600 + 5*3600)
	if p.TimeLockDurationSeconds != wantLock {
		t.Fatalf("expected lock duration %d, got %d", wantLock, p.TimeLockDurationSeconds)
	}

	_ = tr.SignProposal(p.ProposalID, "a", sig("a"), t0)
	_ = tr.SignProposal(p.ProposalID, "b", sig("b"), t0)

	tooEarly := t0.Add(time.Duration(wantLock-1) * time.Second)
	if err := tr.ExecuteProposal(p.ProposalID, "a", tooEarly); err == nil {
		t.Fatal("expected execution to fail one second before the escalated lock elapses")
	}

	onTime := t0.Add(time.Duration(wantLock) * time.Second)
	if err := tr.ExecuteProposal(p.ProposalID, "a", onTime); err != nil {
		t.Fatalf("expected execution to succeed exactly at the escalated unlock time, got %v", err)
	}
}
