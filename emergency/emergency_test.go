package emergency

import (
	"testing"
	"time"

	"treasuryguard/domain"
)

type fakeView struct {
	signers    domain.SignerSet
	threshold  int
	cooldown   int64
	lastAt     *time.Time
	frozen     bool
	auditCalls []string
}

func newFakeView(signers []string, threshold int, cooldown int64) *fakeView {
	return &fakeView{signers: domain.NewSignerSet(signers), threshold: threshold, cooldown: cooldown}
}

func (f *fakeView) EmergencySigners() domain.SignerSet { return f.signers }
func (f *fakeView) EmergencyThreshold() int            { return f.threshold }
func (f *fakeView) CooldownSeconds() int64             { return f.cooldown }
func (f *fakeView) LastEmergencyAt() *time.Time         { return f.lastAt }
func (f *fakeView) SetLastEmergencyAt(t time.Time)      { f.lastAt = &t }
func (f *fakeView) Frozen() bool                        { return f.frozen }
func (f *fakeView) SetFrozen(v bool)                    { f.frozen = v }
func (f *fakeView) AppendAudit(action, actor, proposalID string, details map[string]interface{}) {
	f.auditCalls = append(f.auditCalls, action)
}

func TestEmergencyFreezeFullFlow(t *testing.T) {
	view := newFakeView([]string{"e1", "e2", "e3"}, 2, 86400)
	m := New()
	at := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	action, err := m.CreateAction(view, "e1", ActionTypeFreeze, "compromised key", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.SignAction(view, action.ActionID, "e1", domain.Signature{Signer: "e1", SignatureBytes: []byte("a")}, at); err != nil {
		t.Fatalf("unexpected error signing with e1: %v", err)
	}
	if err := m.SignAction(view, action.ActionID, "e2", domain.Signature{Signer: "e2", SignatureBytes: []byte("b")}, at); err != nil {
		t.Fatalf("unexpected error signing with e2: %v", err)
	}

	if err := m.ExecuteAction(view, action.ActionID, "e1", at); err != nil {
		t.Fatalf("unexpected error executing: %v", err)
	}
	if !view.Frozen() {
		t.Fatal("expected treasury to be frozen after execution")
	}
	if view.LastEmergencyAt() == nil || !view.LastEmergencyAt().Equal(at) {
		t.Fatal("expected LastEmergencyAt to be stamped")
	}
}

func TestEmergencyExecuteFailsBelowThreshold(t *testing.T) {
	view := newFakeView([]string{"e1", "e2", "e3"}, 2, 86400)
	m := New()
	at := time.Now()
	action, _ := m.CreateAction(view, "e1", ActionTypeFreeze, "r", at)
	_ = m.SignAction(view, action.ActionID, "e1", domain.Signature{Signer: "e1", SignatureBytes: []byte("a")}, at)

	if err := m.ExecuteAction(view, action.ActionID, "e1", at); err == nil {
		t.Fatal("expected execution to fail below threshold")
	}
}

func TestEmergencyNonSignerCannotCreateOrSign(t *testing.T) {
	view := newFakeView([]string{"e1"}, 1, 86400)
	m := New()
	at := time.Now()
	if _, err := m.CreateAction(view, "mallory", ActionTypeFreeze, "r", at); err == nil {
		t.Fatal("expected permission denied for non emergency signer")
	}

	action, _ := m.CreateAction(view, "e1", ActionTypeFreeze, "r", at)
	if err := m.SignAction(view, action.ActionID, "mallory", domain.Signature{Signer: "mallory", SignatureBytes: []byte("a")}, at); err == nil {
		t.Fatal("expected permission denied signing as non emergency signer")
	}
}

func TestEmergencyDoubleSignRejected(t *testing.T) {
	view := newFakeView([]string{"e1", "e2"}, 2, 86400)
	m := New()
	at := time.Now()
	action, _ := m.CreateAction(view, "e1", ActionTypeFreeze, "r", at)
	sig := domain.Signature{Signer: "e1", SignatureBytes: []byte("a")}
	if err := m.SignAction(view, action.ActionID, "e1", sig, at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.SignAction(view, action.ActionID, "e1", sig, at); err == nil {
		t.Fatal("expected double-sign rejection")
	}
}

func TestEmergencyCooldownBlocksNewAction(t *testing.T) {
	view := newFakeView([]string{"e1"}, 1, 86400)
	start := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	view.SetLastEmergencyAt(start)
	m := New()

	if _, err := m.CreateAction(view, "e1", ActionTypeFreeze, "r", start.Add(time.Hour)); err == nil {
		t.Fatal("expected cooldown to block a new action one hour later")
	}
	if _, err := m.CreateAction(view, "e1", ActionTypeFreeze, "r", start.Add(25*time.Hour)); err != nil {
		t.Fatalf("expected cooldown to have elapsed after 25 hours, got %v", err)
	}
}

func TestUnfreezeRequiresOnlyOneSignerAndCurrentlyFrozen(t *testing.T) {
	view := newFakeView([]string{"e1", "e2"}, 2, 86400)
	m := New()
	at := time.Now()

	if err := m.Unfreeze(view, "e1", "resolved", at); err == nil {
		t.Fatal("expected unfreeze to fail when not frozen")
	}

	view.SetFrozen(true)
	if err := m.Unfreeze(view, "e1", "resolved", at); err != nil {
		t.Fatalf("expected single-signer unfreeze to succeed, got %v", err)
	}
	if view.Frozen() {
		t.Fatal("expected treasury to be unfrozen")
	}
}

func TestUnfreezeRejectsNonEmergencySigner(t *testing.T) {
	view := newFakeView([]string{"e1"}, 1, 86400)
	view.SetFrozen(true)
	m := New()
	if err := m.Unfreeze(view, "mallory", "r", time.Now()); err == nil {
		t.Fatal("expected permission denied")
	}
}
