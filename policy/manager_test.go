package policy

import (
	"testing"

	"treasuryguard/domain"
)

func TestManagerAddPolicyRejectsDuplicateAndNil(t *testing.T) {
	m := NewManager()
	p := NewCategoryPolicy("dup")
	if err := m.AddPolicy(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.AddPolicy(p); err == nil {
		t.Fatal("expected error registering duplicate policy id")
	}
	if err := m.AddPolicy(nil); err == nil {
		t.Fatal("expected error registering nil policy")
	}
}

func TestManagerRemovePolicy(t *testing.T) {
	m := NewManager()
	p := NewCategoryPolicy("cat-1")
	_ = m.AddPolicy(p)

	if err := m.RemovePolicy("cat-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.RemovePolicy("cat-1"); err == nil {
		t.Fatal("expected not-found error removing twice")
	}
	if _, ok := m.GetPolicy("cat-1"); ok {
		t.Fatal("expected policy to be gone after removal")
	}
}

func TestManagerListPoliciesPreservesInsertionOrder(t *testing.T) {
	m := NewManager()
	ids := []string{"p1", "p2", "p3"}
	for _, id := range ids {
		_ = m.AddPolicy(NewCategoryPolicy(id))
	}
	list := m.ListPolicies()
	if len(list) != len(ids) {
		t.Fatalf("expected %d policies, got %d", len(ids), len(list))
	}
	for i, p := range list {
		if p.PolicyID() != ids[i] {
			t.Fatalf("expected order %v, got position %d = %s", ids, i, p.PolicyID())
		}
	}
}

func TestManagerValidateTransactionStopsAtFirstViolation(t *testing.T) {
	m := NewManager()
	wl := NewWhitelistPolicy("wl-1")
	_ = m.AddPolicy(wl)
	cat := NewCategoryPolicy("cat-1", domain.CategoryOperations)
	_ = m.AddPolicy(cat)

	ctx := NewContext(domain.CategoryMarketing, fixedTime(), nil, PhaseCreate)
	err := m.ValidateTransaction(domain.Transaction{Recipient: "unknown"}, ctx)
	if err == nil {
		t.Fatal("expected a violation")
	}
	kind, ok := domain.KindOf(err)
	if !ok || kind != domain.ErrPolicyViolation {
		t.Fatalf("expected policy violation kind, got %v (%v)", kind, ok)
	}
}

func TestManagerDisabledPolicyIsSkipped(t *testing.T) {
	m := NewManager()
	wl := NewWhitelistPolicy("wl-1")
	wl.SetEnabled(false)
	_ = m.AddPolicy(wl)

	ctx := NewContext(domain.CategoryOperations, fixedTime(), nil, PhaseCreate)
	if err := m.ValidateTransaction(domain.Transaction{Recipient: "unknown"}, ctx); err != nil {
		t.Fatalf("expected disabled policy to be skipped, got %v", err)
	}
}
