package domain

import "testing"

func TestTransactionHashStableAndSensitive(t *testing.T) {
	tx := Transaction{TxID: "t1", TxType: TxTransfer, Recipient: "r1", Amount: 100, CoinType: "SUI"}
	h1 := tx.Hash()
	h2 := tx.Hash()
	if h1 != h2 {
		t.Fatalf("hash not stable across calls: %s vs %s", h1, h2)
	}
	tx.Amount = 101
	if tx.Hash() == h1 {
		t.Fatalf("hash did not change when amount changed")
	}
}

func TestTransactionHashMetadataOrderIndependent(t *testing.T) {
	a := Transaction{TxID: "t1", Metadata: map[string]string{"a": "1", "b": "2"}}
	b := Transaction{TxID: "t1", Metadata: map[string]string{"b": "2", "a": "1"}}
	if a.Hash() != b.Hash() {
		t.Fatalf("metadata map iteration order should not affect the hash")
	}
}

func TestSignatureValid(t *testing.T) {
	cases := []struct {
		name string
		sig  Signature
		want bool
	}{
		{"valid", Signature{Signer: "alice", SignatureBytes: []byte{1}}, true},
		{"empty signer", Signature{Signer: "", SignatureBytes: []byte{1}}, false},
		{"empty bytes", Signature{Signer: "alice", SignatureBytes: nil}, false},
		{"both empty", Signature{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.sig.Valid(); got != tc.want {
				t.Fatalf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestProposalStatusTerminalAndSignable(t *testing.T) {
	terminal := []ProposalStatus{ProposalExecuted, ProposalCancelled, ProposalFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
		if s.Signable() {
			t.Fatalf("%s should not be signable", s)
		}
	}
	nonTerminal := []ProposalStatus{ProposalPending, ProposalTimeLocked, ProposalReadyToExecute}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
		if !s.Signable() {
			t.Fatalf("%s should be signable", s)
		}
	}
}

func TestProposalCloneIsIndependent(t *testing.T) {
	p := &Proposal{
		ProposalID:   "p1",
		Transactions: []Transaction{{TxID: "t1", Metadata: map[string]string{"k": "v"}}},
		Signatures:   map[string]Signature{"alice": {Signer: "alice", SignatureBytes: []byte{1}}},
	}
	clone := p.Clone()
	clone.Transactions[0].Metadata["k"] = "mutated"
	clone.Signatures["bob"] = Signature{Signer: "bob", SignatureBytes: []byte{2}}

	if p.Transactions[0].Metadata["k"] != "v" {
		t.Fatalf("mutating clone leaked into original metadata")
	}
	if _, ok := p.Signatures["bob"]; ok {
		t.Fatalf("mutating clone leaked into original signatures")
	}
}

func TestSignerSetOperations(t *testing.T) {
	set := NewSignerSet([]string{"a", "b", "b", "  ", "c"})
	if set.Len() != 3 {
		t.Fatalf("expected 3 unique signers, got %d", set.Len())
	}
	if !set.Contains("a") {
		t.Fatalf("expected set to contain a")
	}
	set.Remove("a")
	if set.Contains("a") {
		t.Fatalf("expected a to be removed")
	}
	clone := set.Clone()
	clone.Add("z")
	if set.Contains("z") {
		t.Fatalf("clone mutation leaked into original set")
	}
	sorted := NewSignerSet([]string{"c", "a", "b"}).Sorted()
	if sorted[0] != "a" || sorted[1] != "b" || sorted[2] != "c" {
		t.Fatalf("expected sorted signers, got %v", sorted)
	}
}

func TestCategoryValid(t *testing.T) {
	if !CategoryOperations.Valid() {
		t.Fatalf("expected operations to be valid")
	}
	if Category("bogus").Valid() {
		t.Fatalf("expected bogus category to be invalid")
	}
}
