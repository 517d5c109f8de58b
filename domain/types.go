// Package domain defines the entities, enums, and canonical hashing shared by
// the policy, emergency, and treasury packages. Nothing in this package
// mutates shared state; it is pure data plus validation helpers.
package domain

import (
	"sort"
	"strings"
	"time"
)

// Category is the closed set of spending categories a proposal may declare.
type Category string

const (
	CategoryOperations  Category = "operations"
	CategoryMarketing   Category = "marketing"
	CategoryDevelopment Category = "development"
	CategoryResearch    Category = "research"
	CategorySecurity    Category = "security"
	CategoryOther       Category = "other"
)

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryOperations, CategoryMarketing, CategoryDevelopment, CategoryResearch, CategorySecurity, CategoryOther:
		return true
	default:
		return false
	}
}

// TransactionType enumerates the supported ledger operations a transaction
// may request against the treasury's balances.
type TransactionType string

const (
	TxTransfer TransactionType = "transfer"
	TxBurn     TransactionType = "burn"
	TxMint     TransactionType = "mint"
)

// Valid reports whether t is a supported transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TxTransfer, TxBurn, TxMint:
		return true
	default:
		return false
	}
}

// Transaction is an immutable spend request bundled inside a Proposal. Callers
// set every field themselves, including TxID; no identifier is generated.
type Transaction struct {
	TxID        string
	TxType      TransactionType
	Recipient   string
	Amount      float64
	CoinType    string
	Description string
	Metadata    map[string]string
}

// Hash returns the canonical content hash of the transaction, stable across
// process runs. It is used both for audit trails and to bind a Signature to
// the transaction it was produced against.
func (t Transaction) Hash() string {
	keys := make([]string, 0, len(t.Metadata))
	for k := range t.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(t.TxID)
	b.WriteByte('|')
	b.WriteString(string(t.TxType))
	b.WriteByte('|')
	b.WriteString(t.Recipient)
	b.WriteByte('|')
	b.WriteString(formatAmount(t.Amount))
	b.WriteByte('|')
	b.WriteString(t.CoinType)
	b.WriteByte('|')
	b.WriteString(t.Description)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(t.Metadata[k])
	}
	return canonicalHash("tx", b.String())
}

// Signature is an opaque-bytes attestation by a signer over a transaction
// hash. Cryptographic verification is explicitly out of scope: a Signature is
// "valid" here only in the structural sense of Valid().
type Signature struct {
	Signer         string
	SignatureBytes []byte
	Timestamp      time.Time
	TxHash         string
}

// Valid reports whether the signature carries a non-empty signer and
// signature payload, the only checks the treasury performs on signatures.
func (s Signature) Valid() bool {
	return strings.TrimSpace(s.Signer) != "" && len(s.SignatureBytes) > 0
}

// ProposalStatus is the lifecycle state of a Proposal.
type ProposalStatus string

const (
	ProposalPending        ProposalStatus = "pending"
	ProposalTimeLocked     ProposalStatus = "time_locked"
	ProposalReadyToExecute ProposalStatus = "ready_to_execute"
	ProposalExecuted       ProposalStatus = "executed"
	ProposalCancelled      ProposalStatus = "cancelled"
	ProposalFailed         ProposalStatus = "failed"
)

// Terminal reports whether the status is one from which no further
// transitions are permitted.
func (s ProposalStatus) Terminal() bool {
	switch s {
	case ProposalExecuted, ProposalCancelled, ProposalFailed:
		return true
	default:
		return false
	}
}

// Signable reports whether proposals in this status may still accrue
// signatures. Both Pending and TimeLocked are accepted as the initial
// signable state; Pending exists for taxonomy completeness even though
// CreateProposal always produces TimeLocked.
func (s ProposalStatus) Signable() bool {
	return s == ProposalPending || s == ProposalTimeLocked || s == ProposalReadyToExecute
}

// Proposal is a bundle of 1-50 transactions pending multi-signature approval.
type Proposal struct {
	ProposalID              string
	Creator                 string
	Transactions            []Transaction
	Category                Category
	Description             string
	ThresholdRequired       int
	CreatedAt               time.Time
	TimeLockDurationSeconds int64
	Status                  ProposalStatus
	Signatures              map[string]Signature
	ExecutedAt              *time.Time
	CancelledAt             *time.Time
}

// Clone returns a deep copy so callers (and the treasury's internal storage)
// never share mutable slices or maps with a caller-held reference.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	clone := *p
	if len(p.Transactions) > 0 {
		clone.Transactions = append([]Transaction(nil), p.Transactions...)
		for i := range clone.Transactions {
			if p.Transactions[i].Metadata != nil {
				md := make(map[string]string, len(p.Transactions[i].Metadata))
				for k, v := range p.Transactions[i].Metadata {
					md[k] = v
				}
				clone.Transactions[i].Metadata = md
			}
		}
	}
	if p.Signatures != nil {
		clone.Signatures = make(map[string]Signature, len(p.Signatures))
		for k, v := range p.Signatures {
			clone.Signatures[k] = v
		}
	}
	if p.ExecutedAt != nil {
		t := *p.ExecutedAt
		clone.ExecutedAt = &t
	}
	if p.CancelledAt != nil {
		t := *p.CancelledAt
		clone.CancelledAt = &t
	}
	return &clone
}

// Hash returns the canonical content hash of the proposal, folding in every
// transaction's own hash so the result changes if any line item changes.
func (p *Proposal) Hash() string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(p.ProposalID)
	b.WriteByte('|')
	b.WriteString(p.Creator)
	b.WriteByte('|')
	b.WriteString(string(p.Category))
	b.WriteByte('|')
	b.WriteString(p.Description)
	for _, tx := range p.Transactions {
		b.WriteByte('|')
		b.WriteString(tx.Hash())
	}
	return canonicalHash("proposal", b.String())
}

// SpendingRecord is an append-only debit entry created when a proposal
// reaches Executed.
type SpendingRecord struct {
	Amount     float64
	Timestamp  time.Time
	Category   Category
	ProposalID string
	TxHash     string
}

// TreasuryBalance tracks the available amount of one asset. Amount must
// never go negative; callers rely on the treasury package to enforce this.
type TreasuryBalance struct {
	CoinType    string
	Amount      float64
	LastUpdated time.Time
}

// SignerSet is an insertion-order-independent, deterministically-iterable
// set of signer identities.
type SignerSet map[string]struct{}

// NewSignerSet builds a SignerSet from a slice, de-duplicating entries.
func NewSignerSet(signers []string) SignerSet {
	set := make(SignerSet, len(signers))
	for _, s := range signers {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			continue
		}
		set[trimmed] = struct{}{}
	}
	return set
}

// Contains reports whether signer is a member of the set.
func (s SignerSet) Contains(signer string) bool {
	_, ok := s[signer]
	return ok
}

// Add inserts signer into the set, a no-op if already present.
func (s SignerSet) Add(signer string) {
	s[signer] = struct{}{}
}

// Remove deletes signer from the set, a no-op if absent.
func (s SignerSet) Remove(signer string) {
	delete(s, signer)
}

// Len returns the number of members.
func (s SignerSet) Len() int { return len(s) }

// Sorted returns the members in a stable, deterministic order, used whenever
// the set must be iterated for audit logs or reproducible output.
func (s SignerSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for signer := range s {
		out = append(out, signer)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (s SignerSet) Clone() SignerSet {
	clone := make(SignerSet, len(s))
	for k := range s {
		clone[k] = struct{}{}
	}
	return clone
}

// TreasuryConfig captures the signer roster, thresholds, and emergency
// sub-quorum governing a single treasury instance.
type TreasuryConfig struct {
	TreasuryID               string
	Signers                  SignerSet
	Threshold                int
	EmergencyThreshold       int
	EmergencySigners         SignerSet
	EmergencyCooldownSeconds int64
	LastEmergencyAt          *time.Time
}

// DefaultEmergencyCooldownSeconds is the fallback cooldown (24h) applied when
// a TreasuryConfig does not specify one.
const DefaultEmergencyCooldownSeconds int64 = 86400

// EmergencyAction is a single quorum-gated emergency operation (currently
// only "freeze" is implemented against treasury state).
type EmergencyAction struct {
	ActionID     string
	ActionType   string
	InitiatedBy  string
	InitiatedAt  time.Time
	Reason       string
	Signatures   map[string]Signature
	Executed     bool
	ExecutedAt   *time.Time
}

// Clone returns a deep copy of the emergency action.
func (a *EmergencyAction) Clone() *EmergencyAction {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Signatures != nil {
		clone.Signatures = make(map[string]Signature, len(a.Signatures))
		for k, v := range a.Signatures {
			clone.Signatures[k] = v
		}
	}
	if a.ExecutedAt != nil {
		t := *a.ExecutedAt
		clone.ExecutedAt = &t
	}
	return &clone
}

// AuditLogEntry is a single append-only record in the treasury's audit trail.
type AuditLogEntry struct {
	Timestamp  time.Time
	ActionName string
	Actor      string
	ProposalID string
	Details    map[string]interface{}
}
