// Package policy implements the composable validation contract proposals
// must satisfy, and the six concrete policy variants described by the
// treasury's governance model.
package policy

import (
	"time"

	"treasuryguard/domain"
)

// Phase distinguishes validation run at proposal creation (signatures are
// necessarily still empty) from validation re-run at execution time (the
// full signature set is available). ApprovalPolicy uses this to avoid the
// inconsistency the source implementation papered over by always passing an
// empty signature map at creation: see DESIGN.md's open-question log.
type Phase uint8

const (
	PhaseCreate Phase = iota
	PhaseExecute
)

// Context is the explicit input/output pair threaded through every policy's
// Validate call. Policies read Category, CurrentTime, Signatures, and Phase.
// RequiredTimeLockSeconds / RequiredThreshold fold monotonically (max-wins)
// through MergeTimeLock / MergeThreshold; none of the built-in policies call
// them, since TimeLockPolicy and AmountThresholdPolicy contribute through
// TimeLockContributor / ThresholdContributor, which Manager folds instead.
type Context struct {
	Category    domain.Category
	CurrentTime time.Time
	Signatures  map[string]domain.Signature
	Phase       Phase

	RequiredTimeLockSeconds int64
	RequiredThreshold       int
}

// NewContext builds a Context for the given category, clock, and signature
// set. A nil signature map is normalized to an empty map so policies never
// need a nil check.
func NewContext(category domain.Category, at time.Time, signatures map[string]domain.Signature, phase Phase) *Context {
	if signatures == nil {
		signatures = map[string]domain.Signature{}
	}
	return &Context{Category: category, CurrentTime: at, Signatures: signatures, Phase: phase}
}

// MergeTimeLock raises RequiredTimeLockSeconds to seconds if seconds is
// larger than the current value.
func (c *Context) MergeTimeLock(seconds int64) {
	if seconds > c.RequiredTimeLockSeconds {
		c.RequiredTimeLockSeconds = seconds
	}
}

// MergeThreshold raises RequiredThreshold to n if n is larger than the
// current value.
func (c *Context) MergeThreshold(n int) {
	if n > c.RequiredThreshold {
		c.RequiredThreshold = n
	}
}

// Policy is the uniform contract every policy variant satisfies. Rejecting
// policies return a non-nil *domain.Error (kind ErrPolicyViolation) from
// Validate; contributing policies implement TimeLockContributor or
// ThresholdContributor and return nil from Validate. A policy may do both.
type Policy interface {
	PolicyID() string
	PolicyType() string
	Enabled() bool
	SetEnabled(bool)
	Validate(tx domain.Transaction, ctx *Context) error
}

// TimeLockContributor is implemented by policies that raise the proposal's
// required time-lock duration.
type TimeLockContributor interface {
	TimeLockSeconds(tx domain.Transaction, category domain.Category) int64
}

// ThresholdContributor is implemented by policies that raise the proposal's
// required signature threshold.
type ThresholdContributor interface {
	ThresholdFor(amount float64) int
}
