package policy

import (
	"sort"
	"sync"

	"treasuryguard/domain"
)

// ThresholdRange maps a half-open amount range [Min, Max) to a required
// signature count. A Max at or below Min (e.g. 0) means unbounded.
type ThresholdRange struct {
	Min       float64
	Max       float64
	Threshold int
}

func (r ThresholdRange) unbounded() bool { return r.Max <= r.Min }

// AmountThresholdPolicy is a pure contributor: it escalates the required
// signature threshold based on transaction amount and never rejects a
// transaction itself.
type AmountThresholdPolicy struct {
	mu      sync.RWMutex
	id      string
	enabled bool
	ranges  []ThresholdRange // kept sorted by Min
}

// NewAmountThresholdPolicy constructs a policy over the given ranges, sorted
// by Min ascending. Ranges are expected not to overlap; construction does not
// validate that.
func NewAmountThresholdPolicy(id string, ranges ...ThresholdRange) *AmountThresholdPolicy {
	sorted := make([]ThresholdRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })
	return &AmountThresholdPolicy{id: id, enabled: true, ranges: sorted}
}

func (p *AmountThresholdPolicy) PolicyID() string   { return p.id }
func (p *AmountThresholdPolicy) PolicyType() string { return "amount_threshold" }
func (p *AmountThresholdPolicy) Enabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}
func (p *AmountThresholdPolicy) SetEnabled(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = v
}

// AddRange inserts a new range, keeping the set sorted by Min.
func (p *AmountThresholdPolicy) AddRange(r ThresholdRange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ranges = append(p.ranges, r)
	sort.Slice(p.ranges, func(i, j int) bool { return p.ranges[i].Min < p.ranges[j].Min })
}

// ThresholdFor implements ThresholdContributor: it returns the threshold of
// the first range containing amount; if no range matches, it falls back to
// the last (highest-Min) range's threshold.
func (p *AmountThresholdPolicy) ThresholdFor(amount float64) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.ranges) == 0 {
		return 0
	}
	for _, r := range p.ranges {
		if amount < r.Min {
			continue
		}
		if r.unbounded() || amount < r.Max {
			return r.Threshold
		}
	}
	return p.ranges[len(p.ranges)-1].Threshold
}

// Validate implements Policy. AmountThresholdPolicy is purely contributing
// and never raises a violation.
func (p *AmountThresholdPolicy) Validate(domain.Transaction, *Context) error { return nil }
