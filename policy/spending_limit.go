package policy

import (
	"sync"
	"time"

	"treasuryguard/domain"
)

// SpendingPeriod anchors the rolling window SpendingLimitPolicy sums history
// over.
type SpendingPeriod uint8

const (
	PeriodDaily SpendingPeriod = iota
	PeriodWeekly
	PeriodMonthly
)

// HistoryProvider is queried by SpendingLimitPolicy for every transaction it
// validates. The treasury core is the single owner of SpendingRecords and
// satisfies this interface directly, so every SpendingLimitPolicy instance
// consults one shared history instead of a locally duplicated copy (the
// "preferred" resolution of the spending-history-ownership question in
// DESIGN.md).
type HistoryProvider interface {
	SpendingSince(start time.Time) []domain.SpendingRecord
}

// SpendingLimitPolicy rejects transactions that would push cumulative
// spending within the current period window past configured caps. Checks run
// in a fixed order: per-transaction cap, per-category window cap, global
// window cap.
type SpendingLimitPolicy struct {
	mu                sync.RWMutex
	id                string
	enabled           bool
	period            SpendingPeriod
	globalLimit       *float64
	maxPerTransaction *float64
	perCategoryLimit  map[domain.Category]float64
	history           HistoryProvider
}

// NewSpendingLimitPolicy constructs a policy bound to a shared history
// provider (typically the treasury itself).
func NewSpendingLimitPolicy(id string, period SpendingPeriod, history HistoryProvider) *SpendingLimitPolicy {
	return &SpendingLimitPolicy{
		id:               id,
		enabled:          true,
		period:           period,
		perCategoryLimit: make(map[domain.Category]float64),
		history:          history,
	}
}

func (p *SpendingLimitPolicy) PolicyID() string   { return p.id }
func (p *SpendingLimitPolicy) PolicyType() string { return "spending_limit" }
func (p *SpendingLimitPolicy) Enabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}
func (p *SpendingLimitPolicy) SetEnabled(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = v
}

// SetGlobalLimit sets (or, with nil, clears) the cap across every category
// within the window.
func (p *SpendingLimitPolicy) SetGlobalLimit(limit *float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.globalLimit = limit
}

// SetMaxPerTransaction sets (or, with nil, clears) the single-transaction cap.
func (p *SpendingLimitPolicy) SetMaxPerTransaction(limit *float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maxPerTransaction = limit
}

// SetCategoryLimit sets the cap for a single category within the window.
func (p *SpendingLimitPolicy) SetCategoryLimit(category domain.Category, limit float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.perCategoryLimit[category] = limit
}

// windowStart returns the anchor time for the configured period, relative to
// now: local midnight for Daily, the most recent ISO Monday 00:00 for
// Weekly, and the first of the current month 00:00 for Monthly.
func (p *SpendingLimitPolicy) windowStart(now time.Time) time.Time {
	switch p.period {
	case PeriodWeekly:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		offset := (int(midnight.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
		return midnight.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
}

// Validate implements Policy. It consults the shared history as-is: when a
// proposal bundles multiple transactions, each is checked independently
// against history (no provisional accumulation across sibling transactions
// in the same proposal), so two transactions that individually fit under a
// limit can both pass even if their sum would not. Final consistency is
// enforced at execution re-validation and by the balance debit itself.
func (p *SpendingLimitPolicy) Validate(tx domain.Transaction, ctx *Context) error {
	p.mu.RLock()
	maxPerTx := p.maxPerTransaction
	globalLimit := p.globalLimit
	categoryLimit, hasCategoryLimit := p.perCategoryLimit[ctx.Category]
	history := p.history
	p.mu.RUnlock()

	if maxPerTx != nil && tx.Amount > *maxPerTx {
		return violation(p.id, "transaction amount %.2f exceeds max per-transaction limit %.2f", tx.Amount, *maxPerTx)
	}

	if history == nil {
		return nil
	}
	start := p.windowStart(ctx.CurrentTime)
	records := history.SpendingSince(start)

	if hasCategoryLimit {
		var sum float64
		for _, r := range records {
			if r.Category == ctx.Category {
				sum += r.Amount
			}
		}
		if sum+tx.Amount > categoryLimit {
			return violation(p.id, "category %s spending %.2f plus transaction %.2f exceeds limit %.2f", ctx.Category, sum, tx.Amount, categoryLimit)
		}
	}

	if globalLimit != nil {
		var sum float64
		for _, r := range records {
			sum += r.Amount
		}
		if sum+tx.Amount > *globalLimit {
			return violation(p.id, "global spending %.2f plus transaction %.2f exceeds limit %.2f", sum, tx.Amount, *globalLimit)
		}
	}
	return nil
}
