package web2pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/webpdf/go-web2pdf/internal/dateutil"
)

// Plan is a subscription tier controlling the monthly conversion limit.
type Plan string

// Plan type constants.
const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// UnlimitedConversions marks a plan with no monthly cap.
const UnlimitedConversions = -1

// planLimits maps each plan to its monthly conversion allowance.
var planLimits = map[Plan]int{
	PlanFree:       3,
	PlanPro:        100,
	PlanEnterprise: UnlimitedConversions,
}

// ParsePlan validates a plan string (case-insensitive).
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(strings.ToLower(s)); p {
	case PlanFree, PlanPro, PlanEnterprise:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (must be free, pro, or enterprise)", ErrUnknownPlan, s)
	}
}

// Limit returns the monthly conversion allowance for p, or
// UnlimitedConversions. Unknown plans get the free allowance.
func (p Plan) Limit() int {
	limit, ok := planLimits[p]
	if !ok {
		return planLimits[PlanFree]
	}
	return limit
}

// UsageRecord tracks one user's conversions for the current billing month.
type UsageRecord struct {
	UserID          string
	ConversionsUsed int
	LastReset       time.Time
	Plan            Plan
}

// UsageStatus is the outcome of a limit check.
type UsageStatus struct {
	Allowed bool
	Record  UsageRecord
	Limit   int // UnlimitedConversions for enterprise
}

// UsageStore persists usage records, one per user. Implementations must make
// Increment a single atomic update: a read-modify-write race between
// concurrent requests for the same user must not lose increments. Backend
// failures wrap ErrStorage; absent records surface ErrUsageNotFound.
type UsageStore interface {
	// Get fetches the record for userID.
	Get(ctx context.Context, userID string) (UsageRecord, error)
	// Create inserts rec if no record exists yet, returning the stored
	// record either way.
	Create(ctx context.Context, rec UsageRecord) (UsageRecord, error)
	// Increment atomically adds one conversion and returns the updated record.
	Increment(ctx context.Context, userID string) (UsageRecord, error)
	// Reset zeroes the counter and stamps a new reset time, preserving the plan.
	Reset(ctx context.Context, userID string, at time.Time) (UsageRecord, error)
	// SetPlan changes the plan without touching the counter.
	SetPlan(ctx context.Context, userID string, plan Plan) (UsageRecord, error)
}

// Accountant enforces per-user monthly conversion limits on top of a
// UsageStore.
type Accountant struct {
	store  UsageStore
	now    func() time.Time // injectable for tests
	logger *slog.Logger
}

// NewAccountant creates an accountant backed by store. A nil store defaults
// to an in-process MemoryStore; a nil logger uses slog.Default.
func NewAccountant(store UsageStore, logger *slog.Logger) *Accountant {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Accountant{store: store, now: time.Now, logger: logger}
}

// CheckLimit fetches the user's record, creating a default (free plan, zero
// counter) when absent. When at least one calendar month has passed since
// LastReset, the counter is reset before evaluation. Allowed means another
// conversion fits under the plan's limit.
func (a *Accountant) CheckLimit(ctx context.Context, userID string) (UsageStatus, error) {
	if userID == "" {
		return UsageStatus{}, ErrEmptyUserID
	}

	rec, err := a.store.Get(ctx, userID)
	if errors.Is(err, ErrUsageNotFound) {
		rec, err = a.store.Create(ctx, UsageRecord{
			UserID:    userID,
			Plan:      PlanFree,
			LastReset: a.now(),
		})
	}
	if err != nil {
		return UsageStatus{}, err
	}

	now := a.now()
	if dateutil.MonthsBetween(rec.LastReset, now) >= 1 {
		rec, err = a.store.Reset(ctx, userID, now)
		if err != nil {
			return UsageStatus{}, err
		}
	}

	limit := rec.Plan.Limit()
	allowed := limit == UnlimitedConversions || rec.ConversionsUsed < limit
	return UsageStatus{Allowed: allowed, Record: rec, Limit: limit}, nil
}

// Increment records one completed conversion. Storage failures are surfaced,
// never swallowed: a successful render whose increment fails means the usage
// table under-counts, and the caller must know.
func (a *Accountant) Increment(ctx context.Context, userID string) (UsageRecord, error) {
	if userID == "" {
		return UsageRecord{}, ErrEmptyUserID
	}
	rec, err := a.store.Increment(ctx, userID)
	if err != nil {
		a.logger.Error("usage increment failed", "user", userID, "error", err)
		return UsageRecord{}, err
	}
	return rec, nil
}

// UpgradePlan switches the user's plan. The counter is untouched: resets
// happen only at calendar month boundaries, never on plan changes.
func (a *Accountant) UpgradePlan(ctx context.Context, userID string, plan Plan) (UsageRecord, error) {
	if userID == "" {
		return UsageRecord{}, ErrEmptyUserID
	}
	if _, err := ParsePlan(string(plan)); err != nil {
		return UsageRecord{}, err
	}
	return a.store.SetPlan(ctx, userID, plan)
}
