package subscription

import (
	"time"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierFree     Tier = "free"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

func (t Tier) IsValid() bool {
	_, ok := planCatalog[t]
	return ok
}

type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Feature codes gate route groups. They are also carried in the access token.
const (
	FeatureAttendance = "attendance"
	FeatureTasks      = "tasks"
	FeatureCalendar   = "calendar"
	FeatureReports    = "reports"
	FeatureHierarchy  = "hierarchy"
)

// Plan is a fixed tier definition. MaxSeats nil means unlimited.
type Plan struct {
	Tier         Tier
	Name         string
	PricePerSeat decimal.Decimal
	MaxSeats     *int
	Features     []string
}

func (p Plan) HasFeature(code string) bool {
	for _, f := range p.Features {
		if f == code {
			return true
		}
	}
	return false
}

func seats(n int) *int { return &n }

var planCatalog = map[Tier]Plan{
	TierFree: {
		Tier:         TierFree,
		Name:         "Free",
		PricePerSeat: decimal.Zero,
		MaxSeats:     seats(3),
		Features:     []string{FeatureAttendance},
	},
	TierPro: {
		Tier:         TierPro,
		Name:         "Pro",
		PricePerSeat: decimal.RequireFromString("6.00"),
		MaxSeats:     seats(25),
		Features:     []string{FeatureAttendance, FeatureTasks, FeatureCalendar, FeatureReports},
	},
	TierBusiness: {
		Tier:         TierBusiness,
		Name:         "Business",
		PricePerSeat: decimal.RequireFromString("12.50"),
		Features:     []string{FeatureAttendance, FeatureTasks, FeatureCalendar, FeatureReports, FeatureHierarchy},
	},
}

// Plans returns the catalog ordered from the lowest tier up.
func Plans() []Plan {
	return []Plan{planCatalog[TierFree], planCatalog[TierPro], planCatalog[TierBusiness]}
}

func PlanFor(tier Tier) (Plan, bool) {
	p, ok := planCatalog[tier]
	return p, ok
}

type Subscription struct {
	ID                 string
	ProjectID          string
	Tier               Tier
	Status             Status
	MaxSeats           *int
	PricePerSeat       decimal.Decimal
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewFree builds the subscription every new project starts on.
func NewFree(projectID string, now time.Time) Subscription {
	plan := planCatalog[TierFree]
	return Subscription{
		ProjectID:          projectID,
		Tier:               TierFree,
		Status:             StatusActive,
		MaxSeats:           plan.MaxSeats,
		PricePerSeat:       plan.PricePerSeat,
		CurrentPeriodStart: now,
	}
}

func (s Subscription) Plan() Plan {
	return planCatalog[s.Tier]
}

// IsActive reports whether the subscription still grants its tier's features at now.
func (s Subscription) IsActive(now time.Time) bool {
	switch s.Status {
	case StatusActive, StatusTrial, StatusPastDue:
	case StatusCancelled:
		// cancelled keeps access until the paid period ends
		if s.CurrentPeriodEnd == nil {
			return false
		}
	default:
		return false
	}
	return s.CurrentPeriodEnd == nil || now.Before(*s.CurrentPeriodEnd)
}

// Features falls back to the free tier once the subscription has lapsed.
func (s Subscription) Features(now time.Time) []string {
	if !s.IsActive(now) {
		return planCatalog[TierFree].Features
	}
	return s.Plan().Features
}

func (s Subscription) HasFeature(code string, now time.Time) bool {
	for _, f := range s.Features(now) {
		if f == code {
			return true
		}
	}
	return false
}

func (s Subscription) CanAddMember(currentCount int) bool {
	return s.MaxSeats == nil || currentCount < *s.MaxSeats
}

// MonthlyTotal is the seat price times the billed seat count.
func (s Subscription) MonthlyTotal(usedSeats int) decimal.Decimal {
	return s.PricePerSeat.Mul(decimal.NewFromInt(int64(usedSeats))).Round(2)
}
