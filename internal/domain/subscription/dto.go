package subscription

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/worktally/worktally-backend/internal/pkg/validator"
)

type ChangeTierRequest struct {
	Tier Tier `json:"tier"`
	// PeriodMonths is the paid period length for paid tiers. Defaults to 1.
	PeriodMonths int `json:"period_months"`
}

func (r *ChangeTierRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Tier == "" {
		errs.Add("tier", "tier is required")
	} else if !r.Tier.IsValid() {
		errs.Add("tier", "tier must be one of free, pro, business")
	}
	if r.PeriodMonths < 0 || r.PeriodMonths > 36 {
		errs.Add("period_months", "period_months must be between 1 and 36")
	}
	if r.PeriodMonths == 0 {
		r.PeriodMonths = 1
	}
	return errs.Err()
}

type PlanResponse struct {
	Tier         Tier            `json:"tier"`
	Name         string          `json:"name"`
	PricePerSeat decimal.Decimal `json:"price_per_seat"`
	MaxSeats     *int            `json:"max_seats"`
	Features     []string        `json:"features"`
}

func NewPlanResponse(p Plan) PlanResponse {
	return PlanResponse{
		Tier:         p.Tier,
		Name:         p.Name,
		PricePerSeat: p.PricePerSeat,
		MaxSeats:     p.MaxSeats,
		Features:     p.Features,
	}
}

type SubscriptionResponse struct {
	ProjectID          string          `json:"project_id"`
	Tier               Tier            `json:"tier"`
	PlanName           string          `json:"plan_name"`
	Status             Status          `json:"status"`
	MaxSeats           *int            `json:"max_seats"`
	UsedSeats          int             `json:"used_seats"`
	PricePerSeat       decimal.Decimal `json:"price_per_seat"`
	MonthlyTotal       decimal.Decimal `json:"monthly_total"`
	CurrentPeriodStart time.Time       `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time      `json:"current_period_end,omitempty"`
	Features           []string        `json:"features"`
}

func NewSubscriptionResponse(s Subscription, usedSeats int, now time.Time) SubscriptionResponse {
	return SubscriptionResponse{
		ProjectID:          s.ProjectID,
		Tier:               s.Tier,
		PlanName:           s.Plan().Name,
		Status:             s.Status,
		MaxSeats:           s.MaxSeats,
		UsedSeats:          usedSeats,
		PricePerSeat:       s.PricePerSeat,
		MonthlyTotal:       s.MonthlyTotal(usedSeats),
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		Features:           s.Features(now),
	}
}
