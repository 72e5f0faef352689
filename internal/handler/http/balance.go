package http

import (
	"net/http"

	"github.com/worktally/worktally-backend/internal/domain/balance"
	"github.com/worktally/worktally-backend/internal/handler/http/response"
)

type BalanceHandler interface {
	Today(w http.ResponseWriter, r *http.Request)
	Report(w http.ResponseWriter, r *http.Request)
}

type balanceHandlerImpl struct {
	balanceService balance.Service
}

func NewBalanceHandler(balanceService balance.Service) BalanceHandler {
	return &balanceHandlerImpl{balanceService: balanceService}
}

// Today returns the dashboard balance
// GET /api/v1/balance/today?user_id=
func (h *balanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	today, err := h.balanceService.Today(r.Context(), actor, r.URL.Query().Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, today)
}

// Report returns per-day balances for a month or a date range
// GET /api/v1/balance/report?user_id=&month=YYYY-MM
// GET /api/v1/balance/report?user_id=&start_date=&end_date=
func (h *balanceHandlerImpl) Report(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	req := balance.ReportRequest{
		UserID:    q.Get("user_id"),
		Month:     q.Get("month"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}
	report, err := h.balanceService.Report(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, report)
}
