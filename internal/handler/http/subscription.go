package http

import (
	"net/http"

	"github.com/worktally/worktally-backend/internal/domain/subscription"
	"github.com/worktally/worktally-backend/internal/handler/http/response"
)

// SubscriptionHandler handles subscription-related HTTP requests
type SubscriptionHandler interface {
	GetPlans(w http.ResponseWriter, r *http.Request)
	GetCurrent(w http.ResponseWriter, r *http.Request)
	ChangeTier(w http.ResponseWriter, r *http.Request)
}

type subscriptionHandlerImpl struct {
	subscriptionService subscription.Service
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptionService subscription.Service) SubscriptionHandler {
	return &subscriptionHandlerImpl{subscriptionService: subscriptionService}
}

// GetPlans lists the tier catalog
// GET /api/v1/subscription/plans - Public
func (h *subscriptionHandlerImpl) GetPlans(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.subscriptionService.ListPlans())
}

// GetCurrent returns the active project's subscription
// GET /api/v1/subscription
func (h *subscriptionHandlerImpl) GetCurrent(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.GetCurrent(r.Context(), actor.ProjectID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, sub)
}

// ChangeTier moves the project to another tier
// PUT /api/v1/subscription/tier - Admin only
func (h *subscriptionHandlerImpl) ChangeTier(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req subscription.ChangeTierRequest
	if !decodeJSON(w, r, &req, "ChangeTier") {
		return
	}

	sub, err := h.subscriptionService.ChangeTier(r.Context(), actor, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Subscription updated", sub)
}
