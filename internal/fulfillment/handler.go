package fulfillment

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/harbor-erp/harbor-erp/internal/platform/httpx"
	"github.com/harbor-erp/harbor-erp/internal/shared"
)

// Handler wires HTTP endpoints for the fulfillment engine.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	availability AvailabilityReader
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, availability AvailabilityReader) *Handler {
	return &Handler{logger: logger, service: service, availability: availability}
}

// MountRoutes registers fulfillment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/orders/{orderID}/complete", h.handleComplete)
	r.Get("/orders/{orderID}", h.handleGetOrder)
	r.Get("/stock/{variantID}/availability", h.handleAvailability)
	r.Get("/statuses/{status}/transitions", h.handleTransitions)
}

type orderLineResponse struct {
	ID        int64   `json:"id"`
	VariantID int64   `json:"variant_id"`
	Quantity  int64   `json:"quantity"`
	SalePrice string  `json:"sale_price"`
	CostPrice *string `json:"cost_price,omitempty"`
}

type orderResponse struct {
	ID     int64               `json:"id"`
	Number string              `json:"number"`
	Status OrderStatus         `json:"status"`
	Lines  []orderLineResponse `json:"lines"`
}

func toOrderResponse(order Order) orderResponse {
	resp := orderResponse{
		ID:     order.ID,
		Number: order.Number,
		Status: order.Status,
		Lines:  make([]orderLineResponse, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		item := orderLineResponse{
			ID:        line.ID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			SalePrice: line.SalePrice.String(),
		}
		if line.CostPrice != nil {
			cost := line.CostPrice.String()
			item.CostPrice = &cost
		}
		resp.Lines = append(resp.Lines, item)
	}
	return resp
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "order id must be numeric")
		return
	}
	actorID := shared.ActorFromContext(r.Context())

	order, err := h.service.Complete(r.Context(), orderID, actorID)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "order id must be numeric")
		return
	}
	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	variantID, err := strconv.ParseInt(chi.URLParam(r, "variantID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "variant id must be numeric")
		return
	}
	snapshot, err := h.availability.Compute(r.Context(), variantID)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshot)
}

type transitionsResponse struct {
	Status  OrderStatus   `json:"status"`
	Allowed []OrderStatus `json:"allowed"`
	Booking bool          `json:"booking"`
}

func (h *Handler) handleTransitions(w http.ResponseWriter, r *http.Request) {
	status := OrderStatus(chi.URLParam(r, "status"))
	if !status.IsValid() {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown order status")
		return
	}
	machine := h.service.StateMachine()
	httpx.JSON(w, http.StatusOK, transitionsResponse{
		Status:  status,
		Allowed: machine.AllowedTransitions(status),
		Booking: status.IsBooking(),
	})
}

func (h *Handler) respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrConcurrencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("fulfillment request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
