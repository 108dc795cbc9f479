package receiving

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/harbor-erp/harbor-erp/internal/platform/httpx"
	"github.com/harbor-erp/harbor-erp/internal/shared"
)

// Handler wires HTTP endpoints for the receiving module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs receiving handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers receiving routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/receipts", h.handleCreate)
	r.Get("/receipts/{receiptID}", h.handleGet)
	r.Post("/receipts/{receiptID}/post", h.handlePost)
	r.Post("/receipts/{receiptID}/cancel", h.handleCancel)
}

type receiptLinePayload struct {
	VariantID int64  `json:"variant_id" validate:"required,gt=0"`
	Qty       int64  `json:"qty" validate:"required,gt=0"`
	UnitCost  string `json:"unit_cost" validate:"required"`
}

type createReceiptPayload struct {
	Number     string               `json:"number"`
	SupplierID int64                `json:"supplier_id"`
	ReceivedAt *time.Time           `json:"received_at"`
	Note       string               `json:"note"`
	Lines      []receiptLinePayload `json:"lines" validate:"required,min=1,dive"`
}

type receiptLineResponse struct {
	ID        int64  `json:"id"`
	VariantID int64  `json:"variant_id"`
	Qty       int64  `json:"qty"`
	UnitCost  string `json:"unit_cost"`
}

type receiptResponse struct {
	ID         int64                 `json:"id"`
	Number     string                `json:"number"`
	SupplierID int64                 `json:"supplier_id,omitempty"`
	Status     ReceiptStatus         `json:"status"`
	ReceivedAt time.Time             `json:"received_at"`
	Note       string                `json:"note,omitempty"`
	Lines      []receiptLineResponse `json:"lines"`
}

func toReceiptResponse(receipt Receipt) receiptResponse {
	resp := receiptResponse{
		ID:         receipt.ID,
		Number:     receipt.Number,
		SupplierID: receipt.SupplierID,
		Status:     receipt.Status,
		ReceivedAt: receipt.ReceivedAt,
		Note:       receipt.Note,
		Lines:      make([]receiptLineResponse, 0, len(receipt.Lines)),
	}
	for _, line := range receipt.Lines {
		resp.Lines = append(resp.Lines, receiptLineResponse{
			ID:        line.ID,
			VariantID: line.VariantID,
			Qty:       line.Qty,
			UnitCost:  line.UnitCost.String(),
		})
	}
	return resp
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createReceiptPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	input := CreateReceiptInput{
		Number:     payload.Number,
		SupplierID: payload.SupplierID,
		Note:       payload.Note,
		ActorID:    shared.ActorFromContext(r.Context()),
	}
	if payload.ReceivedAt != nil {
		input.ReceivedAt = *payload.ReceivedAt
	}
	for _, line := range payload.Lines {
		input.Lines = append(input.Lines, ReceiptLineInput{
			VariantID: line.VariantID,
			Qty:       line.Qty,
			UnitCost:  line.UnitCost,
		})
	}

	receipt, err := h.service.CreateReceipt(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toReceiptResponse(receipt))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.receiptID(w, r)
	if !ok {
		return
	}
	receipt, err := h.service.GetReceipt(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toReceiptResponse(receipt))
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	id, ok := h.receiptID(w, r)
	if !ok {
		return
	}
	receipt, err := h.service.PostReceipt(r.Context(), id, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toReceiptResponse(receipt))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.receiptID(w, r)
	if !ok {
		return
	}
	receipt, err := h.service.CancelReceipt(r.Context(), id, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toReceiptResponse(receipt))
}

func (h *Handler) receiptID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "receiptID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "receipt id must be numeric")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		h.logger.Error("receiving request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
