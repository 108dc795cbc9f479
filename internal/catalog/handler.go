package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/harbor-erp/harbor-erp/internal/platform/httpx"
	"github.com/harbor-erp/harbor-erp/internal/shared"
)

// Handler exposes the catalog read API.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// MountRoutes attaches catalog endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/variants", h.listVariants)
	r.Get("/variants/{variantID}", h.getVariant)
}

type listResponse struct {
	Items      []VariantListing  `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) listVariants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Query:      q.Get("q"),
		OnlyActive: q.Get("active") == "true",
		Page:       parseIntDefault(q.Get("page"), 1),
		PerPage:    parseIntDefault(q.Get("per_page"), 20),
	}

	items, pagination, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("catalog list failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Items: items, Pagination: pagination})
}

func (h *Handler) getVariant(w http.ResponseWriter, r *http.Request) {
	variantID, err := strconv.ParseInt(chi.URLParam(r, "variantID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "variant id must be an integer")
		return
	}

	listing, err := h.service.Get(r.Context(), variantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("catalog get failed", slog.Int64("variant_id", variantID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, listing)
}

func parseIntDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
