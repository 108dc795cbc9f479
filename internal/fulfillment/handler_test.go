package fulfillment

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo *memoryRepo) http.Handler {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	svc := NewService(repo, nil, nil, ServiceConfig{})
	handler := NewHandler(logger, svc, NewAvailabilityCalculator(repo))
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func TestHandleCompleteReturnsOrder(t *testing.T) {
	repo := newMemoryRepo()
	seedTwoBatches(repo, 7)
	repo.addOrder(Order{ID: 100, Number: "SO-100", Status: OrderStatusDelivering, Lines: []OrderLine{
		{ID: 1, OrderID: 100, VariantID: 7, Quantity: 6, SalePrice: decimal.NewFromInt(20)},
	}})
	router := newTestRouter(repo)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders/100/complete", nil))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Status string `json:"status"`
		Lines  []struct {
			CostPrice *string `json:"cost_price"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	require.Len(t, resp.Lines, 1)
	require.NotNil(t, resp.Lines[0].CostPrice)
	assert.Equal(t, "11", *resp.Lines[0].CostPrice)
}

func TestHandleCompleteInvalidTransition(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOrder(Order{ID: 100, Status: OrderStatusPending})
	router := newTestRouter(repo)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders/100/complete", nil))

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid Transition")
}

func TestHandleCompleteInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOrder(Order{ID: 100, Status: OrderStatusDelivering, Lines: []OrderLine{
		{ID: 1, OrderID: 100, VariantID: 7, Quantity: 6, SalePrice: decimal.NewFromInt(20)},
	}})
	router := newTestRouter(repo)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders/100/complete", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestHandleCompleteUnknownOrder(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders/404/complete", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/orders/abc/complete", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleAvailability(t *testing.T) {
	repo := newMemoryRepo()
	seedTwoBatches(repo, 7)
	repo.addOrder(Order{ID: 1, Status: OrderStatusDelivering, Lines: []OrderLine{
		{ID: 1, OrderID: 1, VariantID: 7, Quantity: 4, SalePrice: decimal.NewFromInt(20)},
	}})
	router := newTestRouter(repo)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stock/7/availability", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var snapshot Availability
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Equal(t, int64(8), snapshot.TotalRemaining)
	assert.Equal(t, int64(4), snapshot.Booked)
	assert.Equal(t, int64(4), snapshot.Available)
	assert.Equal(t, StockTagInStock, snapshot.StatusTag)
}

func TestHandleTransitions(t *testing.T) {
	router := newTestRouter(newMemoryRepo())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/statuses/delivering/transitions", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp transitionsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []OrderStatus{OrderStatusCompleted, OrderStatusRefunding}, resp.Allowed)
	assert.True(t, resp.Booking)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/statuses/archived/transitions", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
