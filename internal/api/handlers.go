package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/ec-storefront/internal/api/middleware"
	"github.com/example/ec-storefront/internal/backend"
	"github.com/example/ec-storefront/internal/catalog"
	"github.com/example/ec-storefront/internal/command"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/filter"
	"github.com/example/ec-storefront/internal/logger"
	"github.com/example/ec-storefront/internal/query"
)

var errInvalidBody = errors.New("invalid request body")

// Refresher reloads the catalog cache on demand
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	refresher    Refresher
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, refresher Refresher) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		refresher:    refresher,
	}
}

// Catalog Handlers

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	state := filter.ParseQuery(r.URL.Query())
	respondJSON(w, http.StatusOK, h.queryHandler.ListProducts(state))
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.queryHandler.GetProduct(r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) ListEntities(w http.ResponseWriter, r *http.Request) {
	kind, ok := catalog.ParseEntityKind(r.PathValue("kind"))
	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "unknown catalog collection"})
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListEntities(kind))
}

// RefreshCatalog forces a catalog reload. Partial failures answer 502
// with the joined error; collections that loaded are already live.
func (h *Handlers) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	if err := h.refresher.Refresh(r.Context()); err != nil {
		logger.Error(r.Context()).Err(err).Msg("forced catalog refresh failed")
		respondJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Catalog refreshed"})
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.GetCart(r.Context(), ownerID(r)))
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddToCart
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.OwnerID = ownerID(r)

	model, err := h.cmdHandler.AddToCart(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, model)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.RemoveFromCart{OwnerID: ownerID(r), ProductID: r.PathValue("id")}
	model, err := h.cmdHandler.RemoveFromCart(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, model)
}

func (h *Handlers) IncrementQuantity(w http.ResponseWriter, r *http.Request) {
	cmd := command.IncrementQuantity{OwnerID: ownerID(r), ProductID: r.PathValue("id")}
	model, err := h.cmdHandler.IncrementQuantity(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, model)
}

func (h *Handlers) DecrementQuantity(w http.ResponseWriter, r *http.Request) {
	cmd := command.DecrementQuantity{OwnerID: ownerID(r), ProductID: r.PathValue("id")}
	model, err := h.cmdHandler.DecrementQuantity(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, model)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	model, err := h.cmdHandler.ClearCart(r.Context(), command.ClearCart{OwnerID: ownerID(r)})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, model)
}

func (h *Handlers) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var cmd command.ApplyCoupon
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.OwnerID = ownerID(r)

	model, err := h.cmdHandler.ApplyCoupon(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, model)
}

func (h *Handlers) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	model, err := h.cmdHandler.RemoveCoupon(r.Context(), command.RemoveCoupon{OwnerID: ownerID(r)})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, model)
}

// Order Handlers

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.PlaceOrder
	if err := decode(r, &cmd); err != nil {
		respondError(w, r, err)
		return
	}
	cmd.OwnerID = ownerID(r)

	model, err := h.cmdHandler.PlaceOrder(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, model)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListOrders(ownerID(r)))
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	model, err := h.queryHandler.GetOrder(ownerID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, model)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError maps domain errors to HTTP statuses
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	var statusErr *backend.StatusError
	switch {
	case errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, cart.ErrProductUnavailable),
		errors.Is(err, cart.ErrInvalidCoupon),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidCustomer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, backend.ErrUnavailable),
		errors.Is(err, backend.ErrRejected),
		errors.As(err, &statusErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

func ownerID(r *http.Request) string {
	return middleware.OwnerID(r.Context())
}
