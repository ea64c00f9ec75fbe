package handler

import (
	"net/http"

	"storefront/internal/discount"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// OffersResponse lists promotions for a cart or product.
type OffersResponse struct {
	Offers  []discount.Offer `json:"offers"`
	Warning string           `json:"warning,omitempty"`
}

// DiscountHandler exposes the discount engine to shoppers.
type DiscountHandler struct {
	service service.DiscountService
	logger  zerolog.Logger
}

// NewDiscountHandler creates a new discount handler.
func NewDiscountHandler(service service.DiscountService, logger zerolog.Logger) *DiscountHandler {
	return &DiscountHandler{
		service: service,
		logger:  logger.With().Str("handler", "discount").Logger(),
	}
}

// Calculate handles POST /api/discounts/calculate.
func (h *DiscountHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req model.CartRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	writeJSON(w, http.StatusOK, h.service.Calculate(r.Context(), req.Items))
}

// Available handles POST /api/discounts/available.
func (h *DiscountHandler) Available(w http.ResponseWriter, r *http.Request) {
	var req model.CartRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	offers, warning := h.service.Available(r.Context(), req.Items, req.CartTotal)
	writeJSON(w, http.StatusOK, OffersResponse{Offers: nonNil(offers), Warning: warning})
}

// ItemOffers handles GET /api/discounts/items?productId=&categoryId=&quantity=.
func (h *DiscountHandler) ItemOffers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	productID := q.Get("productId")
	if productID == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "productId is required", h.logger)
		return
	}
	quantity, ok := intQuery(w, r, "quantity", 0, h.logger)
	if !ok {
		return
	}
	if quantity < 0 {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidQuantity, "quantity must not be negative", h.logger)
		return
	}

	offers, warning := h.service.ItemOffers(r.Context(), productID, q.Get("categoryId"), quantity)
	writeJSON(w, http.StatusOK, OffersResponse{Offers: nonNil(offers), Warning: warning})
}

func nonNil(offers []discount.Offer) []discount.Offer {
	if offers == nil {
		return []discount.Offer{}
	}
	return offers
}
