package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// SuggestionsResponse describes the rule types an administrator can create.
type SuggestionsResponse struct {
	Data map[model.RuleType]string `json:"data"`
}

// RuleHandler handles discount rule administration.
type RuleHandler struct {
	service service.RuleService
	logger  zerolog.Logger
}

// NewRuleHandler creates a new rule handler.
func NewRuleHandler(service service.RuleService, logger zerolog.Logger) *RuleHandler {
	return &RuleHandler{
		service: service,
		logger:  logger.With().Str("handler", "rule").Logger(),
	}
}

// List handles GET /api/rules. Supported filters are type, productId,
// categoryId and active.
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.RuleFilter{
		Type:       model.RuleType(q.Get("type")),
		ProductID:  q.Get("productId"),
		CategoryID: q.Get("categoryId"),
	}
	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid active parameter", h.logger)
			return
		}
		filter.ActiveOnly = active
	}

	rules, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err, "failed to retrieve rules", h.logger)
		return
	}
	if rules == nil {
		rules = []model.DiscountRule{}
	}

	writeJSON(w, http.StatusOK, rules)
}

// Create handles POST /api/rules.
func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.RuleRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	rule, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "failed to create rule", h.logger)
		return
	}

	h.logger.Info().Str("rule_id", rule.ID).Str("type", string(rule.Type)).Msg("rule created")
	writeJSON(w, http.StatusCreated, rule)
}

// GetByID handles GET /api/rules/{id}.
func (h *RuleHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	rule, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "failed to retrieve rule", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

// Update handles PUT /api/rules/{id}.
func (h *RuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.RuleRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	rule, err := h.service.Update(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		writeServiceError(w, err, "failed to update rule", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

// Delete handles DELETE /api/rules/{id}.
func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to delete rule", h.logger)
		return
	}

	h.logger.Info().Str("rule_id", id).Msg("rule deleted")
	w.WriteHeader(http.StatusNoContent)
}

// Suggestions handles GET /api/rules/suggestions.
func (h *RuleHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SuggestionsResponse{Data: h.service.Suggestions()})
}
