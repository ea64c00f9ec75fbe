package discount

import (
	"cmp"
	"slices"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the symbol used in shopper-facing messages.
const DefaultCurrency = "₹"

// ReasonDuplicateRule marks a record whose id appeared earlier in the rule set.
const ReasonDuplicateRule = "duplicate rule id"

// AppliedDiscount is one rule's contribution to a calculation.
type AppliedDiscount struct {
	RuleID      string          `json:"ruleId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Type        model.RuleType  `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	ProductIDs  []string        `json:"productIds,omitempty"`
}

// SkippedRule records a rule record that could not be compiled or repeats
// an earlier rule id.
type SkippedRule struct {
	RuleID string `json:"ruleId"`
	Reason string `json:"reason"`
}

// RejectedItem records a cart line that was left out of a calculation.
type RejectedItem struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
}

// Calculation is the result of applying the rule set to a cart.
type Calculation struct {
	OriginalTotal    decimal.Decimal   `json:"originalTotal"`
	TotalDiscount    decimal.Decimal   `json:"totalDiscount"`
	FinalTotal       decimal.Decimal   `json:"finalTotal"`
	AppliedDiscounts []AppliedDiscount `json:"appliedDiscounts"`
	SkippedRules     []SkippedRule     `json:"skippedRules,omitempty"`
	RejectedItems    []RejectedItem    `json:"rejectedItems,omitempty"`
	Warning          string            `json:"warning,omitempty"`
}

// Offer is an eligible rule presented to the shopper.
type Offer struct {
	RuleID      string         `json:"ruleId"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Type        model.RuleType `json:"type"`
	Priority    int            `json:"priority"`
	Qualified   bool           `json:"qualified"`
	Message     string         `json:"message"`
}

// MessageContext is what a shopper has in the cart when a message is built.
type MessageContext struct {
	Quantity  int
	CartTotal decimal.Decimal
}

// Passthrough returns the calculation used when no rules can be loaded:
// the cart at full price with a warning.
func Passthrough(items []model.CartLineItem, warning string) Calculation {
	lines, rejected := acceptLines(items)
	total := cartTotal(lines)
	return Calculation{
		OriginalTotal:    total,
		TotalDiscount:    decimal.Zero,
		FinalTotal:       total,
		AppliedDiscounts: []AppliedDiscount{},
		RejectedItems:    rejected,
		Warning:          warning,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithCurrency sets the currency symbol used in messages.
func WithCurrency(symbol string) Option {
	return func(e *Engine) {
		if symbol != "" {
			e.currency = symbol
		}
	}
}

// Engine evaluates discount rules against cart snapshots. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	logger   zerolog.Logger
	currency string
}

// NewEngine creates an Engine.
func NewEngine(logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		logger:   logger.With().Str("component", "discount_engine").Logger(),
		currency: DefaultCurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Currency returns the configured currency symbol.
func (e *Engine) Currency() string {
	return e.currency
}

// CalculateDiscounts applies every eligible rule, highest priority first, to
// the cart. Rules stack additively; each contribution is trimmed so that the
// final total never drops below zero.
func (e *Engine) CalculateDiscounts(items []model.CartLineItem, records []model.DiscountRule, now time.Time) Calculation {
	calc := Passthrough(items, "")
	rules, skipped := e.prepare(records, now)
	calc.SkippedRules = skipped

	lines, _ := acceptLines(items)
	if len(lines) == 0 {
		return calc
	}

	remaining := calc.OriginalTotal
	for i := range rules {
		rule := &rules[i]
		scoped := rule.Scope.filter(lines)
		if len(scoped) == 0 {
			continue
		}

		raw, ok := rule.evaluate(scoped, calc.OriginalTotal)
		if !ok {
			continue
		}
		amount := decimal.Min(rule.clamp(raw.Round(2)), remaining)
		if !amount.IsPositive() {
			continue
		}

		remaining = remaining.Sub(amount)
		calc.TotalDiscount = calc.TotalDiscount.Add(amount)
		calc.AppliedDiscounts = append(calc.AppliedDiscounts, AppliedDiscount{
			RuleID:      rule.ID,
			Name:        rule.Name,
			Description: rule.Description,
			Type:        rule.Type(),
			Amount:      amount,
			ProductIDs:  productIDs(scoped),
		})
	}
	calc.FinalTotal = decimal.Max(decimal.Zero, calc.OriginalTotal.Sub(calc.TotalDiscount))

	e.logger.Debug().
		Int("lines", len(lines)).
		Int("rules", len(rules)).
		Int("applied", len(calc.AppliedDiscounts)).
		Str("original_total", calc.OriginalTotal.String()).
		Str("total_discount", calc.TotalDiscount.String()).
		Msg("Discounts calculated")

	return calc
}

// CheckAvailableDiscounts lists eligible rules that touch at least one cart
// line, with a progress message measured against cartTotal.
func (e *Engine) CheckAvailableDiscounts(items []model.CartLineItem, records []model.DiscountRule, total decimal.Decimal, now time.Time) []Offer {
	lines, _ := acceptLines(items)
	rules, _ := e.prepare(records, now)

	offers := []Offer{}
	for i := range rules {
		rule := &rules[i]
		scoped := rule.Scope.filter(lines)
		if len(scoped) == 0 {
			continue
		}
		offers = append(offers, e.offer(rule, MessageContext{
			Quantity:  totalQuantity(scoped),
			CartTotal: total,
		}))
	}
	return offers
}

// CheckItemDiscounts lists eligible rules scoped to a product or its
// category, with an upsell message for the given quantity.
func (e *Engine) CheckItemDiscounts(productID, categoryID string, quantity int, records []model.DiscountRule, now time.Time) []Offer {
	rules, _ := e.prepare(records, now)
	quantity = max(quantity, 0)

	offers := []Offer{}
	for i := range rules {
		rule := &rules[i]
		if !rule.Scope.covers(productID, categoryID) {
			continue
		}
		offers = append(offers, e.offer(rule, MessageContext{Quantity: quantity}))
	}
	return offers
}

// FormatDiscountMessage renders the shopper-facing message for a rule
// record. Records that do not compile get a generic message.
func (e *Engine) FormatDiscountMessage(rec model.DiscountRule, mc MessageContext) string {
	rule, err := Compile(rec)
	if err != nil {
		return GenericMessage
	}
	return e.message(&rule, mc)
}

func (e *Engine) offer(rule *Rule, mc MessageContext) Offer {
	return Offer{
		RuleID:      rule.ID,
		Name:        rule.Name,
		Description: rule.Description,
		Type:        rule.Type(),
		Priority:    rule.Priority,
		Qualified:   shortfallFor(rule, mc).met(),
		Message:     e.message(rule, mc),
	}
}

// prepare compiles the records, keeps the ones eligible at now and orders
// them by priority. Ties keep their input order. A rule id seen earlier in
// records is skipped, so no rule is applied twice.
func (e *Engine) prepare(records []model.DiscountRule, now time.Time) ([]Rule, []SkippedRule) {
	rules := make([]Rule, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	var skipped []SkippedRule
	for _, rec := range records {
		if _, dup := seen[rec.ID]; dup {
			e.logger.Warn().Str("rule_id", rec.ID).Msg("Skipping duplicate discount rule")
			skipped = append(skipped, SkippedRule{RuleID: rec.ID, Reason: ReasonDuplicateRule})
			continue
		}
		seen[rec.ID] = struct{}{}
		rule, err := Compile(rec)
		if err != nil {
			e.logger.Warn().
				Err(err).
				Str("rule_id", rec.ID).
				Str("rule_type", string(rec.Type)).
				Msg("Skipping malformed discount rule")
			skipped = append(skipped, SkippedRule{RuleID: rec.ID, Reason: err.Error()})
			continue
		}
		if !rule.EligibleAt(now) {
			continue
		}
		rules = append(rules, rule)
	}

	slices.SortStableFunc(rules, func(a, b Rule) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return rules, skipped
}
