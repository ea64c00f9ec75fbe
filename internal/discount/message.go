package discount

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// GenericMessage is shown for rules whose record is incomplete.
const GenericMessage = "Special discount available!"

// shortfall is how far a shopper is from qualifying for a rule.
type shortfall struct {
	units int
	spend decimal.Decimal
}

func (s shortfall) met() bool {
	return s.units <= 0 && !s.spend.IsPositive()
}

func shortfallFor(r *Rule, mc MessageContext) shortfall {
	var s shortfall
	if r.MinCartValue.IsPositive() && mc.CartTotal.LessThan(r.MinCartValue) {
		s.spend = r.MinCartValue.Sub(mc.CartTotal)
	}

	need := r.MinQuantity
	switch b := r.Benefit.(type) {
	case BuyOneGetOne, TwoForOne:
		need = max(need, 2)
	case BuyXGetY:
		need = max(need, b.Buy)
	}
	if mc.Quantity < need {
		s.units = need - mc.Quantity
	}
	return s
}

func (e *Engine) money(amount decimal.Decimal) string {
	return e.currency + amount.StringFixed(2)
}

func subject(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// units names count units of a product or category, falling back to
// "item" or "items" when the rule carries no name.
func units(name string, count int) string {
	if count > 1 {
		return subject(name, "items")
	}
	return subject(name, "item")
}

// pairShortfall nudges an odd quantity towards the next complete pair.
func pairShortfall(short shortfall, quantity int) shortfall {
	if short.units == 0 && quantity%2 == 1 {
		short.units = 1
	}
	return short
}

func (e *Engine) message(r *Rule, mc MessageContext) string {
	short := shortfallFor(r, mc)
	name := r.Scope.Subject()

	switch b := r.Benefit.(type) {
	case BuyOneGetOne:
		short = pairShortfall(short, mc.Quantity)
		if short.units > 0 {
			return fmt.Sprintf("Add %d more %s to get one free!", short.units, units(name, short.units))
		}
		if short.spend.IsPositive() {
			return fmt.Sprintf("Add %s more to unlock buy one %s, get one free!", e.money(short.spend), units(name, 1))
		}
		return fmt.Sprintf("Buy one %s, get one free!", units(name, 1))

	case TwoForOne:
		short = pairShortfall(short, mc.Quantity)
		if short.units > 0 {
			return fmt.Sprintf("Add %d more %s to get 2 for the price of 1!", short.units, units(name, short.units))
		}
		if short.spend.IsPositive() {
			return fmt.Sprintf("Add %s more to unlock 2 %s for the price of 1!", e.money(short.spend), units(name, 2))
		}
		return fmt.Sprintf("2 %s for the price of 1!", units(name, 2))

	case CategoryPercent:
		return e.percentMessage(b.Percent, "all "+subject(name, "items in this category"), short)

	case ProductPercent:
		return e.percentMessage(b.Percent, subject(name, "this item"), short)

	case FixedAmount:
		off := e.money(b.Amount)
		if short.spend.IsPositive() {
			return fmt.Sprintf("Add %s more to get %s off!", e.money(short.spend), off)
		}
		if short.units > 0 {
			return fmt.Sprintf("Add %d more %s to get %s off!", short.units, subject(name, "items"), off)
		}
		return fmt.Sprintf("%s off your order!", off)

	case BuyXGetY:
		if short.units > 0 {
			return fmt.Sprintf("Add %d more %s to get %d free!", short.units, units(name, short.units), b.Get)
		}
		if short.spend.IsPositive() {
			return fmt.Sprintf("Add %s more to unlock buy %d %s, get %d free!", e.money(short.spend), b.Buy, units(name, b.Buy), b.Get)
		}
		return fmt.Sprintf("Buy %d %s, get %d free!", b.Buy, units(name, b.Buy), b.Get)

	default:
		return GenericMessage
	}
}

func (e *Engine) percentMessage(pct decimal.Decimal, target string, short shortfall) string {
	switch {
	case short.spend.IsPositive():
		return fmt.Sprintf("Add %s more to get %s%% off %s!", e.money(short.spend), pct.String(), target)
	case short.units > 0:
		return fmt.Sprintf("Add %d more to get %s%% off %s!", short.units, pct.String(), target)
	default:
		return fmt.Sprintf("%s%% off %s!", pct.String(), target)
	}
}
