package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrEmptyProductionID = errors.New("production id is required")

// ProductionQuantity is one pricing tier of a production.
type ProductionQuantity struct {
	ID     string
	Amount int32
	// PlusPrice is kept exactly as the remote API sends it, e.g. "20.00".
	PlusPrice string
}

// Price parses PlusPrice. An empty or malformed value prices the tier at zero.
func (q ProductionQuantity) Price() decimal.Decimal {
	raw := strings.TrimSpace(q.PlusPrice)
	if raw == "" {
		return decimal.Zero
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return price
}

// Production is the sellable photo-production offering. It is never mutated after fetch.
type Production struct {
	ID            string
	Title         string
	OverviewImage string
	Quantities    []ProductionQuantity
}

// FindQuantity scans the quantity list for id.
func (p *Production) FindQuantity(id string) (ProductionQuantity, bool) {
	if p == nil || id == "" {
		return ProductionQuantity{}, false
	}
	for _, q := range p.Quantities {
		if q.ID == id {
			return q, true
		}
	}
	return ProductionQuantity{}, false
}

// Clone returns a deep copy so callers cannot alias the quantity slice.
func (p *Production) Clone() *Production {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Quantities = append([]ProductionQuantity(nil), p.Quantities...)
	return &clone
}

// Pricing holds the display values derived from the current quantity selection.
type Pricing struct {
	Amount int32
	Price  decimal.Decimal
}

// ResolvePricing derives amount and price for quantityID. Both are zero when the
// production is not loaded or no tier matches.
func ResolvePricing(production *Production, quantityID string) Pricing {
	q, ok := production.FindQuantity(quantityID)
	if !ok {
		return Pricing{Price: decimal.Zero}
	}
	return Pricing{Amount: q.Amount, Price: q.Price()}
}
