package service

import "github.com/shopspring/decimal"

type Pricing struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal // strictly above this ships free
	FlatShipping          decimal.Decimal
}

var DefaultPricing = Pricing{
	TaxRate:               decimal.RequireFromString("0.15"),
	FreeShippingThreshold: decimal.NewFromInt(100),
	FlatShipping:          decimal.NewFromInt(10),
}

type Quote struct {
	Items    float64
	Tax      float64
	Shipping float64
	Total    float64
}

func (p Pricing) Quote(itemsTotal float64) Quote {
	items := decimal.NewFromFloat(itemsTotal)
	tax := items.Mul(p.TaxRate).Round(2)

	shipping := p.FlatShipping
	if items.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	total := items.Add(tax).Add(shipping).Round(2)

	return Quote{
		Items:    items.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Shipping: shipping.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}
}
