package main

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/guarzo/pcmatch/internal/prices"
)

// formatDecimal renders a dollar amount, e.g. "$1,050.00".
func formatDecimal(amount decimal.Decimal) string {
	cur := money.GetCurrency(money.USD)
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), money.USD).Display()
}

func formatPrice(bp *prices.BestPrice) string {
	if bp == nil {
		return "-"
	}
	return formatDecimal(bp.Price) + " (" + bp.PriceType + ")"
}
