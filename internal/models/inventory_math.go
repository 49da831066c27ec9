package models

import "github.com/shopspring/decimal"

// CostScale is the number of decimal places kept for unit costs (NUMERIC(14,4)).
const CostScale = 4

// WeightedAverageCost returns the stock level and blended unit cost after buying
// quantity units for totalCost. Callers guarantee quantity > 0 and totalCost > 0.
//
// Empty stock, or a purchase that does not lift stock above zero, takes the
// purchase price. A shortage otherwise blends like any stock level, unless the
// blend would not be a positive cost.
func WeightedAverageCost(currentStock, currentCost, quantity, totalCost decimal.Decimal) (newStock, newCost decimal.Decimal) {
	newStock = currentStock.Add(quantity)
	unitPrice := totalCost.Div(quantity).Round(CostScale)
	if currentStock.IsZero() || !newStock.IsPositive() {
		return newStock, unitPrice
	}
	blended := currentStock.Mul(currentCost).Add(totalCost).Div(newStock).Round(CostScale)
	if !blended.IsPositive() {
		return newStock, unitPrice
	}
	return newStock, blended
}

// ConsumptionDelta is the stock removed for a change of persons on a booking.
// A negative persons value yields a negative delta, i.e. stock is given back.
func ConsumptionDelta(quantityPerPerson decimal.Decimal, persons int) decimal.Decimal {
	return quantityPerPerson.Mul(decimal.NewFromInt(int64(persons)))
}
