package domain

// PromotionEffect compares promoted and non-promoted records.
type PromotionEffect struct {
	PromotedCount    int
	NonPromotedCount int

	MeanSalesPromoted    float64
	MeanSalesNonPromoted float64
	Delta                float64  // mean promoted - mean non-promoted
	Lift                 OptFloat // Delta / mean non-promoted; undefined when that mean is 0

	MeanRevenuePromoted    float64
	MeanRevenueNonPromoted float64
	MeanProfitPromoted     OptFloat // undefined without base price
	MeanProfitNonPromoted  OptFloat
}

// PositiveProfitImpact reports whether promotions raise mean profit.
// Falls back to mean sales when profit is undefined.
func (p PromotionEffect) PositiveProfitImpact() bool {
	if p.MeanProfitPromoted.Valid && p.MeanProfitNonPromoted.Valid {
		return p.MeanProfitPromoted.Value > p.MeanProfitNonPromoted.Value
	}
	return p.Delta > 0
}
