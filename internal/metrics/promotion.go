package metrics

import (
	"math"

	"retail-sales-lab/internal/domain"
)

// partition collects the records of one promotion group.
type partition struct {
	sales   []float64
	revenue []float64
	profit  []float64
}

func (p *partition) add(r domain.CanonicalRecord) {
	p.sales = append(p.sales, r.Sales)
	p.revenue = append(p.revenue, r.Revenue())
	if profit := r.Profit(); profit.Valid {
		p.profit = append(p.profit, profit.Value)
	}
}

func (p *partition) count() int {
	return len(p.sales)
}

func (p *partition) meanProfit() domain.OptFloat {
	if len(p.profit) == 0 {
		return domain.None()
	}
	return domain.Some(Mean(p.profit))
}

// EvaluatePromotion compares mean sales of promoted and non-promoted records.
// Returns *domain.InsufficientDataError if either group is empty.
// Lift is undefined when mean non-promoted sales is 0 or the ratio
// overflows.
func EvaluatePromotion(records []domain.CanonicalRecord) (*domain.PromotionEffect, error) {
	var promo, base partition
	for _, r := range records {
		if r.Promotion {
			promo.add(r)
		} else {
			base.add(r)
		}
	}

	if promo.count() == 0 {
		return nil, &domain.InsufficientDataError{
			Stage:    domain.StagePromotion,
			Reason:   "no promoted records",
			Required: 1,
			Actual:   0,
		}
	}
	if base.count() == 0 {
		return nil, &domain.InsufficientDataError{
			Stage:    domain.StagePromotion,
			Reason:   "no non-promoted records",
			Required: 1,
			Actual:   0,
		}
	}

	meanPromo := Mean(promo.sales)
	meanBase := Mean(base.sales)

	effect := &domain.PromotionEffect{
		PromotedCount:          promo.count(),
		NonPromotedCount:       base.count(),
		MeanSalesPromoted:      meanPromo,
		MeanSalesNonPromoted:   meanBase,
		Delta:                  meanPromo - meanBase,
		Lift:                   domain.None(),
		MeanRevenuePromoted:    Mean(promo.revenue),
		MeanRevenueNonPromoted: Mean(base.revenue),
		MeanProfitPromoted:     promo.meanProfit(),
		MeanProfitNonPromoted:  base.meanProfit(),
	}
	if meanBase > 0 {
		if lift := effect.Delta / meanBase; !math.IsInf(lift, 0) && !math.IsNaN(lift) {
			effect.Lift = domain.Some(lift)
		}
	}

	return effect, nil
}
