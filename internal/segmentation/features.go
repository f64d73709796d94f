// Package segmentation groups entities into behavioral segments using an
// ordered decision table over per-entity features.
package segmentation

import (
	"sort"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/metrics"
)

// ComputeFeatures builds one feature vector per entity, sorted by entity id.
// Each entity's records are summed in timestamp order, so the result
// does not depend on input order.
func ComputeFeatures(records []domain.CanonicalRecord) []domain.EntityFeatures {
	groups := make(map[string][]domain.CanonicalRecord)
	for _, r := range records {
		groups[r.EntityID] = append(groups[r.EntityID], r)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	features := make([]domain.EntityFeatures, 0, len(ids))
	for _, id := range ids {
		group := groups[id]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
		features = append(features, entityFeatures(id, group))
	}

	assignTiers(features)
	return features
}

func entityFeatures(id string, records []domain.CanonicalRecord) domain.EntityFeatures {
	sales := make([]float64, 0, len(records))
	prices := make([]float64, 0, len(records))
	var promoSales, baseSales []float64
	revenue := 0.0

	for _, r := range records {
		sales = append(sales, r.Sales)
		prices = append(prices, r.Price)
		revenue = metrics.SaturatingAdd(revenue, r.Revenue())
		if r.Promotion {
			promoSales = append(promoSales, r.Sales)
		} else {
			baseSales = append(baseSales, r.Sales)
		}
	}

	f := domain.EntityFeatures{
		EntityID:     id,
		RecordCount:  len(records),
		TotalSales:   metrics.Sum(sales),
		TotalRevenue: revenue,
		MeanSales:    metrics.Mean(sales),
		Volatility:   metrics.CoefficientOfVariation(sales),
		MeanPrice:    metrics.Mean(prices),
	}
	if len(promoSales) > 0 && len(baseSales) > 0 {
		f.PromotionLift = metrics.Mean(promoSales) - metrics.Mean(baseSales)
	}
	return f
}

// assignTiers sets the volume tier by tercile of total sales.
func assignTiers(features []domain.EntityFeatures) {
	totals := make([]float64, len(features))
	for i, f := range features {
		totals[i] = f.TotalSales
	}
	sort.Float64s(totals)
	lowCut := metrics.Percentile(totals, 1.0/3.0)
	highCut := metrics.Percentile(totals, 2.0/3.0)

	for i := range features {
		switch {
		case features[i].TotalSales <= lowCut:
			features[i].Tier = domain.TierLow
		case features[i].TotalSales <= highCut:
			features[i].Tier = domain.TierMedium
		default:
			features[i].Tier = domain.TierHigh
		}
	}
}

// summarize returns the centroid of the given features.
// Totals are sums over members; the rest are member means.
func summarize(features []domain.EntityFeatures) domain.FeatureSummary {
	var s domain.FeatureSummary
	if len(features) == 0 {
		return s
	}
	n := len(features)
	meanSales := make([]float64, n)
	volatility := make([]float64, n)
	meanPrice := make([]float64, n)
	lift := make([]float64, n)
	for i, f := range features {
		meanSales[i] = f.MeanSales
		volatility[i] = f.Volatility
		meanPrice[i] = f.MeanPrice
		lift[i] = f.PromotionLift
		s.TotalSales = metrics.SaturatingAdd(s.TotalSales, f.TotalSales)
		s.TotalRevenue = metrics.SaturatingAdd(s.TotalRevenue, f.TotalRevenue)
	}
	s.MeanSales = metrics.Mean(meanSales)
	s.Volatility = metrics.Mean(volatility)
	s.MeanPrice = metrics.Mean(meanPrice)
	s.PromotionLift = metrics.Mean(lift)
	return s
}
