package pipeline

import (
	"time"

	"github.com/rs/zerolog"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/metrics"
	"retail-sales-lab/internal/observability"
	"retail-sales-lab/internal/segmentation"
)

// Analysis holds the outputs of the three analysis stages.
// A failed stage is unavailable; the others are unaffected.
type Analysis struct {
	Overview  domain.Overview
	Trend     domain.StageResult[[]domain.TrendPoint]
	Segments  domain.StageResult[*domain.Segmentation]
	Promotion domain.StageResult[*domain.PromotionEffect]
}

// StageStatus maps each stage to ok or unavailable.
func (a *Analysis) StageStatus() map[string]string {
	status := func(ok bool) string {
		if ok {
			return domain.StageStatusOK
		}
		return domain.StageStatusUnavailable
	}
	return map[string]string{
		domain.StageTrend:     status(a.Trend.Available()),
		domain.StageSegments:  status(a.Segments.Available()),
		domain.StagePromotion: status(a.Promotion.Available()),
	}
}

// Analyzer runs the trend, segmentation and promotion stages over a
// canonical table. It never mutates its input.
type Analyzer struct {
	granularity domain.Granularity
	segmenter   *segmentation.Segmenter
	logger      zerolog.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(granularity domain.Granularity, segmenter *segmentation.Segmenter) *Analyzer {
	return &Analyzer{granularity: granularity, segmenter: segmenter, logger: zerolog.Nop()}
}

// WithLogger sets the logger used for stage outcomes.
func (a *Analyzer) WithLogger(logger zerolog.Logger) *Analyzer {
	a.logger = logger
	return a
}

// Analyze runs the stages sequentially over records in canonical order.
func (a *Analyzer) Analyze(records []domain.CanonicalRecord) *Analysis {
	result := &Analysis{Overview: metrics.Summarize(records, a.granularity)}

	result.Trend = runStage(a.logger, domain.StageTrend, func() ([]domain.TrendPoint, error) {
		if len(records) == 0 {
			return nil, &domain.InsufficientDataError{Stage: domain.StageTrend, Reason: "no records", Required: 1}
		}
		return metrics.ComputeTrend(records, a.granularity), nil
	})

	result.Segments = runStage(a.logger, domain.StageSegments, func() (*domain.Segmentation, error) {
		return a.segmenter.Segment(records)
	})

	result.Promotion = runStage(a.logger, domain.StagePromotion, func() (*domain.PromotionEffect, error) {
		return metrics.EvaluatePromotion(records)
	})

	return result
}

// runStage executes one stage, recording its duration and outcome.
func runStage[T any](logger zerolog.Logger, stage string, fn func() (T, error)) domain.StageResult[T] {
	start := time.Now()
	v, err := fn()
	elapsed := time.Since(start)

	if err != nil {
		observability.RecordStage(stage, domain.StageStatusUnavailable, elapsed)
		logger.Warn().Err(err).Str("stage", stage).Msg("stage unavailable")
		return domain.Unavailable[T](err)
	}

	observability.RecordStage(stage, domain.StageStatusOK, elapsed)
	logger.Debug().Str("stage", stage).Dur("elapsed", elapsed).Msg("stage complete")
	return domain.Ok(v)
}
