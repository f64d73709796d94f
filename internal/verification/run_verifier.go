package verification

import (
	"context"
	"errors"
	"fmt"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/idhash"
	"retail-sales-lab/internal/ingestion"
	"retail-sales-lab/internal/normalization"
	"retail-sales-lab/internal/pipeline"
	"retail-sales-lab/internal/segmentation"
	"retail-sales-lab/internal/storage"
)

// ErrRunNotFound is returned when run ID doesn't exist.
var ErrRunNotFound = errors.New("run not found")

// RunVerifier implements Verifier by replaying the analysis over the dataset
// source the run was computed from.
type RunVerifier struct {
	source      ingestion.RecordSource
	runs        storage.AnalysisRunStore
	trends      storage.TrendStore     // optional
	segments    storage.SegmentStore   // optional
	promotions  storage.PromotionStore // optional
	granularity domain.Granularity
	segmenter   *segmentation.Segmenter
}

// RunVerifierOptions contains configuration for creating a RunVerifier.
// Granularity and Segmentation must match the settings of the verified run.
type RunVerifierOptions struct {
	Source       ingestion.RecordSource
	Runs         storage.AnalysisRunStore
	Trends       storage.TrendStore
	Segments     storage.SegmentStore
	Promotions   storage.PromotionStore
	Granularity  domain.Granularity
	Segmentation segmentation.Config
}

// NewRunVerifier creates a new RunVerifier.
func NewRunVerifier(opts RunVerifierOptions) (*RunVerifier, error) {
	if opts.Source == nil || opts.Runs == nil {
		return nil, errors.New("verification: source and run store are required")
	}
	segmenter, err := segmentation.NewSegmenter(opts.Segmentation)
	if err != nil {
		return nil, err
	}
	if !opts.Granularity.IsValid() {
		opts.Granularity = domain.GranularityWeek
	}
	return &RunVerifier{
		source:      opts.Source,
		runs:        opts.Runs,
		trends:      opts.Trends,
		segments:    opts.Segments,
		promotions:  opts.Promotions,
		granularity: opts.Granularity,
		segmenter:   segmenter,
	}, nil
}

// VerifyRun verifies a single run by replaying the analysis.
func (v *RunVerifier) VerifyRun(ctx context.Context, runID string) (*VerificationResult, error) {
	// 1. Load stored run
	run, err := v.runs.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	// 2. Reload and clean the dataset
	raw, err := v.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	records, _, err := normalization.NewCleaner().Clean(raw)
	if err != nil {
		return nil, err
	}

	// 3. Replay analysis
	analysis := pipeline.NewAnalyzer(v.granularity, v.segmenter).Analyze(records)

	result := &VerificationResult{
		RunID:           runID,
		StoredVersion:   run.DatasetVersion,
		ReplayedVersion: idhash.ComputeDatasetVersion(records),
	}

	// 4. Compare results
	var d divergences
	if result.StoredVersion != result.ReplayedVersion {
		d.add("DatasetVersion", result.StoredVersion, result.ReplayedVersion)
	}
	if run.RowsKept != len(records) {
		d.add("RowsKept", run.RowsKept, len(records))
	}
	for stage, replayed := range analysis.StageStatus() {
		if stored := run.StageStatus[stage]; stored != replayed {
			d.add("StageStatus."+stage, stored, replayed)
		}
	}

	stageDivergences, err := v.compareStages(ctx, runID, analysis)
	if err != nil {
		return nil, err
	}
	result.Divergences = append(d.list, stageDivergences...)
	result.Match = len(result.Divergences) == 0

	return result, nil
}

// compareStages compares every stage that has a store and a replayed output.
func (v *RunVerifier) compareStages(ctx context.Context, runID string, a *pipeline.Analysis) ([]FieldDivergence, error) {
	var out []FieldDivergence

	if v.trends != nil && a.Trend.Available() {
		stored, err := v.trends.GetByRun(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("load trend: %w", err)
		}
		out = append(out, CompareTrend(stored, a.Trend.Value)...)
	}

	if v.segments != nil && a.Segments.Available() {
		stored, err := v.segments.GetByRun(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("load segments: %w", err)
		}
		out = append(out, CompareSegments(stored, a.Segments.Value)...)
	}

	if v.promotions != nil && a.Promotion.Available() {
		stored, err := v.promotions.GetByRun(ctx, runID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return append(out, FieldDivergence{Field: "promotion", Expected: nil, Actual: "available"}), nil
			}
			return nil, fmt.Errorf("load promotion effect: %w", err)
		}
		out = append(out, ComparePromotion(stored, a.Promotion.Value)...)
	}

	return out, nil
}

var _ Verifier = (*RunVerifier)(nil)
