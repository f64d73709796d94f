package pipeline

import (
	"context"
	"fmt"

	"retail-sales-lab/internal/domain"
)

// persist stores run metadata first, then every available stage output.
func (p *Pipeline) persist(ctx context.Context, run domain.AnalysisRun, a *Analysis) error {
	s := p.stores

	if s.Runs != nil {
		r := run
		if err := s.Runs.Insert(ctx, &r); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
	}

	if s.Trends != nil && a.Trend.Available() {
		if err := s.Trends.InsertBulk(ctx, run.RunID, a.Trend.Value); err != nil {
			return fmt.Errorf("insert trend: %w", err)
		}
	}

	if s.Segments != nil && a.Segments.Available() {
		if err := s.Segments.InsertBulk(ctx, run.RunID, segmentAssignments(run.RunID, a.Segments.Value)); err != nil {
			return fmt.Errorf("insert segments: %w", err)
		}
	}

	if s.Promotions != nil && a.Promotion.Available() {
		if err := s.Promotions.Insert(ctx, run.RunID, a.Promotion.Value); err != nil {
			return fmt.Errorf("insert promotion effect: %w", err)
		}
	}

	if s.Runs != nil || s.Trends != nil || s.Segments != nil || s.Promotions != nil {
		p.logger.Debug().Str("run_id", run.RunID).Msg("results persisted")
	}
	return nil
}

// segmentAssignments flattens a segmentation into stored rows, ordered by entity id.
func segmentAssignments(runID string, s *domain.Segmentation) []domain.SegmentAssignment {
	out := make([]domain.SegmentAssignment, 0, len(s.Features))
	for _, f := range s.Features {
		out = append(out, domain.SegmentAssignment{
			RunID:    runID,
			Features: f,
			Segment:  s.Assignments[f.EntityID],
		})
	}
	return out
}
