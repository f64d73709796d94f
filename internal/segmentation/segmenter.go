package segmentation

import (
	"sort"

	"retail-sales-lab/internal/domain"
	"retail-sales-lab/internal/metrics"
)

// DefaultMinEntities is the smallest population quantiles are computed over.
const DefaultMinEntities = 2

// Config configures the Segmenter.
type Config struct {
	MinEntities int
	Rules       []Rule
	Fallback    domain.SegmentLabel
}

// DefaultConfig returns the built-in decision table with fallback "steady".
func DefaultConfig() Config {
	return Config{
		MinEntities: DefaultMinEntities,
		Rules:       DefaultRules(),
		Fallback:    domain.SegmentSteady,
	}
}

// Segmenter assigns every entity to exactly one segment.
// Rules are evaluated top-down; the first rule whose conditions all hold wins.
type Segmenter struct {
	cfg Config
}

// NewSegmenter validates cfg and returns a segmenter.
func NewSegmenter(cfg Config) (*Segmenter, error) {
	if cfg.MinEntities < 1 {
		cfg.MinEntities = DefaultMinEntities
	}
	if err := ValidateRules(cfg.Rules, cfg.Fallback); err != nil {
		return nil, err
	}
	return &Segmenter{cfg: cfg}, nil
}

// MinEntities returns the configured population minimum.
func (s *Segmenter) MinEntities() int {
	return s.cfg.MinEntities
}

// Labels returns all segment labels in output order: rule order with
// duplicates removed, fallback last.
func (s *Segmenter) Labels() []domain.SegmentLabel {
	seen := make(map[domain.SegmentLabel]bool)
	var labels []domain.SegmentLabel
	for _, r := range s.cfg.Rules {
		if r.Segment == s.cfg.Fallback || seen[r.Segment] {
			continue
		}
		seen[r.Segment] = true
		labels = append(labels, r.Segment)
	}
	return append(labels, s.cfg.Fallback)
}

// Segment computes entity features and applies the decision table.
// Returns *domain.InsufficientDataError when there are fewer than
// MinEntities distinct entities.
func (s *Segmenter) Segment(records []domain.CanonicalRecord) (*domain.Segmentation, error) {
	features := ComputeFeatures(records)
	if len(features) < s.cfg.MinEntities {
		return nil, &domain.InsufficientDataError{
			Stage:    domain.StageSegments,
			Reason:   "too few distinct entities",
			Required: s.cfg.MinEntities,
			Actual:   len(features),
		}
	}

	cutPoints := s.cutPoints(features)

	result := &domain.Segmentation{
		Features:    features,
		Assignments: make(map[string]domain.SegmentLabel, len(features)),
		CutPoints:   cutPoints,
		Tiers:       make(map[domain.VolumeTier]domain.FeatureSummary),
	}

	members := make(map[domain.SegmentLabel][]domain.EntityFeatures)
	for _, f := range features {
		label := s.classify(f, cutPoints)
		result.Assignments[f.EntityID] = label
		members[label] = append(members[label], f)
	}

	for _, label := range s.Labels() {
		group := members[label]
		ids := make([]string, 0, len(group))
		for _, f := range group {
			ids = append(ids, f.EntityID)
		}
		sort.Strings(ids)
		result.Segments = append(result.Segments, domain.Segment{
			Label:    label,
			Members:  ids,
			Centroid: summarize(group),
		})
	}

	byTier := make(map[domain.VolumeTier][]domain.EntityFeatures)
	for _, f := range features {
		byTier[f.Tier] = append(byTier[f.Tier], f)
	}
	for _, tier := range []domain.VolumeTier{domain.TierLow, domain.TierMedium, domain.TierHigh} {
		result.Tiers[tier] = summarize(byTier[tier])
	}

	return result, nil
}

// cutPoints computes every quantile threshold the rules reference.
func (s *Segmenter) cutPoints(features []domain.EntityFeatures) map[string]float64 {
	sorted := make(map[domain.Feature][]float64)
	cuts := make(map[string]float64)

	for _, r := range s.cfg.Rules {
		for _, c := range r.Conditions {
			if c.Quantile == nil {
				continue
			}
			key := CutPointKey(c.Feature, *c.Quantile)
			if _, ok := cuts[key]; ok {
				continue
			}
			values, ok := sorted[c.Feature]
			if !ok {
				values = make([]float64, len(features))
				for i, f := range features {
					values[i] = f.Value(c.Feature)
				}
				sort.Float64s(values)
				sorted[c.Feature] = values
			}
			cuts[key] = metrics.Percentile(values, *c.Quantile)
		}
	}
	return cuts
}

func (s *Segmenter) classify(f domain.EntityFeatures, cuts map[string]float64) domain.SegmentLabel {
	for _, r := range s.cfg.Rules {
		if matches(r, f, cuts) {
			return r.Segment
		}
	}
	return s.cfg.Fallback
}

func matches(r Rule, f domain.EntityFeatures, cuts map[string]float64) bool {
	for _, c := range r.Conditions {
		var threshold float64
		if c.Quantile != nil {
			threshold = cuts[CutPointKey(c.Feature, *c.Quantile)]
		} else {
			threshold = *c.Value
		}
		if !c.Op.apply(f.Value(c.Feature), threshold) {
			return false
		}
	}
	return true
}
