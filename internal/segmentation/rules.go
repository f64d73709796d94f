package segmentation

import (
	"errors"
	"fmt"
	"strconv"

	"retail-sales-lab/internal/domain"
)

// ErrInvalidRules is returned when a decision table cannot be evaluated.
var ErrInvalidRules = errors.New("invalid segment rules")

// Op is a comparison operator.
type Op string

const (
	OpGTE Op = ">="
	OpGT  Op = ">"
	OpLTE Op = "<="
	OpLT  Op = "<"
)

func (o Op) apply(x, threshold float64) bool {
	switch o {
	case OpGTE:
		return x >= threshold
	case OpGT:
		return x > threshold
	case OpLTE:
		return x <= threshold
	case OpLT:
		return x < threshold
	}
	return false
}

func (o Op) valid() bool {
	switch o {
	case OpGTE, OpGT, OpLTE, OpLT:
		return true
	}
	return false
}

// Condition compares one feature against either a population quantile
// or an absolute value. Exactly one of Quantile and Value is set.
type Condition struct {
	Feature  domain.Feature `yaml:"feature"`
	Op       Op             `yaml:"op"`
	Quantile *float64       `yaml:"quantile,omitempty"`
	Value    *float64       `yaml:"value,omitempty"`
}

// CutPointKey identifies a quantile threshold, e.g. "mean_sales@q0.75".
func CutPointKey(feature domain.Feature, q float64) string {
	return string(feature) + "@q" + strconv.FormatFloat(q, 'g', -1, 64)
}

// Rule assigns Segment to entities matching all Conditions.
type Rule struct {
	Segment    domain.SegmentLabel `yaml:"segment"`
	Conditions []Condition         `yaml:"conditions"`
}

func q(v float64) *float64 { return &v }

// DefaultRules returns the built-in decision table in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Segment: domain.SegmentHighValue,
			Conditions: []Condition{
				{Feature: domain.FeatureMeanSales, Op: OpGTE, Quantile: q(0.75)},
			},
		},
		{
			Segment: domain.SegmentPromotionDriven,
			Conditions: []Condition{
				{Feature: domain.FeaturePromotionLift, Op: OpGT, Value: q(0)},
				{Feature: domain.FeaturePromotionLift, Op: OpGTE, Quantile: q(0.75)},
			},
		},
		{
			Segment: domain.SegmentPriceSensitive,
			Conditions: []Condition{
				{Feature: domain.FeatureMeanPrice, Op: OpLTE, Quantile: q(0.25)},
				{Feature: domain.FeatureVolatility, Op: OpGTE, Quantile: q(0.50)},
			},
		},
		{
			Segment: domain.SegmentLowEngagement,
			Conditions: []Condition{
				{Feature: domain.FeatureMeanSales, Op: OpLTE, Quantile: q(0.25)},
			},
		},
	}
}

// ValidateRules checks every rule and condition of a decision table.
func ValidateRules(rules []Rule, fallback domain.SegmentLabel) error {
	if fallback == "" {
		return fmt.Errorf("%w: fallback segment is empty", ErrInvalidRules)
	}
	for i, r := range rules {
		if r.Segment == "" {
			return fmt.Errorf("%w: rule %d has no segment", ErrInvalidRules, i)
		}
		if len(r.Conditions) == 0 {
			return fmt.Errorf("%w: rule %d (%s) has no conditions", ErrInvalidRules, i, r.Segment)
		}
		for j, c := range r.Conditions {
			if err := validateCondition(c); err != nil {
				return fmt.Errorf("%w: rule %d (%s) condition %d: %v", ErrInvalidRules, i, r.Segment, j, err)
			}
		}
	}
	return nil
}

func validateCondition(c Condition) error {
	if !c.Feature.IsValid() {
		return fmt.Errorf("unknown feature %q", c.Feature)
	}
	if !c.Op.valid() {
		return fmt.Errorf("unknown operator %q", c.Op)
	}
	if (c.Quantile == nil) == (c.Value == nil) {
		return errors.New("exactly one of quantile and value must be set")
	}
	if c.Quantile != nil && (*c.Quantile < 0 || *c.Quantile > 1) {
		return fmt.Errorf("quantile %v outside [0, 1]", *c.Quantile)
	}
	return nil
}
