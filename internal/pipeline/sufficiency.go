package pipeline

import (
	"fmt"

	"retail-sales-lab/internal/domain"
)

// Sufficiency thresholds.
const (
	MinTrendPeriods = 2
	MinKeptShare    = 0.5
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity warnings
}

// SufficiencyChecker reports whether the cleaned table supports each stage.
// Failed checks are reported, never fatal; stages decide availability themselves.
type SufficiencyChecker struct {
	minEntities int
}

// NewSufficiencyChecker creates a checker requiring minEntities distinct entities.
func NewSufficiencyChecker(minEntities int) *SufficiencyChecker {
	if minEntities < 1 {
		minEntities = 1
	}
	return &SufficiencyChecker{minEntities: minEntities}
}

// Check performs all checks against the cleaned table.
func (c *SufficiencyChecker) Check(records []domain.CanonicalRecord, overview domain.Overview, stats domain.CleanStats) *SufficiencyResult {
	result := &SufficiencyResult{
		Checks:  make([]SufficiencyCheck, 0, 5),
		AllPass: true,
		Errors:  []string{},
	}

	promoted := 0
	for _, r := range records {
		if r.Promotion {
			promoted++
		}
	}

	checks := []SufficiencyCheck{
		c.checkEntities(overview.EntityCount),
		checkAtLeast("Promoted records", 1, promoted),
		checkAtLeast("Non-promoted records", 1, len(records)-promoted),
		checkAtLeast("Trend periods", MinTrendPeriods, overview.BucketCount),
		checkKeptShare(stats),
	}
	for _, check := range checks {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
		}
	}

	result.Errors = append(result.Errors, integrityWarnings(stats)...)
	return result
}

// checkEntities: distinct entities >= segmentation minimum.
func (c *SufficiencyChecker) checkEntities(count int) SufficiencyCheck {
	return checkAtLeast("Distinct entities", c.minEntities, count)
}

func checkAtLeast(name string, threshold, actual int) SufficiencyCheck {
	return SufficiencyCheck{
		Name:      name,
		Threshold: fmt.Sprintf(">= %d", threshold),
		Actual:    fmt.Sprintf("%d", actual),
		Pass:      actual >= threshold,
	}
}

// checkKeptShare: share of rows surviving cleaning >= 50%.
func checkKeptShare(stats domain.CleanStats) SufficiencyCheck {
	share := 0.0
	if stats.TotalRows > 0 {
		share = float64(stats.KeptRows) / float64(stats.TotalRows)
	}
	return SufficiencyCheck{
		Name:      "Kept row share",
		Threshold: fmt.Sprintf(">= %.0f%%", MinKeptShare*100),
		Actual:    fmt.Sprintf("%.1f%%", share*100),
		Pass:      share >= MinKeptShare,
	}
}

// integrityWarnings lists row-level recoveries made by the cleaner.
func integrityWarnings(stats domain.CleanStats) []string {
	var warnings []string
	add := func(n int, what string) {
		if n > 0 {
			warnings = append(warnings, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(stats.DroppedNonNumeric, "rows dropped: sales or price not a finite number")
	add(stats.DroppedOutOfRange, "rows dropped: negative sales or non-positive price")
	add(stats.DroppedTimestamp, "rows dropped: unparsable timestamp")
	add(stats.DroppedMissingID, "rows dropped: missing entity id")
	add(stats.DroppedDuplicates, "rows dropped: duplicate (entity, timestamp), first occurrence kept")
	add(stats.PromotionDefaulted, "rows with missing or unrecognized promotion flag treated as not promoted")
	return warnings
}
