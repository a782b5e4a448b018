package anomaly

import (
	"context"

	"scrutiny/pkg/domain"
)

// Detector runs the pattern rules over a snapshot in a fixed category order
// so report ordering is stable across runs.
type Detector struct {
	cfg Config
}

// NewDetector validates the configuration and constructs a Detector.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Detect evaluates every rule. Rules are independent; order of evaluation
// affects only report ordering, which is category order then discovery order
// within each category.
func (d *Detector) Detect(ctx context.Context, snap Snapshot) ([]Finding, error) {
	rules := []func(Snapshot) []Finding{
		d.velocityFindings,
		d.unverifiedVoteFindings,
		d.outOfWindowFindings,
		d.orphanedRecordFindings,
		d.deceasedVoteFindings,
		d.zeroActivityFindings,
		d.unusualHourFindings,
	}

	findings := make([]Finding, 0)
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		findings = append(findings, rule(snap)...)
	}
	return findings, nil
}

// GroupByCategory buckets findings preserving discovery order within each
// category.
func GroupByCategory(findings []Finding) map[domain.FindingCategory][]Finding {
	grouped := make(map[domain.FindingCategory][]Finding)
	for _, f := range findings {
		grouped[f.Category] = append(grouped[f.Category], f)
	}
	return grouped
}
