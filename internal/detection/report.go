package detection

import (
	"fmt"
	"sort"
	"time"

	"scrutiny/internal/anomaly"
	"scrutiny/internal/ledger"
	"scrutiny/internal/register"
	"scrutiny/pkg/domain"
	dErrors "scrutiny/pkg/domain-errors"
)

// Config holds aggregation policy. Severity breakpoints are inherited from
// the reference policy (5 and 20) but are deployment configuration, not
// constants.
type Config struct {
	// MediumAt and HighAt are the total-finding-count breakpoints:
	// 0 findings -> none, below MediumAt -> low, below HighAt -> medium,
	// otherwise high.
	MediumAt int
	HighAt   int

	// DefaultMatchMode is the duplicate-detection mode used by full runs.
	DefaultMatchMode domain.MatchMode
}

// DefaultConfig returns the reference aggregation policy.
func DefaultConfig() Config {
	return Config{
		MediumAt:         5,
		HighAt:           20,
		DefaultMatchMode: domain.MatchBucketed,
	}
}

// Validate fails fast on breakpoints no run should aggregate with.
func (c Config) Validate() error {
	if c.MediumAt <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "medium severity breakpoint must be positive")
	}
	if c.HighAt <= c.MediumAt {
		return dErrors.New(dErrors.CodeInvalidInput, "high severity breakpoint must exceed the medium breakpoint")
	}
	if !c.DefaultMatchMode.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid default match mode")
	}
	return nil
}

// SeverityFor derives the coarse severity classification from a total
// finding count.
func (c Config) SeverityFor(totalFindings int) domain.Severity {
	switch {
	case totalFindings == 0:
		return domain.SeverityNone
	case totalFindings < c.MediumAt:
		return domain.SeverityLow
	case totalFindings < c.HighAt:
		return domain.SeverityMedium
	default:
		return domain.SeverityHigh
	}
}

// Provenance records who triggered a run and from where.
type Provenance struct {
	OperatorID string `json:"operator_id,omitempty"`
	ClientIP   string `json:"client_ip,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
}

// Report is the immutable output artifact of a full detection run.
type Report struct {
	ReportID           domain.ReportID                              `json:"report_id"`
	GeneratedAt        time.Time                                    `json:"generated_at"`
	Chains             map[domain.ChainType]ledger.Result           `json:"chains"`
	Duplicates         []register.DuplicateFinding                  `json:"duplicates"`
	FindingsByCategory map[domain.FindingCategory][]anomaly.Finding `json:"findings_by_category"`
	TotalFindingCount  int                                          `json:"total_finding_count"`
	Severity           domain.Severity                              `json:"severity"`
	Provenance         Provenance                                   `json:"provenance"`
}

// aggregate assembles the report from the four check outputs. Chain breaks
// are folded into the broken-chain finding category so callers can consume
// one category map; duplicates keep their own bucket but count toward the
// severity total.
func aggregate(cfg Config, generatedAt time.Time, chains map[domain.ChainType]ledger.Result, duplicates []register.DuplicateFinding, anomalies []anomaly.Finding, prov Provenance) *Report {
	grouped := anomaly.GroupByCategory(anomalies)

	for _, chain := range domain.ChainTypes() {
		result, ok := chains[chain]
		if !ok {
			continue
		}
		for _, b := range result.Breaks {
			grouped[domain.CategoryBrokenChain] = append(grouped[domain.CategoryBrokenChain], anomaly.Finding{
				Category:  domain.CategoryBrokenChain,
				SubjectID: fmt.Sprintf("%s#%d", chain, b.AtSequenceID),
				Detail:    b.String(),
			})
		}
	}

	total := len(duplicates)
	for _, findings := range grouped {
		total += len(findings)
	}

	return &Report{
		ReportID:           domain.NewReportID(),
		GeneratedAt:        generatedAt,
		Chains:             chains,
		Duplicates:         duplicates,
		FindingsByCategory: grouped,
		TotalFindingCount:  total,
		Severity:           cfg.SeverityFor(total),
		Provenance:         prov,
	}
}

// CheckName identifies one of the four detection checks within a run.
type CheckName string

const (
	CheckLedgerVotes CheckName = "ledger_votes"
	CheckLedgerAudit CheckName = "ledger_audit"
	CheckDuplicates  CheckName = "duplicates"
	CheckAnomalies   CheckName = "anomalies"
)

// checkNames lists all checks in stable order.
func checkNames() []CheckName {
	return []CheckName{CheckLedgerVotes, CheckLedgerAudit, CheckDuplicates, CheckAnomalies}
}

// PartialReportError signals that at least one check failed. It carries the
// per-check outcome map so callers can decide whether a partial severity
// judgment is acceptable; a report is never silently missing a category.
type PartialReportError struct {
	Outcomes map[CheckName]error
}

// Error lists the failed checks.
func (e *PartialReportError) Error() string {
	failed := e.FailedChecks()
	return fmt.Sprintf("detection incomplete: %d of %d checks failed: %v", len(failed), len(e.Outcomes), failed)
}

// FailedChecks returns the names of failed checks in stable order.
func (e *PartialReportError) FailedChecks() []CheckName {
	failed := make([]CheckName, 0, len(e.Outcomes))
	for name, err := range e.Outcomes {
		if err != nil {
			failed = append(failed, name)
		}
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })
	return failed
}

// Succeeded reports whether a specific check completed.
func (e *PartialReportError) Succeeded(name CheckName) bool {
	return e.Outcomes[name] == nil
}
