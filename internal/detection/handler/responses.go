package handler

import (
	"time"

	"scrutiny/internal/anomaly"
	"scrutiny/internal/detection"
	"scrutiny/internal/ledger"
	"scrutiny/internal/register"
	"scrutiny/pkg/domain"
)

// ReportResponse is the HTTP response for POST /detection/run.
type ReportResponse struct {
	ReportID    string                       `json:"report_id"`
	GeneratedAt time.Time                    `json:"generated_at"`
	Severity    string                       `json:"severity"`
	TotalCount  int                          `json:"total_finding_count"`
	Chains      []ChainResultResponse        `json:"chains"`
	Duplicates  []DuplicateResponse          `json:"duplicates"`
	Findings    map[string][]AnomalyResponse `json:"findings_by_category"`
	Provenance  ProvenanceResponse           `json:"provenance"`
}

// ProvenanceResponse records who triggered the run and from where.
type ProvenanceResponse struct {
	OperatorID string `json:"operator_id"`
	ClientIP   string `json:"client_ip,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
}

// ChainResultResponse is the verification outcome for one hash chain.
type ChainResultResponse struct {
	Chain          string               `json:"chain"`
	Valid          bool                 `json:"valid"`
	RecordsScanned int                  `json:"records_scanned"`
	Breaks         []ChainBreakResponse `json:"breaks"`
}

// ChainBreakResponse describes one point where a chain fails verification.
type ChainBreakResponse struct {
	AtSequenceID     int64  `json:"at_sequence_id"`
	Kind             string `json:"kind"`
	ExpectedBackHash string `json:"expected_back_hash,omitempty"`
	ActualBackHash   string `json:"actual_back_hash,omitempty"`
	Detail           string `json:"detail,omitempty"`
}

// DuplicateResponse is one suspected duplicate-identity group.
type DuplicateResponse struct {
	Strategy   string            `json:"strategy"`
	SubjectIDs []string          `json:"subject_ids"`
	Evidence   map[string]string `json:"evidence,omitempty"`
}

// AnomalyResponse is one behavioral finding.
type AnomalyResponse struct {
	SubjectID string `json:"subject_id"`
	Detail    string `json:"detail"`
}

// FromReport converts a domain report to an HTTP response.
func FromReport(report *detection.Report) *ReportResponse {
	chains := make([]ChainResultResponse, 0, len(report.Chains))
	for _, chain := range domain.ChainTypes() {
		if result, ok := report.Chains[chain]; ok {
			chains = append(chains, FromChainResult(chain, result))
		}
	}

	findings := make(map[string][]AnomalyResponse, len(report.FindingsByCategory))
	for category, items := range report.FindingsByCategory {
		findings[string(category)] = fromFindings(items)
	}

	return &ReportResponse{
		ReportID:    report.ReportID.String(),
		GeneratedAt: report.GeneratedAt,
		Severity:    string(report.Severity),
		TotalCount:  report.TotalFindingCount,
		Chains:      chains,
		Duplicates:  FromDuplicates(report.Duplicates),
		Findings:    findings,
		Provenance: ProvenanceResponse{
			OperatorID: report.Provenance.OperatorID,
			ClientIP:   report.Provenance.ClientIP,
			UserAgent:  report.Provenance.UserAgent,
		},
	}
}

// FromChainResult converts a ledger verification result to an HTTP response.
func FromChainResult(chain domain.ChainType, result ledger.Result) ChainResultResponse {
	breaks := make([]ChainBreakResponse, 0, len(result.Breaks))
	for _, b := range result.Breaks {
		breaks = append(breaks, ChainBreakResponse{
			AtSequenceID:     b.AtSequenceID,
			Kind:             string(b.Kind),
			ExpectedBackHash: b.ExpectedBackHash,
			ActualBackHash:   b.ActualBackHash,
			Detail:           b.Detail,
		})
	}
	return ChainResultResponse{
		Chain:          string(chain),
		Valid:          result.Valid,
		RecordsScanned: result.RecordsScanned,
		Breaks:         breaks,
	}
}

// FromDuplicates converts duplicate findings to HTTP responses.
func FromDuplicates(findings []register.DuplicateFinding) []DuplicateResponse {
	out := make([]DuplicateResponse, 0, len(findings))
	for _, f := range findings {
		subjects := make([]string, 0, len(f.SubjectIDs))
		for _, id := range f.SubjectIDs {
			subjects = append(subjects, id.String())
		}
		out = append(out, DuplicateResponse{
			Strategy:   string(f.Strategy),
			SubjectIDs: subjects,
			Evidence:   f.Evidence,
		})
	}
	return out
}

// FromAnomalies converts grouped anomaly findings to an HTTP response keyed
// by category.
func FromAnomalies(grouped map[domain.FindingCategory][]anomaly.Finding) map[string][]AnomalyResponse {
	out := make(map[string][]AnomalyResponse, len(grouped))
	for category, items := range grouped {
		out[string(category)] = fromFindings(items)
	}
	return out
}

func fromFindings(items []anomaly.Finding) []AnomalyResponse {
	out := make([]AnomalyResponse, 0, len(items))
	for _, f := range items {
		out = append(out, AnomalyResponse{SubjectID: f.SubjectID, Detail: f.Detail})
	}
	return out
}
