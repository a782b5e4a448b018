// Package anomaly evaluates temporal and relational rules over vote and
// voter records. Each rule is pure over a read-only snapshot; findings are
// values, never errors.
package anomaly

import (
	"time"

	"scrutiny/pkg/domain"
)

// Finding is a single flagged record or entity.
type Finding struct {
	Category  domain.FindingCategory `json:"category"`
	SubjectID string                 `json:"subject_id"`
	Detail    string                 `json:"detail"`
}

// Snapshot is the point-in-time view all rules evaluate against. Loaded once
// per detection pass so concurrent writes cannot skew the results.
type Snapshot struct {
	Voters     []domain.VoterRecord
	Votes      []domain.VoteRecord
	Elections  []domain.ElectionRecord
	Candidates []domain.CandidateRecord
	Deaths     []domain.DeathRecord
	TakenAt    time.Time
}
