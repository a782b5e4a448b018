// Package register detects duplicate or colliding registrants on the
// electoral register. The matcher is a pure function of its input snapshot:
// it never mutates voter records and its output does not depend on input
// ordering.
package register

import "scrutiny/pkg/domain"

// DuplicateFinding is evidence that two or more voter records may represent
// the same person. SubjectIDs are sorted; Evidence carries the matched field
// values.
type DuplicateFinding struct {
	Strategy   domain.DuplicateStrategy `json:"strategy"`
	SubjectIDs []domain.VoterID         `json:"subject_ids"`
	Evidence   map[string]string        `json:"evidence"`
}
