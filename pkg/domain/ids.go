package domain

import (
	"github.com/google/uuid"

	dErrors "scrutiny/pkg/domain-errors"
)

// Typed identifiers keep voter, vote, election, and candidate ids from being
// mixed up at call sites. All are UUID-backed; construct via the Parse
// functions at trust boundaries.
type (
	VoterID     uuid.UUID
	VoteID      uuid.UUID
	ElectionID  uuid.UUID
	CandidateID uuid.UUID
	ReportID    uuid.UUID
)

func NewVoterID() VoterID         { return VoterID(uuid.New()) }
func NewVoteID() VoteID           { return VoteID(uuid.New()) }
func NewElectionID() ElectionID   { return ElectionID(uuid.New()) }
func NewCandidateID() CandidateID { return CandidateID(uuid.New()) }
func NewReportID() ReportID       { return ReportID(uuid.New()) }

func (id VoterID) String() string     { return uuid.UUID(id).String() }
func (id VoteID) String() string      { return uuid.UUID(id).String() }
func (id ElectionID) String() string  { return uuid.UUID(id).String() }
func (id CandidateID) String() string { return uuid.UUID(id).String() }
func (id ReportID) String() string    { return uuid.UUID(id).String() }

// Named types do not inherit uuid.UUID's text marshaling, so each ID
// delegates explicitly; without this, encoding/json renders ids as raw
// byte arrays.
func (id VoterID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id VoteID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id ElectionID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id CandidateID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ReportID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }

func (id *VoterID) UnmarshalText(b []byte) error {
	parsed, err := ParseVoterID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *VoteID) UnmarshalText(b []byte) error {
	parsed, err := ParseVoteID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ElectionID) UnmarshalText(b []byte) error {
	parsed, err := ParseElectionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CandidateID) UnmarshalText(b []byte) error {
	parsed, err := ParseCandidateID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ReportID) UnmarshalText(b []byte) error {
	parsed, err := ParseReportID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseVoterID constructs a VoterID from external input.
func ParseVoterID(s string) (VoterID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return VoterID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid voter id")
	}
	return VoterID(u), nil
}

// ParseVoteID constructs a VoteID from external input.
func ParseVoteID(s string) (VoteID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return VoteID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid vote id")
	}
	return VoteID(u), nil
}

// ParseElectionID constructs an ElectionID from external input.
func ParseElectionID(s string) (ElectionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ElectionID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid election id")
	}
	return ElectionID(u), nil
}

// ParseCandidateID constructs a CandidateID from external input.
func ParseCandidateID(s string) (CandidateID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CandidateID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid candidate id")
	}
	return CandidateID(u), nil
}

// ParseReportID constructs a ReportID from external input.
func ParseReportID(s string) (ReportID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ReportID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid report id")
	}
	return ReportID(u), nil
}

// NationalID is the government-issued identifier expected to be globally
// unique across the register. Stored trimmed; comparison is exact.
type NationalID string

func (n NationalID) String() string { return string(n) }
