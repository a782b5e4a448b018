package domain

import "time"

// DateLayout is the canonical form for dates of birth and death dates.
// Comparison is exact string equality; parsing happens at import boundaries.
const DateLayout = "2006-01-02"

// VoterRecord is a register entry. Voters are never deleted; state changes
// are soft (verification state transitions).
type VoterRecord struct {
	VoterID            VoterID
	LegalName          string
	DateOfBirth        string // DateLayout
	NationalIdentifier NationalID
	BiometricDigest    string // opaque fixed-length hex, empty when not captured
	VerificationState  VerificationState
	Region             string
	RegisteredAt       time.Time
}

// VoteRecord is an appended ballot. The ledger fields live on the
// corresponding LedgerRecord; this is the relational projection.
type VoteRecord struct {
	VoteID      VoteID
	VoterID     VoterID
	ElectionID  ElectionID
	CandidateID CandidateID
	CastAt      time.Time
}

// ElectionRecord bounds the voting window for an election.
type ElectionRecord struct {
	ElectionID  ElectionID
	Name        string
	Region      string
	WindowStart time.Time
	WindowEnd   time.Time
}

// CandidateRecord ties a candidate to an election.
type CandidateRecord struct {
	CandidateID CandidateID
	ElectionID  ElectionID
	Name        string
}

// DeathRecord is sourced from the civil registry feed. Only verified records
// should drive the deceased-vote rule under the default policy.
type DeathRecord struct {
	NationalIdentifier NationalID
	DeathDate          time.Time
	Verified           bool
}

// LedgerRecord is one link of an append-only hash chain. Created once at
// append time by the single authoritative writer; never mutated.
type LedgerRecord struct {
	SequenceID int64
	SelfHash   string // sha3-256 hex of Payload
	BackHash   string // SelfHash of SequenceID-1, genesis value for the first record
	Payload    []byte
	RecordedAt time.Time
}

// Scope optionally narrows a detection pass. The zero value means the full
// register.
type Scope struct {
	Region string
}

// IsFull reports whether the scope covers the whole register.
func (s Scope) IsFull() bool { return s.Region == "" }
