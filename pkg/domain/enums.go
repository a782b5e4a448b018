package domain

import dErrors "scrutiny/pkg/domain-errors"

// VerificationState tracks how far a voter has progressed through identity
// verification. Pending voters remain on the register but their votes are
// flagged by the anomaly rules.
type VerificationState string

const (
	VerificationVerified VerificationState = "verified"
	VerificationPending  VerificationState = "pending"
)

func (v VerificationState) String() string { return string(v) }

// ChainType names an append-only hash chain maintained by the record store.
type ChainType string

const (
	ChainVotes ChainType = "votes"
	ChainAudit ChainType = "audit"
)

var validChainTypes = map[ChainType]bool{
	ChainVotes: true,
	ChainAudit: true,
}

// ParseChainType constructs a ChainType from external input.
func ParseChainType(s string) (ChainType, error) {
	c := ChainType(s)
	if !validChainTypes[c] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid chain type")
	}
	return c, nil
}

func (c ChainType) IsValid() bool  { return validChainTypes[c] }
func (c ChainType) String() string { return string(c) }

// ChainTypes lists all known chains in a stable order.
func ChainTypes() []ChainType {
	return []ChainType{ChainVotes, ChainAudit}
}

// Severity is the coarse classification derived from the total finding count
// of a detection run.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) String() string { return string(s) }

// FindingCategory tags a single anomaly finding. Categories are stable wire
// values; report ordering follows Categories().
type FindingCategory string

const (
	CategoryTemporalVelocity   FindingCategory = "temporal-velocity"
	CategoryUnverifiedVote     FindingCategory = "unverified-vote"
	CategoryOutOfWindowVote    FindingCategory = "out-of-window-vote"
	CategoryBrokenChain        FindingCategory = "broken-chain"
	CategoryOrphanedRecord     FindingCategory = "orphaned-record"
	CategoryDeceasedVote       FindingCategory = "deceased-vote"
	CategoryZeroActivityEntity FindingCategory = "zero-activity-entity"
	CategoryUnusualHour        FindingCategory = "unusual-hour"
)

// Categories lists all finding categories in report order.
func Categories() []FindingCategory {
	return []FindingCategory{
		CategoryTemporalVelocity,
		CategoryUnverifiedVote,
		CategoryOutOfWindowVote,
		CategoryBrokenChain,
		CategoryOrphanedRecord,
		CategoryDeceasedVote,
		CategoryZeroActivityEntity,
		CategoryUnusualHour,
	}
}

func (c FindingCategory) String() string { return string(c) }

// DuplicateStrategy names the matching strategy that produced a duplicate
// finding. A voter pair can appear under more than one strategy.
type DuplicateStrategy string

const (
	StrategyExactIdentifier    DuplicateStrategy = "exact-identifier"
	StrategyFuzzyIdentity      DuplicateStrategy = "fuzzy-identity"
	StrategyBiometricCollision DuplicateStrategy = "biometric-collision"
)

func (s DuplicateStrategy) String() string { return string(s) }

// MatchMode selects the duplicate-detection comparison strategy. Bucketed
// blocking keeps register-wide scans sub-quadratic; all-pairs is acceptable
// for narrow scopes.
type MatchMode string

const (
	MatchAllPairs MatchMode = "allpairs"
	MatchBucketed MatchMode = "bucketed"
)

var validMatchModes = map[MatchMode]bool{
	MatchAllPairs: true,
	MatchBucketed: true,
}

// ParseMatchMode constructs a MatchMode from external input. Empty input
// defaults to bucketed, the safe choice for unbounded scopes.
func ParseMatchMode(s string) (MatchMode, error) {
	if s == "" {
		return MatchBucketed, nil
	}
	m := MatchMode(s)
	if !validMatchModes[m] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid match mode")
	}
	return m, nil
}

func (m MatchMode) IsValid() bool  { return validMatchModes[m] }
func (m MatchMode) String() string { return string(m) }
