// Package ledger verifies append-only hash chains after the fact. The single
// authoritative writer links each record to its predecessor at append time;
// this package only reads and reports where the linkage does not hold.
package ledger

import "fmt"

// GenesisHash is the well-known back-hash of a chain's first record:
// sha3-256 of the empty string.
const GenesisHash = "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"

// BreakKind classifies a chain break.
type BreakKind string

const (
	// BreakBackHashMismatch means a record's back-hash does not equal its
	// predecessor's self-hash.
	BreakBackHashMismatch BreakKind = "back-hash-mismatch"
	// BreakMissingSequence means sequence ids are not contiguous. A deleted
	// and never-verified record is itself a tamper signal, so gaps are
	// reported independently of hash comparison.
	BreakMissingSequence BreakKind = "missing-sequence"
	// BreakMalformedRecord means a record is missing a hash field. Reported
	// as a break rather than raised, because a malformed record is a
	// security-relevant fact to surface, not a bug to crash on.
	BreakMalformedRecord BreakKind = "malformed-record"
	// BreakPayloadDigest means a record's self-hash does not match the
	// recomputed digest of its payload.
	BreakPayloadDigest BreakKind = "payload-digest-mismatch"
)

// ChainBreak pinpoints one verification failure. A single run reports every
// break it finds; one tamper point must not hide subsequent ones.
type ChainBreak struct {
	AtSequenceID     int64     `json:"at_sequence_id"`
	Kind             BreakKind `json:"kind"`
	ExpectedBackHash string    `json:"expected_back_hash,omitempty"`
	ActualBackHash   string    `json:"actual_back_hash,omitempty"`
	Detail           string    `json:"detail,omitempty"`
}

func (b ChainBreak) String() string {
	return fmt.Sprintf("%s at sequence %d", b.Kind, b.AtSequenceID)
}

// Result is the outcome of verifying one chain.
type Result struct {
	Valid          bool         `json:"valid"`
	RecordsScanned int          `json:"records_scanned"`
	Breaks         []ChainBreak `json:"breaks"`
}
