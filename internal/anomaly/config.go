package anomaly

import (
	"time"

	dErrors "scrutiny/pkg/domain-errors"
)

// Config holds rule thresholds. Defaults mirror the reference policy; every
// value is a deployment choice, not a constant.
type Config struct {
	// VelocityWindow flags consecutive votes (chronological neighbors in
	// the same election) cast less than this far apart. Exclusive bound:
	// exactly VelocityWindow apart is not flagged.
	VelocityWindow time.Duration

	// HourBandStart/HourBandEnd bound the expected local casting hours,
	// inclusive on both ends.
	HourBandStart int
	HourBandEnd   int

	// VerifiedDeathsOnly restricts the deceased-vote rule to death records
	// the civil registry has verified. Production policy; relaxing it is a
	// deliberate configuration change.
	VerifiedDeathsOnly bool

	// EvaluateAtVoteTime is reserved for comparing verification and death
	// state as of the vote's cast time instead of evaluation time. The
	// reference behavior (false) deliberately catches retroactive
	// disqualification; flipping this requires historical state the record
	// store does not yet expose.
	EvaluateAtVoteTime bool
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		VelocityWindow:     5 * time.Second,
		HourBandStart:      6,
		HourBandEnd:        22,
		VerifiedDeathsOnly: true,
	}
}

// Validate fails fast on threshold values no scan should run with.
func (c Config) Validate() error {
	if c.VelocityWindow < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "velocity window cannot be negative")
	}
	if c.HourBandStart < 0 || c.HourBandStart > 23 {
		return dErrors.New(dErrors.CodeInvalidInput, "hour band start must be within 0-23")
	}
	if c.HourBandEnd < 0 || c.HourBandEnd > 23 {
		return dErrors.New(dErrors.CodeInvalidInput, "hour band end must be within 0-23")
	}
	if c.HourBandStart > c.HourBandEnd {
		return dErrors.New(dErrors.CodeInvalidInput, "hour band start must not be after hour band end")
	}
	if c.EvaluateAtVoteTime {
		return dErrors.New(dErrors.CodeInvalidInput, "state-at-vote-time evaluation is not supported yet")
	}
	return nil
}
