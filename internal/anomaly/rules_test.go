package anomaly

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrutiny/pkg/domain"
)

var (
	electionDay  = time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	windowStart  = electionDay.Add(8 * time.Hour)  // 08:00
	windowEnd    = electionDay.Add(18 * time.Hour) // 18:00
	testDetector = mustDetector(DefaultConfig())
)

func mustDetector(cfg Config) *Detector {
	d, err := NewDetector(cfg)
	if err != nil {
		panic(err)
	}
	return d
}

type fixture struct {
	snap Snapshot
}

func newFixture() *fixture {
	election := domain.ElectionRecord{
		ElectionID:  domain.NewElectionID(),
		Name:        "general",
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}
	return &fixture{snap: Snapshot{
		Elections: []domain.ElectionRecord{election},
		TakenAt:   windowEnd,
	}}
}

func (f *fixture) election() domain.ElectionRecord { return f.snap.Elections[0] }

func (f *fixture) addVoter(state domain.VerificationState) domain.VoterRecord {
	id := domain.NewVoterID()
	v := domain.VoterRecord{
		VoterID:            id,
		LegalName:          "Test Voter",
		DateOfBirth:        "1980-01-01",
		NationalIdentifier: domain.NationalID("NID-" + id.String()),
		VerificationState:  state,
	}
	f.snap.Voters = append(f.snap.Voters, v)
	return v
}

func (f *fixture) addCandidate() domain.CandidateRecord {
	c := domain.CandidateRecord{
		CandidateID: domain.NewCandidateID(),
		ElectionID:  f.election().ElectionID,
		Name:        "Candidate",
	}
	f.snap.Candidates = append(f.snap.Candidates, c)
	return c
}

func (f *fixture) addVote(voter domain.VoterRecord, candidate domain.CandidateRecord, castAt time.Time) domain.VoteRecord {
	v := domain.VoteRecord{
		VoteID:      domain.NewVoteID(),
		VoterID:     voter.VoterID,
		ElectionID:  f.election().ElectionID,
		CandidateID: candidate.CandidateID,
		CastAt:      castAt,
	}
	f.snap.Votes = append(f.snap.Votes, v)
	return v
}

func (f *fixture) detect(t *testing.T) []Finding {
	t.Helper()
	findings, err := testDetector.Detect(context.Background(), f.snap)
	require.NoError(t, err)
	return findings
}

func ofCategory(findings []Finding, c domain.FindingCategory) []Finding {
	out := make([]Finding, 0)
	for _, f := range findings {
		if f.Category == c {
			out = append(out, f)
		}
	}
	return out
}

func TestNewDetector_ConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults valid", mutate: func(c *Config) {}},
		{
			name:    "negative velocity window",
			mutate:  func(c *Config) { c.VelocityWindow = -time.Second },
			wantErr: "velocity window",
		},
		{
			name:    "inverted hour band",
			mutate:  func(c *Config) { c.HourBandStart, c.HourBandEnd = 22, 6 },
			wantErr: "hour band",
		},
		{
			name:    "hour out of range",
			mutate:  func(c *Config) { c.HourBandEnd = 24 },
			wantErr: "hour band end",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewDetector(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestVelocityRule_Boundary(t *testing.T) {
	tests := []struct {
		name    string
		gap     time.Duration
		flagged bool
	}{
		{name: "exactly the window is not flagged", gap: 5 * time.Second, flagged: false},
		{name: "just under the window is flagged", gap: 4900 * time.Millisecond, flagged: true},
		{name: "well above the window is not flagged", gap: time.Minute, flagged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			candidate := f.addCandidate()
			a := f.addVoter(domain.VerificationVerified)
			b := f.addVoter(domain.VerificationVerified)
			first := f.addVote(a, candidate, windowStart.Add(time.Hour))
			second := f.addVote(b, candidate, first.CastAt.Add(tt.gap))

			findings := ofCategory(f.detect(t), domain.CategoryTemporalVelocity)
			if tt.flagged {
				require.Len(t, findings, 1)
				assert.Equal(t, second.VoteID.String(), findings[0].SubjectID)
				assert.Contains(t, findings[0].Detail, first.VoteID.String())
			} else {
				assert.Empty(t, findings)
			}
		})
	}
}

func TestVelocityRule_ComparesChronologicalNeighbors(t *testing.T) {
	// Append order diverges from cast-time order; the rule must sort by time.
	f := newFixture()
	candidate := f.addCandidate()
	a := f.addVoter(domain.VerificationVerified)
	b := f.addVoter(domain.VerificationVerified)
	c := f.addVoter(domain.VerificationVerified)

	late := f.addVote(a, candidate, windowStart.Add(2*time.Hour))
	early := f.addVote(b, candidate, windowStart.Add(time.Hour))
	nearEarly := f.addVote(c, candidate, early.CastAt.Add(2*time.Second))

	findings := ofCategory(f.detect(t), domain.CategoryTemporalVelocity)
	require.Len(t, findings, 1)
	assert.Equal(t, nearEarly.VoteID.String(), findings[0].SubjectID)
	assert.Contains(t, findings[0].Detail, early.VoteID.String())
	assert.NotContains(t, findings[0].Detail, late.VoteID.String())
}

func TestUnverifiedVoteRule(t *testing.T) {
	f := newFixture()
	candidate := f.addCandidate()
	verified := f.addVoter(domain.VerificationVerified)
	pending := f.addVoter(domain.VerificationPending)
	f.addVote(verified, candidate, windowStart.Add(time.Hour))
	flagged := f.addVote(pending, candidate, windowStart.Add(2*time.Hour))

	findings := ofCategory(f.detect(t), domain.CategoryUnverifiedVote)
	require.Len(t, findings, 1)
	assert.Equal(t, flagged.VoteID.String(), findings[0].SubjectID)
}

func TestOutOfWindowRule(t *testing.T) {
	f := newFixture()
	candidate := f.addCandidate()
	voter := f.addVoter(domain.VerificationVerified)
	f.addVote(voter, candidate, windowStart) // boundary: inside
	f.addVote(voter, candidate, windowEnd)   // boundary: inside
	before := f.addVote(voter, candidate, windowStart.Add(-time.Minute))
	after := f.addVote(voter, candidate, windowEnd.Add(time.Minute))

	findings := ofCategory(f.detect(t), domain.CategoryOutOfWindowVote)
	require.Len(t, findings, 2)
	subjects := []string{findings[0].SubjectID, findings[1].SubjectID}
	assert.ElementsMatch(t, []string{before.VoteID.String(), after.VoteID.String()}, subjects)
}

func TestUnusualHourRule(t *testing.T) {
	f := newFixture()
	candidate := f.addCandidate()
	voter := f.addVoter(domain.VerificationVerified)
	f.addVote(voter, candidate, electionDay.Add(6*time.Hour))                 // 06:00 inclusive
	f.addVote(voter, candidate, electionDay.Add(22*time.Hour+30*time.Minute)) // 22:30, still hour 22
	night := f.addVote(voter, candidate, electionDay.Add(3*time.Hour))        // 03:00

	findings := ofCategory(f.detect(t), domain.CategoryUnusualHour)
	require.Len(t, findings, 1)
	assert.Equal(t, night.VoteID.String(), findings[0].SubjectID)
}

func TestZeroActivityRule(t *testing.T) {
	f := newFixture()
	contested := f.addCandidate()
	unloved := f.addCandidate()
	voter := f.addVoter(domain.VerificationVerified)
	f.addVote(voter, contested, windowStart.Add(time.Hour))

	ghostElection := domain.ElectionRecord{
		ElectionID:  domain.NewElectionID(),
		Name:        "by-election",
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}
	f.snap.Elections = append(f.snap.Elections, ghostElection)

	findings := ofCategory(f.detect(t), domain.CategoryZeroActivityEntity)
	require.Len(t, findings, 2)
	subjects := []string{findings[0].SubjectID, findings[1].SubjectID}
	assert.ElementsMatch(t, []string{ghostElection.ElectionID.String(), unloved.CandidateID.String()}, subjects)
}

func TestOrphanedRecordRule(t *testing.T) {
	f := newFixture()
	candidate := f.addCandidate()
	voter := f.addVoter(domain.VerificationVerified)
	f.addVote(voter, candidate, windowStart.Add(time.Hour))

	orphan := domain.VoteRecord{
		VoteID:      domain.NewVoteID(),
		VoterID:     voter.VoterID,
		ElectionID:  f.election().ElectionID,
		CandidateID: domain.NewCandidateID(), // unknown candidate
		CastAt:      windowStart.Add(2 * time.Hour),
	}
	f.snap.Votes = append(f.snap.Votes, orphan)

	findings := ofCategory(f.detect(t), domain.CategoryOrphanedRecord)
	require.Len(t, findings, 1)
	assert.Equal(t, orphan.VoteID.String(), findings[0].SubjectID)
	assert.Contains(t, findings[0].Detail, "candidate")
}

func TestDeceasedVoteRule(t *testing.T) {
	deathDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		verified bool
		castAt   time.Time
		flagged  bool
	}{
		{name: "vote after verified death", verified: true, castAt: windowStart.Add(time.Hour), flagged: true},
		{name: "unverified death ignored by default", verified: false, castAt: windowStart.Add(time.Hour), flagged: false},
		{name: "vote before death", verified: true, castAt: deathDate.AddDate(0, -2, 0), flagged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			candidate := f.addCandidate()
			voter := f.addVoter(domain.VerificationVerified)
			vote := f.addVote(voter, candidate, tt.castAt)
			f.snap.Deaths = append(f.snap.Deaths, domain.DeathRecord{
				NationalIdentifier: voter.NationalIdentifier,
				DeathDate:          deathDate,
				Verified:           tt.verified,
			})

			findings := ofCategory(f.detect(t), domain.CategoryDeceasedVote)
			if tt.flagged {
				require.Len(t, findings, 1)
				assert.Equal(t, vote.VoteID.String(), findings[0].SubjectID)
			} else {
				assert.Empty(t, findings)
			}
		})
	}
}

func TestDeceasedVoteRule_UnverifiedDeathsIncludedWhenConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VerifiedDeathsOnly = false
	detector := mustDetector(cfg)

	f := newFixture()
	candidate := f.addCandidate()
	voter := f.addVoter(domain.VerificationVerified)
	vote := f.addVote(voter, candidate, windowStart.Add(time.Hour))
	f.snap.Deaths = append(f.snap.Deaths, domain.DeathRecord{
		NationalIdentifier: voter.NationalIdentifier,
		DeathDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Verified:           false,
	})

	findings, err := detector.Detect(context.Background(), f.snap)
	require.NoError(t, err)
	deceased := ofCategory(findings, domain.CategoryDeceasedVote)
	require.Len(t, deceased, 1)
	assert.Equal(t, vote.VoteID.String(), deceased[0].SubjectID)
}

func TestDetect_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testDetector.Detect(ctx, newFixture().snap)
	assert.ErrorIs(t, err, context.Canceled)
}
