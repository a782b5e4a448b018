package anomaly

import (
	"fmt"
	"sort"

	"scrutiny/pkg/domain"
)

// velocityFindings flags chronological neighbors in the same election cast
// less than VelocityWindow apart. Neighbors are by cast time, not by append
// order; ledger order and cast-time order can diverge.
func (d *Detector) velocityFindings(snap Snapshot) []Finding {
	byElection := make(map[domain.ElectionID][]domain.VoteRecord)
	for _, v := range snap.Votes {
		byElection[v.ElectionID] = append(byElection[v.ElectionID], v)
	}

	electionIDs := make([]domain.ElectionID, 0, len(byElection))
	for id := range byElection {
		electionIDs = append(electionIDs, id)
	}
	sort.Slice(electionIDs, func(i, j int) bool {
		return electionIDs[i].String() < electionIDs[j].String()
	})

	findings := make([]Finding, 0)
	for _, electionID := range electionIDs {
		votes := byElection[electionID]
		sort.Slice(votes, func(i, j int) bool {
			return votes[i].CastAt.Before(votes[j].CastAt)
		})
		for i := 1; i < len(votes); i++ {
			delta := votes[i].CastAt.Sub(votes[i-1].CastAt)
			if delta < d.cfg.VelocityWindow {
				findings = append(findings, Finding{
					Category:  domain.CategoryTemporalVelocity,
					SubjectID: votes[i].VoteID.String(),
					Detail: fmt.Sprintf("cast %s after vote %s in election %s",
						delta, votes[i-1].VoteID, electionID),
				})
			}
		}
	}
	return findings
}

// unverifiedVoteFindings flags votes whose voter is not verified at
// evaluation time. Deliberately current-state, not state-at-vote-time: a
// retroactively unverified voter's past votes surface here.
func (d *Detector) unverifiedVoteFindings(snap Snapshot) []Finding {
	states := make(map[domain.VoterID]domain.VerificationState, len(snap.Voters))
	for _, v := range snap.Voters {
		states[v.VoterID] = v.VerificationState
	}

	findings := make([]Finding, 0)
	for _, vote := range snap.Votes {
		state, ok := states[vote.VoterID]
		if !ok {
			continue // surfaces as an orphaned record instead
		}
		if state != domain.VerificationVerified {
			findings = append(findings, Finding{
				Category:  domain.CategoryUnverifiedVote,
				SubjectID: vote.VoteID.String(),
				Detail:    fmt.Sprintf("voter %s is %s", vote.VoterID, state),
			})
		}
	}
	return findings
}

// outOfWindowFindings flags votes cast outside their election's window.
func (d *Detector) outOfWindowFindings(snap Snapshot) []Finding {
	elections := make(map[domain.ElectionID]domain.ElectionRecord, len(snap.Elections))
	for _, e := range snap.Elections {
		elections[e.ElectionID] = e
	}

	findings := make([]Finding, 0)
	for _, vote := range snap.Votes {
		election, ok := elections[vote.ElectionID]
		if !ok {
			continue // orphaned-record territory
		}
		if vote.CastAt.Before(election.WindowStart) || vote.CastAt.After(election.WindowEnd) {
			findings = append(findings, Finding{
				Category:  domain.CategoryOutOfWindowVote,
				SubjectID: vote.VoteID.String(),
				Detail: fmt.Sprintf("cast at %s outside window [%s, %s]",
					vote.CastAt.Format("2006-01-02 15:04:05"),
					election.WindowStart.Format("2006-01-02 15:04:05"),
					election.WindowEnd.Format("2006-01-02 15:04:05")),
			})
		}
	}
	return findings
}

// orphanedRecordFindings flags votes whose voter, election, or candidate
// reference does not resolve. Referential breakage is orthogonal to hash
// breakage and must surface even when the chain verifies clean.
func (d *Detector) orphanedRecordFindings(snap Snapshot) []Finding {
	voters := make(map[domain.VoterID]bool, len(snap.Voters))
	for _, v := range snap.Voters {
		voters[v.VoterID] = true
	}
	elections := make(map[domain.ElectionID]bool, len(snap.Elections))
	for _, e := range snap.Elections {
		elections[e.ElectionID] = true
	}
	candidates := make(map[domain.CandidateID]bool, len(snap.Candidates))
	for _, c := range snap.Candidates {
		candidates[c.CandidateID] = true
	}

	findings := make([]Finding, 0)
	for _, vote := range snap.Votes {
		missing := ""
		switch {
		case !voters[vote.VoterID]:
			missing = fmt.Sprintf("voter %s", vote.VoterID)
		case !elections[vote.ElectionID]:
			missing = fmt.Sprintf("election %s", vote.ElectionID)
		case !candidates[vote.CandidateID]:
			missing = fmt.Sprintf("candidate %s", vote.CandidateID)
		}
		if missing != "" {
			findings = append(findings, Finding{
				Category:  domain.CategoryOrphanedRecord,
				SubjectID: vote.VoteID.String(),
				Detail:    "references missing " + missing,
			})
		}
	}
	return findings
}

// deceasedVoteFindings joins votes to death records through the voter's
// national identifier and flags votes cast after the death date. Death state
// is evaluated as of now, not as of cast time, so a late-arriving death
// record retroactively flags earlier votes.
func (d *Detector) deceasedVoteFindings(snap Snapshot) []Finding {
	deaths := make(map[domain.NationalID]domain.DeathRecord, len(snap.Deaths))
	for _, death := range snap.Deaths {
		if d.cfg.VerifiedDeathsOnly && !death.Verified {
			continue
		}
		deaths[death.NationalIdentifier] = death
	}
	voters := make(map[domain.VoterID]domain.VoterRecord, len(snap.Voters))
	for _, v := range snap.Voters {
		voters[v.VoterID] = v
	}

	findings := make([]Finding, 0)
	for _, vote := range snap.Votes {
		voter, ok := voters[vote.VoterID]
		if !ok {
			continue
		}
		death, ok := deaths[voter.NationalIdentifier]
		if !ok {
			continue
		}
		if vote.CastAt.After(death.DeathDate) {
			findings = append(findings, Finding{
				Category:  domain.CategoryDeceasedVote,
				SubjectID: vote.VoteID.String(),
				Detail: fmt.Sprintf("voter %s recorded deceased on %s, vote cast %s",
					vote.VoterID,
					death.DeathDate.Format(domain.DateLayout),
					vote.CastAt.Format(domain.DateLayout)),
			})
		}
	}
	return findings
}

// zeroActivityFindings flags elections and candidates with no votes at all.
func (d *Detector) zeroActivityFindings(snap Snapshot) []Finding {
	votesPerElection := make(map[domain.ElectionID]int)
	votesPerCandidate := make(map[domain.CandidateID]int)
	for _, vote := range snap.Votes {
		votesPerElection[vote.ElectionID]++
		votesPerCandidate[vote.CandidateID]++
	}

	findings := make([]Finding, 0)
	for _, e := range snap.Elections {
		if votesPerElection[e.ElectionID] == 0 {
			findings = append(findings, Finding{
				Category:  domain.CategoryZeroActivityEntity,
				SubjectID: e.ElectionID.String(),
				Detail:    fmt.Sprintf("election %q has no votes", e.Name),
			})
		}
	}
	for _, c := range snap.Candidates {
		if votesPerCandidate[c.CandidateID] == 0 {
			findings = append(findings, Finding{
				Category:  domain.CategoryZeroActivityEntity,
				SubjectID: c.CandidateID.String(),
				Detail:    fmt.Sprintf("candidate %q has no votes", c.Name),
			})
		}
	}
	return findings
}

// unusualHourFindings flags votes cast outside the configured local hour
// band (inclusive on both ends).
func (d *Detector) unusualHourFindings(snap Snapshot) []Finding {
	findings := make([]Finding, 0)
	for _, vote := range snap.Votes {
		hour := vote.CastAt.Hour()
		if hour < d.cfg.HourBandStart || hour > d.cfg.HourBandEnd {
			findings = append(findings, Finding{
				Category:  domain.CategoryUnusualHour,
				SubjectID: vote.VoteID.String(),
				Detail:    fmt.Sprintf("cast at local hour %02d, expected %02d-%02d", hour, d.cfg.HourBandStart, d.cfg.HourBandEnd),
			})
		}
	}
	return findings
}
