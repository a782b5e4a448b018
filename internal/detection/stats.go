package detection

import (
	"context"
	"time"

	"scrutiny/pkg/domain"
	"scrutiny/pkg/requestcontext"
)

// Stats is the lightweight operational snapshot a dashboard polls. Derived
// from the same checks as a full report, minus the ledger scans.
type Stats struct {
	UnresolvedDuplicates int       `json:"unresolved_duplicates"`
	UnverifiedVoted      int       `json:"unverified_voted"`
	DeceasedVotes        int       `json:"deceased_votes"`
	StaleVotes           int       `json:"stale_votes"`
	ComputedAt           time.Time `json:"computed_at"`
}

func statsFromReport(report *Report) Stats {
	return Stats{
		UnresolvedDuplicates: len(report.Duplicates),
		UnverifiedVoted:      len(report.FindingsByCategory[domain.CategoryUnverifiedVote]),
		DeceasedVotes:        len(report.FindingsByCategory[domain.CategoryDeceasedVote]),
		StaleVotes:           len(report.FindingsByCategory[domain.CategoryOutOfWindowVote]),
		ComputedAt:           report.GeneratedAt,
	}
}

// Stats returns the cached snapshot when available, otherwise recomputes it
// from the duplicate and anomaly checks and refreshes the cache.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if s.statsCache != nil {
		cached, ok, err := s.statsCache.LatestStats(ctx)
		if err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "stats cache read failed", "error", err)
		}
		if ok {
			return cached, nil
		}
	}

	duplicates, err := s.DetectDuplicates(ctx, domain.Scope{}, s.cfg.DefaultMatchMode)
	if err != nil {
		return Stats{}, err
	}
	grouped, err := s.DetectAnomalies(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		UnresolvedDuplicates: len(duplicates),
		UnverifiedVoted:      len(grouped[domain.CategoryUnverifiedVote]),
		DeceasedVotes:        len(grouped[domain.CategoryDeceasedVote]),
		StaleVotes:           len(grouped[domain.CategoryOutOfWindowVote]),
		ComputedAt:           requestcontext.Now(ctx),
	}

	if s.statsCache != nil {
		if err := s.statsCache.SaveStats(ctx, stats); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "stats cache update failed", "error", err)
		}
	}
	return stats, nil
}
