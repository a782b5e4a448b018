// Package store defines read access to the durable record store. The engine
// never writes voter, vote, election, or death data; implementations must
// serve a consistent snapshot (reads are bounded by the time pinned in the
// context, see requestcontext.Now) so in-flight writes cannot surface as
// false findings.
package store

import (
	"context"

	"scrutiny/pkg/domain"
)

// RecordSource supplies ordered record sequences by type. Ledger records are
// returned in strict ascending sequence order. List methods return the full
// scoped set; implementations page internally.
type RecordSource interface {
	ListVoters(ctx context.Context, scope domain.Scope) ([]domain.VoterRecord, error)
	ListVotes(ctx context.Context, scope domain.Scope) ([]domain.VoteRecord, error)
	ListElections(ctx context.Context) ([]domain.ElectionRecord, error)
	ListCandidates(ctx context.Context) ([]domain.CandidateRecord, error)
	ListDeathRecords(ctx context.Context) ([]domain.DeathRecord, error)
	ListLedgerRecords(ctx context.Context, chain domain.ChainType) ([]domain.LedgerRecord, error)
}
