// Package postgres provides the production record source backed by the
// register database. All reads are bounded by the request time so a full
// detection run sees one consistent snapshot even while registration traffic
// continues.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"scrutiny/pkg/domain"
	"scrutiny/pkg/requestcontext"
)

// listPageSize bounds each keyset page. Large registers are streamed page by
// page rather than held in a single result set on the server.
const listPageSize = 5000

// Store reads register records from postgres.
type Store struct {
	db *pgxpool.Pool
}

// New constructs a Store on an existing pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Health verifies database connectivity.
func (s *Store) Health(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ListVoters returns voter records within scope, ordered by voter id.
func (s *Store) ListVoters(ctx context.Context, scope domain.Scope) ([]domain.VoterRecord, error) {
	asOf := requestcontext.Now(ctx)
	var out []domain.VoterRecord
	last := ""
	for {
		rows, err := s.db.Query(ctx, `
SELECT voter_id,legal_name,date_of_birth,national_identifier,biometric_digest,verification_state,region,registered_at
FROM voters
WHERE registered_at <= $1
  AND ($2 = '' OR region = $2)
  AND voter_id::text > $3
ORDER BY voter_id::text ASC
LIMIT $4
`, asOf, scope.Region, last, listPageSize)
		if err != nil {
			return nil, fmt.Errorf("list voters: %w", err)
		}
		page := 0
		for rows.Next() {
			var v domain.VoterRecord
			if err := rows.Scan(&v.VoterID, &v.LegalName, &v.DateOfBirth, &v.NationalIdentifier, &v.BiometricDigest, &v.VerificationState, &v.Region, &v.RegisteredAt); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan voter: %w", err)
			}
			out = append(out, v)
			last = v.VoterID.String()
			page++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("list voters: %w", err)
		}
		if page < listPageSize {
			return out, nil
		}
	}
}

// ListVotes returns vote records within scope, ordered by vote id. Scope is
// applied through the casting voter's region.
func (s *Store) ListVotes(ctx context.Context, scope domain.Scope) ([]domain.VoteRecord, error) {
	asOf := requestcontext.Now(ctx)
	var out []domain.VoteRecord
	last := ""
	for {
		rows, err := s.db.Query(ctx, `
SELECT v.vote_id,v.voter_id,v.election_id,v.candidate_id,v.cast_at
FROM votes v
LEFT JOIN voters r ON r.voter_id = v.voter_id
WHERE v.cast_at <= $1
  AND ($2 = '' OR r.region = $2)
  AND v.vote_id::text > $3
ORDER BY v.vote_id::text ASC
LIMIT $4
`, asOf, scope.Region, last, listPageSize)
		if err != nil {
			return nil, fmt.Errorf("list votes: %w", err)
		}
		page := 0
		for rows.Next() {
			var v domain.VoteRecord
			if err := rows.Scan(&v.VoteID, &v.VoterID, &v.ElectionID, &v.CandidateID, &v.CastAt); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan vote: %w", err)
			}
			out = append(out, v)
			last = v.VoteID.String()
			page++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("list votes: %w", err)
		}
		if page < listPageSize {
			return out, nil
		}
	}
}

// ListElections returns all elections ordered by election id.
func (s *Store) ListElections(ctx context.Context) ([]domain.ElectionRecord, error) {
	rows, err := s.db.Query(ctx, `
SELECT election_id,name,region,window_start,window_end
FROM elections
ORDER BY election_id::text ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list elections: %w", err)
	}
	defer rows.Close()
	var out []domain.ElectionRecord
	for rows.Next() {
		var e domain.ElectionRecord
		if err := rows.Scan(&e.ElectionID, &e.Name, &e.Region, &e.WindowStart, &e.WindowEnd); err != nil {
			return nil, fmt.Errorf("scan election: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListCandidates returns all candidates ordered by candidate id.
func (s *Store) ListCandidates(ctx context.Context) ([]domain.CandidateRecord, error) {
	rows, err := s.db.Query(ctx, `
SELECT candidate_id,election_id,name
FROM candidates
ORDER BY candidate_id::text ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()
	var out []domain.CandidateRecord
	for rows.Next() {
		var c domain.CandidateRecord
		if err := rows.Scan(&c.CandidateID, &c.ElectionID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListDeathRecords returns civil-registry death notifications ordered by
// national identifier.
func (s *Store) ListDeathRecords(ctx context.Context) ([]domain.DeathRecord, error) {
	asOf := requestcontext.Now(ctx)
	rows, err := s.db.Query(ctx, `
SELECT national_identifier,death_date,verified
FROM death_records
WHERE recorded_at <= $1
ORDER BY national_identifier ASC
`, asOf)
	if err != nil {
		return nil, fmt.Errorf("list death records: %w", err)
	}
	defer rows.Close()
	var out []domain.DeathRecord
	for rows.Next() {
		var d domain.DeathRecord
		if err := rows.Scan(&d.NationalIdentifier, &d.DeathDate, &d.Verified); err != nil {
			return nil, fmt.Errorf("scan death record: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListLedgerRecords returns one chain's records in ascending sequence order.
func (s *Store) ListLedgerRecords(ctx context.Context, chain domain.ChainType) ([]domain.LedgerRecord, error) {
	asOf := requestcontext.Now(ctx)
	var out []domain.LedgerRecord
	last := int64(-1)
	for {
		rows, err := s.db.Query(ctx, `
SELECT sequence_id,self_hash,back_hash,payload,recorded_at
FROM ledger_records
WHERE chain = $1
  AND recorded_at <= $2
  AND sequence_id > $3
ORDER BY sequence_id ASC
LIMIT $4
`, chain, asOf, last, listPageSize)
		if err != nil {
			return nil, fmt.Errorf("list ledger records: %w", err)
		}
		page := 0
		for rows.Next() {
			var r domain.LedgerRecord
			if err := rows.Scan(&r.SequenceID, &r.SelfHash, &r.BackHash, &r.Payload, &r.RecordedAt); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan ledger record: %w", err)
			}
			out = append(out, r)
			last = r.SequenceID
			page++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("list ledger records: %w", err)
		}
		if page < listPageSize {
			return out, nil
		}
	}
}
