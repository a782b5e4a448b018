package store

import (
	"context"
	"sort"
	"sync"

	"scrutiny/pkg/domain"
)

// InMemoryStore keeps the full record set in process. It backs unit tests
// and local development; it intentionally favors clarity over performance.
type InMemoryStore struct {
	mu         sync.RWMutex
	voters     map[domain.VoterID]domain.VoterRecord
	votes      map[domain.VoteID]domain.VoteRecord
	elections  map[domain.ElectionID]domain.ElectionRecord
	candidates map[domain.CandidateID]domain.CandidateRecord
	deaths     []domain.DeathRecord
	ledgers    map[domain.ChainType][]domain.LedgerRecord
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		voters:     make(map[domain.VoterID]domain.VoterRecord),
		votes:      make(map[domain.VoteID]domain.VoteRecord),
		elections:  make(map[domain.ElectionID]domain.ElectionRecord),
		candidates: make(map[domain.CandidateID]domain.CandidateRecord),
		ledgers:    make(map[domain.ChainType][]domain.LedgerRecord),
	}
}

// PutVoter adds or replaces a voter record.
func (s *InMemoryStore) PutVoter(v domain.VoterRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[v.VoterID] = v
}

// PutVote adds or replaces a vote record.
func (s *InMemoryStore) PutVote(v domain.VoteRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[v.VoteID] = v
}

// PutElection adds or replaces an election record.
func (s *InMemoryStore) PutElection(e domain.ElectionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[e.ElectionID] = e
}

// PutCandidate adds or replaces a candidate record.
func (s *InMemoryStore) PutCandidate(c domain.CandidateRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates[c.CandidateID] = c
}

// PutDeathRecord appends a death record.
func (s *InMemoryStore) PutDeathRecord(d domain.DeathRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deaths = append(s.deaths, d)
}

// AppendLedgerRecord appends a ledger record to a chain.
func (s *InMemoryStore) AppendLedgerRecord(chain domain.ChainType, r domain.LedgerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[chain] = append(s.ledgers[chain], r)
}

func (s *InMemoryStore) ListVoters(_ context.Context, scope domain.Scope) ([]domain.VoterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.VoterRecord, 0, len(s.voters))
	for _, v := range s.voters {
		if scope.IsFull() || v.Region == scope.Region {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VoterID.String() < out[j].VoterID.String() })
	return out, nil
}

func (s *InMemoryStore) ListVotes(_ context.Context, scope domain.Scope) ([]domain.VoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.VoteRecord, 0, len(s.votes))
	for _, v := range s.votes {
		if !scope.IsFull() {
			voter, ok := s.voters[v.VoterID]
			if !ok || voter.Region != scope.Region {
				continue
			}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VoteID.String() < out[j].VoteID.String() })
	return out, nil
}

func (s *InMemoryStore) ListElections(_ context.Context) ([]domain.ElectionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ElectionRecord, 0, len(s.elections))
	for _, e := range s.elections {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ElectionID.String() < out[j].ElectionID.String() })
	return out, nil
}

func (s *InMemoryStore) ListCandidates(_ context.Context) ([]domain.CandidateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CandidateRecord, 0, len(s.candidates))
	for _, c := range s.candidates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CandidateID.String() < out[j].CandidateID.String() })
	return out, nil
}

func (s *InMemoryStore) ListDeathRecords(_ context.Context) ([]domain.DeathRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DeathRecord, len(s.deaths))
	copy(out, s.deaths)
	return out, nil
}

func (s *InMemoryStore) ListLedgerRecords(_ context.Context, chain domain.ChainType) ([]domain.LedgerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.ledgers[chain]
	out := make([]domain.LedgerRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceID < out[j].SequenceID })
	return out, nil
}
