package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrutiny/internal/anomaly"
	"scrutiny/internal/detection"
	"scrutiny/internal/ledger"
	"scrutiny/internal/register"
	"scrutiny/internal/store"
	"scrutiny/pkg/domain"
	"scrutiny/pkg/platform/middleware/auth"
)

const (
	testSigningKey = "test-signing-key"
	testIssuer     = "scrutiny-test"
)

func newDetectionRouter(t *testing.T, source *store.InMemoryStore) http.Handler {
	t.Helper()
	detector, err := anomaly.NewDetector(anomaly.DefaultConfig())
	require.NoError(t, err)
	svc, err := detection.New(source, ledger.NewVerifier(), register.NewMatcher(), detector, detection.DefaultConfig())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	validator := auth.NewValidator(testSigningKey, testIssuer)

	h := New(svc, logger)
	r := chi.NewRouter()
	r.Use(auth.RequireOperator(validator, logger))
	h.Register(r)
	return r
}

func operatorToken(t *testing.T) string {
	t.Helper()
	token, err := auth.NewValidator(testSigningKey, testIssuer).GenerateToken("op-7", time.Minute)
	require.NoError(t, err)
	return token
}

func seedLedger(source *store.InMemoryStore, chain domain.ChainType, n int) {
	prev := ledger.GenesisHash
	for i := 1; i <= n; i++ {
		payload := []byte(fmt.Sprintf("%s-%d", chain, i))
		self := ledger.PayloadDigest(payload)
		source.AppendLedgerRecord(chain, domain.LedgerRecord{
			SequenceID: int64(i),
			SelfHash:   self,
			BackHash:   prev,
			Payload:    payload,
		})
		prev = self
	}
}

func TestBearerTokenRequired(t *testing.T) {
	router := newDetectionRouter(t, store.NewInMemoryStore())

	req := httptest.NewRequest(http.MethodPost, "/detection/run", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRunFullDetection(t *testing.T) {
	source := store.NewInMemoryStore()
	seedLedger(source, domain.ChainVotes, 3)
	seedLedger(source, domain.ChainAudit, 3)
	router := newDetectionRouter(t, source)

	req := httptest.NewRequest(http.MethodPost, "/detection/run", nil)
	req.Header.Set("Authorization", "Bearer "+operatorToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReportResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.ReportID)
	assert.Equal(t, "none", resp.Severity)
	assert.Zero(t, resp.TotalCount)
	assert.Equal(t, "op-7", resp.Provenance.OperatorID)
	require.Len(t, resp.Chains, 2)
	for _, chain := range resp.Chains {
		assert.True(t, chain.Valid, "chain %s", chain.Chain)
	}
}

func TestVerifyLedger(t *testing.T) {
	source := store.NewInMemoryStore()
	seedLedger(source, domain.ChainVotes, 4)
	router := newDetectionRouter(t, source)

	t.Run("valid chain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/detection/ledger/votes/verify", nil)
		req.Header.Set("Authorization", "Bearer "+operatorToken(t))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ChainResultResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "votes", resp.Chain)
		assert.True(t, resp.Valid)
		assert.Equal(t, 4, resp.RecordsScanned)
		assert.Empty(t, resp.Breaks)
	})

	t.Run("unknown chain rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/detection/ledger/receipts/verify", nil)
		req.Header.Set("Authorization", "Bearer "+operatorToken(t))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVerifyLedger_ReportsBreaks(t *testing.T) {
	source := store.NewInMemoryStore()
	source.AppendLedgerRecord(domain.ChainAudit, domain.LedgerRecord{
		SequenceID: 1,
		SelfHash:   ledger.PayloadDigest([]byte("first")),
		BackHash:   "not-the-genesis-hash",
		Payload:    []byte("first"),
	})
	router := newDetectionRouter(t, source)

	req := httptest.NewRequest(http.MethodPost, "/detection/ledger/audit/verify", nil)
	req.Header.Set("Authorization", "Bearer "+operatorToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChainResultResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Valid)
	require.Len(t, resp.Breaks, 1)
	assert.Equal(t, int64(1), resp.Breaks[0].AtSequenceID)
	assert.Equal(t, "back-hash-mismatch", resp.Breaks[0].Kind)
}

func TestDuplicates(t *testing.T) {
	source := store.NewInMemoryStore()
	first := domain.VoterRecord{
		VoterID:            domain.NewVoterID(),
		LegalName:          "Maya Lindqvist",
		DateOfBirth:        "1975-11-30",
		NationalIdentifier: "NID-100",
		VerificationState:  domain.VerificationVerified,
	}
	second := first
	second.VoterID = domain.NewVoterID()
	second.NationalIdentifier = "NID-101"
	source.PutVoter(first)
	source.PutVoter(second)
	router := newDetectionRouter(t, source)

	t.Run("fuzzy pair returned", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/detection/duplicates?mode=allpairs", nil)
		req.Header.Set("Authorization", "Bearer "+operatorToken(t))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp []DuplicateResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp, 1)
		assert.Equal(t, "fuzzy-identity", resp[0].Strategy)
		assert.Len(t, resp[0].SubjectIDs, 2)
	})

	t.Run("invalid mode rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/detection/duplicates?mode=psychic", nil)
		req.Header.Set("Authorization", "Bearer "+operatorToken(t))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAnomaliesAndStats(t *testing.T) {
	source := store.NewInMemoryStore()
	election := domain.ElectionRecord{
		ElectionID:  domain.NewElectionID(),
		Name:        "local",
		WindowStart: time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2024, 3, 12, 18, 0, 0, 0, time.UTC),
	}
	source.PutElection(election)
	candidate := domain.CandidateRecord{
		CandidateID: domain.NewCandidateID(),
		ElectionID:  election.ElectionID,
		Name:        "Candidate B",
	}
	source.PutCandidate(candidate)

	voter := domain.VoterRecord{
		VoterID:            domain.NewVoterID(),
		LegalName:          "Jonas Petersen",
		DateOfBirth:        "1990-06-15",
		NationalIdentifier: "NID-200",
		VerificationState:  domain.VerificationPending,
	}
	source.PutVoter(voter)
	source.PutVote(domain.VoteRecord{
		VoteID:      domain.NewVoteID(),
		VoterID:     voter.VoterID,
		ElectionID:  election.ElectionID,
		CandidateID: candidate.CandidateID,
		CastAt:      election.WindowStart.Add(2 * time.Hour),
	})
	router := newDetectionRouter(t, source)

	req := httptest.NewRequest(http.MethodGet, "/detection/anomalies", nil)
	req.Header.Set("Authorization", "Bearer "+operatorToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var anomalies map[string][]AnomalyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&anomalies))
	require.Len(t, anomalies["unverified-vote"], 1)

	statsReq := httptest.NewRequest(http.MethodGet, "/detection/stats", nil)
	statsReq.Header.Set("Authorization", "Bearer "+operatorToken(t))
	statsRec := httptest.NewRecorder()
	router.ServeHTTP(statsRec, statsReq)

	require.Equal(t, http.StatusOK, statsRec.Code)
	var stats detection.Stats
	require.NoError(t, json.NewDecoder(statsRec.Body).Decode(&stats))
	assert.Equal(t, 1, stats.UnverifiedVoted)
}
