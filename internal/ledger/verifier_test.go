package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrutiny/pkg/domain"
)

// buildChain constructs a correctly linked chain of n records with sequence
// ids starting at 1.
func buildChain(n int) []domain.LedgerRecord {
	records := make([]domain.LedgerRecord, 0, n)
	prev := GenesisHash
	for i := 1; i <= n; i++ {
		payload := []byte(fmt.Sprintf("record-%d", i))
		self := PayloadDigest(payload)
		records = append(records, domain.LedgerRecord{
			SequenceID: int64(i),
			SelfHash:   self,
			BackHash:   prev,
			Payload:    payload,
			RecordedAt: time.Date(2024, 3, 1, 10, 0, i, 0, time.UTC),
		})
		prev = self
	}
	return records
}

func TestVerify_ValidChain(t *testing.T) {
	tests := []struct {
		name   string
		length int
	}{
		{name: "empty sequence", length: 0},
		{name: "single record against genesis", length: 1},
		{name: "long chain", length: 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewVerifier().Verify(context.Background(), buildChain(tt.length))
			require.NoError(t, err)
			assert.True(t, result.Valid)
			assert.Empty(t, result.Breaks)
			assert.Equal(t, tt.length, result.RecordsScanned)
		})
	}
}

func TestVerify_TamperProducesSingleBreak(t *testing.T) {
	// Tampering record i's payload changes its self-hash; record i+1 still
	// carries the old back-hash, so exactly one break lands at i+1.
	for _, tampered := range []int{0, 4, 8} {
		t.Run(fmt.Sprintf("tamper index %d", tampered), func(t *testing.T) {
			records := buildChain(10)
			records[tampered].Payload = []byte("tampered")
			records[tampered].SelfHash = PayloadDigest(records[tampered].Payload)

			result, err := NewVerifier().Verify(context.Background(), records)
			require.NoError(t, err)
			assert.False(t, result.Valid)
			require.Len(t, result.Breaks, 1)
			assert.Equal(t, BreakBackHashMismatch, result.Breaks[0].Kind)
			assert.Equal(t, records[tampered+1].SequenceID, result.Breaks[0].AtSequenceID)
			assert.Equal(t, records[tampered].SelfHash, result.Breaks[0].ExpectedBackHash)
		})
	}
}

func TestVerify_NonAdjacentTampersAreIndependent(t *testing.T) {
	records := buildChain(20)
	for _, i := range []int{3, 11} {
		records[i].Payload = []byte("tampered")
		records[i].SelfHash = PayloadDigest(records[i].Payload)
	}

	result, err := NewVerifier().Verify(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, result.Breaks, 2)
	assert.Equal(t, int64(5), result.Breaks[0].AtSequenceID)
	assert.Equal(t, int64(13), result.Breaks[1].AtSequenceID)
}

func TestVerify_GenesisMismatch(t *testing.T) {
	records := buildChain(3)
	records[0].BackHash = "not-the-genesis-value"

	result, err := NewVerifier().Verify(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, result.Breaks, 1)
	assert.Equal(t, BreakBackHashMismatch, result.Breaks[0].Kind)
	assert.Equal(t, int64(1), result.Breaks[0].AtSequenceID)
	assert.Equal(t, GenesisHash, result.Breaks[0].ExpectedBackHash)
}

func TestVerify_MissingSequence(t *testing.T) {
	records := buildChain(5)
	// Drop record 3 but keep 4 linked to 2 so hashes still match locally;
	// the gap alone must surface.
	records[3].BackHash = records[1].SelfHash
	records = append(records[:2], records[3:]...)

	result, err := NewVerifier().Verify(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, result.Breaks, 1)
	assert.Equal(t, BreakMissingSequence, result.Breaks[0].Kind)
	assert.Equal(t, int64(4), result.Breaks[0].AtSequenceID)
}

func TestVerify_MalformedRecordReportedNotRaised(t *testing.T) {
	records := buildChain(4)
	records[2].SelfHash = ""

	result, err := NewVerifier().Verify(context.Background(), records)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	kinds := make([]BreakKind, 0, len(result.Breaks))
	for _, b := range result.Breaks {
		kinds = append(kinds, b.Kind)
	}
	assert.Contains(t, kinds, BreakMalformedRecord)
	// The scan continued past the malformed record.
	assert.Equal(t, 4, result.RecordsScanned)
}

func TestVerify_DigestRecompute(t *testing.T) {
	records := buildChain(6)
	// Re-linked tamper: payload altered and downstream hashes rebuilt, so
	// linkage is clean but the stored self-hash no longer matches.
	records[2].Payload = []byte("rewritten")

	plain, err := NewVerifier().Verify(context.Background(), records)
	require.NoError(t, err)
	assert.True(t, plain.Valid)

	strict, err := NewVerifier(WithDigestRecompute()).Verify(context.Background(), records)
	require.NoError(t, err)
	assert.False(t, strict.Valid)
	require.Len(t, strict.Breaks, 1)
	assert.Equal(t, BreakPayloadDigest, strict.Breaks[0].Kind)
	assert.Equal(t, int64(3), strict.Breaks[0].AtSequenceID)
}

func TestVerify_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewVerifier().Verify(ctx, buildChain(10))
	assert.ErrorIs(t, err, context.Canceled)
}
