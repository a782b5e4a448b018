//go:build integration

package reportsink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"scrutiny/pkg/testutil/containers"
)

func TestKafkaPublisherRoundTrip(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)
	ctx := context.Background()

	const topic = "scrutiny.detection.reports"
	publisher, err := NewKafkaPublisher(broker.Brokers, topic)
	require.NoError(t, err)
	t.Cleanup(publisher.Close)

	require.NoError(t, publisher.EnsureTopic(ctx, 1, 1))
	// Second call must tolerate the existing topic.
	require.NoError(t, publisher.EnsureTopic(ctx, 1, 1))

	require.NoError(t, publisher.Health(ctx))

	payload := []byte(`{"report_id":"r-1","severity":"high"}`)
	require.NoError(t, publisher.Publish(ctx, EventReportGenerated, "r-1", payload))

	consumer := broker.NewClient(t,
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "r-1", string(records[0].Key))
	assert.Equal(t, payload, records[0].Value)

	require.Len(t, records[0].Headers, 1)
	assert.Equal(t, "event_type", records[0].Headers[0].Key)
	assert.Equal(t, EventReportGenerated, string(records[0].Headers[0].Value))
}
