package eventbridge

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"holdthatthought-backend/domain/events"
)

type fakePutEventsAPI struct {
	inputs []*awseventbridge.PutEventsInput
	output *awseventbridge.PutEventsOutput
}

func (f *fakePutEventsAPI) PutEvents(ctx context.Context, params *awseventbridge.PutEventsInput, optFns ...func(*awseventbridge.Options)) (*awseventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, params)
	out := f.output
	if out == nil {
		entries := make([]types.PutEventsResultEntry, len(params.Entries))
		out = &awseventbridge.PutEventsOutput{Entries: entries}
	}
	return out, nil
}

// unmarshalableEvent cannot be serialized; the publisher must skip it
type unmarshalableEvent struct {
	events.BaseEvent
	Ch chan int `json:"ch"`
}

func newTestEvent(eventType, aggregateID string) events.BaseEvent {
	return events.BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   time.Now().UTC(),
	}
}

func TestPublishBatchSplitsIntoTenEntryBatches(t *testing.T) {
	api := &fakePutEventsAPI{}
	pub := NewPublisher(api, "family-bus", zap.NewNop())

	batch := make([]events.DomainEvent, 12)
	for i := range batch {
		batch[i] = newTestEvent("comment.created", "c")
	}

	require.NoError(t, pub.PublishBatch(context.Background(), batch))
	require.Len(t, api.inputs, 2)
	assert.Len(t, api.inputs[0].Entries, 10)
	assert.Len(t, api.inputs[1].Entries, 2)
	assert.Equal(t, "family-bus", aws.ToString(api.inputs[0].Entries[0].EventBusName))
	assert.Equal(t, events.SourceBackend, aws.ToString(api.inputs[0].Entries[0].Source))
}

func TestPublishBatchSkipsUnmarshalableEvents(t *testing.T) {
	api := &fakePutEventsAPI{}
	pub := NewPublisher(api, "family-bus", zap.NewNop())

	err := pub.PublishBatch(context.Background(), []events.DomainEvent{
		unmarshalableEvent{BaseEvent: newTestEvent("bad.event", "x"), Ch: make(chan int)},
		newTestEvent("comment.created", "c1"),
	})
	require.NoError(t, err)
	require.Len(t, api.inputs, 1)
	require.Len(t, api.inputs[0].Entries, 1)
	assert.Equal(t, "comment.created", aws.ToString(api.inputs[0].Entries[0].DetailType))
}

func TestPartialFailureLogsTheFailedEvent(t *testing.T) {
	// Second sent entry fails; with an unmarshalable event skipped before
	// it, the log must still name the event that actually failed
	api := &fakePutEventsAPI{
		output: &awseventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{
				{},
				{ErrorCode: aws.String("ThrottlingException"), ErrorMessage: aws.String("slow down")},
			},
		},
	}
	core, logs := observer.New(zap.ErrorLevel)
	pub := NewPublisher(api, "family-bus", zap.New(core))

	err := pub.PublishBatch(context.Background(), []events.DomainEvent{
		unmarshalableEvent{BaseEvent: newTestEvent("bad.event", "x"), Ch: make(chan int)},
		newTestEvent("comment.created", "c1"),
		newTestEvent("message.sent", "m1"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 events failed")

	var failedTypes []string
	for _, entry := range logs.FilterMessage("Failed to publish event").All() {
		failedTypes = append(failedTypes, entry.ContextMap()["eventType"].(string))
	}
	assert.Equal(t, []string{"message.sent"}, failedTypes)
}
