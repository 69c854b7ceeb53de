package mq

import (
	"Go_Attach/internal/events"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	keys   []string
	bodies [][]byte
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, body []byte) error {
	p.keys = append(p.keys, routingKey)
	p.bodies = append(p.bodies, body)
	return p.err
}

func TestEventForwarderPublishes(t *testing.T) {
	pub := &fakePublisher{}
	forwarder := NewEventForwarder(pub, zerolog.Nop())
	dispatcher := events.NewDispatcher(forwarder)

	ev := events.Event{
		Kind:         events.KindRecord,
		Action:       events.ActionDelete,
		BucketID:     "blog",
		CollectionID: "articles",
		RecordID:     "r1",
		URI:          "/buckets/blog/collections/articles/records/r1",
	}
	require.NoError(t, dispatcher.Dispatch(context.Background(), ev))

	require.Equal(t, []string{"record.delete"}, pub.keys)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(pub.bodies[0], &decoded))
	assert.Equal(t, "record", decoded["resource_name"])
	assert.Equal(t, ev.URI, decoded["uri"])
}

func TestEventForwarderIgnoresPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection closed")}
	forwarder := NewEventForwarder(pub, zerolog.Nop())

	err := forwarder.Handle(context.Background(), events.Event{Kind: events.KindBucket, Action: events.ActionCreate})
	assert.NoError(t, err)
	assert.Equal(t, []string{"bucket.create"}, pub.keys)
}
