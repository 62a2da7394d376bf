package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFanout_DeliversInOrderAndSkipsNil(t *testing.T) {
	var got []string
	record := func(name string) Sink {
		return SinkFunc(func(_ context.Context, ev Event) { got = append(got, name+":"+string(ev.Kind)) })
	}

	f := Fanout{record("a"), nil, record("b")}
	f.Publish(context.Background(), New(KindApproved, 7, "thread_123"))

	assert.Equal(t, []string{"a:approved", "b:approved"}, got)
}

func TestNew_FillsEnvelope(t *testing.T) {
	ev := New(KindCreated, 3, "t")

	require.NotEmpty(t, ev.EventID)
	assert.Equal(t, int64(3), ev.CommentID)
	assert.False(t, ev.OccurredAt.IsZero())
	assert.NotEqual(t, ev.EventID, New(KindCreated, 3, "t").EventID)
}

func TestNATSPublisher_NilSafe(t *testing.T) {
	var p *NATSPublisher
	p.Publish(context.Background(), New(KindDeleted, 1, ""))

	stub := NewNATSPublisher(nil, "", zap.NewNop())
	stub.Publish(context.Background(), New(KindDeleted, 1, ""))
	assert.Equal(t, "comments.events.deleted", stub.Subject(KindDeleted))
}
