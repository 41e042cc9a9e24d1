package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilber023/aura-messasing-service/internal/domain"
)

type fakeEmitter struct {
	mu       sync.Mutex
	kinds    []domain.RoomKind
	targets  []string
	events   []string
	payloads []any
	err      error
}

func (f *fakeEmitter) EmitToRoom(kind domain.RoomKind, targetID, event string, payload any) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.kinds = append(f.kinds, kind)
	f.targets = append(f.targets, targetID)
	f.events = append(f.events, event)
	f.payloads = append(f.payloads, payload)
	return 1, nil
}

func (f *fakeEmitter) eventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// fakeReader feeds queued messages to the consume loop and records whether
// the handle was closed while a ReadMessage call was still in flight.
type fakeReader struct {
	mu               sync.Mutex
	queue            []*kafka.Message
	inRead           bool
	closed           bool
	closedDuringRead bool
}

func (f *fakeReader) Subscribe(string, kafka.RebalanceCb) error { return nil }

func (f *fakeReader) ReadMessage(time.Duration) (*kafka.Message, error) {
	f.mu.Lock()
	f.inRead = true
	if len(f.queue) > 0 {
		msg := f.queue[0]
		f.queue = f.queue[1:]
		f.inRead = false
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.inRead = false
	f.mu.Unlock()
	return nil, kafka.NewError(kafka.ErrTimedOut, "timed out", false)
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.inRead {
		f.closedDuringRead = true
	}
	return nil
}

func newTestConsumer(r reader, emitter Emitter) *ConfluentConsumer {
	return &ConfluentConsumer{
		consumer: r,
		topic:    "message-events",
		emitter:  emitter,
		logger:   zerolog.Nop(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func TestProcessMessageFansOutToRoom(t *testing.T) {
	emitter := &fakeEmitter{}
	cc := newTestConsumer(nil, emitter)

	groupID := "g1"
	event := MessageEvent{
		Kind:     "group",
		TargetID: groupID,
		Message: domain.Message{
			ID:              "m1",
			GroupID:         &groupID,
			SenderProfileID: "profile-a",
			Content:         "hello",
			MessageType:     "text",
			Status:          "sent",
		},
	}
	value, err := json.Marshal(event)
	require.NoError(t, err)

	cc.processMessage(&kafka.Message{Value: value})

	require.Len(t, emitter.events, 1)
	assert.Equal(t, domain.RoomKindGroup, emitter.kinds[0])
	assert.Equal(t, "g1", emitter.targets[0])
	assert.Equal(t, domain.EventNewMessage, emitter.events[0])

	msg, ok := emitter.payloads[0].(domain.Message)
	require.True(t, ok)
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "hello", msg.Content)
}

func TestProcessMessageSkipsMalformedEvents(t *testing.T) {
	emitter := &fakeEmitter{}
	cc := newTestConsumer(nil, emitter)

	cc.processMessage(&kafka.Message{Value: []byte("{not json")})
	assert.Empty(t, emitter.events)
}

func TestProcessMessageSwallowsEmitErrors(t *testing.T) {
	emitter := &fakeEmitter{err: errors.New("unknown room kind")}
	cc := newTestConsumer(nil, emitter)

	value, err := json.Marshal(MessageEvent{Kind: "broadcast", TargetID: "x"})
	require.NoError(t, err)

	// Must not panic and must not propagate.
	cc.processMessage(&kafka.Message{Value: value})
	assert.Empty(t, emitter.events)
}

func TestConsumeLoopDeliversQueuedMessages(t *testing.T) {
	value, err := json.Marshal(MessageEvent{Kind: "conversation", TargetID: "c1"})
	require.NoError(t, err)

	emitter := &fakeEmitter{}
	r := &fakeReader{queue: []*kafka.Message{{Value: value}}}
	cc := newTestConsumer(r, emitter)

	require.NoError(t, cc.Start(context.Background()))
	defer cc.Close()

	assert.Eventually(t, func() bool {
		return emitter.eventCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCloseWaitsForConsumeLoop(t *testing.T) {
	r := &fakeReader{}
	cc := newTestConsumer(r, &fakeEmitter{})

	require.NoError(t, cc.Start(context.Background()))

	// Let the loop settle into its poll cycle before stopping it.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, cc.Close())

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.True(t, r.closed)
	assert.False(t, r.closedDuringRead, "the handle must only close after the loop has exited")
}

func TestCloseBeforeStart(t *testing.T) {
	r := &fakeReader{}
	cc := newTestConsumer(r, &fakeEmitter{})

	require.NoError(t, cc.Close())
	assert.True(t, r.closed)
}
