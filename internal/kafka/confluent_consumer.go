package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog"

	"github.com/wilber023/aura-messasing-service/internal/domain"
	"github.com/wilber023/aura-messasing-service/pkg/log"
)

// reader is the subset of the confluent consumer the consume loop drives.
type reader interface {
	Subscribe(topic string, rebalanceCb kafka.RebalanceCb) error
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
	Close() error
}

// ConfluentConsumer implements MessageConsumer using confluent-kafka-go.
type ConfluentConsumer struct {
	consumer reader
	topic    string
	emitter  Emitter
	logger   zerolog.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewConfluentConsumer creates a consumer for the message store's topic.
func NewConfluentConsumer(brokers, topic, groupID string, emitter Emitter, logger zerolog.Logger) (*ConfluentConsumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"group.id":           groupID,
		"auto.offset.reset":  "latest",
		"enable.auto.commit": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &ConfluentConsumer{
		consumer: c,
		topic:    topic,
		emitter:  emitter,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start subscribes and begins the consume loop.
func (cc *ConfluentConsumer) Start(ctx context.Context) error {
	if err := cc.consumer.Subscribe(cc.topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", cc.topic, err)
	}

	cc.logger.Info().Str("topic", cc.topic).Msg("kafka consumer started")

	cc.started.Store(true)
	go cc.consumeLoop(ctx)

	return nil
}

func (cc *ConfluentConsumer) consumeLoop(ctx context.Context) {
	defer close(cc.doneCh)

	for {
		select {
		case <-ctx.Done():
			cc.logger.Info().Msg("kafka consumer shutting down")
			return
		case <-cc.stopCh:
			cc.logger.Info().Msg("kafka consumer shutting down")
			return
		default:
			msg, err := cc.consumer.ReadMessage(100 * time.Millisecond)
			if err != nil {
				if kafkaErr, ok := err.(kafka.Error); ok && kafkaErr.Code() == kafka.ErrTimedOut {
					continue
				}
				cc.logger.Warn().Err(err).Msg("kafka consumer error")
				continue
			}

			cc.processMessage(msg)
		}
	}
}

// processMessage fans one persisted message out to its room. A bad event
// is logged and skipped; the live channel never retries.
func (cc *ConfluentConsumer) processMessage(msg *kafka.Message) {
	var event MessageEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		cc.logger.Warn().Err(err).Msg("failed to unmarshal message event")
		return
	}

	delivered, err := cc.emitter.EmitToRoom(domain.RoomKind(event.Kind), event.TargetID, domain.EventNewMessage, event.Message)
	if err != nil {
		cc.logger.Warn().Err(err).Str("kind", event.Kind).Msg("failed to fan out message event")
		return
	}

	cc.logger.Debug().
		Str(log.FieldRoom, event.Kind+":"+event.TargetID).
		Int("delivered", delivered).
		Msg("fanned out persisted message")
}

// Close stops the consume loop, waits for it to exit, then releases the
// underlying consumer. The loop may be blocked inside ReadMessage when
// Close is called, so the handle must stay open until it returns.
func (cc *ConfluentConsumer) Close() error {
	cc.stopOnce.Do(func() { close(cc.stopCh) })
	if cc.started.Load() {
		<-cc.doneCh
	}

	if err := cc.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	return nil
}
