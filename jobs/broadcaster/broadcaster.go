package broadcaster

import (
	"context"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/subdarkdex/subdex-parachain/infra/store"
)

// maxAttempts caps redelivery of one outbox record before it is
// parked as FAILED for operator attention.
const maxAttempts = 10

// Broadcaster drains the outbox onto the relay transport topic.
// Records live in pebble across restarts; marking SENT before the
// send and ACKED only after the broker confirms makes delivery
// at-least-once, never silent-drop.
type Broadcaster struct {
	store    *store.Store
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      *slog.Logger
}

func New(st *store.Store, brokers []string, topic string, logger *slog.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		store:    st,
		producer: producer,
		topic:    topic,
		interval: 250 * time.Millisecond,
		log:      logger,
	}, nil
}

// Start runs the drain loop until the context ends.
func (b *Broadcaster) Start(ctx context.Context) {
	b.log.Info("broadcaster started", "topic", b.topic)

	go func() {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.drainOnce()
			}
		}
	}()
}

func (b *Broadcaster) drainOnce() {
	_ = b.store.ScanPending(func(rec store.OutboxRecord) error {
		if rec.Retries >= maxAttempts {
			if err := b.store.MarkFailed(rec.ID); err == nil {
				b.log.Error("outbox record parked after repeated failures",
					"id", rec.ID, "retries", rec.Retries)
			}
			return nil
		}

		// SENT before the send: a crash between the two redelivers,
		// never loses.
		if err := b.store.MarkSent(rec.ID); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Value: sarama.ByteEncoder(rec.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			b.log.Warn("outbox send failed, will retry",
				"id", rec.ID, "retries", rec.Retries+1, "error", err)
			return nil // retry next tick
		}

		return b.store.MarkAcked(rec.ID)
	})
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
