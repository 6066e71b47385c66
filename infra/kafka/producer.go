package kafka

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes the per-block event feed. The key is the block
// height big-endian, so compacted topics keep one copy per block and
// partitioned consumers see heights in order.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// PublishBlock emits one message per sealed block: the encoded event
// log under the height key.
func (p *Producer) PublishBlock(ctx context.Context, height uint64, events []byte) error {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, height)
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: events,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
