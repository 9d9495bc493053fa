package reporter

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/kpaschen/fcmerge/lib/datatypes"
	messages "github.com/kpaschen/fcmerge/lib/kafka"
	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the part of kafka.Writer the reporter uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaReporter publishes every table as one JSON message. The message key
// is the table name so that later versions of a table land on the same
// partition.
type KafkaReporter struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
	// Set by the worker so consumers can match tables to requests.
	RequestID string
}

func NewKafkaReporter(kafkaURL string, topic string, logger *zap.Logger) *KafkaReporter {
	return &KafkaReporter{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(kafkaURL),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
		topic:  topic,
		logger: logger,
	}
}

func encodeTableMessage(msg messages.TableMessage) ([]byte, error) {
	return json.Marshal(&msg)
}

func (k *KafkaReporter) Store(ctx context.Context, table *datatypes.Table) error {
	value, err := encodeTableMessage(messages.TableMessage{
		MessageID: uuid.NewString(),
		RequestID: k.RequestID,
		Table:     table,
	})
	if err != nil {
		return err
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(table.Name),
		Value: value,
	})
	if err != nil {
		k.logger.Error("failed to send table message", zap.String("table", table.Name), zap.Error(err))
		return err
	}
	k.logger.Info("sent table message", zap.String("table", table.Name),
		zap.String("topic", k.topic), zap.Int("rows", len(table.Rows)))
	return nil
}

func (k *KafkaReporter) Close() error {
	return k.writer.Close()
}
