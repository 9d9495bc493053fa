package reporter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	messages "github.com/kpaschen/fcmerge/lib/kafka"
	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockWriter struct {
	sent   []kafka.Message
	err    error
	closed bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func TestKafkaReporter(t *testing.T) {
	writer := &mockWriter{}
	r := &KafkaReporter{writer: writer, topic: "tables", logger: zaptest.NewLogger(t), RequestID: "req-1"}

	table := testTables()[0]
	require.NoError(t, r.Store(context.Background(), table))
	require.Len(t, writer.sent, 1)
	assert.Equal(t, table.Name, string(writer.sent[0].Key))

	var msg messages.TableMessage
	require.NoError(t, json.Unmarshal(writer.sent[0].Value, &msg))
	assert.Equal(t, "req-1", msg.RequestID)
	assert.NotEmpty(t, msg.MessageID)
	assert.Equal(t, table, msg.Table)

	require.NoError(t, r.Close())
	assert.True(t, writer.closed)

	writer.err = errors.New("broker down")
	assert.Error(t, r.Store(context.Background(), table))
}
