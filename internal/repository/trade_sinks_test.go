package repository

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalBoard/internal/domain/models"
	pkgkafka "SignalBoard/pkg/kafka"
)

func TestBuildTradeInsert(t *testing.T) {
	exit := time.Date(2024, 10, 10, 15, 0, 0, 0, time.UTC)
	a := trade("TSLA", exit)
	b := models.Trade{Symbol: "HOOD", ExitTime: models.NewTimestamp(exit), EntryPrice: 0, ExitPrice: 20}
	skipped := models.Trade{Symbol: "COIN"}

	q, args := buildTradeInsert("signalboard.trades", []*models.Trade{&a, nil, &skipped, &b})
	assert.True(t, strings.HasPrefix(q, "INSERT INTO signalboard.trades (symbol, entry_time, exit_time,"))
	assert.Equal(t, 2, strings.Count(q, "(?, ?, ?, ?, ?, ?, ?)"))
	require.Len(t, args, 14)
	assert.Equal(t, "TSLA", args[0])
	assert.Equal(t, exit, args[2])
	assert.Nil(t, args[8], "missing entry time is NULL")

	q, args = buildTradeInsert("t", nil)
	assert.Empty(t, q)
	assert.Nil(t, args)
}

type captureWriter struct {
	msgs []kafka.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestKafkaTradePublisher(t *testing.T) {
	w := &captureWriter{}
	p := NewKafkaTradePublisher(pkgkafka.NewProducerWithWriter(w, "none", nil), "signalboard.trades")

	tr := trade("TSLA", time.Date(2024, 10, 10, 15, 0, 0, 0, time.UTC))
	require.NoError(t, p.PublishBatch(context.Background(), []*models.Trade{&tr, nil}))
	require.Len(t, w.msgs, 1)

	m := w.msgs[0]
	assert.Equal(t, "signalboard.trades", m.Topic)
	assert.Equal(t, "TSLA", string(m.Key))
	var got models.Trade
	require.NoError(t, json.Unmarshal(m.Value, &got))
	assert.Equal(t, tr.Key(), got.Key())
	assert.InDelta(t, 500.0, got.PnLDollar, 1e-9)
	require.NoError(t, p.Close())
}
