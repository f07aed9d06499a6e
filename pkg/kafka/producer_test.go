package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}

func TestPublishEncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	reg := prometheus.NewRegistry()
	p := NewProducerWithWriter(w, "none", reg)

	err := p.PublishBatch(context.Background(), "trades", []Message{
		{Key: []byte("TSLA"), Value: map[string]float64{"pnl_percent": 5}, Headers: map[string]string{"type": "trade"}},
		{Key: []byte("AAPL"), Value: "raw"},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.JSONEq(t, `{"pnl_percent":5}`, string(w.msgs[0].Value))
	assert.Equal(t, "trade", string(w.msgs[0].Headers[0].Value))
	assert.Equal(t, "raw", string(w.msgs[1].Value))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("trades", "none", "ok")))
}

func TestPublishCountsErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := NewProducerWithWriter(w, "none", prometheus.NewRegistry())

	err := p.Publish(context.Background(), "trades", []byte("k"), []byte("v"))
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.errs.WithLabelValues("trades")))
}
