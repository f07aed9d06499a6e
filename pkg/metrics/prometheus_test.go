package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordPollCycle("ok")
	r.RecordPollCycle("ok")
	r.RecordPollCycle("partial")
	r.RecordTrade("TSLA")
	r.RecordDuplicateTrade("TSLA")
	r.RecordBlobError("status", "malformed")
	r.RecordProducerConnected(true)
	r.RecordLastPrice("TSLA", 251.25)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.pollCycles.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pollCycles.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.tradesRecorded.WithLabelValues("TSLA")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.duplicateTrades.WithLabelValues("TSLA")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.blobErrors.WithLabelValues("status", "malformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.producerConnected))
	assert.Equal(t, 251.25, testutil.ToFloat64(r.lastPrice.WithLabelValues("TSLA")))

	r.RecordProducerConnected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.producerConnected))
}

func TestRecordersAreIsolatedPerRegistry(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
	assert.NotPanics(t, func() { NewRegistry() })
}
