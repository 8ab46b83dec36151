package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/reflux"
)

// Compile-time check that the recorder satisfies the store hook.
var _ reflux.Recorder = (*PrometheusRecorder)(nil)

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prom.NewRegistry()
	rec := NewPrometheusRecorder(reg)

	rec.IncDispatch("counter/increment")
	rec.IncDispatch("counter/increment")
	rec.IncDispatch("@@reflux/init")
	rec.IncSinkError("counter/increment")
	rec.SetSubscribers(2)
	rec.ObserveDispatchDuration("counter/increment", 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.dispatches.WithLabelValues("counter/increment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.dispatches.WithLabelValues("@@reflux/init")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.sinkErrors.WithLabelValues("counter/increment")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.subscribers))

	count, err := testutil.GatherAndCount(reg,
		"reflux_dispatches_total", "reflux_sink_errors_total", "reflux_subscribers", "reflux_dispatch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestPrometheusRecorderNilSafety(t *testing.T) {
	var rec *PrometheusRecorder

	// Must not panic when metrics are not configured.
	rec.IncDispatch("x")
	rec.ObserveDispatchDuration("x", time.Second)
	rec.IncSinkError("x")
	rec.SetSubscribers(1)
}
