package obsmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveNativeCallIncrementsCounters(t *testing.T) {
	m := New(DefaultConfig())
	m.ObserveNativeCall("kv", "get", 0.001, nil)
	m.ObserveNativeCall("kv", "get", 0.002, assertErr)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.nativeCallsTotal.WithLabelValues("kv", "get")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.nativeCallErrors.WithLabelValues("kv", "get")))
}

func TestObserveSweepAccumulatesReleasedCount(t *testing.T) {
	m := New(DefaultConfig())
	m.ObserveSweep(0.001, 3)
	m.ObserveSweep(0.002, 4)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.collectorSweeps))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.collectorReleased))
}

func TestObserveExceptionLabelsCaught(t *testing.T) {
	m := New(DefaultConfig())
	m.ObserveException(true)
	m.ObserveException(false)
	m.ObserveException(false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.exceptionsThrown.WithLabelValues("true")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.exceptionsThrown.WithLabelValues("false")))
}

var assertErr = assertError{}

type assertError struct{}

func (assertError) Error() string { return "boom" }
