package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_StopWithError(t *testing.T) {
	t.Run("records success", func(t *testing.T) {
		metrics := NewInMemoryMetrics()
		timer := StartTimer("accept_suggestion").WithMetrics(metrics)
		timer.now = func() time.Time { return timer.start.Add(40 * time.Millisecond) }

		d := timer.Stop()

		assert.Equal(t, 40*time.Millisecond, d)
		tags := []Tag{T(OperationKey, "accept_suggestion"), T(StatusKey, "ok")}
		assert.Equal(t, int64(1), metrics.GetCounter(MetricOperationTotal, tags...))
		assert.Equal(t, []time.Duration{40 * time.Millisecond}, metrics.GetTimings(MetricOperationDuration, tags...))
		assert.Zero(t, metrics.GetCounter(MetricOperationErrors, T(OperationKey, "accept_suggestion")))
	})

	t.Run("records failure and logs it", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		metrics := NewInMemoryMetrics()

		StartTimer("dismiss_suggestion").
			WithLogger(logger).
			WithMetrics(metrics).
			StopWithError(errors.New("boom"))

		assert.Equal(t, int64(1), metrics.GetCounter(MetricOperationErrors, T(OperationKey, "dismiss_suggestion")))
		assert.Contains(t, buf.String(), "operation failed")
		assert.Contains(t, buf.String(), "boom")
	})
}

func TestTimeOperationResult(t *testing.T) {
	metrics := NewInMemoryMetrics()
	ctx := WithCorrelationID(context.Background(), "corr-1")

	got, err := TimeOperationResult(ctx, slog.Default(), metrics, "generate_suggestions", func() (int, error) {
		return 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, int64(1), metrics.GetCounter(MetricOperationTotal,
		T(OperationKey, "generate_suggestions"), T(StatusKey, "ok")))
}

func TestTimeOperation_PropagatesError(t *testing.T) {
	sentinel := errors.New("storage down")

	err := TimeOperation(context.Background(), nil, NoopMetrics{}, "cleanup", func() error {
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
}
