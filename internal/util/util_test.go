package util

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger("development", false))
	assert.False(t, GetLogger().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, InitLogger("production", true))
	assert.True(t, GetLogger().Core().Enabled(zapcore.DebugLevel))
	SyncLogger()
}

func TestStartSpan_WithoutTracer(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()
	assert.NotNil(t, ctx)
}

func TestMetricsRegistered(t *testing.T) {
	before := testutil.ToFloat64(PagesFetchedTotal.WithLabelValues("products"))
	PagesFetchedTotal.WithLabelValues("products").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(PagesFetchedTotal.WithLabelValues("products")))
}
