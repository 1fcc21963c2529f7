package runtime

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plcbridge/internal/config"
	"plcbridge/internal/events"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNewWiresAllComponents(t *testing.T) {
	r := New(config.Default(), testLogger(), events.NewChannelSink(1))
	assert.NotNil(t, r.Manager)
	assert.NotNil(t, r.Facade)
	assert.NotNil(t, r.Scheduler)
	assert.NotNil(t, r.Emitter)
}

func TestShutdownStopsSchedulerAndClosesConnections(t *testing.T) {
	r := New(config.Default(), testLogger(), events.NewChannelSink(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.Start(ctx)
	require.NoError(t, r.Shutdown(context.Background()))
	assert.Empty(t, r.Manager.List())
}
