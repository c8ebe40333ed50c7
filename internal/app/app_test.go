package app

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/assistant"
	"github.com/unclebandit/campaign-crm/internal/config"
)

func memoryConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("QUEUE_DRIVER", "memory")
	t.Setenv("ASSISTANT_API_KEY", "")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	return cfg
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestNewWithMemoryDrivers(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.NotNil(t, a.Router)
	assert.NotNil(t, a.Worker)
	assert.Equal(t, 0.9, a.Config.Delivery.SuccessRate)

	gen, err := newGenerator(context.Background(), a.Config.Assistant, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, assistant.Unconfigured{}, gen)
}

func TestOpenQueueRejectsUnknownDriver(t *testing.T) {
	_, err := OpenQueue(config.QueueConfig{Driver: "kafka"}, zap.NewNop(), nil)
	assert.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.HTTP.Addr = freeAddr(t)
	cfg.Sweeper.Schedule = "@every 1h"

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + cfg.HTTP.Addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
