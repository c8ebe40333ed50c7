package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/config"
)

func TestOpenStoreMemory(t *testing.T) {
	store, err := OpenStore(context.Background(), config.StoreConfig{Driver: "memory"}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, store.Customers)
	assert.NoError(t, store.Close(context.Background()))
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), config.StoreConfig{Driver: "cassandra"}, zap.NewNop())
	assert.Error(t, err)
}
