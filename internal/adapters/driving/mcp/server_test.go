package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil catalog service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingCatalogService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Catalog: &mockCatalogService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("catalog only is valid", func(t *testing.T) {
		ports := &Ports{Catalog: &mockCatalogService{}}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{Catalog: &mockCatalogService{}, Sync: &mockCatalogSync{}}
		assert.NoError(t, ports.Validate())
	})
}

func TestServer_Serve_StopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{Catalog: &mockCatalogService{}})
	require.NoError(t, err)

	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, ln) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestListen_BadAddress(t *testing.T) {
	_, err := Listen("127.0.0.1:not-a-port")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
}
