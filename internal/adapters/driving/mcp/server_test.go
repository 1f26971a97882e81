package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil rag service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingRAGService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			RAG: &mockRAGService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil ports returns error", func(t *testing.T) {
		var ports *Ports
		assert.ErrorIs(t, ports.Validate(), ErrMissingRAGService)
	})

	t.Run("nil rag service returns error", func(t *testing.T) {
		ports := &Ports{Analytics: &mockAnalyticsService{}}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingRAGService)
	})

	t.Run("rag only is valid", func(t *testing.T) {
		ports := &Ports{
			RAG: &mockRAGService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			RAG:       &mockRAGService{},
			Analytics: &mockAnalyticsService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})
}

func TestServer_Handler_MountsEndpoint(t *testing.T) {
	server, err := NewServer(&Ports{RAG: &mockRAGService{}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RunHTTP_StopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{RAG: &mockRAGService{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.RunHTTP(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunHTTP did not return after cancel")
	}
}
