package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/japaniel/reviewgen/pkg/markov"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedModel(t *testing.T) *Model {
	t.Helper()
	b := markov.NewBuilder()
	b.AddLine([]string{"buy", "it", "now"})
	b.AddLine([]string{"great", "product", "works", "great"})
	m := NewModel(markov.NewSource(3), 0)
	m.Publish(b.Corpus())
	return m
}

func get(t *testing.T, h http.Handler, path, accept string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestModelNotTrained(t *testing.T) {
	m := NewModel(nil, 0)
	assert.False(t, m.Ready())
	_, err := m.Generate("buy")
	assert.ErrorIs(t, err, markov.ErrNotTrained)
}

func TestGenerateEndpoint(t *testing.T) {
	h := NewHandler(trainedModel(t), nil)

	rec := get(t, h, "/api/now", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "now", rec.Body.String())

	rec = get(t, h, "/api/Buy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "buy it"), rec.Body.String())
}

func TestGenerateEndpointNotFound(t *testing.T) {
	h := NewHandler(trainedModel(t), nil)

	rec := get(t, h, "/api/blender", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Word not found", rec.Body.String())

	rec = get(t, h, "/api/prodct", "application/json")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Word not found", body.Error)
	assert.Contains(t, body.Suggestions, "product")
}

func TestGenerateEndpointJSON(t *testing.T) {
	h := NewHandler(trainedModel(t), nil)

	rec := get(t, h, "/api/now", "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	var body response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "now", body.Word)
	assert.Equal(t, "now", body.Text)
	assert.Empty(t, body.Error)
}

func TestEndpointsWhileTraining(t *testing.T) {
	m := NewModel(markov.NewSource(1), 0)
	h := NewHandler(m, nil)

	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/now", "").Code)
	rec := get(t, h, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "training", rec.Body.String())

	b := markov.NewBuilder()
	b.AddLine([]string{"now"})
	m.Publish(b.Corpus())

	rec = get(t, h, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, http.StatusOK, get(t, h, "/api/now", "").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewHandler(trainedModel(t), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/now", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	h := NewHandler(trainedModel(t), nil)
	go func() { done <- Run(ctx, addr, h, nil) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/api/now")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "now", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
