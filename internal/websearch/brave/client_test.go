package brave

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamashdown/polytools/internal/config"
	"github.com/liamashdown/polytools/internal/httpclient"
)

func newTestClient(t *testing.T, apiKey string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.BraveAPIBaseURL = srv.URL
	cfg.BraveAPIKey = apiKey
	cfg.BraveAPIRPS = 100

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewClient(cfg, srv.Client(), log)
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, "brave-key", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/res/v1/web/search", r.URL.Path)
		assert.Equal(t, "bitcoin news", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("count"))
		assert.Equal(t, "brave-key", r.Header.Get("X-Subscription-Token"))
		w.Write([]byte(`{"web":{"results":[{"title":"BTC rallies","description":"Prices up","url":"https://example.com/a"},{"title":"No desc","url":"https://example.com/b"}]}}`))
	})

	results, err := client.Search(context.Background(), "bitcoin news", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, Result{Title: "BTC rallies", Description: "Prices up", URL: "https://example.com/a"}, results[0])
	assert.Empty(t, results[1].Description)
}

func TestSearchNoWebSection(t *testing.T) {
	client := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"search"}`))
	})

	results, err := client.Search(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchErrors(t *testing.T) {
	client := newTestClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := client.Search(context.Background(), "q", 3)
	assert.ErrorIs(t, err, httpclient.ErrUnauthorized)

	noKey := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request sent without API key")
	})
	_, err = noKey.Search(context.Background(), "q", 3)
	assert.Error(t, err)
}
