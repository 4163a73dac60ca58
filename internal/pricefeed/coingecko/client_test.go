package coingecko

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
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.CoinGeckoAPIBaseURL = srv.URL
	cfg.CoinGeckoAPIRPS = 100

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewClient(cfg, srv.Client(), log)
}

func TestSimplePrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "bitcoin,ethereum", q.Get("ids"))
		assert.Equal(t, "usd", q.Get("vs_currencies"))
		assert.Equal(t, "true", q.Get("include_24hr_change"))
		w.Write([]byte(`{"bitcoin":{"usd":50000,"usd_24h_change":2.5},"ethereum":{"usd":3000.12}}`))
	})

	quotes, err := client.SimplePrice(context.Background(), []string{"bitcoin", "ethereum"})
	require.NoError(t, err)
	assert.Equal(t, Quote{USD: 50000, USD24hChange: 2.5}, quotes["bitcoin"])
	assert.Equal(t, 0.0, quotes["ethereum"].USD24hChange)
}

func TestSimplePriceHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.SimplePrice(context.Background(), []string{"bitcoin"})
	assert.Error(t, err)
}
