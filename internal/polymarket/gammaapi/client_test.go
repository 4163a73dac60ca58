package gammaapi

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

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Defaults()
	cfg.GammaAPIBaseURL = srv.URL
	cfg.GammaAPIRPS = 100

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewClient(cfg, srv.Client(), log)
}

func TestListMarketsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "false", q.Get("closed"))
		assert.Equal(t, "liquidity", q.Get("order"))
		assert.Equal(t, "false", q.Get("ascending"))
		assert.Equal(t, "30", q.Get("limit"))
		assert.Equal(t, "", q.Get("offset"))
		w.Write([]byte(`[{"question":"Will it rain?","liquidity":"1234.5","volume24hr":99.5,"outcomePrices":"[\"0.4\",\"0.6\"]","clobTokenIds":"[\"1\",\"2\"]","endDate":"2026-12-31T00:00:00Z"}]`))
	})

	markets, err := client.ListMarkets(context.Background(), MarketParams{Order: "liquidity", Limit: 30})
	require.NoError(t, err)
	require.Len(t, markets, 1)

	m := markets[0]
	assert.Equal(t, "Will it rain?", m.Question)
	assert.Equal(t, 1234.5, float64(m.Liquidity))
	assert.Equal(t, 99.5, float64(m.Volume24hr))

	prices, err := m.Prices()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.4, 0.6}, prices)

	ids, err := m.TokenIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)
}

func TestListMarketsOffset(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "100", q.Get("offset"))
		assert.Equal(t, "", q.Get("order"))
		w.Write([]byte(`[]`))
	})

	markets, err := client.ListMarkets(context.Background(), MarketParams{Limit: 100, Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, markets)
}

func TestListMarketsSkipsMalformedRecord(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"question":"good"},{"question":"bad","liquidity":"lots"},{"question":"also good"}]`))
	})

	markets, err := client.ListMarkets(context.Background(), MarketParams{Limit: 3})
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "good", markets[0].Question)
	assert.Equal(t, "also good", markets[1].Question)
}

func TestListMarketsHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.ListMarkets(context.Background(), MarketParams{Limit: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, httpclient.ErrRateLimited)
}

func TestMarketPrices(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []float64
		wantErr bool
	}{
		{"string entries", `["0.25","0.75"]`, []float64{0.25, 0.75}, false},
		{"number entries", `[0.1, 0.9]`, []float64{0.1, 0.9}, false},
		{"empty field", ``, nil, false},
		{"empty array", `[]`, []float64{}, false},
		{"not json", `0.5,0.5`, nil, true},
		{"non numeric", `["yes","no"]`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Market{OutcomePrices: tt.raw}
			got, err := m.Prices()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
