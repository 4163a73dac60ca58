package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamashdown/polytools/internal/config"
	"github.com/liamashdown/polytools/internal/research"
)

const (
	testKeyHex  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func testConfig(t *testing.T, srv *httptest.Server) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.ProxyURL = ""
	cfg.KeyPath = filepath.Join(t.TempDir(), "missing-key")
	cfg.AlertMode = ""
	cfg.GammaAPIBaseURL = srv.URL + "/gamma"
	cfg.ClobAPIBaseURL = srv.URL + "/clob"
	cfg.DataAPIBaseURL = srv.URL + "/data"
	cfg.BraveAPIBaseURL = srv.URL + "/brave"
	cfg.CoinGeckoAPIBaseURL = srv.URL + "/coingecko"
	cfg.GammaAPIRPS, cfg.ClobAPIRPS, cfg.DataAPIRPS = 100, 100, 100
	cfg.BraveAPIRPS, cfg.CoinGeckoAPIRPS = 100, 100
	return cfg
}

func newTestApp(t *testing.T, handler http.HandlerFunc) (*App, *config.Config, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testConfig(t, srv)
	log := logrus.New()
	log.SetOutput(io.Discard)

	var out bytes.Buffer
	return New(cfg, log, &out), cfg, &out
}

func TestParseCommand(t *testing.T) {
	for cmd, name := range commandNames {
		got, err := ParseCommand(name)
		require.NoError(t, err)
		assert.Equal(t, cmd, got)
		assert.Equal(t, name, got.String())
	}

	_, err := ParseCommand("trade")
	assert.Error(t, err)
	assert.Equal(t, "Command(99)", Command(99).String())
}

func TestNeedsWallet(t *testing.T) {
	assert.False(t, CommandScan.needsWallet())
	assert.False(t, CommandSearch.needsWallet())
	assert.False(t, CommandBook.needsWallet())
	assert.True(t, CommandBalance.needsWallet())
	assert.True(t, CommandPositions.needsWallet())
}

func TestRunScan(t *testing.T) {
	a, _, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gamma/markets", r.URL.Path)
		assert.Equal(t, "liquidity", r.URL.Query().Get("order"))
		w.Write([]byte(`[{"question":"Will it rain?","outcomePrices":"[\"0.5\",\"0.5\"]","liquidity":"1000","volume24hr":"10"}]`))
	})

	require.NoError(t, a.Run(context.Background(), CommandScan, Args{Order: "liquidity", Limit: 5}))
	assert.Equal(t, "[YES 50.0% / NO 50.0%]  Will it rain?\n  liq=$1,000  vol24h=$10  end=?\n\n", out.String())
}

func TestRunScanRejectsOrderBeforeRequest(t *testing.T) {
	a, _, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	assert.Error(t, a.Run(context.Background(), CommandScan, Args{Order: "random"}))
}

func TestRunBookWithoutKey(t *testing.T) {
	a, _, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/clob/book", r.URL.Path)
		w.Write([]byte(`{"market":"0xabc","bids":[],"asks":[{"price":"0.6","size":"10"}]}`))
	})

	require.NoError(t, a.Run(context.Background(), CommandBook, Args{TokenID: "1"}))
	assert.Contains(t, out.String(), "Asks (sell):\n  0.6 x 10\n")
}

func TestRunWalletCommandMissingKey(t *testing.T) {
	a, _, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	assert.Error(t, a.Run(context.Background(), CommandBalance, Args{}))
}

func TestRunOrderValidatesBeforeKey(t *testing.T) {
	a, _, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	err := a.Run(context.Background(), CommandOrder, Args{TokenID: "1", Side: "HOLD", Price: 0.5, Size: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid side")
}

func TestRunPositionsUsesSignerAddress(t *testing.T) {
	a, cfg, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/positions", r.URL.Path)
		assert.Equal(t, testAddress, r.URL.Query().Get("user"))
		w.Write([]byte(`[]`))
	})
	require.NoError(t, os.WriteFile(cfg.KeyPath, []byte(testKeyHex), 0o600))

	require.NoError(t, a.Run(context.Background(), CommandPositions, Args{}))
	assert.Equal(t, "No positions.\n", out.String())
}

func TestResearchRequiresBraveKey(t *testing.T) {
	a, _, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	assert.ErrorIs(t, a.Research(context.Background(), research.Sports, "lakers"), config.ErrMissingBraveKey)
}

func TestResearchCrypto(t *testing.T) {
	a, cfg, out := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/coingecko/simple/price":
			w.Write([]byte(`{"bitcoin":{"usd":50000,"usd_24h_change":2.5}}`))
		case strings.HasPrefix(r.URL.Path, "/brave/"):
			assert.Equal(t, "brave-key", r.Header.Get("X-Subscription-Token"))
			w.Write([]byte(`{"web":{"results":[{"title":"Headline","description":"Summary","url":"https://example.com"}]}}`))
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	})
	cfg.BraveAPIKey = "brave-key"

	require.NoError(t, a.Research(context.Background(), research.Crypto, "btc"))
	got := out.String()
	assert.Contains(t, got, "CRYPTO RESEARCH: btc")
	assert.Contains(t, got, "$50,000.00")
	assert.Contains(t, got, "+2.5%")
	assert.Equal(t, 3, strings.Count(got, "  • Headline\n    Summary\n"))
}

func TestNewAlertSender(t *testing.T) {
	log := logrus.New()
	cfg := config.Defaults()

	cfg.AlertMode = ""
	assert.Nil(t, newAlertSender(cfg, http.DefaultClient, log))

	cfg.AlertMode = "log"
	assert.NotNil(t, newAlertSender(cfg, http.DefaultClient, log))

	cfg.AlertMode = "log,discord"
	cfg.DiscordWebhookURL = "https://discord.example/hook"
	assert.NotNil(t, newAlertSender(cfg, http.DefaultClient, log))
}
