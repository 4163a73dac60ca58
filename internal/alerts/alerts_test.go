package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placedEvent() *OrderEvent {
	return &OrderEvent{
		Action:    ActionPlaced,
		Wallet:    "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		TokenID:   "71321045679252212594626385532706912750332728571942532289631379312455583992563",
		Side:      "BUY",
		Price:     0.55,
		Size:      10,
		OrderID:   "0xdeadbeefdeadbeefdeadbeef",
		Status:    "live",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLogSender(t *testing.T) {
	log, hook := test.NewNullLogger()

	require.NoError(t, NewLogSender(log).Send(context.Background(), placedEvent()))

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, ActionPlaced, entry.Data["action"])
	assert.Equal(t, "0xf39Fd6...2266", entry.Data["wallet"])
	assert.InDelta(t, 5.5, entry.Data["notional_usd"], 1e-9)
}

func TestDiscordSender(t *testing.T) {
	var got map[string][]map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sender := NewDiscordSender(srv.URL, srv.Client())
	require.NoError(t, sender.Send(context.Background(), placedEvent()))

	require.Len(t, got["embeds"], 1)
	embed := got["embeds"][0]
	assert.Equal(t, "📈 Buy order placed", embed["title"])
	assert.Equal(t, "**BUY 10.00** shares @ **0.55** (**$5.50**)", embed["description"])
	assert.Len(t, embed["fields"], 4)
}

func TestDiscordSenderCancelled(t *testing.T) {
	s := NewDiscordSender("http://unused", http.DefaultClient)
	embed := s.buildEmbed(&OrderEvent{Action: ActionCancelled, OrderID: "0x1"})
	assert.Equal(t, "🗑️ Order cancelled", embed["title"])
	assert.Len(t, embed["fields"], 2)
}

func TestDiscordSenderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL, srv.Client()).Send(context.Background(), placedEvent())
	assert.Error(t, err)
}

type failingSender struct{ calls int }

func (f *failingSender) Send(context.Context, *OrderEvent) error {
	f.calls++
	return errors.New("down")
}

func TestMultiSenderContinuesAfterFailure(t *testing.T) {
	log, hook := test.NewNullLogger()
	failing := &failingSender{}

	err := NewMultiSender(failing, NewLogSender(log)).Send(context.Background(), placedEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sender 0")
	assert.Equal(t, 1, failing.calls)
	assert.Len(t, hook.Entries, 1)
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "0x1", shorten("0x1"))
	assert.Equal(t, "0xdeadbe...beef", shorten("0xdeadbeefdeadbeefdeadbeef"))
}
