package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequests.WithLabelValues("gamma", "/markets", "error"))
	RecordAPIRequest("gamma", "/markets", 10*time.Millisecond, errors.New("boom"))
	after := testutil.ToFloat64(APIRequests.WithLabelValues("gamma", "/markets", "error"))
	assert.Equal(t, before+1, after)
}

func TestRecordCommand(t *testing.T) {
	before := testutil.ToFloat64(CommandsRun.WithLabelValues("scan", "success"))
	RecordCommand("scan", time.Second, nil)
	assert.Equal(t, before+1, testutil.ToFloat64(CommandsRun.WithLabelValues("scan", "success")))
}

func TestPush(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	RecordSkippedMarket("prices")
	require.NoError(t, Push(context.Background(), srv.URL, "poly"))
	assert.True(t, strings.HasPrefix(gotPath, "/metrics/job/poly"), gotPath)
}

func TestPushDisabled(t *testing.T) {
	assert.NoError(t, Push(context.Background(), "", "poly"))
}
