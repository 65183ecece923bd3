package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hms-analytics/internal/api"
	"hms-analytics/internal/common/config"
	httpclient "hms-analytics/internal/common/http"
	"hms-analytics/internal/common/logger"
	"hms-analytics/internal/insights"
	"hms-analytics/internal/insights/insightstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, fixture string) *httptest.Server {
	t.Helper()
	log := logger.NewTestLogger(t)
	h := api.NewHandler(insights.NewFixtureStore(fixture), config.AppConfig{Version: "1.0"}, log)
	srv := httptest.NewServer(api.NewRouter(h, config.ServerConfig{CORSAllowedOrigins: []string{"*"}}, log))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheck_HealthyService(t *testing.T) {
	srv := newService(t, insightstest.WriteFixture(t))

	r, err := check(context.Background(), httpclient.NewClient(5*time.Second), srv.URL+defaultPath)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, 20, r.Insights)
	assert.True(t, r.OK(), "problems: %v", r.Problems)
}

func TestCheck_BrokenFixture(t *testing.T) {
	srv := newService(t, insightstest.WriteFile(t, "insights.json", []byte(`[{"title":`)))

	r, err := check(context.Background(), httpclient.NewClient(5*time.Second), srv.URL+defaultPath)
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, r.StatusCode)
	assert.Equal(t, "Insight data is currently unavailable", r.Detail)
	assert.False(t, r.OK())
}

func TestCheck_ContractViolations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`[{"title":"t","description":"d","chart_type":"bar","chart_data":{"labels":["a","b"],"values":[1]}}]`))
	}))
	t.Cleanup(srv.Close)

	r, err := check(context.Background(), httpclient.NewClient(5*time.Second), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Insights)
	assert.Len(t, r.Problems, 3)
}

func TestCheckWithWait_GivesUp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = checkWithWait(context.Background(), httpclient.NewClient(time.Second), "http://"+addr+defaultPath, 500*time.Millisecond)
	require.Error(t, err)
}
