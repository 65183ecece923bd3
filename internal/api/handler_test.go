package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"hms-analytics/internal/common/config"
	"hms-analytics/internal/common/errors"
	"hms-analytics/internal/common/logger"
	"hms-analytics/internal/insights"
	"hms-analytics/internal/insights/insightstest"
	"hms-analytics/internal/models"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testServerConfig = config.ServerConfig{
	CORSAllowedOrigins: []string{"*"},
	RequestTimeout:     5000,
}

func newTestRouter(t *testing.T, store insights.Store, opts ...HandlerOption) http.Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	app := config.AppConfig{Version: "1.0", Description: "Doctor and patient analytics"}
	return NewRouter(NewHandler(store, app, log, opts...), testServerConfig, log)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type stubStore struct {
	collection []models.Insight
	err        error
}

func (s *stubStore) Name() string { return "stub" }

func (s *stubStore) Load(ctx context.Context) ([]models.Insight, error) {
	return s.collection, s.err
}

type recordingNotifier struct {
	mu     sync.Mutex
	causes []error
	done   chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{done: make(chan struct{}, 8)}
}

func (n *recordingNotifier) NotifyDataUnavailable(ctx context.Context, cause error) error {
	n.mu.Lock()
	n.causes = append(n.causes, cause)
	n.mu.Unlock()
	n.done <- struct{}{}
	return nil
}

func TestInsights_ServesTwentyValidRecords(t *testing.T) {
	router := newTestRouter(t, insights.NewFixtureStore(insightstest.WriteFixture(t)))

	rec := get(t, router, PathInsights)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []models.Insight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, models.InsightCount)

	for i, insight := range got {
		assert.NotEmpty(t, insight.Title, "insight %d", i)
		assert.NotEmpty(t, insight.Description, "insight %d", i)
		assert.True(t, insight.ChartType.Valid(), "insight %d chart type %q", i, insight.ChartType)
		assert.Len(t, insight.ChartData.Values, len(insight.ChartData.Labels), "insight %d", i)
	}
}

func TestInsights_FirstTwoRecordsVerbatim(t *testing.T) {
	router := newTestRouter(t, insights.NewFixtureStore(insightstest.WriteFixture(t)))

	rec := get(t, router, PathInsights)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw, models.InsightCount)

	assert.JSONEq(t, insightstest.BusiestDoctorsJSON, string(raw[0]))
	assert.JSONEq(t, insightstest.VisitsByDepartmentJSON, string(raw[1]))
}

func TestInsights_RepeatedRequestsAreIdentical(t *testing.T) {
	router := newTestRouter(t, insights.NewFixtureStore(insightstest.WriteFixture(t)))

	first := get(t, router, PathInsights)
	second := get(t, router, PathInsights)

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.Equal(t, first.Header().Get("ETag"), second.Header().Get("ETag"))
}

func TestInsights_DashboardAlias(t *testing.T) {
	router := newTestRouter(t, insights.NewFixtureStore(insightstest.WriteFixture(t)))

	insightsRec := get(t, router, PathInsights)
	dashboardRec := get(t, router, PathDashboard)

	require.Equal(t, http.StatusOK, dashboardRec.Code)
	assert.Equal(t, insightsRec.Body.Bytes(), dashboardRec.Body.Bytes())
}

func TestInsights_IgnoresQueryParameters(t *testing.T) {
	router := newTestRouter(t, insights.NewFixtureStore(insightstest.WriteFixture(t)))

	plain := get(t, router, PathInsights)
	withQuery := get(t, router, PathInsights+"?department=Cardiology&limit=3")

	require.Equal(t, http.StatusOK, withQuery.Code)
	assert.Equal(t, plain.Body.Bytes(), withQuery.Body.Bytes())
}

func TestInsights_NotModified(t *testing.T) {
	router := newTestRouter(t, insights.NewFixtureStore(insightstest.WriteFixture(t)))

	first := get(t, router, PathInsights)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, PathInsights, nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestInsights_CorruptFixtureReturnsDetail(t *testing.T) {
	for name, raw := range insightstest.Corruptions(t) {
		t.Run(name, func(t *testing.T) {
			path := insightstest.WriteFile(t, "insights.json", raw)
			router := newTestRouter(t, insights.NewFixtureStore(path))

			rec := get(t, router, PathInsights)
			require.Equal(t, http.StatusInternalServerError, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Len(t, body, 1)
			assert.Equal(t, errors.DetailDataUnavailable, body["detail"])
			assert.NotContains(t, rec.Body.String(), path)
		})
	}
}

func TestInsights_MissingFixtureReturnsDetail(t *testing.T) {
	missing := t.TempDir() + "/absent.json"
	router := newTestRouter(t, insights.NewFixtureStore(missing))

	rec := get(t, router, PathInsights)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Insight data is currently unavailable"}`, rec.Body.String())
}

func TestInsights_FixtureReplacedBetweenRequests(t *testing.T) {
	path := insightstest.WriteFixture(t)
	router := newTestRouter(t, insights.NewFixtureStore(path))

	require.Equal(t, http.StatusOK, get(t, router, PathInsights).Code)

	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))
	assert.Equal(t, http.StatusInternalServerError, get(t, router, PathInsights).Code)

	require.NoError(t, os.WriteFile(path, insightstest.MarshalCollection(t, insightstest.Collection()), 0o644))
	assert.Equal(t, http.StatusOK, get(t, router, PathInsights).Code)
}

func TestInsights_UnexpectedErrorIsGeneric(t *testing.T) {
	router := newTestRouter(t, &stubStore{err: assert.AnError})

	rec := get(t, router, PathInsights)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Internal server error"}`, rec.Body.String())
}

type panickingStore struct{}

func (panickingStore) Name() string { return "panicking" }

func (panickingStore) Load(ctx context.Context) ([]models.Insight, error) {
	panic("chart builder index out of range")
}

func TestInsights_PanicReturnsDetail(t *testing.T) {
	router := newTestRouter(t, panickingStore{})

	rec := get(t, router, PathInsights)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"detail":"Internal server error"}`, rec.Body.String())
}

func TestRecoverer_AbortHandlerPropagates(t *testing.T) {
	h := Recoverer(logger.NewTestLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, PathInsights, nil))
	})
}

func TestInsights_NotifiesOnDataUnavailable(t *testing.T) {
	notifier := newRecordingNotifier()
	store := &stubStore{err: errors.NewDataUnavailableError(assert.AnError)}
	router := newTestRouter(t, store, WithNotifier(notifier))

	require.Equal(t, http.StatusInternalServerError, get(t, router, PathInsights).Code)

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not called")
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.causes, 1)
	assert.ErrorIs(t, notifier.causes[0], errors.ErrDataUnavailable)
}

func TestInsights_NoNotificationForInternalErrors(t *testing.T) {
	notifier := newRecordingNotifier()
	router := newTestRouter(t, &stubStore{err: assert.AnError}, WithNotifier(notifier))

	require.Equal(t, http.StatusInternalServerError, get(t, router, PathInsights).Code)

	select {
	case <-notifier.done:
		t.Fatal("notifier should not be called for internal errors")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestInsights_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, insights.NewFixtureStore(insightstest.WriteFixture(t)))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, PathInsights, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.JSONEq(t, `{"detail":"Method Not Allowed"}`, rec.Body.String())
		})
	}
}

func TestNotFound(t *testing.T) {
	router := newTestRouter(t, &stubStore{})

	rec := get(t, router, "/api/v1/analytics/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, rec.Body.String())
}

func TestInsights_CORS(t *testing.T) {
	router := newTestRouter(t, insights.NewFixtureStore(insightstest.WriteFixture(t)))

	req := httptest.NewRequest(http.MethodGet, PathInsights, nil)
	req.Header.Set("Origin", "http://dashboard.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestInfo(t *testing.T) {
	router := newTestRouter(t, &stubStore{})

	rec := get(t, router, PathHome)
	require.Equal(t, http.StatusOK, rec.Code)

	var body InfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "HMS Analytics API", body.Message)
	assert.Equal(t, "1.0", body.Version)
	assert.Equal(t, "running", body.Status)
	assert.Equal(t, PathInsights, body.Endpoints["insights"])
	assert.Equal(t, "Doctor and patient analytics", body.Description)
}

func TestHealth(t *testing.T) {
	log := logger.NewTestLogger(t)
	h := NewHandler(&stubStore{err: assert.AnError}, config.AppConfig{}, log)
	h.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	router := NewRouter(h, testServerConfig, log)

	rec := get(t, router, PathHealth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","timestamp":"2024-03-01T09:30:00Z"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	ok := newTestRouter(t, insights.NewFixtureStore(insightstest.WriteFixture(t)))
	rec := get(t, ok, PathReady)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())

	broken := newTestRouter(t, &stubStore{err: errors.NewDataUnavailableError(assert.AnError)})
	rec = get(t, broken, PathReady)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready","detail":"Insight data is currently unavailable"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, insights.NewFixtureStore(insightstest.WriteFixture(t)))
	get(t, router, PathInsights)

	rec := get(t, router, PathMetrics)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "insights_requests_total")
}

func TestGenerateETag(t *testing.T) {
	a := generateETag([]byte(`[1,2,3]`))
	b := generateETag([]byte(`[1,2,3]`))
	c := generateETag([]byte(`[1,2,4]`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, len(a) > 2 && a[0] == '"' && a[len(a)-1] == '"')
}
