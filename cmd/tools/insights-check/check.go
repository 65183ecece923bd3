// cmd/tools/insights-check/check.go
package main

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	httpclient "hms-analytics/internal/common/http"
	"hms-analytics/internal/models"
)

// Result is the outcome of one check.
type Result struct {
	URL        string   `json:"url"`
	StatusCode int      `json:"statusCode"`
	Insights   int      `json:"insights"`
	Detail     string   `json:"detail,omitempty"`
	Problems   []string `json:"problems,omitempty"`
	DurationMs int64    `json:"durationMs"`
}

func (r *Result) OK() bool { return len(r.Problems) == 0 }

func (r *Result) problem(format string, args ...interface{}) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// check fetches url once and checks the response against the insight contract: either
// 200 with exactly models.InsightCount valid records, or 500 with a {"detail"} body.
// A 500 is reported as a problem; only transport failures return an error.
func check(ctx context.Context, client *httpclient.Client, url string) (*Result, error) {
	start := time.Now()
	resp, err := client.Get(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	r := &Result{
		URL:        url,
		StatusCode: resp.StatusCode,
		DurationMs: time.Since(start).Milliseconds(),
	}

	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		r.problem("content type %q is not application/json", resp.Header.Get("Content-Type"))
	}

	switch resp.StatusCode {
	case http.StatusOK:
		checkCollection(r, resp.Body)
	case http.StatusInternalServerError:
		var body map[string]interface{}
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			r.problem("error body is not JSON: %v", err)
			return r, nil
		}
		detail, ok := body["detail"].(string)
		if !ok || detail == "" || len(body) != 1 {
			r.problem("error body is not a single non-empty detail: %s", resp.Body)
		}
		r.Detail = detail
		r.problem("service reported an error: %s", detail)
	default:
		r.problem("unexpected status %d", resp.StatusCode)
	}
	return r, nil
}

func checkCollection(r *Result, body []byte) {
	var collection []models.Insight
	if err := json.Unmarshal(body, &collection); err != nil {
		r.problem("body is not an insight array: %v", err)
		return
	}
	r.Insights = len(collection)
	if len(collection) != models.InsightCount {
		r.problem("got %d insights, want %d", len(collection), models.InsightCount)
	}
	for i, insight := range collection {
		if err := insight.Validate(); err != nil {
			r.problem("insight %d (%q): %v", i, insight.Title, err)
		}
	}
}

// checkWithWait retries transport failures with exponential backoff until wait elapses.
// Contract problems are returned immediately.
func checkWithWait(ctx context.Context, client *httpclient.Client, url string, wait time.Duration) (*Result, error) {
	if wait <= 0 {
		return check(ctx, client, url)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = wait

	var result *Result
	err := backoff.Retry(func() error {
		r, err := check(ctx, client, url)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		result = r
		return nil
	}, backoff.WithContext(bo, ctx))
	return result, err
}
