// internal/appointments/elasticsearch.go
package appointments

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hms-analytics/internal/common/database"
	"hms-analytics/internal/common/errors"
	"hms-analytics/internal/models"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/goccy/go-json"
)

const (
	esPageSize        = 1000
	esScrollKeepAlive = time.Minute // "1m" in scroll continuation bodies
)

// ElasticsearchSource reads appointment documents whose fields use the Field names of Columns.
// The whole index is read through a scroll, so it is not bounded by index.max_result_window.
type ElasticsearchSource struct {
	client *database.ElasticsearchClient
	index  string
}

func NewElasticsearchSource(client *database.ElasticsearchClient, index string) *ElasticsearchSource {
	return &ElasticsearchSource{client: client, index: index}
}

func (s *ElasticsearchSource) Name() string { return "elasticsearch" }

type searchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

var matchAllBody = func() string {
	fields := make([]string, len(Columns))
	for i, c := range Columns {
		fields[i] = c.Field
	}
	body, _ := json.Marshal(map[string]interface{}{
		"query":   map[string]interface{}{"match_all": map[string]interface{}{}},
		"_source": fields,
	})
	return string(body)
}()

func (s *ElasticsearchSource) Fetch(ctx context.Context) ([]models.Appointment, error) {
	page, err := s.openScroll(ctx)
	if err != nil {
		return nil, err
	}
	scrollID := page.ScrollID
	defer func() { s.clearScroll(scrollID) }()

	total := page.Hits.Total.Value
	var raw []RawRecord
	for {
		for _, hit := range page.Hits.Hits {
			raw = append(raw, documentToRecord(hit.Source))
		}
		if int64(len(raw)) >= total || len(page.Hits.Hits) == 0 || scrollID == "" {
			break
		}

		page, err = s.nextScroll(ctx, scrollID)
		if err != nil {
			return nil, err
		}
		if page.ScrollID != "" {
			scrollID = page.ScrollID
		}
	}

	// A short read would aggregate a partial index and still look valid.
	if int64(len(raw)) < total {
		return nil, errors.NewSearchQueryFailedError(s.index,
			fmt.Errorf("scroll ended after %d of %d documents", len(raw), total)).
			WithMetadata("total", total).
			WithMetadata("fetched", len(raw))
	}

	return Clean(raw), nil
}

func (s *ElasticsearchSource) openScroll(ctx context.Context) (*searchResponse, error) {
	size := esPageSize
	req := esapi.SearchRequest{
		Index:          []string{s.index},
		Body:           strings.NewReader(matchAllBody),
		Size:           &size,
		Scroll:         esScrollKeepAlive,
		TrackTotalHits: true,
	}
	res, err := req.Do(ctx, s.client.Client)
	return s.decode(res, err)
}

func (s *ElasticsearchSource) nextScroll(ctx context.Context, scrollID string) (*searchResponse, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"scroll":    "1m",
		"scroll_id": scrollID,
	})
	req := esapi.ScrollRequest{Body: bytes.NewReader(body)}
	res, err := req.Do(ctx, s.client.Client)
	return s.decode(res, err)
}

// clearScroll releases the server-side context. Failures only cost the keep-alive.
func (s *ElasticsearchSource) clearScroll(scrollID string) {
	if scrollID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	body, _ := json.Marshal(map[string]interface{}{"scroll_id": []string{scrollID}})
	req := esapi.ClearScrollRequest{Body: bytes.NewReader(body)}
	if res, err := req.Do(ctx, s.client.Client); err == nil {
		res.Body.Close()
	}
}

func (s *ElasticsearchSource) decode(res *esapi.Response, err error) (*searchResponse, error) {
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
			return nil, errors.NewSearchQueryFailedError(s.index, err)
		}
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, errors.NewIndexNotFoundError(s.index)
	}
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("search failed: %s", res.Status()))
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, errors.NewSearchQueryFailedError(s.index, fmt.Errorf("decode response: %w", err))
	}
	return &out, nil
}

func documentToRecord(doc map[string]interface{}) RawRecord {
	rec := make(RawRecord, len(Columns))
	for _, c := range Columns {
		v, ok := doc[c.Field]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			rec[c.Header] = t
		case float64:
			rec[c.Header] = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			rec[c.Header] = fmt.Sprint(t)
		}
	}
	return rec
}
