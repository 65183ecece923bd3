// internal/workers/analytics/regenerate-insights/models.go
package regenerateinsights

type Input struct {
	RequestID string `json:"requestId,omitempty"`
}

type Output struct {
	RequestID    string `json:"requestId"`
	InsightCount int    `json:"insightCount"`
	FixturePath  string `json:"fixturePath"`
	GeneratedAt  string `json:"generatedAt"` // RFC3339
}
