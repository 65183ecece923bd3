// internal/workers/analytics/regenerate-insights/handler.go
package regenerateinsights

import (
	"context"
	"strings"
	"time"

	"hms-analytics/internal/common/camunda"
	"hms-analytics/internal/common/errors"
	"hms-analytics/internal/common/logger"
	"hms-analytics/internal/common/metrics"
	"hms-analytics/internal/insights"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	TaskType = "regenerate-insights"

	// reportTimeout bounds the complete/fail/throw call sent after the job ran.
	reportTimeout = 30 * time.Second
)

// Invalidator drops a cached collection after the fixture changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Handler struct {
	config      *Config
	source      insights.Store
	invalidator Invalidator
	logger      logger.Logger
	errHandler  *errors.ErrorHandler
	retry       *camunda.RetryConfig
	now         func() time.Time
}

// NewHandler builds the worker. source computes the collection; invalidator may be nil.
func NewHandler(config *Config, source insights.Store, invalidator Invalidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		source:      source,
		invalidator: invalidator,
		logger:      log,
		errHandler:  errors.NewErrorHandler(log),
		retry:       camunda.DefaultRetryConfig,
		now:         time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func parseInput(variables string) (*Input, error) {
	var input Input
	if strings.TrimSpace(variables) == "" {
		return &input, nil
	}
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidJobInputError(err)
	}
	return &input, nil
}

// execute rebuilds the collection from the source and replaces the fixture. The fixture is
// written only after the collection validates.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	collection, err := h.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := insights.WriteFixture(h.config.FixturePath, collection); err != nil {
		return nil, err
	}

	if h.invalidator != nil {
		if err := h.invalidator.Invalidate(ctx); err != nil {
			h.logger.Warn("cache invalidation failed, stale entry expires with its TTL", map[string]interface{}{
				"requestId": requestID,
				"error":     err,
			})
		}
	}

	h.logger.Info("insight fixture regenerated", map[string]interface{}{
		"requestId":    requestID,
		"source":       h.source.Name(),
		"fixturePath":  h.config.FixturePath,
		"insightCount": len(collection),
	})

	return &Output{
		RequestID:    requestID,
		InsightCount: len(collection),
		FixturePath:  h.config.FixturePath,
		GeneratedAt:  h.now().UTC().Format(time.RFC3339),
	}, nil
}

// reportContext is detached from the job context: a job that ran out of time must still be
// reported to the broker.
func (h *Handler) reportContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), reportTimeout)
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()

	ctx, cancel := h.reportContext()
	defer cancel()
	h.errHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	ctx, cancel := h.reportContext()
	defer cancel()

	err = camunda.Retry(ctx, h.retry, "complete-job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
	}
}
