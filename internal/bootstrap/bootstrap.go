// internal/bootstrap/bootstrap.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"hms-analytics/internal/appointments"
	"hms-analytics/internal/common/camunda"
	"hms-analytics/internal/common/config"
	"hms-analytics/internal/common/database"
	"hms-analytics/internal/common/errors"
	"hms-analytics/internal/common/logger"
	"hms-analytics/internal/insights"

	ri "hms-analytics/internal/workers/analytics/regenerate-insights"
)

// RetryWithBackoff attempts to execute a function with exponential backoff
func RetryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Connections opens backing clients on first use so the server and the worker share them.
type Connections struct {
	cfg *config.Config
	log *zap.Logger

	pg    *database.PostgresClient
	es    *database.ElasticsearchClient
	redis *database.RedisClient

	// attempts per backing service; tests shrink these
	maxRetries   int
	initialDelay time.Duration
}

func NewConnections(cfg *config.Config, log *zap.Logger) *Connections {
	return &Connections{cfg: cfg, log: log, maxRetries: 15, initialDelay: 2 * time.Second}
}

func (c *Connections) Postgres(ctx context.Context) (*database.PostgresClient, error) {
	if c.pg != nil {
		return c.pg, nil
	}
	err := RetryWithBackoff(func() error {
		pg, err := database.NewPostgres(c.cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		c.pg = pg
		return nil
	}, c.maxRetries, c.initialDelay, c.log, "PostgreSQL connection")
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	return c.pg, nil
}

func (c *Connections) Elasticsearch(ctx context.Context) (*database.ElasticsearchClient, error) {
	if c.es != nil {
		return c.es, nil
	}
	err := RetryWithBackoff(func() error {
		es, err := database.NewElasticsearch(c.cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		if err := es.Ping(ctx); err != nil {
			return err
		}
		c.es = es
		return nil
	}, c.maxRetries, c.initialDelay, c.log, "Elasticsearch connection")
	return c.es, err
}

func (c *Connections) Redis(ctx context.Context) (*database.RedisClient, error) {
	if c.redis != nil {
		return c.redis, nil
	}
	err := RetryWithBackoff(func() error {
		rc, err := database.NewRedis(c.cfg.Database.Redis)
		if err != nil {
			return err
		}
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return err
		}
		c.redis = rc
		return nil
	}, c.maxRetries, c.initialDelay, c.log, "Redis connection")
	return c.redis, err
}

// Close releases every client that was opened.
func (c *Connections) Close() {
	if c.pg != nil {
		c.pg.Close()
	}
	if c.redis != nil {
		c.redis.Close()
	}
}

// Source returns the appointment source for kind.
func (c *Connections) Source(ctx context.Context, kind string) (appointments.Source, error) {
	switch kind {
	case config.SourceCSV:
		return appointments.NewCSVSource(c.cfg.Source.CSVPath), nil
	case config.SourcePostgres:
		pg, err := c.Postgres(ctx)
		if err != nil {
			return nil, err
		}
		return appointments.NewPostgresSource(pg, c.cfg.Source.PostgresTable), nil
	case config.SourceElasticsearch:
		es, err := c.Elasticsearch(ctx)
		if err != nil {
			return nil, err
		}
		return appointments.NewElasticsearchSource(es, c.cfg.Source.ElasticsearchIndex), nil
	default:
		return nil, fmt.Errorf("no appointment source for kind %q", kind)
	}
}

// ServingStore returns the store behind the HTTP endpoint for source.kind.
func (c *Connections) ServingStore(ctx context.Context) (insights.Store, error) {
	if c.cfg.Source.Kind == config.SourceFixture {
		return insights.NewFixtureStore(c.cfg.Source.FixturePath), nil
	}
	src, err := c.Source(ctx, c.cfg.Source.Kind)
	if err != nil {
		return nil, err
	}
	return insights.NewComputedStore(src, c.cfg.SourceTimeout()), nil
}

// Cache wraps inner in the Redis cache when cache.enabled is set, and returns nil otherwise.
func (c *Connections) Cache(ctx context.Context, inner insights.Store, log logger.Logger) (*insights.CachedStore, error) {
	if !c.cfg.Cache.Enabled {
		return nil, nil
	}
	rc, err := c.Redis(ctx)
	if err != nil {
		return nil, err
	}
	return insights.NewCachedStore(inner, rc, c.cfg.Cache.Key, config.GetDuration(c.cfg.Cache.TTL), log), nil
}

// Workers is the set of job workers opened against one Zeebe client.
type Workers struct {
	Client *camunda.Client
	Jobs   []worker.JobWorker
}

// Close stops the job workers and then the client.
func (w *Workers) Close() error {
	if w == nil {
		return nil
	}
	for _, j := range w.Jobs {
		j.Close()
		j.AwaitClose()
	}
	if w.Client != nil {
		return w.Client.Close()
	}
	return nil
}

// StartWorkers connects to Zeebe and opens every enabled worker. cached may be nil.
func StartWorkers(ctx context.Context, cfg *config.Config, conns *Connections, cached *insights.CachedStore, log logger.Logger, zapLog *zap.Logger) (*Workers, error) {
	var zeebe *camunda.Client
	err := RetryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		return nil, err
	}
	zapLog.Info("Zeebe client connected successfully")

	ws := &Workers{Client: zeebe}

	if wcfg := config.GetWorkerConfig(cfg, ri.TaskType); wcfg.Enabled {
		src, err := conns.Source(ctx, cfg.RegenerationSource())
		if err != nil {
			_ = ws.Close()
			return nil, fmt.Errorf("regeneration source: %w", err)
		}

		var invalidator ri.Invalidator
		if cached != nil {
			invalidator = cached
		}

		handler := ri.NewHandler(
			ri.LoadConfig(cfg),
			insights.NewComputedStore(src, cfg.SourceTimeout()),
			invalidator,
			log,
		)
		if w := camunda.StartWorker(zeebe.GetClient(), ri.TaskType, wcfg, handler.Handle, log); w != nil {
			ws.Jobs = append(ws.Jobs, w)
		}
	}

	zapLog.Info("job workers registered", zap.Int("count", len(ws.Jobs)))
	return ws, nil
}
