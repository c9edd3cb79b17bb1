package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/krobus00/execution-simulator/internal/config"
	"github.com/krobus00/execution-simulator/internal/infrastructure"
	"github.com/krobus00/execution-simulator/internal/repository"
	"github.com/krobus00/execution-simulator/internal/service/executionengine"
	"github.com/krobus00/execution-simulator/internal/service/marketcontext"
	"github.com/krobus00/execution-simulator/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type executionEngineDeps struct {
	service *executionengine.ExecutionEngineService
	db      *sqlx.DB
	ops     map[string]operation
}

// initExecutionEngine wires the simulator with whatever optional backends
// are configured. Postgres enables market context lookups, redis caches them
// and nats enables report publication.
func initExecutionEngine(ctx context.Context, requireJetstream bool) *executionEngineDeps {
	deps := &executionEngineDeps{ops: map[string]operation{}}

	sim, err := newSimulator(config.Env.Simulator)
	util.ContinueOrFatal(err)

	var resolver executionengine.MarketContextResolver
	dbConfig := config.Env.Database["market_data"]
	if infrastructure.IsDatabaseConfigured(dbConfig) {
		db, err := infrastructure.NewPostgresConnection(ctx, dbConfig)
		util.ContinueOrFatal(err)
		infrastructure.StartPostgresHealthCheck(ctx, db, dbConfig.PingInterval)
		deps.db = db
		deps.ops["market data database"] = func(ctx context.Context) error {
			return db.Close()
		}

		var cache marketcontext.Cache
		if dsn := config.Env.Redis["market_context"].CacheDSN; dsn != "" {
			redisClient, err := infrastructure.NewRedisClient(ctx, dsn)
			util.ContinueOrFatal(err)
			cache = marketcontext.NewRedisCache(redisClient)
			deps.ops["redis"] = closeRedis(redisClient)
		}

		resolver = marketcontext.NewService(marketcontext.Config{
			Exchange:         config.Env.MarketContext.Exchange,
			Interval:         config.Env.MarketContext.Interval,
			VolatilityWindow: config.Env.MarketContext.VolatilityWindow,
			CacheTTL:         config.Env.MarketContext.CacheTTL,
		}, repository.NewMarketKlineRepository(db), repository.NewSymbolMappingRepository(db), cache)
	} else {
		logrus.Warn("market_data database not configured, market context enrichment disabled")
	}

	var js nats.JetStreamContext
	if infrastructure.IsJetstreamConfigured() {
		nc, jsCtx, err := infrastructure.NewJetstream()
		util.ContinueOrFatal(err)
		js = jsCtx
		deps.ops["nats connection"] = func(ctx context.Context) error {
			return infrastructure.CloseJetstream(nc)
		}
	} else if requireJetstream {
		util.ContinueOrFatal(executionengine.ErrJetstreamUnavailable)
	}

	deps.service = executionengine.NewExecutionEngineService(sim, resolver, js)
	if js != nil {
		util.ContinueOrFatal(deps.service.JetstreamEventInit(ctx))
	}

	return deps
}

// ready reports whether the configured backends are reachable.
func (d *executionEngineDeps) ready(ctx context.Context) error {
	if d.db == nil {
		return nil
	}

	return d.db.PingContext(ctx)
}

func closeRedis(client *redis.Client) operation {
	return func(ctx context.Context) error {
		return client.Close()
	}
}
