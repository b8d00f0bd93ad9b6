package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/worksgraph/internal/data/graph"
	"github.com/yungbote/worksgraph/internal/platform/logger"
	"github.com/yungbote/worksgraph/internal/platform/neo4jdb"
	"github.com/yungbote/worksgraph/internal/platform/redisbus"
	"github.com/yungbote/worksgraph/internal/platform/sqldb"
)

// openGraph connects the configured backend and ensures its schema. Any
// failure here is fatal to the caller; there is no retry.
func openGraph(ctx context.Context, cfg Config, log *logger.Logger) (graph.WorkStore, error) {
	var store graph.WorkStore
	switch strings.ToLower(strings.TrimSpace(cfg.GraphBackend)) {
	case BackendSQL:
		log.Info("Connecting to SQL graph store...", "driver", cfg.SQL.Driver)
		db, err := sqldb.Open(cfg.SQL, log)
		if err != nil {
			return nil, err
		}
		store = graph.NewSQLWorkStore(db, log)
	default:
		log.Info("Connecting to Neo4j...", "uri", cfg.Neo4j.URI)
		client, err := neo4jdb.New(ctx, cfg.Neo4j, log)
		if err != nil {
			return nil, err
		}
		store = graph.NewNeo4jWorkStore(client, log)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close(context.Background())
		return nil, fmt.Errorf("ensure graph schema: %w", err)
	}
	return store, nil
}

// openBus returns nil without error when Redis is not configured.
func openBus(ctx context.Context, cfg Config, log *logger.Logger) (redisbus.Bus, error) {
	bus, err := redisbus.New(ctx, cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init change bus: %w", err)
	}
	if bus == nil {
		log.Info("Change bus disabled (no REDIS_ADDR)")
	}
	return bus, nil
}
