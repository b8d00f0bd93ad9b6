package graphtest

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/worksgraph/internal/data/graph"
	"github.com/yungbote/worksgraph/internal/platform/logger"
	"github.com/yungbote/worksgraph/internal/platform/neo4jdb"
	"github.com/yungbote/worksgraph/internal/platform/sqldb"
)

// SQLiteStore returns a migrated SQL work store backed by a private in-memory
// SQLite database.
func SQLiteStore(tb testing.TB) *graph.SQLWorkStore {
	tb.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := sqldb.Open(sqldb.Config{Driver: sqldb.DriverSQLite, DSN: dsn, Quiet: true}, logger.NewNop())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sqlite pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	store := graph.NewSQLWorkStore(db, logger.NewNop())
	if err := store.EnsureSchema(context.Background()); err != nil {
		tb.Fatalf("ensure schema: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

// Neo4jStore connects to NEO4J_TEST_URI and wipes the works graph. It skips
// the test when the variable is unset.
func Neo4jStore(tb testing.TB) *graph.Neo4jWorkStore {
	tb.Helper()
	uri := os.Getenv("NEO4J_TEST_URI")
	if uri == "" {
		tb.Skip("set NEO4J_TEST_URI to run neo4j integration tests")
	}
	ctx := context.Background()
	client, err := neo4jdb.New(ctx, neo4jdb.Config{
		URI:      uri,
		User:     os.Getenv("NEO4J_TEST_USER"),
		Password: os.Getenv("NEO4J_TEST_PASSWORD"),
		Database: os.Getenv("NEO4J_TEST_DATABASE"),
	}, logger.NewNop())
	if err != nil {
		tb.Fatalf("neo4j connect: %v", err)
	}

	session := client.WriteSession(ctx)
	res, err := session.Run(ctx, `MATCH (n) WHERE n:Work OR n:Creator OR n:Contributor DETACH DELETE n`, nil)
	if err == nil {
		_, err = res.Consume(ctx)
	}
	_ = session.Close(ctx)
	if err != nil {
		tb.Fatalf("neo4j reset: %v", err)
	}

	store := graph.NewNeo4jWorkStore(client, logger.NewNop())
	tb.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}
