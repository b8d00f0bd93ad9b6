package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/worksgraph/internal/domain"
	"github.com/yungbote/worksgraph/internal/platform/logger"
	"github.com/yungbote/worksgraph/internal/platform/neo4jdb"
)

type Neo4jWorkStore struct {
	client     *neo4jdb.Client
	log        *logger.Logger
	schemaOnce sync.Once
}

func NewNeo4jWorkStore(client *neo4jdb.Client, log *logger.Logger) *Neo4jWorkStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &Neo4jWorkStore{client: client, log: log.With("store", "Neo4jWorks")}
}

var schemaStatements = []string{
	`CREATE CONSTRAINT work_title_unique IF NOT EXISTS FOR (w:Work) REQUIRE w.title IS UNIQUE`,
	`CREATE CONSTRAINT creator_name_unique IF NOT EXISTS FOR (c:Creator) REQUIRE c.name IS UNIQUE`,
	`CREATE CONSTRAINT contributor_name_unique IF NOT EXISTS FOR (a:Contributor) REQUIRE a.name IS UNIQUE`,
	`CREATE INDEX work_year_idx IF NOT EXISTS FOR (w:Work) ON (w.year)`,
}

// EnsureSchema creates the natural-key constraints. Failures are logged and
// ignored since restricted users may not be allowed to manage schema.
func (s *Neo4jWorkStore) EnsureSchema(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			s.log.Warn("neo4j schema init failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
	return nil
}

func (s *Neo4jWorkStore) ApplyWork(ctx context.Context, u *domain.WorkUpdate) (domain.UpsertResult, error) {
	out := domain.UpsertResult{}
	if err := s.ready(); err != nil {
		return out, err
	}
	if u == nil || u.Title == "" {
		return out, fmt.Errorf("neo4j apply work: missing title")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.schemaOnce.Do(func() { _ = s.EnsureSchema(ctx) })

	out.Title = u.Title
	tags := u.CategoryTags
	if tags == nil {
		tags = []string{}
	}
	props := map[string]any{
		"category_tags":    tags,
		"description":      ptrParam(u.Description),
		"year":             ptrParam(u.Year),
		"duration_minutes": u.DurationMinutes,
		"score":            ptrParam(u.Score),
		"vote_count":       ptrParam(u.VoteCount),
		"gross_revenue":    u.GrossRevenue,
		"critic_score":     ptrParam(u.CriticScore),
	}
	contributors := dedupeNames(u.ContributorNames)

	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		nodes, rels := 0, 0

		// Explicit SETs so a null parameter removes the stale property.
		res, err := tx.Run(ctx, `
MERGE (w:Work {title: $title})
SET w.category_tags = $props.category_tags,
    w.description = $props.description,
    w.year = $props.year,
    w.duration_minutes = $props.duration_minutes,
    w.score = $props.score,
    w.vote_count = $props.vote_count,
    w.gross_revenue = $props.gross_revenue,
    w.critic_score = $props.critic_score
`, map[string]any{"title": u.Title, "props": props})
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		workNodes := summary.Counters().NodesCreated()
		nodes += workNodes

		if u.CreatorName != nil && *u.CreatorName != "" {
			res, err := tx.Run(ctx, `
MATCH (w:Work {title: $title})
MERGE (c:Creator {name: $creator})
MERGE (c)-[e:CREATED]->(w)
SET e.current = true
WITH w, c
OPTIONAL MATCH (o:Creator)-[old:CREATED]->(w)
WHERE o <> c
SET old.current = false
`, map[string]any{"title": u.Title, "creator": *u.CreatorName})
			if err != nil {
				return nil, err
			}
			summary, err := res.Consume(ctx)
			if err != nil {
				return nil, err
			}
			nodes += summary.Counters().NodesCreated()
			rels += summary.Counters().RelationshipsCreated()
		}

		if len(contributors) > 0 {
			res, err := tx.Run(ctx, `
MATCH (w:Work {title: $title})
UNWIND $contributors AS name
MERGE (a:Contributor {name: name})
MERGE (a)-[:CONTRIBUTED_TO]->(w)
`, map[string]any{"title": u.Title, "contributors": contributors})
			if err != nil {
				return nil, err
			}
			summary, err := res.Consume(ctx)
			if err != nil {
				return nil, err
			}
			nodes += summary.Counters().NodesCreated()
			rels += summary.Counters().RelationshipsCreated()
		}

		out.WorkCreated = workNodes > 0
		out.NodesCreated = nodes
		out.RelationshipsCreated = rels
		return nil, nil
	})
	if err != nil {
		return domain.UpsertResult{Title: u.Title}, err
	}
	return out, nil
}

func (s *Neo4jWorkStore) LoadWorks(ctx context.Context) ([]domain.Work, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (w:Work)
OPTIONAL MATCH (c:Creator)-[e:CREATED]->(w)
WITH w, c, e
ORDER BY coalesce(e.current, false) DESC, c.name ASC
WITH w, collect(c.name) AS creators
RETURN w.title AS title,
       w.category_tags AS category_tags,
       w.description AS description,
       w.year AS year,
       w.duration_minutes AS duration_minutes,
       w.score AS score,
       w.vote_count AS vote_count,
       w.gross_revenue AS gross_revenue,
       w.critic_score AS critic_score,
       head(creators) AS creator_name
ORDER BY w.score IS NULL, w.score DESC, coalesce(w.gross_revenue, 0) DESC, w.title ASC
`, nil)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		works := make([]domain.Work, 0, len(records))
		for _, rec := range records {
			works = append(works, workFromRecord(rec))
		}
		return works, nil
	})
	if err != nil {
		return nil, err
	}
	works, _ := out.([]domain.Work)
	return works, nil
}

func (s *Neo4jWorkStore) Counts(ctx context.Context) (map[string]int64, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	queries := map[string]string{
		LabelWork:        `MATCH (n:Work) RETURN count(n) AS n`,
		LabelCreator:     `MATCH (n:Creator) RETURN count(n) AS n`,
		LabelContributor: `MATCH (n:Contributor) RETURN count(n) AS n`,
		RelCreated:       `MATCH ()-[r:CREATED]->() RETURN count(r) AS n`,
		RelContributedTo: `MATCH ()-[r:CONTRIBUTED_TO]->() RETURN count(r) AS n`,
	}
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		counts := make(map[string]int64, len(queries))
		for key, q := range queries {
			res, err := tx.Run(ctx, q, nil)
			if err != nil {
				return nil, err
			}
			rec, err := res.Single(ctx)
			if err != nil {
				return nil, err
			}
			counts[key] = int64Value(rec, "n")
		}
		return counts, nil
	})
	if err != nil {
		return nil, err
	}
	counts, _ := out.(map[string]int64)
	return counts, nil
}

func (s *Neo4jWorkStore) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.client.Close(ctx)
}

func (s *Neo4jWorkStore) ready() error {
	if s == nil || s.client == nil || s.client.Driver == nil {
		return fmt.Errorf("neo4j work store: driver not initialized")
	}
	return nil
}

func workFromRecord(rec *neo4j.Record) domain.Work {
	w := domain.Work{
		Title:           stringValue(rec, "title"),
		CategoryTags:    stringsValue(rec, "category_tags"),
		Description:     optString(rec, "description"),
		Year:            optInt64(rec, "year"),
		DurationMinutes: int64Value(rec, "duration_minutes"),
		Score:           optFloat64(rec, "score"),
		VoteCount:       optInt64(rec, "vote_count"),
		GrossRevenue:    float64Value(rec, "gross_revenue"),
		CriticScore:     optInt64(rec, "critic_score"),
		CreatorName:     optString(rec, "creator_name"),
	}
	return w
}

func ptrParam[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringValue(rec *neo4j.Record, key string) string {
	if p := optString(rec, key); p != nil {
		return *p
	}
	return ""
}

func optString(rec *neo4j.Record, key string) *string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func stringsValue(rec *neo4j.Record, key string) []string {
	out := []string{}
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return out
	}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func optInt64(rec *neo4j.Record, key string) *int64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case int64:
		return &n
	case float64:
		i := int64(n)
		return &i
	}
	return nil
}

func int64Value(rec *neo4j.Record, key string) int64 {
	if p := optInt64(rec, key); p != nil {
		return *p
	}
	return 0
}

func optFloat64(rec *neo4j.Record, key string) *float64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int64:
		f := float64(n)
		return &f
	}
	return nil
}

func float64Value(rec *neo4j.Record, key string) float64 {
	if p := optFloat64(rec, key); p != nil {
		return *p
	}
	return 0
}
