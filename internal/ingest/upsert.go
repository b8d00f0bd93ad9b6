package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/worksgraph/internal/data/graph"
	"github.com/yungbote/worksgraph/internal/domain"
	"github.com/yungbote/worksgraph/internal/platform/logger"
)

// Upserter applies normalized updates to the graph one at a time. The store's
// find-or-create by key is not safe under concurrent writers, so Apply holds a
// mutex for the full merge.
type Upserter struct {
	store  graph.WorkStore
	log    *logger.Logger
	tracer trace.Tracer
	mu     sync.Mutex
}

func NewUpserter(store graph.WorkStore, log *logger.Logger) *Upserter {
	if log == nil {
		log = logger.NewNop()
	}
	return &Upserter{
		store:  store,
		log:    log.With("service", "Upserter"),
		tracer: otel.Tracer("worksgraph/ingest"),
	}
}

// Apply merges u into the graph. Any store failure is returned as a
// *domain.PersistenceError and leaves earlier applies intact.
func (u *Upserter) Apply(ctx context.Context, upd *domain.WorkUpdate) (domain.UpsertResult, error) {
	if upd == nil || upd.Title == "" {
		return domain.UpsertResult{}, &domain.ValidationError{Field: ColTitle, Reason: "required"}
	}
	if u == nil || u.store == nil {
		return domain.UpsertResult{Title: upd.Title}, domain.NewPersistenceError("apply work", errors.New("no graph store configured"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := u.tracer.Start(ctx, "graph.apply_work", trace.WithAttributes(
		attribute.String("work.title", upd.Title),
		attribute.Int("work.contributors", len(upd.ContributorNames)),
	))
	defer span.End()

	u.mu.Lock()
	defer u.mu.Unlock()

	res, err := u.store.ApplyWork(ctx, upd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply failed")
		var perr *domain.PersistenceError
		if errors.As(err, &perr) {
			return res, err
		}
		return res, domain.NewPersistenceError(fmt.Sprintf("apply work %q", upd.Title), err)
	}
	span.SetAttributes(
		attribute.Bool("work.created", res.WorkCreated),
		attribute.Int("graph.nodes_created", res.NodesCreated),
		attribute.Int("graph.relationships_created", res.RelationshipsCreated),
	)
	u.log.Debug("work applied",
		"title", res.Title,
		"work_created", res.WorkCreated,
		"nodes_created", res.NodesCreated,
		"relationships_created", res.RelationshipsCreated,
	)
	return res, nil
}
