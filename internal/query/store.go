package query

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/worksgraph/internal/domain"
	"github.com/yungbote/worksgraph/internal/platform/logger"
)

// Loader materializes every Work from the persistent graph.
type Loader interface {
	LoadWorks(ctx context.Context) ([]domain.Work, error)
}

// Store caches a full snapshot of the graph's works. A snapshot is never
// mutated after it is published; Reload swaps in a new slice.
type Store struct {
	loader Loader
	log    *logger.Logger
	tracer trace.Tracer

	mu       sync.RWMutex
	snapshot []domain.Work
	loadedAt time.Time
}

func NewStore(loader Loader, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	return &Store{
		loader: loader,
		log:    log.With("service", "QueryStore"),
		tracer: otel.Tracer("worksgraph/query"),
	}
}

// LoadAll reads every Work from the graph in default order. A store failure
// is returned as *domain.PersistenceError, never as an empty slice.
func (s *Store) LoadAll(ctx context.Context) ([]domain.Work, error) {
	if s == nil || s.loader == nil {
		return nil, domain.NewPersistenceError("load works", errors.New("no graph store configured"))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := s.tracer.Start(ctx, "graph.load_works")
	defer span.End()

	works, err := s.loader.LoadWorks(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		var perr *domain.PersistenceError
		if errors.As(err, &perr) {
			return nil, err
		}
		return nil, domain.NewPersistenceError("load works", err)
	}
	if works == nil {
		works = []domain.Work{}
	}
	for i := range works {
		if works[i].CategoryTags == nil {
			works[i].CategoryTags = []string{}
		}
	}
	SortDefault(works)
	span.SetAttributes(attribute.Int("works.count", len(works)))
	return works, nil
}

// Reload rebuilds the snapshot. On failure the previous snapshot stays in
// place and the error is returned.
func (s *Store) Reload(ctx context.Context) error {
	works, err := s.LoadAll(ctx)
	if err != nil {
		s.log.Error("snapshot reload failed", "error", err)
		return err
	}
	s.mu.Lock()
	s.snapshot = works
	s.loadedAt = time.Now().UTC()
	s.mu.Unlock()
	s.log.Info("snapshot loaded", "works", len(works))
	return nil
}

// Snapshot returns the current collection. Callers must treat it as
// read-only. ok is false until the first successful Reload.
func (s *Store) Snapshot() (works []domain.Work, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, !s.loadedAt.IsZero()
}

func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// SortDefault orders works by score descending with missing scores last,
// then gross revenue descending, then title for a stable total order.
func SortDefault(works []domain.Work) {
	sort.SliceStable(works, func(i, j int) bool {
		a, b := works[i], works[j]
		if (a.Score == nil) != (b.Score == nil) {
			return a.Score != nil
		}
		if a.Score != nil && *a.Score != *b.Score {
			return *a.Score > *b.Score
		}
		if a.GrossRevenue != b.GrossRevenue {
			return a.GrossRevenue > b.GrossRevenue
		}
		return a.Title < b.Title
	})
}
