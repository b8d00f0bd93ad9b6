package query

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yungbote/worksgraph/internal/data/graph/graphtest"
	"github.com/yungbote/worksgraph/internal/domain"
	"github.com/yungbote/worksgraph/internal/ingest"
)

type stubLoader struct {
	works []domain.Work
	err   error
}

func (s *stubLoader) LoadWorks(context.Context) ([]domain.Work, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Work(nil), s.works...), nil
}

func TestSortDefault(t *testing.T) {
	works := []domain.Work{
		work("unrated rich", nil, 0, -1, 900, ""),
		work("mid", nil, 0, 7, 10, ""),
		work("top poor", nil, 0, 9, 0, ""),
		work("top rich", nil, 0, 9, 50, ""),
		work("unrated b", nil, 0, -1, 0, ""),
		work("unrated a", nil, 0, -1, 0, ""),
	}
	SortDefault(works)
	want := []string{"top rich", "top poor", "mid", "unrated rich", "unrated a", "unrated b"}
	if diff := cmp.Diff(want, titles(works)); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
}

func TestLoadAllWrapsFailure(t *testing.T) {
	s := NewStore(&stubLoader{err: errors.New("connection refused")}, nil)
	works, err := s.LoadAll(context.Background())
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got=%v", err)
	}
	if works != nil {
		t.Fatalf("works should be nil on failure, got=%v", works)
	}
}

func TestLoadAllEmptyIsNotAnError(t *testing.T) {
	works, err := NewStore(&stubLoader{}, nil).LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if works == nil || len(works) != 0 {
		t.Fatalf("want empty non-nil slice, got=%#v", works)
	}
}

func TestReloadKeepsPreviousSnapshotOnFailure(t *testing.T) {
	loader := &stubLoader{works: []domain.Work{work("A", nil, 0, 5, 0, "")}}
	s := NewStore(loader, nil)
	if _, ok := s.Snapshot(); ok {
		t.Fatalf("snapshot should not be ready before first reload")
	}
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	loader.err = errors.New("down")
	if err := s.Reload(context.Background()); err == nil {
		t.Fatalf("expected reload error")
	}
	snap, ok := s.Snapshot()
	if !ok || len(snap) != 1 || snap[0].Title != "A" {
		t.Fatalf("snapshot: ok=%v works=%v", ok, titles(snap))
	}
}

func TestIngestThenLoadScenario(t *testing.T) {
	store := graphtest.SQLiteStore(t)
	ctx := context.Background()
	d := ingest.NewDriver(ingest.NewUpserter(store, nil), nil, ingest.Options{})
	rows := []ingest.Row{
		{
			ingest.ColTitle:    "Nova",
			ingest.ColGenre:    "Drama|Sci-Fi",
			ingest.ColYear:     "2020",
			ingest.ColRating:   "8.5",
			ingest.ColRevenue:  "",
			ingest.ColDirector: "A. Smith",
			ingest.ColActors:   "J. Doe|K. Lee",
		},
		{ingest.ColTitle: "Dup", ingest.ColRating: "6.0", ingest.ColGenre: "Comedy"},
		{ingest.ColTitle: "Dup", ingest.ColRating: "7.5", ingest.ColGenre: "Comedy"},
	}
	rep, err := d.Run(ctx, rows)
	if err != nil || rep.Succeeded != 3 {
		t.Fatalf("Run: rep=%+v err=%v", rep, err)
	}

	works, err := NewStore(store, nil).LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if diff := cmp.Diff([]string{"Nova", "Dup"}, titles(works)); diff != "" {
		t.Fatalf("titles (-want +got):\n%s", diff)
	}
	nova := works[0]
	if nova.CreatorName == nil || *nova.CreatorName != "A. Smith" {
		t.Fatalf("creator: got=%v", nova.CreatorName)
	}
	if nova.GrossRevenue != 0 || nova.DurationMinutes != 0 || nova.VoteCount != nil {
		t.Fatalf("defaults: %+v", nova)
	}
	if dup := works[1]; dup.Score == nil || *dup.Score != 7.5 {
		t.Fatalf("last write wins: got=%v", dup.Score)
	}

	f := allFilters()
	f.Category = "Sci-Fi"
	if got := Evaluate(works, f); got.Count != 1 || got.Works[0].Title != "Nova" {
		t.Fatalf("evaluate: %+v", titles(got.Works))
	}
}
