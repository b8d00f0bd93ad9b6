package graph

import (
	"context"
	"sort"

	"github.com/yungbote/worksgraph/internal/domain"
)

// Node labels and relationship types of the works graph.
const (
	LabelWork        = "Work"
	LabelCreator     = "Creator"
	LabelContributor = "Contributor"

	RelCreated       = "CREATED"
	RelContributedTo = "CONTRIBUTED_TO"
)

// WorkStore is a persistent entity graph of works, creators and contributors.
//
// ApplyWork merges one update by natural key: the Work by title with a full
// replace of its scalars, the Creator and Contributors by name, and their
// edges into the Work. Nothing is ever deleted. Implementations are not safe
// for concurrent ApplyWork calls; callers serialize writes.
type WorkStore interface {
	EnsureSchema(ctx context.Context) error
	ApplyWork(ctx context.Context, u *domain.WorkUpdate) (domain.UpsertResult, error)
	LoadWorks(ctx context.Context) ([]domain.Work, error)
	// Counts returns node and edge totals, keyed by label or relationship type.
	Counts(ctx context.Context) (map[string]int64, error)
	Close(ctx context.Context) error
}

type creatorLink struct {
	Name    string
	Current bool
}

// pickCreator resolves the denormalized creator of a Work: the edge marked
// current wins, otherwise the smallest name.
func pickCreator(links []creatorLink) *string {
	if len(links) == 0 {
		return nil
	}
	sorted := append([]creatorLink(nil), links...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Current != sorted[j].Current {
			return sorted[i].Current
		}
		return sorted[i].Name < sorted[j].Name
	})
	name := sorted[0].Name
	return &name
}

func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
