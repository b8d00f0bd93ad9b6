package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/yungbote/worksgraph/internal/domain"
)

// Column names of the delimited input.
const (
	ColTitle       = "Title"
	ColGenre       = "Genre"
	ColDescription = "Description"
	ColYear        = "Year"
	ColRuntime     = "Runtime"
	ColRating      = "Rating"
	ColVotes       = "Votes"
	ColRevenue     = "Revenue"
	ColMetascore   = "Metascore"
	ColDirector    = "Director"
	ColActors      = "Actors"
)

// Columns is the header contract, in canonical order.
var Columns = []string{
	ColTitle, ColGenre, ColDescription, ColYear, ColRuntime, ColRating,
	ColVotes, ColRevenue, ColMetascore, ColDirector, ColActors,
}

// Row is one raw record keyed by column name. Missing keys and empty cells are
// both treated as absent.
type Row map[string]string

// Identifier is the best-effort label used when reporting on the row.
func (r Row) Identifier() string {
	return strings.TrimSpace(r[ColTitle])
}

// Normalize converts a raw row into a WorkUpdate. It has no side effects.
func Normalize(row Row) (*domain.WorkUpdate, error) {
	title := row[ColTitle]
	if strings.TrimSpace(title) == "" {
		return nil, &domain.ValidationError{Field: ColTitle, Reason: "required"}
	}

	year, err := optionalInt(row, ColYear)
	if err != nil {
		return nil, err
	}
	runtime, err := optionalInt(row, ColRuntime)
	if err != nil {
		return nil, err
	}
	score, err := optionalFloat(row, ColRating)
	if err != nil {
		return nil, err
	}
	votes, err := optionalInt(row, ColVotes)
	if err != nil {
		return nil, err
	}
	revenue, err := optionalFloat(row, ColRevenue)
	if err != nil {
		return nil, err
	}
	metascore, err := optionalInt(row, ColMetascore)
	if err != nil {
		return nil, err
	}

	return &domain.WorkUpdate{
		Title:            title,
		CategoryTags:     SplitCategories(row[ColGenre]),
		Description:      optionalString(row, ColDescription),
		Year:             year,
		DurationMinutes:  valueOr(runtime, 0),
		Score:            score,
		VoteCount:        votes,
		GrossRevenue:     valueOr(revenue, 0),
		CriticScore:      metascore,
		CreatorName:      optionalString(row, ColDirector),
		ContributorNames: SplitContributors(row[ColActors]),
	}, nil
}

// SplitContributors splits a pipe-delimited list. Blank tokens are dropped and
// the result is never nil.
func SplitContributors(raw string) []string {
	return splitTrimmed(raw, func(r rune) bool { return r == '|' })
}

// SplitCategories accepts both comma and pipe delimited tag lists.
func SplitCategories(raw string) []string {
	return splitTrimmed(raw, func(r rune) bool { return r == ',' || r == '|' })
}

func splitTrimmed(raw string, sep func(rune) bool) []string {
	out := []string{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	for _, tok := range strings.FieldsFunc(raw, sep) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func optionalString(row Row, col string) *string {
	v := strings.TrimSpace(row[col])
	if v == "" {
		return nil
	}
	return &v
}

func optionalInt(row Row, col string) (*int64, error) {
	raw := strings.TrimSpace(row[col])
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &domain.ValidationError{Field: col, Value: raw, Reason: "not an integer"}
	}
	return &n, nil
}

func optionalFloat(row Row, col string) (*float64, error) {
	raw := strings.TrimSpace(row[col])
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &domain.ValidationError{Field: col, Value: raw, Reason: "not a number"}
	}
	return &f, nil
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
