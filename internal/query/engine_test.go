package query

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yungbote/worksgraph/internal/domain"
)

func strPtr(s string) *string   { return &s }
func i64Ptr(n int64) *int64     { return &n }
func f64Ptr(f float64) *float64 { return &f }

func work(title string, tags []string, year int64, score float64, revenue float64, creator string) domain.Work {
	w := domain.Work{Title: title, CategoryTags: tags, GrossRevenue: revenue}
	if year != 0 {
		w.Year = i64Ptr(year)
	}
	if score >= 0 {
		w.Score = f64Ptr(score)
	}
	if creator != "" {
		w.CreatorName = strPtr(creator)
	}
	return w
}

func allFilters() domain.FilterSet {
	return domain.FilterSet{Category: domain.FilterAll, Year: domain.FilterAll}
}

func titles(works []domain.Work) []string {
	out := make([]string, 0, len(works))
	for _, w := range works {
		out = append(out, w.Title)
	}
	return out
}

func TestEvaluateCategoryScenario(t *testing.T) {
	works := []domain.Work{
		work("Nova", []string{"Drama", "Sci-Fi"}, 2020, 8.5, 0, "A. Smith"),
		work("Drift", []string{"Comedy"}, 2019, 6.0, 10, "B. Jones"),
	}
	f := allFilters()
	f.Category = "Sci-Fi"
	got := Evaluate(works, f)
	if diff := cmp.Diff([]string{"Nova"}, titles(got.Works)); diff != "" {
		t.Fatalf("works (-want +got):\n%s", diff)
	}
	if got.Count != 1 {
		t.Fatalf("count: want=1 got=%d", got.Count)
	}
}

func TestEvaluateFilterSemantics(t *testing.T) {
	works := []domain.Work{
		work("The Action Hero", []string{"Action"}, 2014, 7, 100, "James Gunn"),
		work("Quiet Place", []string{"Drama"}, 2014, 5, 50, ""),
		work("No Year", []string{"Action", "Comedy"}, 0, -1, 0, "gunn jr"),
	}
	cases := []struct {
		name string
		f    domain.FilterSet
		want []string
	}{
		{"match all", allFilters(), []string{"The Action Hero", "Quiet Place", "No Year"}},
		{"empty category and year mean all", domain.FilterSet{}, []string{"The Action Hero", "Quiet Place", "No Year"}},
		{"title case-insensitive", domain.FilterSet{TitleContains: "ACTION", Category: "All", Year: "All"}, []string{"The Action Hero"}},
		{"category is substring of joined tags", domain.FilterSet{Category: "Act", Year: "All"}, []string{"The Action Hero", "No Year"}},
		{"category spans join separator", domain.FilterSet{Category: "Action,Com", Year: "All"}, []string{"No Year"}},
		{"category is case-sensitive", domain.FilterSet{Category: "action", Year: "All"}, []string{}},
		{"year exact", domain.FilterSet{Category: "All", Year: "2014"}, []string{"The Action Hero", "Quiet Place"}},
		{"absent year never matches", domain.FilterSet{Category: "All", Year: "0"}, []string{}},
		{"unparsable year matches nothing", domain.FilterSet{Category: "All", Year: "recent"}, []string{}},
		{"creator case-insensitive", domain.FilterSet{Category: "All", Year: "All", CreatorContains: "GUNN"}, []string{"The Action Hero", "No Year"}},
		{"absent creator never matches", domain.FilterSet{Category: "All", Year: "All", CreatorContains: "e"}, []string{"The Action Hero"}},
		{"all filters combine", domain.FilterSet{TitleContains: "o", Category: "Action", Year: "2014", CreatorContains: "james"}, []string{"The Action Hero"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(works, tc.f)
			if diff := cmp.Diff(tc.want, titles(got.Works)); diff != "" {
				t.Fatalf("works (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluateStats(t *testing.T) {
	works := []domain.Work{
		work("A", nil, 2010, 8, 100, ""),
		work("B", nil, 2010, -1, 50, ""),
		work("C", nil, 2012, 6, 0, ""),
		work("D", nil, 0, 10, 25.5, ""),
	}
	got := Evaluate(works, allFilters())
	// Missing score counts as zero: (8 + 0 + 6 + 10) / 4.
	if got.AverageScore != 6 {
		t.Fatalf("average: want=6 got=%v", got.AverageScore)
	}
	if got.TotalRevenue != 175.5 {
		t.Fatalf("revenue: want=175.5 got=%v", got.TotalRevenue)
	}
	wantYears := []domain.YearBucket{
		{Year: 2010, Revenue: 150, Count: 2},
		{Year: 2012, Revenue: 0, Count: 1},
	}
	if diff := cmp.Diff(wantYears, got.YearSeries); diff != "" {
		t.Fatalf("year series (-want +got):\n%s", diff)
	}
	wantBins := []domain.ScoreBin{
		{Label: "0-2", Count: 0},
		{Label: "2-4", Count: 0},
		{Label: "4-6", Count: 0},
		{Label: "6-8", Count: 1},
		{Label: "8-10", Count: 2},
	}
	if diff := cmp.Diff(wantBins, got.ScoreHistogram); diff != "" {
		t.Fatalf("score bins (-want +got):\n%s", diff)
	}

	empty := Evaluate(nil, allFilters())
	if empty.Count != 0 || empty.AverageScore != 0 || len(empty.TopRated) != 0 || len(empty.ScoreHistogram) != 5 {
		t.Fatalf("empty view: %+v", empty)
	}
}

func TestScoreBinEdges(t *testing.T) {
	cases := map[float64]int{0: 0, 1.99: 0, 2: 1, 5.5: 2, 7.99: 3, 8: 4, 10: 4, 11: 4, -3: 0}
	for score, want := range cases {
		if got := scoreBin(score); got != want {
			t.Fatalf("scoreBin(%v): want=%d got=%d", score, want, got)
		}
	}
}

func TestCategoryHistogramOrderAndUnknown(t *testing.T) {
	works := []domain.Work{
		work("1", []string{"Drama", "Sci-Fi"}, 0, 1, 0, ""),
		work("2", []string{}, 0, 1, 0, ""),
		work("3", []string{"Sci-Fi", "Horror"}, 0, 1, 0, ""),
		work("4", []string{"Horror"}, 0, 1, 0, ""),
	}
	got := Evaluate(works, allFilters()).CategoryHistogram
	want := []domain.TagCount{
		{Tag: "Sci-Fi", Count: 2},
		{Tag: "Horror", Count: 2},
		{Tag: "Drama", Count: 1},
		{Tag: "Unknown", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("histogram (-want +got):\n%s", diff)
	}
}

func TestCategoryHistogramTruncates(t *testing.T) {
	var works []domain.Work
	for i := 0; i < 15; i++ {
		tags := []string{fmt.Sprintf("tag-%02d", i)}
		for j := 0; j <= i%4; j++ {
			works = append(works, work(fmt.Sprintf("%d-%d", i, j), tags, 0, 1, 0, ""))
		}
	}
	got := Evaluate(works, allFilters()).CategoryHistogram
	if len(got) != 10 {
		t.Fatalf("histogram length: want=10 got=%d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Count > got[i-1].Count {
			t.Fatalf("histogram not descending at %d: %+v", i, got)
		}
	}
}

func TestTopCreators(t *testing.T) {
	works := []domain.Work{
		work("1", nil, 0, 1, 0, "Nolan"),
		work("2", nil, 0, 1, 0, "Scott"),
		work("3", nil, 0, 1, 0, ""),
		work("4", nil, 0, 1, 0, "Scott"),
		work("5", nil, 0, 1, 0, "Bigelow"),
		work("6", nil, 0, 1, 0, "Nolan"),
	}
	got := Evaluate(works, allFilters()).TopCreators
	want := []domain.CreatorCount{
		{Name: "Nolan", Count: 2},
		{Name: "Scott", Count: 2},
		{Name: "Bigelow", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("top creators (-want +got):\n%s", diff)
	}
}

func TestTopRated(t *testing.T) {
	var works []domain.Work
	for i := 0; i < 12; i++ {
		works = append(works, work("w"+strconv.Itoa(i), nil, 0, float64(i%6), 0, ""))
	}
	works = append(works, work("unrated", nil, 0, -1, 0, ""))
	got := Evaluate(works, allFilters()).TopRated
	want := []string{"w5", "w11", "w4", "w10", "w3", "w9", "w2", "w8", "w1", "w7"}
	if diff := cmp.Diff(want, titles(got)); diff != "" {
		t.Fatalf("top rated (-want +got):\n%s", diff)
	}
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	works := []domain.Work{
		work("low", nil, 0, 1, 0, ""),
		work("high", nil, 0, 9, 0, ""),
	}
	before := titles(works)
	_ = Evaluate(works, allFilters())
	if diff := cmp.Diff(before, titles(works)); diff != "" {
		t.Fatalf("input reordered (-before +after):\n%s", diff)
	}
}

// Random collections and filters: Matches agrees with the filter rules per
// work, count equals the matching subset and the score bins cover every
// scored work.
func TestEvaluateProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tagPool := []string{"Action", "Adventure", "Comedy", "Drama", "Sci-Fi", "Horror"}
	creators := []string{"", "Ann Lee", "Bo Kim", "Cy Young"}
	titlesPool := []string{"Alpha", "beta", "Gamma Ray", "delta", "Epsilon"}

	for iter := 0; iter < 200; iter++ {
		var works []domain.Work
		n := rng.Intn(40)
		for i := 0; i < n; i++ {
			var tags []string
			for _, tag := range tagPool {
				if rng.Intn(3) == 0 {
					tags = append(tags, tag)
				}
			}
			year := int64(0)
			if rng.Intn(4) > 0 {
				year = 2000 + int64(rng.Intn(5))
			}
			score := -1.0
			if rng.Intn(5) > 0 {
				score = float64(rng.Intn(101)) / 10
			}
			works = append(works, work(titlesPool[rng.Intn(len(titlesPool))], tags, year, score, float64(rng.Intn(100)), creators[rng.Intn(len(creators))]))
		}
		f := domain.FilterSet{
			TitleContains:   []string{"", "a", "GAM", "zzz"}[rng.Intn(4)],
			Category:        []string{"All", "Act", "Drama", "Sci"}[rng.Intn(4)],
			Year:            []string{"All", "2001", "2003"}[rng.Intn(3)],
			CreatorContains: []string{"", "lee", "o"}[rng.Intn(3)],
		}

		want := 0
		scored := 0
		for _, w := range works {
			if Matches(w, f) != predicate(w, f) {
				t.Fatalf("iter %d: Matches(%q, %+v) disagrees with the filter rules", iter, w.Title, f)
			}
			if predicate(w, f) {
				want++
				if w.Score != nil {
					scored++
				}
			}
		}
		got := Evaluate(works, f)
		if got.Count != want || len(got.Works) != want {
			t.Fatalf("iter %d: count want=%d got=%d", iter, want, got.Count)
		}
		binTotal := 0
		for _, b := range got.ScoreHistogram {
			binTotal += b.Count
		}
		if binTotal != scored {
			t.Fatalf("iter %d: score bins sum want=%d got=%d", iter, scored, binTotal)
		}
		if len(got.CategoryHistogram) > 10 || len(got.TopCreators) > 10 || len(got.TopRated) > 10 {
			t.Fatalf("iter %d: projection too long", iter)
		}
	}
}

// predicate restates the filter rules independently of newMatcher.
func predicate(w domain.Work, f domain.FilterSet) bool {
	if !strings.Contains(strings.ToLower(w.Title), strings.ToLower(f.TitleContains)) {
		return false
	}
	if f.Category != "All" && !strings.Contains(strings.Join(w.CategoryTags, ","), f.Category) {
		return false
	}
	if f.Year != "All" && (w.Year == nil || strconv.FormatInt(*w.Year, 10) != f.Year) {
		return false
	}
	if f.CreatorContains != "" && (w.CreatorName == nil || !strings.Contains(strings.ToLower(*w.CreatorName), strings.ToLower(f.CreatorContains))) {
		return false
	}
	return true
}

func TestBuildFacets(t *testing.T) {
	works := []domain.Work{
		work("1", []string{"Sci-Fi", "Drama"}, 2014, 1, 0, ""),
		work("2", []string{"Action"}, 2016, 1, 0, ""),
		work("3", nil, 0, 1, 0, ""),
		work("4", []string{"Drama"}, 2014, 1, 0, ""),
	}
	got := BuildFacets(works)
	want := domain.Facets{Categories: []string{"Action", "Drama", "Sci-Fi"}, Years: []int64{2016, 2014}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("facets (-want +got):\n%s", diff)
	}
}
