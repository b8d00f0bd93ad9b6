package query

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yungbote/worksgraph/internal/domain"
)

const (
	histogramLimit = 10
	topLimit       = 10
	unknownTag     = "Unknown"
)

var scoreBinLabels = [5]string{"0-2", "2-4", "4-6", "6-8", "8-10"}

// Evaluate filters works and recomputes every aggregate from the filtered
// subset. It does not modify works and keeps no state between calls.
func Evaluate(works []domain.Work, filters domain.FilterSet) domain.ViewResult {
	match := newMatcher(filters)
	filtered := make([]domain.Work, 0, len(works))
	for _, w := range works {
		if match(w) {
			filtered = append(filtered, w)
		}
	}

	res := domain.ViewResult{
		Works:             filtered,
		Count:             len(filtered),
		CategoryHistogram: categoryHistogram(filtered),
		YearSeries:        yearSeries(filtered),
		ScoreHistogram:    scoreHistogram(filtered),
		TopCreators:       topCreators(filtered),
		TopRated:          topRated(filtered),
	}
	var scoreSum float64
	for _, w := range filtered {
		// Missing scores count as zero and stay in the denominator.
		if w.Score != nil {
			scoreSum += *w.Score
		}
		res.TotalRevenue += w.GrossRevenue
	}
	if len(filtered) > 0 {
		res.AverageScore = scoreSum / float64(len(filtered))
	}
	return res
}

// Matches reports whether a single work passes the filter set.
func Matches(w domain.Work, filters domain.FilterSet) bool {
	return newMatcher(filters)(w)
}

func newMatcher(f domain.FilterSet) func(domain.Work) bool {
	title := strings.ToLower(f.TitleContains)
	creator := strings.ToLower(f.CreatorContains)
	category := f.Category
	anyCategory := isAll(category)

	anyYear := isAll(f.Year)
	year, yearErr := strconv.ParseInt(strings.TrimSpace(f.Year), 10, 64)

	return func(w domain.Work) bool {
		if !strings.Contains(strings.ToLower(w.Title), title) {
			return false
		}
		if !anyCategory && !strings.Contains(strings.Join(w.CategoryTags, ","), category) {
			return false
		}
		if !anyYear && (yearErr != nil || w.Year == nil || *w.Year != year) {
			return false
		}
		if creator != "" && (w.CreatorName == nil || !strings.Contains(strings.ToLower(*w.CreatorName), creator)) {
			return false
		}
		return true
	}
}

func isAll(v string) bool {
	return v == "" || v == domain.FilterAll
}

// counter tallies keys and remembers first-seen order for tie breaks.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter { return &counter{counts: map[string]int{}} }

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

func (c *counter) top(limit int) []string {
	keys := append([]string(nil), c.order...)
	sort.SliceStable(keys, func(i, j int) bool { return c.counts[keys[i]] > c.counts[keys[j]] })
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

func categoryHistogram(works []domain.Work) []domain.TagCount {
	c := newCounter()
	for _, w := range works {
		if len(w.CategoryTags) == 0 {
			c.add(unknownTag)
			continue
		}
		for _, tag := range w.CategoryTags {
			c.add(tag)
		}
	}
	keys := c.top(histogramLimit)
	out := make([]domain.TagCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.TagCount{Tag: k, Count: c.counts[k]})
	}
	return out
}

func yearSeries(works []domain.Work) []domain.YearBucket {
	buckets := map[int64]*domain.YearBucket{}
	for _, w := range works {
		if w.Year == nil {
			continue
		}
		b, ok := buckets[*w.Year]
		if !ok {
			b = &domain.YearBucket{Year: *w.Year}
			buckets[*w.Year] = b
		}
		b.Revenue += w.GrossRevenue
		b.Count++
	}
	out := make([]domain.YearBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func scoreHistogram(works []domain.Work) []domain.ScoreBin {
	out := make([]domain.ScoreBin, len(scoreBinLabels))
	for i, label := range scoreBinLabels {
		out[i].Label = label
	}
	for _, w := range works {
		if w.Score == nil {
			continue
		}
		out[scoreBin(*w.Score)].Count++
	}
	return out
}

// scoreBin maps a score to floor(score/2). A perfect 10 lands in the last
// bin; values outside [0,10] are clamped.
func scoreBin(score float64) int {
	idx := int(math.Floor(score / 2))
	if idx < 0 {
		return 0
	}
	if idx > len(scoreBinLabels)-1 {
		return len(scoreBinLabels) - 1
	}
	return idx
}

func topCreators(works []domain.Work) []domain.CreatorCount {
	c := newCounter()
	for _, w := range works {
		if w.CreatorName == nil || *w.CreatorName == "" {
			continue
		}
		c.add(*w.CreatorName)
	}
	keys := c.top(topLimit)
	out := make([]domain.CreatorCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.CreatorCount{Name: k, Count: c.counts[k]})
	}
	return out
}

func topRated(works []domain.Work) []domain.Work {
	out := append([]domain.Work(nil), works...)
	sort.SliceStable(out, func(i, j int) bool { return scoreOrZero(out[i]) > scoreOrZero(out[j]) })
	if len(out) > topLimit {
		out = out[:topLimit]
	}
	if out == nil {
		out = []domain.Work{}
	}
	return out
}

func scoreOrZero(w domain.Work) float64 {
	if w.Score == nil {
		return 0
	}
	return *w.Score
}

// BuildFacets lists the distinct category tags (ascending) and years
// (descending) present in works.
func BuildFacets(works []domain.Work) domain.Facets {
	tags := map[string]struct{}{}
	years := map[int64]struct{}{}
	for _, w := range works {
		for _, t := range w.CategoryTags {
			tags[t] = struct{}{}
		}
		if w.Year != nil {
			years[*w.Year] = struct{}{}
		}
	}
	out := domain.Facets{
		Categories: make([]string, 0, len(tags)),
		Years:      make([]int64, 0, len(years)),
	}
	for t := range tags {
		out.Categories = append(out.Categories, t)
	}
	for y := range years {
		out.Years = append(out.Years, y)
	}
	sort.Strings(out.Categories)
	sort.Slice(out.Years, func(i, j int) bool { return out.Years[i] > out.Years[j] })
	return out
}
