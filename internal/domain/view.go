package domain

// FilterAll is the match-all value for the Category and Year filters.
const FilterAll = "All"

type FilterSet struct {
	TitleContains   string `json:"title_contains" form:"title"`
	Category        string `json:"category" form:"category"`
	Year            string `json:"year" form:"year"`
	CreatorContains string `json:"creator_contains" form:"creator"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type YearBucket struct {
	Year    int64   `json:"year"`
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
}

type ScoreBin struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type CreatorCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ViewResult is the filtered subset plus every aggregate derived from it.
type ViewResult struct {
	Works             []Work         `json:"works"`
	Count             int            `json:"count"`
	AverageScore      float64        `json:"average_score"`
	TotalRevenue      float64        `json:"total_revenue"`
	CategoryHistogram []TagCount     `json:"category_histogram"`
	YearSeries        []YearBucket   `json:"year_series"`
	ScoreHistogram    []ScoreBin     `json:"score_histogram"`
	TopCreators       []CreatorCount `json:"top_creators"`
	TopRated          []Work         `json:"top_rated"`
}
