package domain

// Work is one creative production as materialized from the graph. Optional
// attributes are pointers; nil means the source cell was absent.
type Work struct {
	Title           string   `json:"title"`
	CategoryTags    []string `json:"category_tags"`
	Description     *string  `json:"description,omitempty"`
	Year            *int64   `json:"year,omitempty"`
	DurationMinutes int64    `json:"duration_minutes"`
	Score           *float64 `json:"score,omitempty"`
	VoteCount       *int64   `json:"vote_count,omitempty"`
	GrossRevenue    float64  `json:"gross_revenue"`
	CriticScore     *int64   `json:"critic_score,omitempty"`

	// CreatorName is denormalized from the CREATED relationship.
	CreatorName *string `json:"creator_name,omitempty"`
}

// WorkUpdate is a normalized row, ready to be merged into the graph.
type WorkUpdate struct {
	Title           string
	CategoryTags    []string
	Description     *string
	Year            *int64
	DurationMinutes int64
	Score           *float64
	VoteCount       *int64
	GrossRevenue    float64
	CriticScore     *int64

	CreatorName      *string
	ContributorNames []string
}

// Work returns the scalar projection of the update, without relationships.
func (u *WorkUpdate) Work() Work {
	tags := u.CategoryTags
	if tags == nil {
		tags = []string{}
	}
	return Work{
		Title:           u.Title,
		CategoryTags:    tags,
		Description:     u.Description,
		Year:            u.Year,
		DurationMinutes: u.DurationMinutes,
		Score:           u.Score,
		VoteCount:       u.VoteCount,
		GrossRevenue:    u.GrossRevenue,
		CriticScore:     u.CriticScore,
		CreatorName:     u.CreatorName,
	}
}

// UpsertResult reports what a single merge changed in the graph.
type UpsertResult struct {
	Title                string `json:"title"`
	WorkCreated          bool   `json:"work_created"`
	NodesCreated         int    `json:"nodes_created"`
	RelationshipsCreated int    `json:"relationships_created"`
}

// Facets lists the distinct filter values present in a collection.
type Facets struct {
	Categories []string `json:"categories"`
	Years      []int64  `json:"years"`
}
