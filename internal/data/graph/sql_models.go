package graph

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WorkNode is the relational form of a Work node. Title is the natural key.
type WorkNode struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title string    `gorm:"type:text;not null;uniqueIndex:idx_work_node_title" json:"title"`

	CategoryTags    datatypes.JSON `gorm:"not null" json:"category_tags"`
	Description     *string        `gorm:"type:text" json:"description,omitempty"`
	Year            *int64         `gorm:"index" json:"year,omitempty"`
	DurationMinutes int64          `gorm:"not null;default:0" json:"duration_minutes"`
	Score           *float64       `json:"score,omitempty"`
	VoteCount       *int64         `json:"vote_count,omitempty"`
	GrossRevenue    float64        `gorm:"not null;default:0" json:"gross_revenue"`
	CriticScore     *int64         `json:"critic_score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WorkNode) TableName() string { return "work_node" }

type CreatorNode struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:idx_creator_node_name" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (CreatorNode) TableName() string { return "creator_node" }

type ContributorNode struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:idx_contributor_node_name" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (ContributorNode) TableName() string { return "contributor_node" }

// CreatedEdge is (:Creator)-[:CREATED]->(:Work). Current marks the edge set by
// the most recent update that named a creator.
type CreatedEdge struct {
	CreatorID uuid.UUID `gorm:"type:uuid;primaryKey" json:"creator_id"`
	WorkID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"work_id"`
	Current   bool      `gorm:"column:is_current;not null" json:"current"`
	CreatedAt time.Time `json:"created_at"`
}

func (CreatedEdge) TableName() string { return "created_edge" }

// ContributedEdge is (:Contributor)-[:CONTRIBUTED_TO]->(:Work).
type ContributedEdge struct {
	ContributorID uuid.UUID `gorm:"type:uuid;primaryKey" json:"contributor_id"`
	WorkID        uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"work_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ContributedEdge) TableName() string { return "contributed_edge" }

func sqlModels() []any {
	return []any{
		&WorkNode{},
		&CreatorNode{},
		&ContributorNode{},
		&CreatedEdge{},
		&ContributedEdge{},
	}
}
