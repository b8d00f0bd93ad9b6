package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/worksgraph/internal/domain"
	"github.com/yungbote/worksgraph/internal/platform/logger"
	"github.com/yungbote/worksgraph/internal/platform/sqldb"
)

// SQLWorkStore keeps the works graph in relational node and edge tables. The
// unique indexes on the natural keys carry the same invariants as the Neo4j
// constraints.
type SQLWorkStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSQLWorkStore(db *gorm.DB, log *logger.Logger) *SQLWorkStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &SQLWorkStore{db: db, log: log.With("store", "SQLWorks")}
}

func (s *SQLWorkStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sql work store: db not initialized")
	}
	if err := s.db.WithContext(ctx).AutoMigrate(sqlModels()...); err != nil {
		return fmt.Errorf("sql work store: automigrate: %w", err)
	}
	return nil
}

func (s *SQLWorkStore) ApplyWork(ctx context.Context, u *domain.WorkUpdate) (domain.UpsertResult, error) {
	out := domain.UpsertResult{}
	if s == nil || s.db == nil {
		return out, fmt.Errorf("sql work store: db not initialized")
	}
	if u == nil || u.Title == "" {
		return out, fmt.Errorf("sql apply work: missing title")
	}
	out.Title = u.Title

	tags := u.CategoryTags
	if tags == nil {
		tags = []string{}
	}
	rawTags, err := json.Marshal(tags)
	if err != nil {
		return out, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w WorkNode
		err := tx.Where("title = ?", u.Title).Take(&w).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			w = WorkNode{ID: uuid.New(), Title: u.Title}
			out.WorkCreated = true
		case err != nil:
			return err
		}

		w.CategoryTags = datatypes.JSON(rawTags)
		w.Description = u.Description
		w.Year = u.Year
		w.DurationMinutes = u.DurationMinutes
		w.Score = u.Score
		w.VoteCount = u.VoteCount
		w.GrossRevenue = u.GrossRevenue
		w.CriticScore = u.CriticScore

		if out.WorkCreated {
			if err := tx.Create(&w).Error; err != nil {
				return err
			}
			out.NodesCreated++
		} else if err := tx.Save(&w).Error; err != nil {
			return err
		}

		if u.CreatorName != nil && *u.CreatorName != "" {
			creatorID, created, err := mergeByName(tx, *u.CreatorName,
				&CreatorNode{ID: uuid.New(), Name: *u.CreatorName},
				func(n *CreatorNode) uuid.UUID { return n.ID })
			if err != nil {
				return err
			}
			if created {
				out.NodesCreated++
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&CreatedEdge{CreatorID: creatorID, WorkID: w.ID, Current: true})
			if res.Error != nil {
				return res.Error
			}
			out.RelationshipsCreated += int(res.RowsAffected)
			if err := tx.Model(&CreatedEdge{}).
				Where("work_id = ?", w.ID).
				Update("is_current", gorm.Expr("(creator_id = ?)", creatorID)).Error; err != nil {
				return err
			}
		}

		for _, name := range dedupeNames(u.ContributorNames) {
			contributorID, created, err := mergeByName(tx, name,
				&ContributorNode{ID: uuid.New(), Name: name},
				func(n *ContributorNode) uuid.UUID { return n.ID })
			if err != nil {
				return err
			}
			if created {
				out.NodesCreated++
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&ContributedEdge{ContributorID: contributorID, WorkID: w.ID})
			if res.Error != nil {
				return res.Error
			}
			out.RelationshipsCreated += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return domain.UpsertResult{Title: u.Title}, err
	}
	return out, nil
}

// mergeByName inserts fresh unless a row with the same name exists, and
// returns the id of whichever row holds the name.
func mergeByName[T any](tx *gorm.DB, name string, fresh *T, idOf func(*T) uuid.UUID) (uuid.UUID, bool, error) {
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(fresh)
	if res.Error != nil {
		return uuid.Nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return idOf(fresh), true, nil
	}
	var existing T
	if err := tx.Where("name = ?", name).Take(&existing).Error; err != nil {
		return uuid.Nil, false, err
	}
	return idOf(&existing), false, nil
}

type creatorRow struct {
	WorkID    uuid.UUID
	Name      string
	IsCurrent bool
}

func (s *SQLWorkStore) LoadWorks(ctx context.Context) ([]domain.Work, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sql work store: db not initialized")
	}
	db := s.db.WithContext(ctx)

	var nodes []WorkNode
	if err := db.Order("title").Find(&nodes).Error; err != nil {
		return nil, err
	}
	var rows []creatorRow
	if err := db.Table("created_edge AS e").
		Select("e.work_id AS work_id, c.name AS name, e.is_current AS is_current").
		Joins("JOIN creator_node AS c ON c.id = e.creator_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	links := make(map[uuid.UUID][]creatorLink, len(rows))
	for _, r := range rows {
		links[r.WorkID] = append(links[r.WorkID], creatorLink{Name: r.Name, Current: r.IsCurrent})
	}

	works := make([]domain.Work, 0, len(nodes))
	for _, n := range nodes {
		tags := []string{}
		if len(n.CategoryTags) > 0 {
			if err := json.Unmarshal(n.CategoryTags, &tags); err != nil {
				s.log.Warn("bad category_tags (treating as empty)", "title", n.Title, "error", err)
				tags = []string{}
			}
		}
		works = append(works, domain.Work{
			Title:           n.Title,
			CategoryTags:    tags,
			Description:     n.Description,
			Year:            n.Year,
			DurationMinutes: n.DurationMinutes,
			Score:           n.Score,
			VoteCount:       n.VoteCount,
			GrossRevenue:    n.GrossRevenue,
			CriticScore:     n.CriticScore,
			CreatorName:     pickCreator(links[n.ID]),
		})
	}
	return works, nil
}

func (s *SQLWorkStore) Counts(ctx context.Context) (map[string]int64, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sql work store: db not initialized")
	}
	models := map[string]any{
		LabelWork:        &WorkNode{},
		LabelCreator:     &CreatorNode{},
		LabelContributor: &ContributorNode{},
		RelCreated:       &CreatedEdge{},
		RelContributedTo: &ContributedEdge{},
	}
	counts := make(map[string]int64, len(models))
	for key, model := range models {
		var n int64
		if err := s.db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, nil
}

func (s *SQLWorkStore) Close(context.Context) error {
	if s == nil {
		return nil
	}
	return sqldb.Close(s.db)
}
