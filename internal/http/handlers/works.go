package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/worksgraph/internal/domain"
	httpMW "github.com/yungbote/worksgraph/internal/http/middleware"
	"github.com/yungbote/worksgraph/internal/http/response"
	"github.com/yungbote/worksgraph/internal/platform/apierr"
	"github.com/yungbote/worksgraph/internal/platform/ctxutil"
	"github.com/yungbote/worksgraph/internal/platform/logger"
	"github.com/yungbote/worksgraph/internal/query"
)

// WorksSource is the read side the handler needs. *query.Store implements it.
type WorksSource interface {
	LoadAll(ctx context.Context) ([]domain.Work, error)
	Reload(ctx context.Context) error
	Snapshot() ([]domain.Work, bool)
	LoadedAt() time.Time
}

var errSnapshotNotReady = domain.NewPersistenceError("snapshot", errors.New("works not loaded yet"))

type WorksHandler struct {
	log   *logger.Logger
	works WorksSource
}

func NewWorksHandler(log *logger.Logger, works WorksSource) *WorksHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &WorksHandler{log: log.With("handler", "Works"), works: works}
}

// List reads every work straight from the graph in default order.
// GET /api/works
func (h *WorksHandler) List(c *gin.Context) {
	works, err := h.works.LoadAll(c.Request.Context())
	if err != nil {
		h.log.Error("list works failed", "error", err, "request_id", ctxutil.RequestID(c.Request.Context()))
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, works)
}

// View filters the snapshot and computes its summary statistics.
// GET /api/works/view?title=&category=All&year=All&creator=
func (h *WorksHandler) View(c *gin.Context) {
	var filters domain.FilterSet
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.RespondAPIError(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, err))
		return
	}
	works, ok := h.works.Snapshot()
	if !ok {
		response.RespondAPIError(c, errSnapshotNotReady)
		return
	}
	view := query.Evaluate(works, filters)
	httpMW.AddLogFields(c,
		"filter_title", filters.TitleContains,
		"filter_category", filters.Category,
		"filter_year", filters.Year,
		"filter_creator", filters.CreatorContains,
		"matched", view.Count,
		"snapshot_size", len(works),
	)
	response.RespondOK(c, view)
}

// GET /api/works/facets
func (h *WorksHandler) Facets(c *gin.Context) {
	works, ok := h.works.Snapshot()
	if !ok {
		response.RespondAPIError(c, errSnapshotNotReady)
		return
	}
	response.RespondOK(c, query.BuildFacets(works))
}

// Reload rebuilds the snapshot from the graph. On failure the previous
// snapshot keeps serving and the error is reported.
// POST /api/works/reload
func (h *WorksHandler) Reload(c *gin.Context) {
	if err := h.works.Reload(c.Request.Context()); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	works, _ := h.works.Snapshot()
	response.RespondOK(c, gin.H{
		"works":     len(works),
		"loaded_at": h.works.LoadedAt(),
	})
}
