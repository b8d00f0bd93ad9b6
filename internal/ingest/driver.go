package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/worksgraph/internal/domain"
	"github.com/yungbote/worksgraph/internal/platform/logger"
)

// Applier is the write side the driver feeds. *Upserter implements it.
type Applier interface {
	Apply(ctx context.Context, u *domain.WorkUpdate) (domain.UpsertResult, error)
}

type Failure struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

type Report struct {
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    []Failure `json:"failed"`

	NodesCreated         int `json:"nodes_created"`
	RelationshipsCreated int `json:"relationships_created"`
}

type Options struct {
	// DryRun normalizes every row without writing.
	DryRun bool
}

// Driver runs rows through Normalize and the Applier in input order. A row
// that fails either step is recorded and skipped; nothing is retried.
type Driver struct {
	applier Applier
	log     *logger.Logger
	opts    Options
}

func NewDriver(applier Applier, log *logger.Logger, opts Options) *Driver {
	if log == nil {
		log = logger.NewNop()
	}
	return &Driver{applier: applier, log: log.With("service", "IngestDriver"), opts: opts}
}

// Run processes every row and returns the report. The error is non-nil only
// when the whole pipeline cannot proceed: the context was cancelled, or no
// applier is configured outside dry-run mode. The partial report is still
// returned in that case.
func (d *Driver) Run(ctx context.Context, rows []Row) (Report, error) {
	rep := Report{Failed: []Failure{}}
	if ctx == nil {
		ctx = context.Background()
	}
	if !d.opts.DryRun && d.applier == nil {
		return rep, fmt.Errorf("ingest: no applier configured")
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("ingest: stopped after %d of %d rows: %w", rep.Total, len(rows), err)
		}
		rep.Total++
		id := row.Identifier()
		if id == "" {
			id = fmt.Sprintf("row %d", i+1)
		}

		upd, err := Normalize(row)
		if err != nil {
			d.fail(&rep, id, err)
			continue
		}
		if d.opts.DryRun {
			rep.Succeeded++
			continue
		}

		res, err := d.applier.Apply(ctx, upd)
		if err != nil {
			d.fail(&rep, id, err)
			continue
		}
		rep.Succeeded++
		rep.NodesCreated += res.NodesCreated
		rep.RelationshipsCreated += res.RelationshipsCreated
		d.log.Debug("imported", "title", upd.Title)
	}

	d.log.Info("ingestion finished",
		"total", rep.Total,
		"succeeded", rep.Succeeded,
		"failed", len(rep.Failed),
		"dry_run", d.opts.DryRun,
	)
	return rep, nil
}

// RunFile reads a CSV file and runs it. Failing to open the file or read its
// header is fatal for the batch; unparsable records are reported as failed
// rows ahead of the rest.
func (d *Driver) RunFile(ctx context.Context, path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{Failed: []Failure{}}, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer f.Close()

	rows, skipped, err := ReadCSV(f)
	if err != nil {
		return Report{Failed: []Failure{}}, fmt.Errorf("ingest: read %s: %w", path, err)
	}
	d.log.Info("loaded rows from csv", "path", path, "rows", len(rows), "unparsable", len(skipped))
	for _, s := range skipped {
		d.log.Warn("row failed", "row", s.Identifier, "error", s.Reason)
	}

	rep, err := d.Run(ctx, rows)
	rep.Total += len(skipped)
	rep.Failed = append(skipped, rep.Failed...)
	return rep, err
}

func (d *Driver) fail(rep *Report, id string, err error) {
	rep.Failed = append(rep.Failed, Failure{Identifier: id, Reason: err.Error()})
	d.log.Warn("row failed", "row", id, "error", err)
}
