package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/yungbote/worksgraph/internal/data/graph"
	"github.com/yungbote/worksgraph/internal/ingest"
	"github.com/yungbote/worksgraph/internal/platform/logger"
	"github.com/yungbote/worksgraph/internal/platform/redisbus"
)

// Importer runs one CSV batch against the graph and announces the result on
// the change bus.
type Importer struct {
	Log    *logger.Logger
	Graph  graph.WorkStore
	Bus    redisbus.Bus
	driver *ingest.Driver
	dryRun bool
}

// NewImporter opens the graph store unless dryRun is set, in which case rows
// are only normalized and nothing is connected.
func NewImporter(ctx context.Context, cfg Config, dryRun bool) (*Importer, error) {
	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	im := &Importer{Log: log, dryRun: dryRun}
	if dryRun {
		im.driver = ingest.NewDriver(nil, log, ingest.Options{DryRun: true})
		return im, nil
	}

	if err := cfg.Validate(); err != nil {
		log.Sync()
		return nil, err
	}
	im.Graph, err = openGraph(ctx, cfg, log)
	if err != nil {
		im.Close()
		return nil, fmt.Errorf("init graph store: %w", err)
	}
	im.Bus, err = openBus(ctx, cfg, log)
	if err != nil {
		im.Close()
		return nil, err
	}
	im.driver = ingest.NewDriver(ingest.NewUpserter(im.Graph, log), log, ingest.Options{})
	return im, nil
}

func (im *Importer) RunFile(ctx context.Context, path string) (ingest.Report, error) {
	rep, err := im.driver.RunFile(ctx, path)
	if err != nil {
		return rep, err
	}
	if im.dryRun || im.Bus == nil || rep.Succeeded == 0 {
		return rep, nil
	}
	ev := redisbus.Event{
		Kind:      redisbus.KindWorksChanged,
		Source:    filepath.Base(path),
		Total:     rep.Total,
		Succeeded: rep.Succeeded,
		Failed:    len(rep.Failed),
	}
	if err := im.Bus.Publish(ctx, ev); err != nil {
		// Servers keep their old snapshot until the next reload.
		im.Log.Warn("publish change event failed", "error", err)
	}
	return rep, nil
}

func (im *Importer) Close() {
	if im == nil {
		return
	}
	ctx := context.Background()
	if im.Bus != nil {
		_ = im.Bus.Close()
	}
	if im.Graph != nil {
		if err := im.Graph.Close(ctx); err != nil {
			im.Log.Warn("close graph store", "error", err)
		}
	}
	im.Log.Sync()
}
