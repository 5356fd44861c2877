package main

import (
	"log/slog"

	"github.com/amishk599/internfeed/internal/config"
	"github.com/amishk599/internfeed/internal/model"
	"github.com/amishk599/internfeed/internal/pipeline"
	"github.com/amishk599/internfeed/internal/store"
)

type pipelineDeps struct {
	store    store.Store
	pipeline *pipeline.Pipeline
}

// newPipelineDeps opens the locked store and wires a pipeline over it. The
// sink is built first so missing credentials fail before any fetching.
func newPipelineDeps(cfg *config.Config, withSink bool, logger *slog.Logger) (*pipelineDeps, func(), error) {
	httpClient := newHTTPClient()

	var sink model.Sink
	if withSink {
		var err error
		if sink, err = setupSink(cfg, httpClient, logger); err != nil {
			return nil, nil, err
		}
	}

	st, cleanup, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	p, err := buildPipeline(cfg, st, sink, httpClient, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	logger.Info("pipeline ready",
		"store", cfg.Store.Type,
		"path", cfg.Store.Path,
		"delivery", cfg.Delivery.Type,
		"max_per_run", cfg.Pipeline.MaxPerRun,
		"window_days", cfg.Pipeline.WindowDays,
		"on_unknown_date", cfg.Pipeline.OnUnknownDate,
	)
	return &pipelineDeps{store: st, pipeline: p}, cleanup, nil
}
