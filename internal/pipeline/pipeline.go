package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/observability"
)

// Extractor reads the raw datasets from the collected data files.
type Extractor interface {
	Extract(ctx context.Context) (domain.RawDataset, error)
}

// Transformer validates and enriches a raw dataset into its clean form.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawDataset) (domain.CleanDataset, error)
}

// Loader writes a clean dataset to the warehouse and exports, returning the
// run metadata.
type Loader interface {
	Load(ctx context.Context, clean domain.CleanDataset) (domain.PipelineMetadata, error)
}

// Pipeline orchestrates the extract-transform-load run.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	runInterval time.Duration

	mu      sync.Mutex
	lastRun *domain.PipelineMetadata
}

// New creates a Pipeline with the given stages and observability. A zero
// runInterval means run once and wait for shutdown.
func New(e Extractor, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics, runInterval time.Duration) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		runInterval: runInterval,
	}
}

// CheckReadiness returns nil once the pipeline has completed at least one run.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if _, ok := p.LastRun(); !ok {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastRun returns the metadata of the most recent completed run.
func (p *Pipeline) LastRun() (domain.PipelineMetadata, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastRun == nil {
		return domain.PipelineMetadata{}, false
	}
	return *p.lastRun, true
}

// Run executes the ETL until the context is cancelled. Failed runs are
// retried with exponential backoff; successful runs repeat on the configured
// interval, or block until shutdown when no interval is set.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "run_interval", p.runInterval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		meta, err := p.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("pipeline run failed", "error", err)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 200 * time.Millisecond

		p.mu.Lock()
		p.lastRun = &meta
		p.mu.Unlock()

		if p.runInterval == 0 {
			p.logger.Info("pipeline run complete, waiting for shutdown", "run_id", meta.RunID)
			<-ctx.Done()
			return nil
		}
		p.logger.Info("pipeline run complete", "run_id", meta.RunID, "next_run_in", p.runInterval)
		if !sleepWithContext(ctx, p.runInterval) {
			return nil
		}
	}
}

// RunOnce executes a single extract-transform-load cycle.
func (p *Pipeline) RunOnce(ctx context.Context) (domain.PipelineMetadata, error) {
	start := time.Now()

	raw, err := p.extractor.Extract(ctx)
	if err != nil {
		return domain.PipelineMetadata{}, err
	}
	p.metrics.RecordsExtracted.Add(float64(len(raw.Resilience) + len(raw.Indicators)))
	p.logger.Info("extracted raw data",
		"resilience_records", len(raw.Resilience),
		"indicator_observations", len(raw.Indicators),
	)

	clean, err := p.transformer.Transform(ctx, raw)
	if err != nil {
		return domain.PipelineMetadata{}, err
	}

	meta, err := p.loader.Load(ctx, clean)
	if err != nil {
		return domain.PipelineMetadata{}, err
	}
	p.metrics.RecordsLoaded.Add(float64(len(clean.Records)))
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	return meta, nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
