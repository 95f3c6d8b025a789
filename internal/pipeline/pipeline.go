package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/gssha-etl/internal/domain"
	"github.com/couchcryptid/gssha-etl/internal/observability"
)

// BatchExtractor reads up to batchSize model files from the drop directory.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.ModelFile, error)
}

// Transformer converts a model file into a converted document.
type Transformer interface {
	Transform(ctx context.Context, file domain.ModelFile) (domain.ConvertedFile, error)
}

// BatchLoader writes multiple converted documents to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, docs []domain.ConvertedFile) error
}

// Pipeline orchestrates the extract-convert-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has processed at least one file,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any files yet")
	}
	return nil
}

// Run executes the batch ETL loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-convert-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.FilesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))
	*backoff = 200 * time.Millisecond

	loaded, ok := p.convertAndLoad(ctx, batch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// convertAndLoad converts each file in the batch, loads the successes, and
// commits the source files. Returns the number of successfully loaded
// documents and false if the pipeline should stop.
func (p *Pipeline) convertAndLoad(ctx context.Context, batch []domain.ModelFile, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	outBatch := make([]domain.ConvertedFile, 0, len(batch))
	converted := make([]domain.ModelFile, 0, len(batch))

	for _, file := range batch {
		doc, err := p.transformer.Transform(ctx, file)
		if err != nil {
			p.logger.Warn("convert failed, skipping file",
				"error", err,
				"path", file.Path,
				"kind", file.Kind,
			)
			p.metrics.ConvertErrors.Inc()
			p.commitFile(ctx, file)
			continue
		}
		outBatch = append(outBatch, doc)
		converted = append(converted, file)
	}

	if len(outBatch) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(outBatch))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.DocumentsProduced.Add(float64(len(outBatch)))

	for _, file := range converted {
		p.commitFile(ctx, file)
	}

	return len(outBatch), true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitFile acknowledges the source file if a commit function is available.
func (p *Pipeline) commitFile(ctx context.Context, file domain.ModelFile) {
	if file.Commit == nil {
		return
	}
	if err := file.Commit(ctx); err != nil {
		p.logger.Warn("commit file failed", "error", err, "path", file.Path)
	}
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
