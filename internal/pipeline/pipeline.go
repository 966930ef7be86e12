// Package pipeline chains the four analysis stages over one shared record
// set: generate, build features, train, detect anomalies. Each stage runs to
// completion before the next begins; the set is passed by reference and only
// ever gains columns.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/insar-sim/internal/domain"
	"github.com/couchcryptid/insar-sim/internal/model"
	"github.com/couchcryptid/insar-sim/internal/observability"
)

// Generator materializes the synthetic record collection.
type Generator interface {
	Generate(ctx context.Context) (*domain.RecordSet, error)
}

// Augmenter adds derived feature columns to the set in place.
type Augmenter interface {
	Augment(set *domain.RecordSet) error
}

// Trainer fits and evaluates the deformation model on the augmented set.
type Trainer interface {
	Train(set *domain.RecordSet) (*model.Model, model.Evaluation, error)
}

// Detector computes predictions and residuals and flags outliers in place.
type Detector interface {
	Detect(set *domain.RecordSet, m *model.Model) error
}

// Result summarizes one completed pipeline run.
type Result struct {
	Evaluation   model.Evaluation
	AnomalyCount int
	StartedAt    time.Time
	CompletedAt  time.Time
}

// Pipeline orchestrates the generate-augment-train-detect sequence.
type Pipeline struct {
	generator Generator
	augmenter Augmenter
	trainer   Trainer
	detector  Detector
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline from its four stages and observability.
func New(g Generator, a Augmenter, t Trainer, d Detector, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		generator: g,
		augmenter: a,
		trainer:   t,
		detector:  d,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has completed, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes one full pipeline pass and returns the final augmented record
// set. No partial result is returned on failure: the first stage error aborts
// the run.
func (p *Pipeline) Run(ctx context.Context) (*domain.RecordSet, Result, error) {
	result := Result{StartedAt: domain.Now()}

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	set, err := p.runStage(ctx, "generate", func() (*domain.RecordSet, error) {
		return p.generator.Generate(ctx)
	})
	if err != nil {
		return nil, Result{}, fmt.Errorf("generate: %w", err)
	}
	p.metrics.RecordsGenerated.Add(float64(set.Len()))
	p.logger.Info("records generated", "count", set.Len())

	if _, err := p.runStage(ctx, "features", func() (*domain.RecordSet, error) {
		return set, p.augmenter.Augment(set)
	}); err != nil {
		return nil, Result{}, fmt.Errorf("features: %w", err)
	}

	var trained *model.Model
	if _, err := p.runStage(ctx, "train", func() (*domain.RecordSet, error) {
		var trainErr error
		trained, result.Evaluation, trainErr = p.trainer.Train(set)
		return set, trainErr
	}); err != nil {
		return nil, Result{}, fmt.Errorf("train: %w", err)
	}
	p.metrics.ModelMSE.Set(result.Evaluation.MSE)
	for name, importance := range result.Evaluation.Importances {
		p.metrics.FeatureImportance.WithLabelValues(name).Set(importance)
	}
	p.logger.Info("model trained",
		"mse", result.Evaluation.MSE,
		"train_size", result.Evaluation.TrainSize,
		"test_size", result.Evaluation.TestSize,
	)

	if _, err := p.runStage(ctx, "detect", func() (*domain.RecordSet, error) {
		return set, p.detector.Detect(set, trained)
	}); err != nil {
		return nil, Result{}, fmt.Errorf("detect: %w", err)
	}

	for _, rec := range set.Records {
		if rec.IsAnomaly {
			result.AnomalyCount++
		}
	}
	p.metrics.AnomaliesFlagged.Set(float64(result.AnomalyCount))
	p.logger.Info("anomalies flagged", "count", result.AnomalyCount)

	result.CompletedAt = domain.Now()
	p.ready.Store(true)
	return set, result, nil
}

// runStage wraps one stage with cancellation checks, timing, and metrics.
func (p *Pipeline) runStage(ctx context.Context, name string, fn func() (*domain.RecordSet, error)) (*domain.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	set, err := fn()
	if err != nil {
		p.metrics.StageErrors.WithLabelValues(name).Inc()
		return nil, err
	}

	elapsed := time.Since(start)
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	p.logger.Debug("stage completed", "stage", name, "duration", elapsed)
	return set, nil
}
