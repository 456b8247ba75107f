// Package pipeline orchestrates the candidate sourcing run: job text
// in, Excel report path out.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-sourcer/internal/db"
	"github.com/jonathan/candidate-sourcer/internal/retry"
	"github.com/jonathan/candidate-sourcer/internal/types"
)

// Config is the free-form per-run configuration map shared with every
// stage. Stages read only the keys they know.
type Config map[string]any

// Known config keys.
const (
	ConfigLimit       = "limit"
	ConfigTemperature = "temperature"
)

// Int reads an integer key, accepting the numeric types JSON decoding
// produces.
func (c Config) Int(key string, def int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Float32Ptr reads an optional float key. Returns nil when absent so
// callers can distinguish "unset" from zero.
func (c Config) Float32Ptr(key string) *float32 {
	switch v := c[key].(type) {
	case float32:
		return &v
	case float64:
		f := float32(v)
		return &f
	case int:
		f := float32(v)
		return &f
	default:
		return nil
	}
}

// Stage adapters. The concrete implementations live in their own
// packages; the orchestrator only needs these narrow views.
type (
	Ingestor interface {
		Ingest(ctx context.Context, jobText string, temperature *float32) (*types.JobRequirements, error)
	}
	Sourcer interface {
		Source(ctx context.Context, req *types.JobRequirements, limit int) ([]types.CandidateProfile, error)
	}
	Scorer interface {
		Score(req *types.JobRequirements, candidates []types.CandidateProfile) []types.ScoredCandidate
	}
	Matcher interface {
		Match(ctx context.Context, req *types.JobRequirements, scored []types.ScoredCandidate, profiles []types.CandidateProfile) ([]types.KeyMatchEntry, error)
	}
	Pitcher interface {
		Pitch(ctx context.Context, req *types.JobRequirements, entries []types.KeyMatchEntry, profiles []types.CandidateProfile) ([]types.PitchMaterials, error)
	}
	ReportWriter interface {
		Write(path string, profiles []types.CandidateProfile, scored []types.ScoredCandidate, matches []types.KeyMatchEntry, pitches []types.PitchMaterials) (*types.PipelineArtifact, error)
	}
)

// Store persists run artifacts. *db.DB satisfies it; a nil Store
// disables persistence.
type Store interface {
	CreateRun(ctx context.Context, jobTitle string) (uuid.UUID, error)
	SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status string) error
}

// Deps wires the stage implementations into a Pipeline.
type Deps struct {
	Ingestor Ingestor
	Sourcer  Sourcer
	Scorer   Scorer
	Matcher  Matcher
	Pitcher  Pitcher
	Writer   ReportWriter
	Store    Store
	Retry    retry.Policy
	Log      *zap.Logger
}

// Pipeline runs the stages strictly in order; each stage's output is
// the next stage's input, and every stage execution goes through the
// retry wrapper.
type Pipeline struct {
	deps Deps
	log  *zap.Logger
}

func New(deps Deps) *Pipeline {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{deps: deps, log: log}
}

// RunOptions describes a single pipeline run.
type RunOptions struct {
	JobText    string
	OutputPath string
	Config     Config
}

// Run executes the full pipeline and returns the report artifact. A
// stage error after retry exhaustion aborts the run; downstream stages
// never start after an upstream failure.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*types.PipelineArtifact, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = Config{}
	}

	req, err := runStage(ctx, p, db.StepIngestion, func(ctx context.Context) (*types.JobRequirements, error) {
		return p.deps.Ingestor.Ingest(ctx, opts.JobText, cfg.Float32Ptr(ConfigTemperature))
	})
	if err != nil {
		return nil, err
	}
	p.log.Info("extracted job requirements",
		zap.String("title", req.Title),
		zap.Int("must_haves", len(req.MustHaves)))

	runID := p.startRun(ctx, req)
	p.save(ctx, runID, db.StepIngestion, req)

	limit := cfg.Int(ConfigLimit, 0)
	profiles, err := runStage(ctx, p, db.StepSourcing, func(ctx context.Context) ([]types.CandidateProfile, error) {
		return p.deps.Sourcer.Source(ctx, req, limit)
	})
	if err != nil {
		return nil, p.fail(ctx, runID, err)
	}
	p.log.Info("sourced candidates", zap.Int("count", len(profiles)))
	p.save(ctx, runID, db.StepSourcing, profiles)

	scored, err := runStage(ctx, p, db.StepScoring, func(_ context.Context) ([]types.ScoredCandidate, error) {
		return p.deps.Scorer.Score(req, profiles), nil
	})
	if err != nil {
		return nil, p.fail(ctx, runID, err)
	}
	p.save(ctx, runID, db.StepScoring, scored)

	matches, err := runStage(ctx, p, db.StepMatching, func(ctx context.Context) ([]types.KeyMatchEntry, error) {
		return p.deps.Matcher.Match(ctx, req, scored, profiles)
	})
	if err != nil {
		return nil, p.fail(ctx, runID, err)
	}
	p.save(ctx, runID, db.StepMatching, matches)

	pitches, err := runStage(ctx, p, db.StepPitching, func(ctx context.Context) ([]types.PitchMaterials, error) {
		return p.deps.Pitcher.Pitch(ctx, req, matches, profiles)
	})
	if err != nil {
		return nil, p.fail(ctx, runID, err)
	}
	p.save(ctx, runID, db.StepPitching, pitches)

	artifact, err := runStage(ctx, p, db.StepReport, func(_ context.Context) (*types.PipelineArtifact, error) {
		return p.deps.Writer.Write(opts.OutputPath, profiles, scored, matches, pitches)
	})
	if err != nil {
		return nil, p.fail(ctx, runID, err)
	}
	p.save(ctx, runID, db.StepReport, artifact)
	p.complete(ctx, runID, db.StatusCompleted)

	p.log.Info("pipeline run complete",
		zap.String("report", artifact.Path),
		zap.Int("candidates", len(pitches)))
	return artifact, nil
}

// runStage executes one stage through the retry wrapper and tags the
// final failure with the stage name.
func runStage[T any](ctx context.Context, p *Pipeline, name string, fn func(context.Context) (T, error)) (T, error) {
	out, err := retry.Do(ctx, p.log, name, p.deps.Retry, fn)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("stage %s failed: %w", name, err)
	}
	return out, nil
}

// startRun opens a persistence record when a store is configured.
// Persistence problems never abort the run.
func (p *Pipeline) startRun(ctx context.Context, req *types.JobRequirements) uuid.UUID {
	if p.deps.Store == nil {
		return uuid.Nil
	}
	runID, err := p.deps.Store.CreateRun(ctx, req.Title)
	if err != nil {
		p.log.Warn("failed to create run record, continuing without persistence", zap.Error(err))
		return uuid.Nil
	}
	return runID
}

func (p *Pipeline) save(ctx context.Context, runID uuid.UUID, step string, content any) {
	if p.deps.Store == nil || runID == uuid.Nil {
		return
	}
	if err := p.deps.Store.SaveArtifact(ctx, runID, step, content); err != nil {
		p.log.Warn("failed to save artifact",
			zap.String("step", step),
			zap.Error(err))
	}
}

func (p *Pipeline) complete(ctx context.Context, runID uuid.UUID, status string) {
	if p.deps.Store == nil || runID == uuid.Nil {
		return
	}
	if err := p.deps.Store.CompleteRun(ctx, runID, status); err != nil {
		p.log.Warn("failed to complete run record", zap.Error(err))
	}
}

func (p *Pipeline) fail(ctx context.Context, runID uuid.UUID, err error) error {
	p.complete(ctx, runID, db.StatusFailed)
	return err
}
