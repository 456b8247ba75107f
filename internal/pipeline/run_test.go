package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jonathan/candidate-sourcer/internal/db"
	"github.com/jonathan/candidate-sourcer/internal/export"
	"github.com/jonathan/candidate-sourcer/internal/retry"
	"github.com/jonathan/candidate-sourcer/internal/scoring"
	"github.com/jonathan/candidate-sourcer/internal/types"
)

type fakeIngestor struct {
	req *types.JobRequirements
	err error
}

func (f *fakeIngestor) Ingest(_ context.Context, _ string, _ *float32) (*types.JobRequirements, error) {
	return f.req, f.err
}

type fakeSourcer struct {
	profiles []types.CandidateProfile
}

func (f *fakeSourcer) Source(_ context.Context, _ *types.JobRequirements, _ int) ([]types.CandidateProfile, error) {
	return f.profiles, nil
}

type fakeMatcher struct {
	err error
}

func (f *fakeMatcher) Match(_ context.Context, _ *types.JobRequirements, scored []types.ScoredCandidate, _ []types.CandidateProfile) ([]types.KeyMatchEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	entries := make([]types.KeyMatchEntry, len(scored))
	for i, sc := range scored {
		entries[i] = types.KeyMatchEntry{
			LinkedInURL: sc.LinkedInURL,
			Matches:     []types.KeyMatch{{Requirement: "Python", Evidence: "Python work"}},
		}
	}
	return entries, nil
}

type fakePitcher struct{}

func (f *fakePitcher) Pitch(_ context.Context, _ *types.JobRequirements, entries []types.KeyMatchEntry, _ []types.CandidateProfile) ([]types.PitchMaterials, error) {
	out := make([]types.PitchMaterials, len(entries))
	for i, e := range entries {
		out[i] = types.PitchMaterials{
			LinkedInURL:     e.LinkedInURL,
			ColdCall:        "call",
			DMMessage:       "dm",
			WhatsAppMessage: "wa",
		}
	}
	return out, nil
}

type recordingStore struct {
	runID     uuid.UUID
	jobTitle  string
	artifacts map[string]any
	status    string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{runID: uuid.New(), artifacts: make(map[string]any)}
}

func (s *recordingStore) CreateRun(_ context.Context, jobTitle string) (uuid.UUID, error) {
	s.jobTitle = jobTitle
	return s.runID, nil
}

func (s *recordingStore) SaveArtifact(_ context.Context, _ uuid.UUID, step string, content any) error {
	s.artifacts[step] = content
	return nil
}

func (s *recordingStore) CompleteRun(_ context.Context, _ uuid.UUID, status string) error {
	s.status = status
	return nil
}

func noSleepPolicy(maxAttempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: maxAttempts,
		Multiplier:  time.Nanosecond,
		WaitMax:     time.Nanosecond,
		Sleep:       func(context.Context, time.Duration) error { return nil },
	}
}

func testDeps(t *testing.T, sourcer Sourcer, store Store) (Deps, string) {
	t.Helper()
	return Deps{
		Ingestor: &fakeIngestor{req: &types.JobRequirements{
			Title:     "Senior Python Developer",
			MustHaves: []string{"Python"},
		}},
		Sourcer: sourcer,
		Scorer:  scoring.NewScorer(zap.NewNop()),
		Matcher: &fakeMatcher{},
		Pitcher: &fakePitcher{},
		Writer:  export.NewWriter(zap.NewNop()),
		Store:   store,
		Retry:   noSleepPolicy(2),
		Log:     zap.NewNop(),
	}, filepath.Join(t.TempDir(), "report.xlsx")
}

func TestRunHappyPathProducesOneRow(t *testing.T) {
	sourcer := &fakeSourcer{profiles: []types.CandidateProfile{
		{Name: "Jane Doe", LinkedInURL: "https://www.linkedin.com/in/jane", Headline: "Python dev", Skills: []string{"Python"}},
	}}
	store := newRecordingStore()
	deps, out := testDeps(t, sourcer, store)

	artifact, err := New(deps).Run(context.Background(), RunOptions{
		JobText:    "Senior Python Developer\nRequired: Python",
		OutputPath: out,
	})
	require.NoError(t, err)
	require.NotNil(t, artifact)

	f, err := excelize.OpenFile(artifact.Path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, export.Headers, rows[0])
	assert.Equal(t, "Jane Doe", rows[1][0])
	assert.Equal(t, "https://www.linkedin.com/in/jane", rows[1][1])

	// Every stage artifact was persisted and the run closed out.
	assert.Equal(t, "Senior Python Developer", store.jobTitle)
	for _, step := range db.Steps() {
		_, ok := store.artifacts[step]
		assert.True(t, ok, "missing artifact for step %s", step)
	}
	assert.Equal(t, db.StatusCompleted, store.status)
}

func TestRunNoCandidatesStillWritesReport(t *testing.T) {
	// Sourcing absorbed a search failure and returned zero candidates.
	deps, out := testDeps(t, &fakeSourcer{profiles: []types.CandidateProfile{}}, nil)

	artifact, err := New(deps).Run(context.Background(), RunOptions{
		JobText:    "Senior Python Developer",
		OutputPath: out,
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(artifact.Path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, export.Headers, rows[0])
}

func TestRunStageFailureNamesStage(t *testing.T) {
	boom := errors.New("extraction exploded")
	store := newRecordingStore()
	deps, out := testDeps(t, &fakeSourcer{}, store)
	deps.Ingestor = &fakeIngestor{err: boom}

	_, err := New(deps).Run(context.Background(), RunOptions{
		JobText:    "anything",
		OutputPath: out,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), db.StepIngestion)

	// Failure before ingestion succeeded: no run record was opened.
	assert.Empty(t, store.jobTitle)
}

func TestRunMidPipelineFailureMarksRunFailed(t *testing.T) {
	boom := errors.New("matcher down")
	store := newRecordingStore()
	deps, out := testDeps(t, &fakeSourcer{profiles: []types.CandidateProfile{
		{Name: "Jane Doe", LinkedInURL: "https://www.linkedin.com/in/jane"},
	}}, store)
	deps.Matcher = &fakeMatcher{err: boom}

	_, err := New(deps).Run(context.Background(), RunOptions{
		JobText:    "job",
		OutputPath: out,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), db.StepMatching)
	assert.Equal(t, db.StatusFailed, store.status)

	// Upstream artifacts persisted, downstream ones never produced.
	_, ok := store.artifacts[db.StepSourcing]
	assert.True(t, ok)
	_, ok = store.artifacts[db.StepPitching]
	assert.False(t, ok)
}

func TestConfigGetters(t *testing.T) {
	cfg := Config{
		"limit":       float64(15), // JSON numbers decode as float64
		"temperature": 0.3,
	}
	assert.Equal(t, 15, cfg.Int(ConfigLimit, 20))
	assert.Equal(t, 20, cfg.Int("missing", 20))

	temp := cfg.Float32Ptr(ConfigTemperature)
	require.NotNil(t, temp)
	assert.InDelta(t, 0.3, float64(*temp), 0.001)
	assert.Nil(t, cfg.Float32Ptr("missing"))
}
