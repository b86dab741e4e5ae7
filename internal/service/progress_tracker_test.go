package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"launchpad_backend/internal/config"
	"launchpad_backend/internal/model"
	"launchpad_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProgressStore is an in-memory ProgressStore with failure injection and
// write accounting.
type fakeProgressStore struct {
	mu   sync.Mutex
	docs map[trackKey]*model.UserProgress

	failWrites  bool
	creates     int
	stepWrites  int
	phaseWrites int
	lastStep    struct {
		stepID string
		status model.StepStatus
	}

	pushFns map[trackKey]func(*model.UserProgress)
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{
		docs:    make(map[trackKey]*model.UserProgress),
		pushFns: make(map[trackKey]func(*model.UserProgress)),
	}
}

func (f *fakeProgressStore) GetUserProgress(_ context.Context, userID uint, projectID string) (*model.UserProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.docs[trackKey{userID, projectID}]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (f *fakeProgressStore) CreateUserProgress(_ context.Context, userID uint, projectID string, initialPhase model.Phase) (*model.UserProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	p := model.NewUserProgress(userID, projectID, initialPhase, time.Now())
	f.docs[trackKey{userID, projectID}] = p
	return p.Clone(), nil
}

func (f *fakeProgressStore) UpdateStepProgress(_ context.Context, userID uint, projectID string, phase model.Phase, stepID string, status model.StepStatus, data map[string]interface{}, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stepWrites++
	if f.failWrites {
		return errors.New("storage offline")
	}
	p, ok := f.docs[trackKey{userID, projectID}]
	if !ok {
		return errors.New("no document")
	}
	pp := p.Phases[phase]
	pp.UpsertStep(model.StepProgress{StepID: stepID, Status: status, Data: data, Notes: notes})
	pp.Recompute(time.Now())
	f.lastStep.stepID = stepID
	f.lastStep.status = status
	return nil
}

func (f *fakeProgressStore) UpdateCurrentPhase(_ context.Context, userID uint, projectID string, phase model.Phase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phaseWrites++
	if f.failWrites {
		return errors.New("storage offline")
	}
	p, ok := f.docs[trackKey{userID, projectID}]
	if !ok {
		return errors.New("no document")
	}
	p.CurrentPhase = phase
	return nil
}

func (f *fakeProgressStore) SubscribeToProgress(userID uint, projectID string, fn func(*model.UserProgress)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := trackKey{userID, projectID}
	f.pushFns[key] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.pushFns, key)
	}, nil
}

func (f *fakeProgressStore) push(userID uint, projectID string, p *model.UserProgress) {
	f.mu.Lock()
	fn := f.pushFns[trackKey{userID, projectID}]
	f.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

func (f *fakeProgressStore) writeCounts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stepWrites, f.phaseWrites
}

func newTestTracker(store ProgressStore, trackerCfg config.TrackerConfig) *ProgressTracker {
	return NewProgressTracker(store, NewProgressCalculator(testEngineConfig()), trackerCfg, testEngineConfig())
}

// slowTrackerConfig keeps the debounce far beyond test duration so pending
// writes stay pending unless flushed explicitly.
func slowTrackerConfig() config.TrackerConfig {
	return config.TrackerConfig{DebounceMs: 60_000, MaxRetries: 3, RetryDelayMs: 1, AutoSave: true}
}

func TestInitializeProgress_Idempotent(t *testing.T) {
	store := newFakeProgressStore()
	tracker := newTestTracker(store, slowTrackerConfig())
	ctx := context.Background()

	first, err := tracker.InitializeProgress(ctx, 1, "p1")
	require.NoError(t, err)
	second, err := tracker.InitializeProgress(ctx, 1, "p1")
	require.NoError(t, err)

	assert.Equal(t, 1, store.creates)
	assert.Equal(t, first.ProjectID, second.ProjectID)
	assert.Len(t, second.Phases, len(model.Phases))

	// returned snapshots are clones, not the cached entry
	first.CurrentPhase = model.PhaseOptimization
	cached, err := tracker.GetProgress(ctx, 1, "p1")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseValidation, cached.CurrentPhase)
}

func TestUpdateStepProgress_OptimisticSnapshot(t *testing.T) {
	store := newFakeProgressStore()
	tracker := newTestTracker(store, slowTrackerConfig())
	ctx := context.Background()

	snapshot, err := tracker.UpdateStepProgress(ctx, 1, "p1", model.PhaseValidation,
		"market-research", model.StepCompleted, nil, "talked to 10 users", UpdateOptions{})
	require.NoError(t, err)

	// snapshot reflects the mutation before any persistence happened
	steps, _ := store.writeCounts()
	assert.Equal(t, 0, steps)
	pp := snapshot.Phases[model.PhaseValidation]
	require.Len(t, pp.Steps, 1)
	assert.Equal(t, model.StepCompleted, pp.Steps[0].Status)
	assert.Equal(t, 100, pp.CompletionPercentage)
	require.NotNil(t, pp.Steps[0].CompletedAt)
	require.NotNil(t, pp.StartedAt)
}

func TestUpdateStepProgress_AutoInitializesMissingDocument(t *testing.T) {
	store := newFakeProgressStore()
	tracker := newTestTracker(store, slowTrackerConfig())

	_, err := tracker.UpdateStepProgress(context.Background(), 9, "new", model.PhaseValidation,
		"a", model.StepInProgress, nil, "", UpdateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.creates)
}

func TestUpdateStepProgress_UnknownPhase(t *testing.T) {
	tracker := newTestTracker(newFakeProgressStore(), slowTrackerConfig())

	_, err := tracker.UpdateStepProgress(context.Background(), 1, "p1", model.Phase("bogus"),
		"a", model.StepCompleted, nil, "", UpdateOptions{})
	require.Error(t, err)

	var trackErr *util.ProgressTrackingError
	require.ErrorAs(t, err, &trackErr)
	assert.ErrorIs(t, err, util.ErrUnknownPhase)
	assert.Equal(t, uint(1), trackErr.UserID)
}

func TestUpdateStepProgress_ValidateDataRequiresData(t *testing.T) {
	tracker := newTestTracker(newFakeProgressStore(), slowTrackerConfig())

	_, err := tracker.UpdateStepProgress(context.Background(), 1, "p1", model.PhaseValidation,
		"a", model.StepCompleted, nil, "", UpdateOptions{ValidateData: true})
	assert.ErrorIs(t, err, util.ErrNilStepData)
}

func TestUpdateStepProgress_DebounceCoalescesWrites(t *testing.T) {
	store := newFakeProgressStore()
	cfg := config.TrackerConfig{DebounceMs: 20, MaxRetries: 3, RetryDelayMs: 1, AutoSave: true}
	tracker := newTestTracker(store, cfg)
	ctx := context.Background()

	for _, status := range []model.StepStatus{model.StepInProgress, model.StepInProgress, model.StepCompleted} {
		_, err := tracker.UpdateStepProgress(ctx, 1, "p1", model.PhaseValidation,
			"market-research", status, nil, "", UpdateOptions{})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		steps, _ := store.writeCounts()
		return steps == 1
	}, 2*time.Second, 5*time.Millisecond, "rapid updates should collapse to one write")

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, model.StepCompleted, store.lastStep.status, "only the newest patch persists")
}

func TestUpdateStepProgress_SameStatusTwiceIsIdempotent(t *testing.T) {
	store := newFakeProgressStore()
	tracker := newTestTracker(store, slowTrackerConfig())
	ctx := context.Background()

	first, err := tracker.UpdateStepProgress(ctx, 1, "p1", model.PhaseValidation,
		"a", model.StepCompleted, nil, "", UpdateOptions{})
	require.NoError(t, err)
	second, err := tracker.UpdateStepProgress(ctx, 1, "p1", model.PhaseValidation,
		"a", model.StepCompleted, nil, "", UpdateOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.Phases[model.PhaseValidation].CompletionPercentage,
		second.Phases[model.PhaseValidation].CompletionPercentage)
	assert.Len(t, second.Phases[model.PhaseValidation].Steps, 1)
}

func TestUpdateStepProgress_LastWriterWinsInCache(t *testing.T) {
	store := newFakeProgressStore()
	tracker := newTestTracker(store, slowTrackerConfig())
	ctx := context.Background()

	_, err := tracker.UpdateStepProgress(ctx, 1, "p1", model.PhaseValidation,
		"a", model.StepCompleted, nil, "", UpdateOptions{})
	require.NoError(t, err)
	snapshot, err := tracker.UpdateStepProgress(ctx, 1, "p1", model.PhaseValidation,
		"a", model.StepSkipped, nil, "not relevant", UpdateOptions{})
	require.NoError(t, err)

	pp := snapshot.Phases[model.PhaseValidation]
	require.Len(t, pp.Steps, 1)
	assert.Equal(t, model.StepSkipped, pp.Steps[0].Status)
	assert.Equal(t, "not relevant", pp.Steps[0].Notes)
}

func TestUpdateStepProgress_SyncSaveSurfacesRetryExhaustion(t *testing.T) {
	store := newFakeProgressStore()
	store.docs[trackKey{1, "p1"}] = model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now())
	store.failWrites = true

	cfg := config.TrackerConfig{DebounceMs: 20, MaxRetries: 3, RetryDelayMs: 1, AutoSave: false}
	tracker := newTestTracker(store, cfg)

	_, err := tracker.UpdateStepProgress(context.Background(), 1, "p1", model.PhaseValidation,
		"a", model.StepCompleted, nil, "", UpdateOptions{})
	require.Error(t, err)

	var trackErr *util.ProgressTrackingError
	require.ErrorAs(t, err, &trackErr)
	assert.Equal(t, "persist", trackErr.Operation)

	steps, _ := store.writeCounts()
	assert.Equal(t, 3, steps, "every configured attempt is used")
}

func TestUpdateStepProgress_AutoSaveSwallowsPersistenceFailure(t *testing.T) {
	store := newFakeProgressStore()
	store.docs[trackKey{1, "p1"}] = model.NewUserProgress(1, "p1", model.PhaseValidation, time.Now())
	store.failWrites = true

	cfg := config.TrackerConfig{DebounceMs: 10, MaxRetries: 2, RetryDelayMs: 1, AutoSave: true}
	tracker := newTestTracker(store, cfg)

	_, err := tracker.UpdateStepProgress(context.Background(), 1, "p1", model.PhaseValidation,
		"a", model.StepCompleted, nil, "", UpdateOptions{})
	require.NoError(t, err, "auto-save failures never surface to the caller")

	require.Eventually(t, func() bool {
		steps, _ := store.writeCounts()
		return steps == 2
	}, 2*time.Second, 5*time.Millisecond)

	// the optimistic view survives the failed flush
	got, err := tracker.GetProgress(context.Background(), 1, "p1")
	require.NoError(t, err)
	assert.Equal(t, model.StepCompleted, got.Phases[model.PhaseValidation].Steps[0].Status)
}

func TestUpdateCurrentPhase(t *testing.T) {
	store := newFakeProgressStore()
	tracker := newTestTracker(store, slowTrackerConfig())
	ctx := context.Background()

	t.Run("missing document", func(t *testing.T) {
		_, err := tracker.UpdateCurrentPhase(ctx, 1, "absent", model.PhaseDefinition)
		assert.ErrorIs(t, err, util.ErrProgressNotFound)
	})

	t.Run("updates cache immediately", func(t *testing.T) {
		_, err := tracker.InitializeProgress(ctx, 1, "p1")
		require.NoError(t, err)

		snapshot, err := tracker.UpdateCurrentPhase(ctx, 1, "p1", model.PhaseTechnical)
		require.NoError(t, err)
		assert.Equal(t, model.PhaseTechnical, snapshot.CurrentPhase)
	})
}

func TestGetProgress_ReturnsIsolatedCopies(t *testing.T) {
	store := newFakeProgressStore()
	tracker := newTestTracker(store, slowTrackerConfig())
	ctx := context.Background()

	_, err := tracker.InitializeProgress(ctx, 1, "p1")
	require.NoError(t, err)

	a, err := tracker.GetProgress(ctx, 1, "p1")
	require.NoError(t, err)
	a.Phases[model.PhaseValidation].CompletionPercentage = 55

	b, err := tracker.GetProgress(ctx, 1, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, b.Phases[model.PhaseValidation].CompletionPercentage,
		"mutating a returned snapshot must not leak into the cache")
}

func TestGetProgress_MissingDocument(t *testing.T) {
	tracker := newTestTracker(newFakeProgressStore(), slowTrackerConfig())
	got, err := tracker.GetProgress(context.Background(), 2, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSubscribe_PushReplacesCache(t *testing.T) {
	store := newFakeProgressStore()
	tracker := newTestTracker(store, slowTrackerConfig())
	ctx := context.Background()

	_, err := tracker.InitializeProgress(ctx, 1, "p1")
	require.NoError(t, err)

	received := make(chan *model.UserProgress, 1)
	unsubscribe, err := tracker.Subscribe(1, "p1", func(p *model.UserProgress) {
		received <- p
	})
	require.NoError(t, err)
	defer unsubscribe()

	pushed := model.NewUserProgress(1, "p1", model.PhaseMarketing, time.Now())
	pushed.Phases[model.PhaseMarketing].UpsertStep(model.StepProgress{StepID: "launch-post", Status: model.StepCompleted})
	store.push(1, "p1", pushed)

	select {
	case got := <-received:
		assert.Equal(t, model.PhaseMarketing, got.CurrentPhase)
	case <-time.After(time.Second):
		t.Fatal("push was not forwarded to the subscriber")
	}

	// the push won unconditionally, even against the optimistic copy
	cached, err := tracker.GetProgress(ctx, 1, "p1")
	require.NoError(t, err)
	assert.Equal(t, model.PhaseMarketing, cached.CurrentPhase)
	assert.Len(t, cached.Phases[model.PhaseMarketing].Steps, 1)
}

func TestRefreshProgress_DropsOptimisticStateAndPendingWrites(t *testing.T) {
	store := newFakeProgressStore()
	tracker := newTestTracker(store, slowTrackerConfig())
	ctx := context.Background()

	_, err := tracker.InitializeProgress(ctx, 1, "p1")
	require.NoError(t, err)
	_, err = tracker.UpdateStepProgress(ctx, 1, "p1", model.PhaseValidation,
		"a", model.StepCompleted, nil, "", UpdateOptions{})
	require.NoError(t, err)

	got, err := tracker.RefreshProgress(ctx, 1, "p1")
	require.NoError(t, err)
	assert.Empty(t, got.Phases[model.PhaseValidation].Steps, "refresh reads the store, not the cache")

	// the pending debounced write was cancelled
	time.Sleep(50 * time.Millisecond)
	steps, _ := store.writeCounts()
	assert.Equal(t, 0, steps)
}

func TestGetProgressSummary(t *testing.T) {
	store := newFakeProgressStore()
	tracker := newTestTracker(store, slowTrackerConfig())
	ctx := context.Background()

	_, err := tracker.GetProgressSummary(ctx, 1, "absent")
	assert.ErrorIs(t, err, util.ErrProgressNotFound)

	_, err = tracker.InitializeProgress(ctx, 1, "p1")
	require.NoError(t, err)
	_, err = tracker.UpdateStepProgress(ctx, 1, "p1", model.PhaseValidation,
		"interviews", model.StepInProgress, nil, "", UpdateOptions{})
	require.NoError(t, err)
	_, err = tracker.UpdateCurrentPhase(ctx, 1, "p1", model.PhaseTechnical)
	require.NoError(t, err)

	summary, err := tracker.GetProgressSummary(ctx, 1, "p1")
	require.NoError(t, err)
	assert.Contains(t, summary.Recommendations, "Complete step: interviews")
	assert.Contains(t, summary.Recommendations, "Focus on completing technical phase first")
	require.NotEmpty(t, summary.Risks)
	assert.Contains(t, summary.Risks[0], "validation")
}

func TestClose_FlushesPendingWrites(t *testing.T) {
	store := newFakeProgressStore()
	tracker := newTestTracker(store, slowTrackerConfig())
	ctx := context.Background()

	_, err := tracker.UpdateStepProgress(ctx, 1, "p1", model.PhaseValidation,
		"a", model.StepCompleted, nil, "", UpdateOptions{})
	require.NoError(t, err)

	tracker.Close()
	steps, _ := store.writeCounts()
	assert.Equal(t, 1, steps, "shutdown drains the pending queue")
}
