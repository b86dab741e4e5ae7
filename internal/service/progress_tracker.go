package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"launchpad_backend/internal/config"
	"launchpad_backend/internal/model"
	"launchpad_backend/internal/util"
	"launchpad_backend/pkg/logger"
	"launchpad_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// ProgressStore 进度文档持久化协作方接口
// Implemented by repository.ProgressRepository; tests swap in a stub.
type ProgressStore interface {
	// GetUserProgress returns (nil, nil) when no document exists for the key.
	GetUserProgress(ctx context.Context, userID uint, projectID string) (*model.UserProgress, error)
	CreateUserProgress(ctx context.Context, userID uint, projectID string, initialPhase model.Phase) (*model.UserProgress, error)
	UpdateStepProgress(ctx context.Context, userID uint, projectID string, phase model.Phase, stepID string, status model.StepStatus, data map[string]interface{}, notes string) error
	UpdateCurrentPhase(ctx context.Context, userID uint, projectID string, phase model.Phase) error
	SubscribeToProgress(userID uint, projectID string, fn func(*model.UserProgress)) (func(), error)
}

// UpdateOptions 单次更新的行为开关
type UpdateOptions struct {
	ValidateData bool
	// AutoSave overrides the tracker default when non-nil.
	AutoSave *bool
}

// writePatch is the unit the flush queue coalesces: at most one pending
// patch per (user, project) key, the newest replacing any older one.
type writePatch struct {
	phaseOnly bool
	phase     model.Phase
	stepID    string
	status    model.StepStatus
	data      map[string]interface{}
	notes     string
}

type pendingFlush struct {
	timer *time.Timer
	patch writePatch
}

// ProgressTracker owns the optimistic in-memory view of user progress and
// keeps it consistent with the store under debounced, retried writes and
// real-time pushes. Mutations apply to the cache synchronously and return
// the new snapshot immediately; persistence happens behind a per-key
// coalescing queue.
type ProgressTracker struct {
	store ProgressStore
	calc  *ProgressCalculator
	cfg   config.TrackerConfig

	lowCompletion int

	mu      sync.Mutex
	cache   map[trackKey]*model.UserProgress
	pending map[trackKey]*pendingFlush
	flushWG sync.WaitGroup
	closed  bool
}

// trackKey identifies one optimistic cache entry.
type trackKey struct {
	userID    uint
	projectID string
}

func NewProgressTracker(store ProgressStore, calc *ProgressCalculator, trackerCfg config.TrackerConfig, engineCfg config.EngineConfig) *ProgressTracker {
	return &ProgressTracker{
		store:         store,
		calc:          calc,
		cfg:           trackerCfg,
		lowCompletion: engineCfg.LowCompletion,
		cache:         make(map[trackKey]*model.UserProgress),
		pending:       make(map[trackKey]*pendingFlush),
	}
}

func progressKey(userID uint, projectID string) trackKey {
	return trackKey{userID: userID, projectID: projectID}
}

// InitializeProgress fetches existing progress or creates an empty document
// starting at the validation phase. Idempotent.
func (t *ProgressTracker) InitializeProgress(ctx context.Context, userID uint, projectID string) (*model.UserProgress, error) {
	progress, err := t.store.GetUserProgress(ctx, userID, projectID)
	if err != nil {
		return nil, util.NewProgressTrackingError("initialize", userID, projectID, err)
	}
	if progress == nil {
		progress, err = t.store.CreateUserProgress(ctx, userID, projectID, model.PhaseValidation)
		if err != nil {
			return nil, util.NewProgressTrackingError("initialize", userID, projectID, err)
		}
	}
	progress.Normalize()

	t.mu.Lock()
	t.cache[progressKey(userID, projectID)] = progress
	t.mu.Unlock()

	return progress.Clone(), nil
}

// GetProgress serves the optimistic cached copy when present, otherwise
// queries the store and seeds the cache. Returns (nil, nil) when no
// progress exists for the key.
func (t *ProgressTracker) GetProgress(ctx context.Context, userID uint, projectID string) (*model.UserProgress, error) {
	key := progressKey(userID, projectID)

	t.mu.Lock()
	if cached, ok := t.cache[key]; ok {
		snapshot := cached.Clone()
		t.mu.Unlock()
		return snapshot, nil
	}
	t.mu.Unlock()

	progress, err := t.store.GetUserProgress(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, nil
	}
	progress.Normalize()

	t.mu.Lock()
	// 并发装载时已有条目优先，缓存里的可能更新
	if cached, ok := t.cache[key]; ok {
		progress = cached
	} else {
		t.cache[key] = progress
	}
	snapshot := progress.Clone()
	t.mu.Unlock()

	return snapshot, nil
}

// UpdateStepProgress upserts the step in the cached phase, recomputes the
// phase completion, bumps UpdatedAt and returns the mutated snapshot without
// waiting for persistence. The write itself is coalesced per key: rapid
// successive updates cancel the previous debounce timer and only the newest
// patch is eventually flushed.
func (t *ProgressTracker) UpdateStepProgress(ctx context.Context, userID uint, projectID string, phase model.Phase, stepID string, status model.StepStatus, data map[string]interface{}, notes string, opts UpdateOptions) (*model.UserProgress, error) {
	if !phase.Valid() {
		return nil, util.NewProgressTrackingError("updateStep", userID, projectID,
			fmt.Errorf("%w: %q", util.ErrUnknownPhase, phase))
	}
	if opts.ValidateData && data == nil {
		return nil, util.NewProgressTrackingError("updateStep", userID, projectID, util.ErrNilStepData)
	}

	progress, err := t.loadOrCreate(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	key := progressKey(userID, projectID)
	now := time.Now()

	t.mu.Lock()
	cached, ok := t.cache[key]
	if !ok {
		cached = progress
		t.cache[key] = cached
	}

	pp := cached.Phases[phase]
	step := model.StepProgress{StepID: stepID, Status: status, Data: data, Notes: notes}
	if status.Terminal() {
		ts := now
		step.CompletedAt = &ts
	}
	if pp.StartedAt == nil && status != model.StepNotStarted {
		ts := now
		pp.StartedAt = &ts
	}
	pp.UpsertStep(step)
	pp.Recompute(now)
	cached.UpdatedAt = now
	snapshot := cached.Clone()
	t.mu.Unlock()

	patch := writePatch{phase: phase, stepID: stepID, status: status, data: data, notes: notes}
	if err := t.scheduleFlush(userID, projectID, patch, opts); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// UpdateCurrentPhase mutates the current phase optimistically and persists.
func (t *ProgressTracker) UpdateCurrentPhase(ctx context.Context, userID uint, projectID string, phase model.Phase) (*model.UserProgress, error) {
	if !phase.Valid() {
		return nil, util.NewProgressTrackingError("updatePhase", userID, projectID,
			fmt.Errorf("%w: %q", util.ErrUnknownPhase, phase))
	}

	progress, err := t.GetProgress(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, util.ErrProgressNotFound
	}

	key := progressKey(userID, projectID)
	t.mu.Lock()
	cached := t.cache[key]
	cached.CurrentPhase = phase
	cached.UpdatedAt = time.Now()
	snapshot := cached.Clone()
	t.mu.Unlock()

	patch := writePatch{phaseOnly: true, phase: phase}
	if err := t.scheduleFlush(userID, projectID, patch, UpdateOptions{}); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Calculate delegates to the pure calculator.
func (t *ProgressTracker) Calculate(p *model.UserProgress) *model.ProgressCalculation {
	return t.calc.Calculate(p)
}

// GetProgressSummary produces the heuristic text view of a user's state.
func (t *ProgressTracker) GetProgressSummary(ctx context.Context, userID uint, projectID string) (*model.ProgressSummary, error) {
	progress, err := t.GetProgress(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, util.ErrProgressNotFound
	}

	calc := t.calc.Calculate(progress)
	summary := &model.ProgressSummary{
		Progress:        progress,
		Calculation:     calc,
		Recommendations: []string{},
		Risks:           []string{},
	}

	if calc.NextStep != nil {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("Complete step: %s", calc.NextStep.StepID))
	}
	if pct := calc.PhaseCompletion[progress.CurrentPhase]; pct < t.lowCompletion {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("Focus on completing %s phase first", progress.CurrentPhase))
	}
	if calc.PhaseCompletion[model.PhaseValidation] < t.lowCompletion &&
		progress.CurrentPhase.Index() > model.PhaseValidation.Index() {
		summary.Risks = append(summary.Risks,
			"Market validation is incomplete - assumptions in later phases may not hold")
	}
	return summary, nil
}

// RefreshProgress discards the optimistic entry for the key, cancels any
// pending flush, and re-reads from the store.
func (t *ProgressTracker) RefreshProgress(ctx context.Context, userID uint, projectID string) (*model.UserProgress, error) {
	key := progressKey(userID, projectID)

	t.mu.Lock()
	if pf, ok := t.pending[key]; ok {
		pf.timer.Stop()
		delete(t.pending, key)
	}
	delete(t.cache, key)
	t.mu.Unlock()

	return t.GetProgress(ctx, userID, projectID)
}

// Subscribe registers for real-time pushes. Every push unconditionally
// replaces the cached entry, then is forwarded to fn. The returned func
// cancels delivery.
func (t *ProgressTracker) Subscribe(userID uint, projectID string, fn func(*model.UserProgress)) (func(), error) {
	key := progressKey(userID, projectID)
	return t.store.SubscribeToProgress(userID, projectID, func(pushed *model.UserProgress) {
		pushed.Normalize()
		t.mu.Lock()
		t.cache[key] = pushed
		snapshot := pushed.Clone()
		t.mu.Unlock()
		fn(snapshot)
	})
}

// Flush synchronously drains every pending write. Used on shutdown.
func (t *ProgressTracker) Flush(ctx context.Context) {
	t.mu.Lock()
	keys := make([]trackKey, 0, len(t.pending))
	patches := make([]writePatch, 0, len(t.pending))
	for key, pf := range t.pending {
		if pf.timer.Stop() {
			keys = append(keys, key)
			patches = append(patches, pf.patch)
		}
		delete(t.pending, key)
	}
	t.mu.Unlock()

	for i, key := range keys {
		if err := t.flushWithRetry(ctx, key.userID, key.projectID, patches[i]); err != nil {
			logger.Log.Error("progress flush on shutdown failed",
				zap.Uint("userId", key.userID),
				zap.String("projectId", key.projectID),
				zap.Error(err))
		}
	}
	t.flushWG.Wait()
}

// Close stops accepting new flushes and drains outstanding ones.
func (t *ProgressTracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.Flush(context.Background())
}

func (t *ProgressTracker) loadOrCreate(ctx context.Context, userID uint, projectID string) (*model.UserProgress, error) {
	progress, err := t.GetProgress(ctx, userID, projectID)
	if err != nil {
		return nil, util.NewProgressTrackingError("updateStep", userID, projectID, err)
	}
	if progress == nil {
		// 首次写入即初始化，保持 upsert 语义
		return t.InitializeProgress(ctx, userID, projectID)
	}
	return progress, nil
}

// scheduleFlush implements the write-coalescing policy. With auto-save the
// patch is deferred behind the debounce timer and failures are logged and
// swallowed; without it the patch is flushed inline and exhausted retries
// surface as a ProgressTrackingError.
func (t *ProgressTracker) scheduleFlush(userID uint, projectID string, patch writePatch, opts UpdateOptions) error {
	autoSave := t.cfg.AutoSave
	if opts.AutoSave != nil {
		autoSave = *opts.AutoSave
	}

	if !autoSave {
		if err := t.flushWithRetry(context.Background(), userID, projectID, patch); err != nil {
			return util.NewProgressTrackingError("persist", userID, projectID, err)
		}
		return nil
	}

	key := progressKey(userID, projectID)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}

	if pf, ok := t.pending[key]; ok {
		// 新写入抢占旧的待刷计时器
		pf.timer.Stop()
		pf.patch = patch
		pf.timer.Reset(t.cfg.Debounce())
		return nil
	}

	pf := &pendingFlush{patch: patch}
	pf.timer = time.AfterFunc(t.cfg.Debounce(), func() {
		t.mu.Lock()
		current, ok := t.pending[key]
		if !ok || current != pf {
			t.mu.Unlock()
			return
		}
		delete(t.pending, key)
		latest := current.patch
		t.flushWG.Add(1)
		t.mu.Unlock()

		defer t.flushWG.Done()
		if err := t.flushWithRetry(context.Background(), userID, projectID, latest); err != nil {
			// 乐观结果已返回给调用方，这里只记录
			monitoring.ProgressFlushCounter.WithLabelValues("error").Inc()
			logger.Log.Error("auto-save flush failed",
				zap.Uint("userId", userID),
				zap.String("projectId", projectID),
				zap.Error(err))
			return
		}
		monitoring.ProgressFlushCounter.WithLabelValues("ok").Inc()
	})
	t.pending[key] = pf
	return nil
}

func (t *ProgressTracker) flushWithRetry(ctx context.Context, userID uint, projectID string, patch writePatch) error {
	var lastErr error
	attempts := t.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			monitoring.ProgressFlushRetryCounter.Inc()
			select {
			case <-time.After(t.cfg.RetryDelay()):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if patch.phaseOnly {
			lastErr = t.store.UpdateCurrentPhase(ctx, userID, projectID, patch.phase)
		} else {
			lastErr = t.store.UpdateStepProgress(ctx, userID, projectID, patch.phase, patch.stepID, patch.status, patch.data, patch.notes)
		}
		if lastErr == nil {
			return nil
		}
		logger.Log.Warn("progress persistence attempt failed",
			zap.Uint("userId", userID),
			zap.String("projectId", projectID),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}
	return lastErr
}
