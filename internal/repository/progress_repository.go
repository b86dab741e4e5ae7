package repository

import (
	"context"
	"errors"
	"time"

	"launchpad_backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProgressRepository 进度文档的持久化实现
// One row per (user, project); the phase map is a JSON document column and
// each step update is a read-patch-save of that document. Successful writes
// are republished through the feed so live subscribers converge.
// progressFeed 实时通道协作方，由 ProgressFeed 实现
type progressFeed interface {
	Publish(p *model.UserProgress) error
	Subscribe(userID uint, projectID string, fn func(*model.UserProgress)) (func(), error)
}

type ProgressRepository struct {
	DB   *gorm.DB
	Feed progressFeed
}

func NewProgressRepository(db *gorm.DB, feed *ProgressFeed) *ProgressRepository {
	r := &ProgressRepository{DB: db}
	if feed != nil {
		r.Feed = feed
	}
	return r
}

// GetUserProgress returns (nil, nil) when no document exists for the key.
func (r *ProgressRepository) GetUserProgress(ctx context.Context, userID uint, projectID string) (*model.UserProgress, error) {
	var doc model.UserProgressDocument
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.ToProgress()
}

func (r *ProgressRepository) CreateUserProgress(ctx context.Context, userID uint, projectID string, initialPhase model.Phase) (*model.UserProgress, error) {
	now := time.Now()
	progress := model.NewUserProgress(userID, projectID, initialPhase, now)
	progress.ID = uuid.New().String()

	var doc model.UserProgressDocument
	if err := doc.FromProgress(progress); err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Create(&doc).Error; err != nil {
		return nil, err
	}
	r.publish(progress)
	return progress, nil
}

func (r *ProgressRepository) UpdateStepProgress(ctx context.Context, userID uint, projectID string, phase model.Phase, stepID string, status model.StepStatus, data map[string]interface{}, notes string) error {
	return r.patch(ctx, userID, projectID, func(p *model.UserProgress, now time.Time) {
		pp := p.Phases[phase]
		step := model.StepProgress{StepID: stepID, Status: status, Data: data, Notes: notes}
		if status.Terminal() {
			t := now
			step.CompletedAt = &t
		}
		if pp.StartedAt == nil && status != model.StepNotStarted {
			t := now
			pp.StartedAt = &t
		}
		pp.UpsertStep(step)
		pp.Recompute(now)
	})
}

func (r *ProgressRepository) UpdateCurrentPhase(ctx context.Context, userID uint, projectID string, phase model.Phase) error {
	return r.patch(ctx, userID, projectID, func(p *model.UserProgress, now time.Time) {
		p.CurrentPhase = phase
	})
}

func (r *ProgressRepository) SubscribeToProgress(userID uint, projectID string, fn func(*model.UserProgress)) (func(), error) {
	return r.Feed.Subscribe(userID, projectID, fn)
}

func (r *ProgressRepository) patch(ctx context.Context, userID uint, projectID string, mutate func(*model.UserProgress, time.Time)) error {
	var committed *model.UserProgress
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc model.UserProgressDocument
		if err := tx.Where("user_id = ? AND project_id = ?", userID, projectID).First(&doc).Error; err != nil {
			return err
		}
		progress, err := doc.ToProgress()
		if err != nil {
			return err
		}

		now := time.Now()
		mutate(progress, now)
		progress.UpdatedAt = now

		if err := doc.FromProgress(progress); err != nil {
			return err
		}
		if err := tx.Save(&doc).Error; err != nil {
			return err
		}
		committed = progress
		return nil
	})
	if err != nil {
		return err
	}
	// 提交成功后才广播，订阅方不会看到未落库的快照
	r.publish(committed)
	return nil
}

func (r *ProgressRepository) publish(progress *model.UserProgress) {
	if r.Feed == nil {
		return
	}
	// 发布失败只影响实时通道，不影响持久化结果
	_ = r.Feed.Publish(progress)
}
