package repository

import (
	"context"
	"errors"
	"time"

	"launchpad_backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	DB *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{DB: db}
}

// GetProject returns (nil, nil) when the project does not exist.
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var doc model.ProjectDocument
	err := r.DB.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.ToProject()
}

func (r *ProjectRepository) ListByUser(ctx context.Context, userID uint, page, limit int) ([]model.Project, int64, error) {
	var docs []model.ProjectDocument
	var total int64

	q := r.DB.WithContext(ctx).Model(&model.ProjectDocument{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("updated_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	projects := make([]model.Project, 0, len(docs))
	for i := range docs {
		p, err := docs[i].ToProject()
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *p)
	}
	return projects, total, nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	now := time.Now()
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	project.CreatedAt = now
	project.UpdatedAt = now

	var doc model.ProjectDocument
	if err := doc.FromProject(project); err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Create(&doc).Error
}

func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	project.UpdatedAt = time.Now()
	var doc model.ProjectDocument
	if err := doc.FromProject(project); err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Save(&doc).Error
}

func (r *ProjectRepository) Delete(ctx context.Context, id string, userID uint) error {
	return r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.ProjectDocument{}).Error
}
