package repository

import (
	"context"

	"launchpad_backend/internal/model"

	"gorm.io/gorm"
)

type ResourceRepository struct {
	DB *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{DB: db}
}

// ListAll loads the whole catalog. The catalog is small and read-mostly;
// the engine filters it in memory.
func (r *ResourceRepository) ListAll(ctx context.Context) ([]model.Resource, error) {
	var records []model.ResourceRecord
	if err := r.DB.WithContext(ctx).Order("relevance_score DESC").Find(&records).Error; err != nil {
		return nil, err
	}

	resources := make([]model.Resource, 0, len(records))
	for i := range records {
		res, err := records[i].ToResource()
		if err != nil {
			return nil, err
		}
		resources = append(resources, *res)
	}
	return resources, nil
}

func (r *ResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	var rec model.ResourceRecord
	if err := rec.FromResource(resource); err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Create(&rec).Error
}
