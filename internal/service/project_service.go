package service

import (
	"context"

	"launchpad_backend/internal/model"
	"launchpad_backend/internal/repository"
	"launchpad_backend/internal/util"
)

// ProjectService 项目生命周期管理
// Creating a project also seeds its progress document so the tracker and
// the recommendation views have something to read immediately.
type ProjectService struct {
	ProjectRepo *repository.ProjectRepository
	Tracker     *ProgressTracker
}

func NewProjectService(projectRepo *repository.ProjectRepository, tracker *ProgressTracker) *ProjectService {
	return &ProjectService{
		ProjectRepo: projectRepo,
		Tracker:     tracker,
	}
}

func (s *ProjectService) Create(ctx context.Context, userID uint, project *model.Project) error {
	project.UserID = userID
	if err := s.ProjectRepo.Create(ctx, project); err != nil {
		return err
	}
	_, err := s.Tracker.InitializeProgress(ctx, userID, project.ID)
	return err
}

func (s *ProjectService) Get(ctx context.Context, userID uint, id string) (*model.Project, error) {
	project, err := s.ProjectRepo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, util.ErrProjectNotFound
	}
	if project.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, userID uint, page, limit int) ([]model.Project, int64, error) {
	return s.ProjectRepo.ListByUser(ctx, userID, page, limit)
}

func (s *ProjectService) Update(ctx context.Context, userID uint, project *model.Project) error {
	existing, err := s.Get(ctx, userID, project.ID)
	if err != nil {
		return err
	}
	project.UserID = existing.UserID
	project.CreatedAt = existing.CreatedAt
	return s.ProjectRepo.Update(ctx, project)
}

func (s *ProjectService) Delete(ctx context.Context, userID uint, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.ProjectRepo.Delete(ctx, id, userID)
}
