package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound              = errors.New("user not found")
	ErrEmailRegistered           = errors.New("email already registered")
	ErrPermissionDenied          = errors.New("permission denied")
	ErrProgressNotFound          = errors.New("Progress not found")
	ErrProjectNotFound           = errors.New("Project data not found")
	ErrProgressOrProjectNotFound = errors.New("Progress or project data not found")
	ErrUnknownPhase              = errors.New("unknown phase")
	ErrNilStepData               = errors.New("step data is required")
)

// ProgressTrackingError 进度跟踪操作的结构化错误
// Raised for unknown phase names, nil step data under validation, and
// exhausted-retry persistence failures when auto-save is off.
type ProgressTrackingError struct {
	Operation string
	UserID    uint
	ProjectID string
	Err       error
}

func (e *ProgressTrackingError) Error() string {
	return fmt.Sprintf("progress tracking: %s failed for user=%d project=%s: %v",
		e.Operation, e.UserID, e.ProjectID, e.Err)
}

func (e *ProgressTrackingError) Unwrap() error {
	return e.Err
}

func NewProgressTrackingError(operation string, userID uint, projectID string, err error) *ProgressTrackingError {
	return &ProgressTrackingError{
		Operation: operation,
		UserID:    userID,
		ProjectID: projectID,
		Err:       err,
	}
}
