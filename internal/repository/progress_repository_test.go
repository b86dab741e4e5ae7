package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"launchpad_backend/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// recordingFeed captures publishes instead of hitting Redis.
type recordingFeed struct {
	published []*model.UserProgress
}

func (f *recordingFeed) Publish(p *model.UserProgress) error {
	f.published = append(f.published, p)
	return nil
}

func (f *recordingFeed) Subscribe(uint, string, func(*model.UserProgress)) (func(), error) {
	return func() {}, nil
}

func newMockedRepository(t *testing.T) (*ProgressRepository, sqlmock.Sqlmock, *recordingFeed) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	feed := &recordingFeed{}
	repo := NewProgressRepository(gdb, nil)
	repo.Feed = feed
	return repo, mock, feed
}

func documentRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "project_id", "current_phase", "phases", "created_at", "updated_at", "deleted_at",
	}).AddRow("doc-1", 1, "p1", "validation", "{}", now, now, nil)
}

func TestPatch_PublishesAfterCommit(t *testing.T) {
	repo, mock, feed := newMockedRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `user_progress_documents`").WillReturnRows(documentRows())
	mock.ExpectExec("UPDATE `user_progress_documents`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateCurrentPhase(context.Background(), 1, "p1", model.PhaseTechnical)
	require.NoError(t, err)

	require.Len(t, feed.published, 1)
	assert.Equal(t, model.PhaseTechnical, feed.published[0].CurrentPhase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatch_FailedCommitDoesNotPublish(t *testing.T) {
	repo, mock, feed := newMockedRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `user_progress_documents`").WillReturnRows(documentRows())
	mock.ExpectExec("UPDATE `user_progress_documents`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("commit refused"))

	err := repo.UpdateCurrentPhase(context.Background(), 1, "p1", model.PhaseTechnical)
	require.Error(t, err)

	assert.Empty(t, feed.published, "an uncommitted snapshot must never reach subscribers")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatch_FailedWriteDoesNotPublish(t *testing.T) {
	repo, mock, feed := newMockedRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM `user_progress_documents`").WillReturnRows(documentRows())
	mock.ExpectExec("UPDATE `user_progress_documents`").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := repo.UpdateStepProgress(context.Background(), 1, "p1", model.PhaseValidation,
		"market-research", model.StepCompleted, nil, "")
	require.Error(t, err)
	assert.Empty(t, feed.published)
	assert.NoError(t, mock.ExpectationsWereMet())
}
