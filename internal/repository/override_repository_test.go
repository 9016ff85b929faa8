package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/wardline/roster-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func overrideRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "nurse_id", "shift_date", "kind", "new_shift_type", "new_start_time", "new_end_time",
		"reason", "status", "linked_interchange_id", "requested_by", "reviewed_by", "resolution_note",
		"created_at", "resolved_at",
	})
}

func TestOverrideRepositoryCreateGuardedInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOverrideRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_overrides")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	override := &models.ScheduleOverride{
		NurseID:     "nurse-1",
		ShiftDate:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Kind:        models.OverrideKindTimeOff,
		Reason:      "leave",
		RequestedBy: "nurse-1",
	}
	require.NoError(t, repo.Create(context.Background(), override))
	require.NotEmpty(t, override.ID)
	require.Equal(t, models.OverrideStatusPending, override.Status)
	require.False(t, override.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryCreateSlotOccupied(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOverrideRepository(db)
	// The guarded insert writes nothing when the slot holds an unresolved row.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_overrides")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), &models.ScheduleOverride{
		NurseID:   "nurse-1",
		ShiftDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Kind:      models.OverrideKindCancellation,
	})
	require.ErrorIs(t, err, ErrSlotOccupied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryFindUnresolvedBySlotEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOverrideRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_overrides")).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindUnresolvedBySlot(context.Background(), "nurse-1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryApproveAndApply(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOverrideRepository(db)
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE schedule_overrides SET status")).
		WillReturnRows(sqlmock.NewRows([]string{"nurse_id", "shift_date"}).AddRow("nurse-1", date))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE shift_assignments SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ApproveAndApply(context.Background(), "ovr-1", "sup-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryApproveAndApplyNotPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOverrideRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE schedule_overrides SET status")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.ApproveAndApply(context.Background(), "ovr-1", "sup-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryRejectAlreadyResolved(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOverrideRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_overrides SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Reject(context.Background(), "ovr-1", "sup-1", nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryListAppliedForRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOverrideRepository(db)
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := overrideRows().AddRow(
		"ovr-1", "nurse-1", date, "TIME_OFF", nil, nil, nil,
		"leave", "APPLIED", nil, "nurse-1", "sup-1", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_overrides")).
		WithArgs("nurse-1", sqlmock.AnyArg(), sqlmock.AnyArg(), string(models.OverrideStatusApplied)).
		WillReturnRows(rows)

	overrides, err := repo.ListAppliedForRange(context.Background(), "nurse-1", date, date.AddDate(0, 0, 13))
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	require.Equal(t, models.OverrideStatusApplied, overrides[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
