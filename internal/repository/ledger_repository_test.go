package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisupport-api/internal/models"
)

func TestAppendMood(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectExec("INSERT INTO mood_entries").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.MoodEntry{StudentID: "stu-1", Score: 4, LoggedAt: time.Now()}
	require.NoError(t, repo.AppendMood(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodHistoryOrdersByInsertionSequence(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM mood_entries WHERE student_id = \\$1 ORDER BY seq ASC$").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "score", "logged_at"}).
			AddRow("m2", "stu-1", 2, now).
			AddRow("m1", "stu-1", 5, now))

	entries, err := repo.MoodHistory(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "m2", entries[0].ID)
	assert.Equal(t, 5, entries[1].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendAppointmentAssignsNextSequence(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(sequence\\), 0\\) \\+ 1 FROM appointments").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))
	mock.ExpectExec("INSERT INTO appointments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	appt := &models.Appointment{StudentID: "stu-1", ServiceType: "counselling", ScheduledAt: time.Now().Add(time.Hour), Status: models.AppointmentStatusScheduled, CreatedAt: time.Now()}
	require.NoError(t, repo.AppendAppointment(context.Background(), appt))
	assert.Equal(t, 3, appt.Sequence)
	assert.NotEmpty(t, appt.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendAppointmentRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM appointments").WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(1))
	mock.ExpectExec("INSERT INTO appointments").WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	err := repo.AppendAppointment(context.Background(), &models.Appointment{StudentID: "stu-1", ServiceType: "counselling"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentsOrderedBySequence(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM appointments WHERE student_id = \\$1 ORDER BY sequence ASC").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "sequence", "service_type", "scheduled_at", "status", "created_at"}).
			AddRow("a1", "stu-1", 1, "counselling", now, "scheduled", now))

	appointments, err := repo.Appointments(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, models.AppointmentStatusScheduled, appointments[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
