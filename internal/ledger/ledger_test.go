package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/unisupport-api/internal/models"
)

type fakeStore struct {
	moods        []models.MoodEntry
	appointments []models.Appointment
	appendErr    error
}

func (f *fakeStore) AppendMood(_ context.Context, entry *models.MoodEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	entry.ID = fmt.Sprintf("mood-%d", len(f.moods)+1)
	f.moods = append(f.moods, *entry)
	return nil
}

func (f *fakeStore) MoodHistory(_ context.Context, studentID string) ([]models.MoodEntry, error) {
	var out []models.MoodEntry
	for _, m := range f.moods {
		if m.StudentID == studentID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) AppendAppointment(_ context.Context, appt *models.Appointment) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	seq := 1
	for _, a := range f.appointments {
		if a.StudentID == appt.StudentID {
			seq++
		}
	}
	appt.ID = fmt.Sprintf("appt-%d", len(f.appointments)+1)
	appt.Sequence = seq
	f.appointments = append(f.appointments, *appt)
	return nil
}

func (f *fakeStore) Appointments(_ context.Context, studentID string) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range f.appointments {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeTracker struct {
	booked  map[time.Time]bool
	calls   int
	markErr error
}

func (f *fakeTracker) MarkUnavailable(_ context.Context, _ string, at time.Time) error {
	f.calls++
	if f.markErr != nil {
		return f.markErr
	}
	if f.booked == nil {
		f.booked = map[time.Time]bool{}
	}
	f.booked[at] = true
	return nil
}

var (
	student = models.Student{ID: "stu-1", UserID: "user-1", Name: "alice"}
	monday  = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
)

func TestLogMoodAcceptsOnlyScoresInRange(t *testing.T) {
	for score := -1; score <= 7; score++ {
		store := &fakeStore{}
		l := New(student, store, WithClock(FixedClock{T: monday}))

		entry, err := l.LogMood(context.Background(), score)
		if score >= 1 && score <= 5 {
			require.NoError(t, err, "score %d", score)
			assert.Equal(t, score, entry.Score)
			assert.Equal(t, monday, entry.LoggedAt)
			assert.Len(t, store.moods, 1)
			continue
		}
		var rangeErr *RangeError
		require.True(t, errors.As(err, &rangeErr), "score %d", score)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, store.moods)
	}
}

func TestMoodHistoryKeepsCallOrder(t *testing.T) {
	store := &fakeStore{}
	l := New(student, store)
	ctx := context.Background()

	for _, s := range []int{3, 5, 1, 4} {
		_, err := l.LogMood(ctx, s)
		require.NoError(t, err)
	}
	_, err := l.LogMood(ctx, 9)
	require.Error(t, err)

	history, err := l.MoodHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 4)
	got := make([]int, 0, len(history))
	for _, h := range history {
		got = append(got, h.Score)
	}
	assert.Equal(t, []int{3, 5, 1, 4}, got)
}

func TestBookAppointmentRejectsPast(t *testing.T) {
	tracker := &fakeTracker{}
	store := &fakeStore{}
	l := New(student, store, WithClock(FixedClock{T: monday}), WithSlotTracker(tracker))

	for _, past := range []time.Duration{time.Nanosecond, time.Minute, 48 * time.Hour} {
		_, err := l.BookAppointment(context.Background(), "counselling", monday.Add(-past))
		var temporal *TemporalError
		require.True(t, errors.As(err, &temporal))
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.Zero(t, tracker.calls)
	assert.Empty(t, store.appointments)
}

func TestBookAppointmentAcceptsNow(t *testing.T) {
	l := New(student, &fakeStore{}, WithClock(FixedClock{T: monday}))
	_, err := l.BookAppointment(context.Background(), "counselling", monday)
	assert.NoError(t, err)
}

func TestBookAppointmentRequiresServiceType(t *testing.T) {
	l := New(student, &fakeStore{}, WithClock(FixedClock{T: monday}))
	_, err := l.BookAppointment(context.Background(), "  ", monday.Add(time.Hour))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBookAppointmentAssignsSequenceAndMarksSlot(t *testing.T) {
	tracker := &fakeTracker{}
	store := &fakeStore{}
	l := New(student, store, WithClock(FixedClock{T: monday}), WithSlotTracker(tracker))
	ctx := context.Background()
	slot := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	first, err := l.BookAppointment(ctx, "counselling", slot)
	require.NoError(t, err)
	second, err := l.BookAppointment(ctx, "counselling", slot)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Sequence)
	assert.Equal(t, 2, second.Sequence)
	assert.Equal(t, models.AppointmentStatusScheduled, first.Status)
	assert.True(t, tracker.booked[slot])
	assert.Len(t, tracker.booked, 1)

	appointments, err := l.Appointments(ctx)
	require.NoError(t, err)
	assert.Len(t, appointments, 2)
}

func TestBookAppointmentSurfacesStoreError(t *testing.T) {
	l := New(student, &fakeStore{appendErr: errors.New("boom")}, WithClock(FixedClock{T: monday}))
	_, err := l.BookAppointment(context.Background(), "counselling", monday.Add(time.Hour))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestBookAppointmentLeavesSlotOpenWhenStoreFails(t *testing.T) {
	tracker := &fakeTracker{}
	l := New(student, &fakeStore{appendErr: errors.New("boom")}, WithClock(FixedClock{T: monday}), WithSlotTracker(tracker))
	slot := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	appointment, err := l.BookAppointment(context.Background(), "counselling", slot)
	require.Error(t, err)
	assert.Nil(t, appointment)
	assert.Empty(t, tracker.booked)
	assert.Zero(t, tracker.calls)
}

func TestBookAppointmentKeepsBookingWhenSlotMarkFails(t *testing.T) {
	tracker := &fakeTracker{markErr: errors.New("redis down")}
	store := &fakeStore{}
	l := New(student, store, WithClock(FixedClock{T: monday}), WithSlotTracker(tracker), WithLogger(zap.NewNop()))
	ctx := context.Background()
	slot := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	appointment, err := l.BookAppointment(ctx, "counselling", slot)
	require.NoError(t, err)
	assert.Equal(t, 1, appointment.Sequence)
	assert.Equal(t, 1, tracker.calls)

	appointments, err := l.Appointments(ctx)
	require.NoError(t, err)
	assert.Len(t, appointments, 1)
}
