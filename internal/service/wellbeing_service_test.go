package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisupport-api/internal/dto"
	"github.com/noah-isme/unisupport-api/internal/ledger"
	"github.com/noah-isme/unisupport-api/internal/models"
	"github.com/noah-isme/unisupport-api/internal/repository/memory"
)

type wellbeingFixture struct {
	store     *memory.Store
	catalog   *CatalogService
	wellbeing *WellbeingService
	metrics   *MetricsService
	actor     dto.Actor
}

func newWellbeingFixture(t *testing.T, now time.Time) *wellbeingFixture {
	t.Helper()
	store := memory.NewStore()
	clock := ledger.FixedClock{T: now}
	metrics := NewMetricsService()
	catalog := NewCatalogService(store.Catalog(), nil, metrics, nil, nil, CatalogConfig{Location: time.UTC, Clock: clock})
	wellbeing := NewWellbeingService(store.Students(), store, catalog, store, metrics, nil, nil, WellbeingConfig{Location: time.UTC, Clock: clock})

	_, err := catalog.Create(context.Background(), dto.CreateSupportServiceRequest{Name: "Counselling", ServiceType: "counselling"})
	require.NoError(t, err)

	return &wellbeingFixture{
		store:     store,
		catalog:   catalog,
		wellbeing: wellbeing,
		metrics:   metrics,
		actor:     dto.Actor{UserID: "user-1", Username: "alice", IP: "10.0.0.1", UserAgent: "test"},
	}
}

func score(v int) *int { return &v }

func TestLogMoodScoreRange(t *testing.T) {
	f := newWellbeingFixture(t, referenceMonday)
	ctx := context.Background()

	for s := 1; s <= 5; s++ {
		entry, err := f.wellbeing.LogMood(ctx, f.actor, dto.LogMoodRequest{Score: score(s)})
		require.NoError(t, err)
		assert.Equal(t, s, entry.Score)
	}
	for _, s := range []int{0, 6, -3} {
		_, err := f.wellbeing.LogMood(ctx, f.actor, dto.LogMoodRequest{Score: score(s)})
		assertCode(t, err, "VALIDATION_ERROR")
	}
	_, err := f.wellbeing.LogMood(ctx, f.actor, dto.LogMoodRequest{})
	assertCode(t, err, "VALIDATION_ERROR")

	history, err := f.wellbeing.MoodHistory(ctx, f.actor)
	require.NoError(t, err)
	require.Len(t, history, 5)
	for i, entry := range history {
		assert.Equal(t, i+1, entry.Score)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.validationFailures.WithLabelValues("log_mood")))
}

func TestBookAppointmentRemovesSlot(t *testing.T) {
	f := newWellbeingFixture(t, referenceMonday)
	ctx := context.Background()
	service, err := f.catalog.ServiceByType(ctx, "counselling")
	require.NoError(t, err)

	appointment, err := f.wellbeing.BookAppointment(ctx, f.actor, dto.BookAppointmentRequest{ServiceType: "counselling", Date: "2024-01-02 09:00"})
	require.NoError(t, err)
	assert.Equal(t, 1, appointment.Sequence)
	assert.Equal(t, models.AppointmentStatusScheduled, appointment.Status)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), appointment.ScheduledAt)

	slots, err := f.catalog.AvailableSlots(ctx, service.ID)
	require.NoError(t, err)
	assert.Len(t, slots, 79)
	for _, slot := range slots {
		assert.False(t, slot.StartsAt.Equal(appointment.ScheduledAt))
	}

	second, err := f.wellbeing.BookAppointment(ctx, f.actor, dto.BookAppointmentRequest{ServiceType: "counselling", Date: "2024-01-02T09:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Sequence)
	slots, err = f.catalog.AvailableSlots(ctx, service.ID)
	require.NoError(t, err)
	assert.Len(t, slots, 79)

	logs := f.store.AuditLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, models.AuditActionAppointmentBook, logs[0].Action)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.appointmentsBooked.WithLabelValues("counselling")))
}

func TestBookAppointmentRejections(t *testing.T) {
	f := newWellbeingFixture(t, time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	cases := map[string]dto.BookAppointmentRequest{
		"past":          {ServiceType: "counselling", Date: "2024-01-02 10:00"},
		"earlier today": {ServiceType: "counselling", Date: "2024-01-03 11:00"},
		"weekend":       {ServiceType: "counselling", Date: "2024-01-06 10:00"},
		"before hours":  {ServiceType: "counselling", Date: "2024-01-04 08:00"},
		"after hours":   {ServiceType: "counselling", Date: "2024-01-04 18:00"},
		"at closing":    {ServiceType: "counselling", Date: "2024-01-04 17:00"},
		"bad format":    {ServiceType: "counselling", Date: "04/01/2024 10:00"},
		"unknown type":  {ServiceType: "astrology", Date: "2024-01-04 10:00"},
		"missing date":  {ServiceType: "counselling"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.wellbeing.BookAppointment(ctx, f.actor, req)
			assertCode(t, err, "VALIDATION_ERROR")
		})
	}

	appointments, err := f.wellbeing.Appointments(ctx, f.actor)
	require.NoError(t, err)
	assert.Empty(t, appointments)
}

func TestBookAppointmentPastIsTemporalError(t *testing.T) {
	f := newWellbeingFixture(t, time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC))

	_, err := f.wellbeing.BookAppointment(context.Background(), f.actor, dto.BookAppointmentRequest{ServiceType: "counselling", Date: "2024-01-02 10:00"})
	var temporal *ledger.TemporalError
	assert.True(t, errors.As(err, &temporal))
}

func TestDashboardSummary(t *testing.T) {
	f := newWellbeingFixture(t, referenceMonday)
	ctx := context.Background()

	empty, err := f.wellbeing.Dashboard(ctx, f.actor)
	require.NoError(t, err)
	assert.Nil(t, empty.LatestMood)
	assert.Empty(t, empty.UpcomingAppointments)

	for _, s := range []int{2, 4, 5} {
		_, err := f.wellbeing.LogMood(ctx, f.actor, dto.LogMoodRequest{Score: score(s)})
		require.NoError(t, err)
	}
	_, err = f.wellbeing.BookAppointment(ctx, f.actor, dto.BookAppointmentRequest{ServiceType: "counselling", Date: "2024-01-04 14:00"})
	require.NoError(t, err)

	dash, err := f.wellbeing.Dashboard(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "alice", dash.Student.Name)
	assert.Equal(t, 3, dash.MoodCount)
	assert.InDelta(t, 11.0/3.0, dash.AverageMood, 0.0001)
	require.NotNil(t, dash.LatestMood)
	assert.Equal(t, 5, dash.LatestMood.Score)
	assert.Equal(t, "Very Good", dash.LatestMoodLabel)
	assert.Equal(t, 1, dash.AppointmentCount)
	assert.Len(t, dash.UpcomingAppointments, 1)
}

func TestStudentsAreIsolated(t *testing.T) {
	f := newWellbeingFixture(t, referenceMonday)
	ctx := context.Background()
	bob := dto.Actor{UserID: "user-2", Username: "bob"}

	_, err := f.wellbeing.LogMood(ctx, f.actor, dto.LogMoodRequest{Score: score(3)})
	require.NoError(t, err)
	_, err = f.wellbeing.BookAppointment(ctx, bob, dto.BookAppointmentRequest{ServiceType: "counselling", Date: "2024-01-05 09:00"})
	require.NoError(t, err)

	bobMoods, err := f.wellbeing.MoodHistory(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bobMoods)
	aliceAppointments, err := f.wellbeing.Appointments(ctx, f.actor)
	require.NoError(t, err)
	assert.Empty(t, aliceAppointments)
}
