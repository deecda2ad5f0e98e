// Package memory provides a process-local store implementing the same
// repository contracts as the PostgreSQL repositories. Not-found lookups
// return sql.ErrNoRows so services treat both backends alike.
package memory

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/unisupport-api/internal/models"
)

// Store keeps every record in maps guarded by a single mutex.
type Store struct {
	mu sync.RWMutex

	users         map[string]models.User
	refreshTokens map[string]models.RefreshToken
	auditLogs     []models.AuditLog
	students      map[string]models.Student
	moods         map[string][]models.MoodEntry
	appointments  map[string][]models.Appointment
	services      map[string]models.SupportService
	slots         map[string][]models.AppointmentSlot
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:         make(map[string]models.User),
		refreshTokens: make(map[string]models.RefreshToken),
		students:      make(map[string]models.Student),
		moods:         make(map[string][]models.MoodEntry),
		appointments:  make(map[string][]models.Appointment),
		services:      make(map[string]models.SupportService),
		slots:         make(map[string][]models.AppointmentSlot),
	}
}

// Users

func (s *Store) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (s *Store) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *Store) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (s *Store) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *Store) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (s *Store) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	u.LastLogin = &ts
	u.UpdatedAt = ts
	s.users[id] = u
	return nil
}

func (s *Store) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	s.refreshTokens[token.Token] = *token
	return nil
}

func (s *Store) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rt, ok := s.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &rt, nil
}

func (s *Store) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, rt := range s.refreshTokens {
		if rt.ID == id {
			rt.Revoked = true
			rt.RevokedAt = &revokedAt
			s.refreshTokens[key] = rt
		}
	}
	return nil
}

func (s *Store) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, *log)
	return nil
}

// AuditLogs returns a copy of the recorded audit trail.
func (s *Store) AuditLogs() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.auditLogs)
}

// Students

// StudentStore adapts Store to the student repository contract, whose
// method names overlap with the user repository.
type StudentStore struct{ *Store }

// Students returns the student repository view of the store.
func (s *Store) Students() StudentStore { return StudentStore{s} }

func (s StudentStore) FindByUserID(_ context.Context, userID string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &st, nil
}

func (s StudentStore) Create(_ context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.students[student.UserID]; ok {
		*student = existing
		return nil
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	s.students[student.UserID] = *student
	return nil
}

// Ledger

func (s *Store) AppendMood(_ context.Context, entry *models.MoodEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	s.moods[entry.StudentID] = append(s.moods[entry.StudentID], *entry)
	return nil
}

func (s *Store) MoodHistory(_ context.Context, studentID string) ([]models.MoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.moods[studentID]), nil
}

func (s *Store) AppendAppointment(_ context.Context, appointment *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	existing := s.appointments[appointment.StudentID]
	appointment.Sequence = len(existing) + 1
	s.appointments[appointment.StudentID] = append(existing, *appointment)
	return nil
}

func (s *Store) Appointments(_ context.Context, studentID string) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.appointments[studentID]), nil
}

// Catalog

// CatalogStore adapts Store to the support service repository contract.
type CatalogStore struct{ *Store }

// Catalog returns the support service repository view of the store.
func (s *Store) Catalog() CatalogStore { return CatalogStore{s} }

func (s CatalogStore) List(_ context.Context) ([]models.SupportService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SupportService, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s CatalogStore) FindByID(_ context.Context, id string) (*models.SupportService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &svc, nil
}

func (s CatalogStore) FindByType(_ context.Context, serviceType string) (*models.SupportService, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if svc, ok := s.serviceByType(serviceType); ok {
		return &svc, nil
	}
	return nil, sql.ErrNoRows
}

func (s CatalogStore) serviceByType(serviceType string) (models.SupportService, bool) {
	for _, svc := range s.services {
		if svc.ServiceType == serviceType {
			return svc, true
		}
	}
	return models.SupportService{}, false
}

func (s CatalogStore) Create(_ context.Context, service *models.SupportService, slots []models.AppointmentSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	if service.CreatedAt.IsZero() {
		service.CreatedAt = time.Now().UTC()
	}
	s.services[service.ID] = *service
	for i := range slots {
		slots[i].ServiceID = service.ID
	}
	s.insertSlots(slots)
	return nil
}

func (s CatalogStore) InsertSlots(_ context.Context, slots []models.AppointmentSlot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertSlots(slots), nil
}

func (s CatalogStore) insertSlots(slots []models.AppointmentSlot) int {
	inserted := 0
	for i := range slots {
		slot := slots[i]
		existing := s.slots[slot.ServiceID]
		if slices.ContainsFunc(existing, func(e models.AppointmentSlot) bool { return e.StartsAt.Equal(slot.StartsAt) }) {
			continue
		}
		if slot.ID == "" {
			slot.ID = uuid.NewString()
			slots[i].ID = slot.ID
		}
		s.slots[slot.ServiceID] = append(existing, slot)
		inserted++
	}
	return inserted
}

func (s CatalogStore) AvailableSlots(_ context.Context, serviceID string, after time.Time) ([]models.AppointmentSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AppointmentSlot
	for _, slot := range s.slots[serviceID] {
		if slot.Available && slot.StartsAt.After(after) {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (s CatalogStore) MarkUnavailable(_ context.Context, serviceType string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.serviceByType(serviceType)
	if !ok {
		return nil
	}
	slots := s.slots[svc.ID]
	for i := range slots {
		if slots[i].StartsAt.Equal(at) {
			slots[i].Available = false
		}
	}
	return nil
}
