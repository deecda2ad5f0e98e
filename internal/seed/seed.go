package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/unisupport-api/internal/dto"
	"github.com/noah-isme/unisupport-api/internal/models"
	appErrors "github.com/noah-isme/unisupport-api/pkg/errors"
)

type userStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type studentStore interface {
	Create(ctx context.Context, student *models.Student) error
}

type serviceCreator interface {
	Create(ctx context.Context, req dto.CreateSupportServiceRequest) (*models.SupportService, error)
}

// Account is a demo login created by the seeder.
type Account struct {
	Username string
	Name     string
	Email    string
	Password string
	Role     models.UserRole
}

// DefaultAccounts are the demo users. Students also get a student profile.
var DefaultAccounts = []Account{
	{Username: "john.doe", Name: "John Doe", Email: "john.doe@student.bham.ac.uk", Password: "AdminPass1234!", Role: models.RoleAdmin},
	{Username: "alice.green", Name: "Alice Green", Email: "alicegreen@student.bham.ac.uk", Password: "AliceGreen1234!", Role: models.RoleStudent},
	{Username: "mia.clarke", Name: "Mia Clarke", Email: "miaclarke@student.bham.ac.uk", Password: "MiaClarke1234!", Role: models.RoleAdmin},
	{Username: "sophia.taylor", Name: "Sophia Taylor", Email: "sophiataylor@student.bham.ac.uk", Password: "SophiaTaylor1234!", Role: models.RoleMentor},
	{Username: "emma.gray", Name: "Emma Gray", Email: "emmagray@student.bham.ac.uk", Password: "EmmaGray1234!", Role: models.RoleStudent},
	{Username: "lucas.king", Name: "Lucas King", Email: "lucasking@student.bham.ac.uk", Password: "LucasKing1234!", Role: models.RoleMentor},
}

// DefaultServices are the support services offered out of the box.
var DefaultServices = []dto.CreateSupportServiceRequest{
	{Name: "Counselling Service", ServiceType: "counselling"},
	{Name: "Academic Support", ServiceType: "academic"},
	{Name: "Wellbeing Workshop", ServiceType: "workshop"},
	{Name: "Mental Health Support", ServiceType: "mental_health"},
	{Name: "Career Guidance", ServiceType: "career"},
}

// Result counts the records a seed run created.
type Result struct {
	Users    int
	Students int
	Services int
}

// Seeder populates a fresh store with demo data. Runs are idempotent:
// existing usernames and service types are left alone.
type Seeder struct {
	users    userStore
	students studentStore
	catalog  serviceCreator
	logger   *zap.Logger
	cost     int
}

// New builds a Seeder. A zero cost uses bcrypt.DefaultCost.
func New(users userStore, students studentStore, catalog serviceCreator, logger *zap.Logger, cost int) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Seeder{users: users, students: students, catalog: catalog, logger: logger, cost: cost}
}

// Run seeds accounts and services.
func (s *Seeder) Run(ctx context.Context, accounts []Account, services []dto.CreateSupportServiceRequest) (*Result, error) {
	result := &Result{}
	for _, account := range accounts {
		created, err := s.seedAccount(ctx, account)
		if err != nil {
			return result, err
		}
		if !created {
			continue
		}
		result.Users++
		if account.Role == models.RoleStudent {
			result.Students++
		}
	}

	for _, req := range services {
		if _, err := s.catalog.Create(ctx, req); err != nil {
			if errors.Is(err, appErrors.ErrConflict) {
				continue
			}
			return result, fmt.Errorf("seed service %s: %w", req.ServiceType, err)
		}
		result.Services++
	}

	s.logger.Info("seed complete",
		zap.Int("users", result.Users),
		zap.Int("students", result.Students),
		zap.Int("services", result.Services))
	return result, nil
}

func (s *Seeder) seedAccount(ctx context.Context, account Account) (bool, error) {
	if _, err := s.users.FindByUsername(ctx, account.Username); err == nil {
		return false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup %s: %w", account.Username, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), s.cost)
	if err != nil {
		return false, fmt.Errorf("hash password for %s: %w", account.Username, err)
	}
	user := &models.User{
		Username:     account.Username,
		Email:        account.Email,
		PasswordHash: string(hash),
		Role:         account.Role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, fmt.Errorf("create user %s: %w", account.Username, err)
	}

	if account.Role == models.RoleStudent {
		if err := s.students.Create(ctx, &models.Student{UserID: user.ID, Name: account.Name}); err != nil {
			return false, fmt.Errorf("create student profile for %s: %w", account.Username, err)
		}
	}
	return true, nil
}
