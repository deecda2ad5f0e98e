package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/unisupport-api/internal/handler"
	"github.com/noah-isme/unisupport-api/internal/ledger"
	"github.com/noah-isme/unisupport-api/internal/models"
	"github.com/noah-isme/unisupport-api/internal/repository"
	"github.com/noah-isme/unisupport-api/internal/repository/memory"
	"github.com/noah-isme/unisupport-api/pkg/config"
	"github.com/noah-isme/unisupport-api/pkg/database"
)

type userStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type studentStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

type catalogStore interface {
	List(ctx context.Context) ([]models.SupportService, error)
	FindByID(ctx context.Context, id string) (*models.SupportService, error)
	FindByType(ctx context.Context, serviceType string) (*models.SupportService, error)
	Create(ctx context.Context, service *models.SupportService, slots []models.AppointmentSlot) error
	InsertSlots(ctx context.Context, slots []models.AppointmentSlot) (int, error)
	AvailableSlots(ctx context.Context, serviceID string, after time.Time) ([]models.AppointmentSlot, error)
	MarkUnavailable(ctx context.Context, serviceType string, at time.Time) error
}

// stores groups the repositories backing the API for one storage driver.
type stores struct {
	users    userStore
	students studentStore
	ledger   ledger.Store
	catalog  catalogStore
	probes   map[string]handler.ReadinessProbe
	seed     bool
	close    func() error
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		logger.Warn("using in-memory storage; data is lost on restart")
		return &stores{
			users:    store,
			students: store.Students(),
			ledger:   store,
			catalog:  store.Catalog(),
			probes:   map[string]handler.ReadinessProbe{},
			seed:     true,
			close:    func() error { return nil },
		}, nil
	case config.StorageDriverPostgres, "":
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := migrate(ctx, db, cfg, logger); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &stores{
			users:    repository.NewUserRepository(db),
			students: repository.NewStudentRepository(db),
			ledger:   repository.NewLedgerRepository(db),
			catalog:  repository.NewSupportServiceRepository(db),
			probes:   map[string]handler.ReadinessProbe{"database": db.PingContext},
			close:    db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func migrate(ctx context.Context, db *sqlx.DB, cfg *config.Config, logger *zap.Logger) error {
	migrator, err := database.NewMigrator(db.DB, cfg.Database.MigrationTable, logger)
	if err != nil {
		return err
	}
	return migrator.Up(ctx)
}
