package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/noah-isme/unisupport-api/internal/repository"
	"github.com/noah-isme/unisupport-api/internal/seed"
	"github.com/noah-isme/unisupport-api/internal/service"
	"github.com/noah-isme/unisupport-api/pkg/config"
	"github.com/noah-isme/unisupport-api/pkg/database"
	"github.com/noah-isme/unisupport-api/pkg/logger"
)

const usage = `usage: dbtool [flags] <command>

commands:
  migrate   apply pending migrations
  status    print migration status
  seed      create demo users, students, support services and slots
  reset     roll back every migration, re-apply them and seed

flags:
`

func main() {
	var skipSeed bool
	flag.BoolVar(&skipSeed, "no-seed", false, "reset without seeding demo data")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(context.Background(), cfg, logr, flag.Arg(0), skipSeed); err != nil {
		logr.Fatal("dbtool failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger, command string, skipSeed bool) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	migrator, err := database.NewMigrator(db.DB, cfg.Database.MigrationTable, logr)
	if err != nil {
		return err
	}

	populate := func() error {
		catalog := service.NewCatalogService(repository.NewSupportServiceRepository(db), nil, nil, nil, logr, service.CatalogConfig{
			Location: cfg.Slots.Location(),
		})
		seeder := seed.New(repository.NewUserRepository(db), repository.NewStudentRepository(db), catalog, logr, 0)
		_, err := seeder.Run(ctx, seed.DefaultAccounts, seed.DefaultServices)
		return err
	}

	switch command {
	case "migrate":
		return migrator.Up(ctx)
	case "status":
		return migrator.Status(ctx)
	case "seed":
		return populate()
	case "reset":
		if err := migrator.Reset(ctx); err != nil {
			return err
		}
		if skipSeed {
			return nil
		}
		return populate()
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
