package app

import (
	"context"
	"fmt"

	"github.com/aulianza/dbarc/internal/adapter/dumper"
	"github.com/aulianza/dbarc/internal/adapter/storage"
	"github.com/aulianza/dbarc/internal/config"
	"github.com/aulianza/dbarc/internal/domain"
	"github.com/aulianza/dbarc/internal/infrastructure/logger"
	"github.com/aulianza/dbarc/internal/usecase"
)

type App struct {
	config      *config.Config
	logger      *logger.Logger
	dumper      domain.Dumper
	backupUC    *usecase.Backup
	retentionUC *usecase.Retention
}

func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infof("Starting %s", cfg.App.Name)

	var dump domain.Dumper
	switch cfg.Dump.Strategy {
	case "query":
		dump = dumper.NewSQL(cfg, log)
	default:
		dump = dumper.NewExec(cfg, log)
	}
	log.Infof("Dump strategy: %s", cfg.Dump.Strategy)

	store, err := initializeStorage(cfg, log)
	if err != nil {
		return nil, err
	}

	verifier := usecase.NewVerifier(log)
	backupUC := usecase.NewBackup(dump, store, verifier, log, cfg.Dump.TempDir)
	retentionUC := usecase.NewRetention(store, log, cfg.Storage.RetentionDays)

	return &App{
		config:      cfg,
		logger:      log,
		dumper:      dump,
		backupUC:    backupUC,
		retentionUC: retentionUC,
	}, nil
}

func initializeStorage(cfg *config.Config, log *logger.Logger) (domain.Storage, error) {
	switch cfg.Storage.Type {
	case "s3":
		store, err := storage.NewS3(&cfg.Storage.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3: %w", err)
		}
		log.Infof("✓ S3 upload enabled (bucket: %s)", cfg.Storage.S3.Bucket)
		return store, nil
	case "local":
		store, err := storage.NewLocal(cfg.Storage.Local.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		log.Infof("✓ Local archive enabled (path: %s)", cfg.Storage.Local.Path)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}
}

// Run performs one backup run: ping, dump, verify, upload, delete, then an
// optional retention sweep of old remote backups.
func (a *App) Run(ctx context.Context) error {
	if err := a.dumper.Ping(ctx); err != nil {
		a.logger.Errorf("Database unreachable: %v", err)
		return fmt.Errorf("ping: %w", err)
	}
	a.logger.Infof("✓ Connected to %s:%d", a.config.Database.Host, a.config.Database.Port)

	if err := a.backupUC.Execute(ctx); err != nil {
		return err
	}

	if err := a.retentionUC.Execute(ctx); err != nil {
		a.logger.Errorf("Retention sweep failed: %v", err)
	}

	return nil
}

func (a *App) Shutdown() {
	a.logger.Close()
}
