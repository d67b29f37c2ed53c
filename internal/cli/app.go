package cli

import (
	"fmt"
	"io"

	"gorm.io/gorm"

	"notepad/internal/config"
	"notepad/internal/logging"
	"notepad/internal/repository"
	"notepad/internal/service"
)

// app wires the stores and services for one command run.
type app struct {
	cfg    config.Config
	log    *logging.SlogLogger
	db     *gorm.DB
	notes  *service.NoteService
	cats   *service.CategoryService
	picker *service.CategoryPicker
	digest *service.DigestService
}

func openApp(opts *RootOptions, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logging.New(logOut, cfg.LogFormat, cfg.LogLevel)

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	categoryRepo := repository.NewCategoryRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	cascade := service.NewCascadeCoordinator(db, categoryRepo, noteRepo, log)

	return &app{
		cfg:    cfg,
		log:    log,
		db:     db,
		notes:  service.NewNoteService(noteRepo, log),
		cats:   service.NewCategoryService(categoryRepo, cascade, log),
		picker: service.NewCategoryPicker(categoryRepo),
		digest: service.NewDigestService(noteRepo, categoryRepo),
	}, nil
}

func (a *app) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
