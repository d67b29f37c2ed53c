package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"notepad/internal/common"
	"notepad/internal/model"
)

// NewDB opens a SQLite database, runs migrations and makes sure the default
// category exists. w receives gorm's log lines; nil writes to stdout.
func NewDB(dsn string, w logger.Writer) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "notepad.db"
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	if w == nil {
		w = log.New(os.Stdout, "", log.LstdFlags)
	}
	dbLogger := logger.New(w, logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         dbLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite has a single writer; one connection also keeps :memory: databases alive.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&model.Category{}, &model.Note{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	if err := seedDefaultCategory(db); err != nil {
		return nil, err
	}

	return db, nil
}

func seedDefaultCategory(db *gorm.DB) error {
	var existing model.Category
	err := db.First(&existing, model.DefaultCategoryID).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		def := model.Category{
			ID:    model.DefaultCategoryID,
			Name:  model.DefaultCategoryName,
			Color: model.DefaultCategoryColor,
		}
		if err := db.Create(&def).Error; err != nil {
			return fmt.Errorf("seed default category: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("find default category: %w", err)
	}
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// InTx runs fn in a transaction. Errors keep their kind; begin and commit
// failures are reported as storage failures.
func InTx(ctx context.Context, db *gorm.DB, op string, fn func(tx *gorm.DB) error) error {
	if err := db.WithContext(ctx).Transaction(fn); err != nil {
		return txErr(op, err)
	}
	return nil
}

// storageErr tags a database error as a storage failure, keeping the cause.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorageFailure, err)
}

// txErr passes classified errors through and tags anything else (begin or
// commit failures) as a storage failure.
func txErr(op string, err error) error {
	for _, kind := range []error{
		common.ErrNotFound, common.ErrInvalidArgument, common.ErrDuplicateName,
		common.ErrForbidden, common.ErrStorageFailure,
	} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return storageErr(op, err)
}
