package storage

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/errors"
)

// Open opens the SQLite database at the given path and migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.KindStorage, "storage.open", "failed to create data directory", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.open", "failed to open database", err)
	}

	if err := db.AutoMigrate(&AnalysisRecord{}); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.migrate", "failed to migrate schema", err)
	}
	return db, nil
}
