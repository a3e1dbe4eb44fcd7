// Package sqlite contains the concrete implementation of the persistence
// layer using GORM over an on-device SQLite file.
package sqlite

import (
	"context"
	"os"
	"path/filepath"

	"scanengine/config"
	"scanengine/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Params defines the dependencies for opening the database handle.
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
}

// New opens the on-device database and migrates the credential table.
// The handle is closed through the fx lifecycle.
func New(params Params) (*gorm.DB, error) {
	path := params.Config.Storage.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, errors.Wrap(err, "failed to create storage directory")
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open credential database")
	}

	if err := db.AutoMigrate(&model.CredentialModel{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate credential table")
	}

	params.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return errors.Wrap(err, "failed to access underlying connection")
			}

			return errors.Wrap(sqlDB.Close(), "failed to close credential database")
		},
	})

	return db, nil
}
