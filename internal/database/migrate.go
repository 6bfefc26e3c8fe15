package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prabhucts/pmo/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(
		// work item hierarchy
		&models.Project{},
		&models.Epic{},
		&models.Feature{},
		&models.UserStory{},
		&models.Defect{},

		// capacity
		&models.Team{},
		&models.TeamMember{},
		&models.TeamAllocation{},
		&models.TimeEntry{},
		&models.Sprint{},

		// rules and outputs
		&models.BusinessRule{},
		&models.Insight{},
		&models.ChatHistory{},
	); err != nil {
		var pgErr *pgconn.PgError
		if ok := errors.As(err, &pgErr); ok {
			log.Error("migration failed", zap.String("pg_code", pgErr.Code), zap.Error(err))
		} else {
			log.Error("migration failed", zap.Error(err))
		}
		return err
	}

	log.Info("migration completed")
	return nil
}
