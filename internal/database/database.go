package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/config"
	logging "github.com/SciKit-Surgery/scikit-surgeryfred/internal/logging"
	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

// Open connects to the configured database and migrates the record tables.
func Open(conf config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch conf.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			conf.Host, conf.User, conf.Password, conf.DBName, conf.Port)
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(conf.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", conf.Driver)
	}

	gormLogger := logging.NewGormLogger(log)
	gormLogger.LogLevel = logger.Warn

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if conf.Driver == "sqlite" {
		// sqlite allows one writer; records are written from background goroutines.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("Database connection established successfully.", zap.String("driver", conf.Driver))
	if err := runMigrations(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func runMigrations(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&models.SessionRecord{},
		&models.TrialRecord{},
		&models.GameRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	gameIndex := `CREATE INDEX IF NOT EXISTS idx_game_records_session_time ON game_records (session_id, created_at);`
	if err := db.Exec(gameIndex).Error; err != nil {
		return fmt.Errorf("failed to create custom index on game records: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
