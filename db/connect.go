package db

import (
	"fmt"
	"strings"

	"home-energy/confs"
	"home-energy/entities"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg confs.DatabaseConfig, log *zap.Logger) (Database, error) {
	log = log.Named("db")
	dialector, err := dialectorFor(cfg, log)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Warn),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// one writer at a time keeps sqlite from returning SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(0)
	}

	log.Info("database connection established", zap.String("driver", cfg.Driver))

	log.Info("running database migrations")
	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database migrations completed")

	return &GormDatabase{DB: db}, nil
}

// Migrate creates or updates every table the server uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entities.User{},
		&entities.Room{},
		&entities.Device{},
		&entities.HourlyEnergyRecord{},
		&entities.EnergySavingRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func dialectorFor(cfg confs.DatabaseConfig, log *zap.Logger) (gorm.Dialector, error) {
	if cfg.Driver == "sqlite" {
		log.Info("opening sqlite database", zap.String("path", cfg.SQLitePath))
		return sqlite.Open(cfg.SQLitePath), nil
	}

	var dsn string
	if cfg.URL != "" {
		dsn = cfg.URL
		// Hosted databases require TLS unless told otherwise
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		log.Info("connecting to database using DB_URL")
		return postgres.Open(dsn), nil
	}

	if cfg.Host == "" || cfg.User == "" || cfg.Password == "" || cfg.Name == "" {
		return nil, fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	sslMode := "require"
	if cfg.Host == "localhost" || cfg.Host == "127.0.0.1" {
		sslMode = "disable"
	}

	dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, sslMode)
	log.Info("connecting to database using individual parameters", zap.String("sslmode", sslMode))
	return postgres.Open(dsn), nil
}
