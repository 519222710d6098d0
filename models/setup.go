package models

import (
	"fmt"
	"log/slog"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gatekeeperhq/gatekeeper/config"
)

type Database struct {
	GormDB *gorm.DB
}

var DB *Database

// ConnectDatabase opens the configured database and runs schema migrations.
// It panics on failure; the service cannot run without its store.
func ConnectDatabase(cfg config.DatabaseConfig) {
	gormLogger := slogGorm.New(
		slogGorm.WithHandler(slog.Default().Handler()),
		slogGorm.SetLogLevel(slogGorm.DefaultLogType, slog.LevelDebug),
	)

	var dialector gorm.Dialector
	switch cfg.Type {
	case "postgres":
		dialector = postgres.Open(cfg.URL)
	case "sqlite":
		dialector = sqlite.Open(cfg.Sqlite.Path)
	default:
		panic(fmt.Sprintf("unsupported database type: %s", cfg.Type))
	}

	database, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		// duplicate-key errors surface as gorm.ErrDuplicatedKey across drivers
		TranslateError: true,
	})
	if err != nil {
		panic("Failed to connect to database!")
	}

	err = database.AutoMigrate(&Token{}, &TokenUsage{})
	if err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}

	DB = &Database{GormDB: database}

	slog.Info("database connected", "type", cfg.Type)
}
