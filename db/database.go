package db

import (
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is the persistence handle shared by every repository.
type Database interface {
	GetDB() *gorm.DB
}

type GormDatabase struct {
	DB *gorm.DB
}

func (g *GormDatabase) GetDB() *gorm.DB { return g.DB }

// Wrap exposes an already opened gorm handle as a Database.
func Wrap(db *gorm.DB) Database { return &GormDatabase{DB: db} }

// OpenMemory opens a private in-memory sqlite database and migrates it.
// name must be unique per caller so parallel tests do not share state.
func OpenMemory(name string) (Database, error) {
	dsn := "file:" + strings.NewReplacer("/", "_", " ", "_").Replace(name) + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return Wrap(gdb), nil
}
