package util

import (
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OpenDatabase opens a gorm connection for the configured driver.
// An empty sqlite DSN opens an in-memory database, which is what the
// tests and local development use.
func OpenDatabase(cfg *gorm.Config, driver, dsn string) (*gorm.DB, error) {
	if cfg == nil {
		cfg = &gorm.Config{}
	}
	switch driver {
	case "mysql":
		return gorm.Open(mysql.Open(dsn), cfg)
	case "pg", "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	if dsn == "" {
		dsn = "file::memory:"
	}
	return gorm.Open(sqlite.Open(dsn), cfg)
}
