package database

import (
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

type Options struct {
	// Silent disables gorm's SQL logging.
	Silent bool
	// MaxOpenConns caps the pool; zero keeps the driver default.
	MaxOpenConns int
}

func Connect(dsn string) (*gorm.DB, error) {
	return ConnectWith(dsn, Options{})
}

func ConnectWith(dsn string, opts Options) (*gorm.DB, error) {
	cfg := &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	if opts.Silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	var (
		db  *gorm.DB
		err error
	)
	if IsPostgres(dsn) {
		log.Println("Connecting to PostgreSQL...")
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		log.Println("Using SQLite for local development:", dsn)
		db, err = gorm.Open(
			gormsqlite.New(gormsqlite.Config{
				DriverName: "sqlite",
				DSN:        dsn,
			}),
			cfg,
		)
	}
	if err != nil {
		return nil, err
	}

	if opts.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}

	return db, nil
}

func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
