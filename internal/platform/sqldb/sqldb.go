package sqldb

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/worksgraph/internal/domain"
	"github.com/yungbote/worksgraph/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// Quiet silences gorm's own statement logging.
	Quiet bool `yaml:"quiet"`
}

func Open(cfg Config, logg *logger.Logger) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, &domain.ConfigurationError{Key: "sql.dsn", Reason: "required"}
	}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, &domain.ConfigurationError{Key: "sql.driver", Reason: fmt.Sprintf("unsupported driver %q", cfg.Driver)}
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	if cfg.Quiet {
		gormLog = gormLogger.Default.LogMode(gormLogger.Silent)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, domain.NewPersistenceError("sqldb: open "+cfg.Driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, domain.NewPersistenceError("sqldb: pool", err)
	}
	if dialector.Name() == DriverSQLite {
		// One writer; also keeps shared-cache in-memory databases alive.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, domain.NewPersistenceError("sqldb: ping", err)
	}
	if logg != nil {
		logg.Info("sql store connected", "driver", cfg.Driver, "dsn", dsn)
	}
	return db, nil
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
