package db

import (
	"fmt"
	"time"

	"Gin_postgres_redis_lend_ledger/config"
	"Gin_postgres_redis_lend_ledger/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	ModePostgres = "postgres"
	ModeSQLite   = "sqlite"
)

// Open connects according to cfg.Mode and runs migrations. SQL is logged
// through zl: slow queries and errors always, every query when LogQueries is set.
func Open(cfg config.DatabaseConfig, zl *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Mode {
	case ModePostgres:
		dialector = postgres.Open(cfg.DSN)
	case ModeSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}

	level := logger.Warn
	if cfg.LogQueries {
		level = logger.Info
	}
	gl := logger.New(zap.NewStdLog(zl.Named("gorm")), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})

	conn, err := gorm.Open(dialector, &gorm.Config{Logger: gl})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Mode, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Mode == ModeSQLite {
		// 单写者；:memory: 库也必须只用一条连接
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpen > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpen)
		}
		if cfg.MaxIdle > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdle)
		}
		if cfg.MaxLife > 0 {
			sqlDB.SetConnMaxLifetime(cfg.MaxLife)
		}
	}

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Operator{}, &models.Item{}, &models.Loan{}, &models.Borrower{}, &models.Settings{}); err != nil {
		return err
	}

	// 借阅上限检查：按借用人汇总未归还数量
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_by_borrower
	  ON %s (borrower_name)
	  WHERE returned = FALSE;
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	// 逾期列表
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_due
	  ON %s (due_date)
	  WHERE returned = FALSE;
	`, models.LoanTable, models.LoanTable)).Error; err != nil {
		return err
	}

	return nil
}
