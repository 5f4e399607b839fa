package app

import (
	"context"
	"fmt"
	"time"

	"Gin_postgres_redis_lend_ledger/config"
	"Gin_postgres_redis_lend_ledger/db"
	"Gin_postgres_redis_lend_ledger/lending"
	"Gin_postgres_redis_lend_ledger/metrics"
	"Gin_postgres_redis_lend_ledger/models"
	"Gin_postgres_redis_lend_ledger/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router  *gin.Engine
	DB      *gorm.DB
	RDB     *redis.Client
	Repo    *db.Repo
	Ledger  *lending.Service
	Auth    *Authenticator
	Metrics *metrics.Collector
	Log     *zap.Logger
	Config  *config.Config

	appSess *session.AppSessionStore
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

// openDB is swapped in tests.
var openDB = db.Open

func closeDB(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewLogger picks the development encoder in debug mode.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := NewLogger(cfg.Server.Debug)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- DB ---
	conn, err := openDB(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	repo := db.NewRepo(conn)

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})

	// 后面任何一步失败都要把已经打开的连接关掉
	ok := false
	defer func() {
		if !ok {
			_ = rdb.Close()
			_ = closeDB(conn)
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	// --- Ledger ---
	mc := metrics.New()
	seed := []models.Item(nil)
	if cfg.Lending.SeedItems {
		seed = lending.SeedItems()
	}
	ledger, err := lending.NewService(ctx, repo,
		lending.WithLogger(log.Named("ledger")),
		lending.WithMetrics(mc),
		lending.WithSeed(models.Settings{
			MaxBorrowLimit: cfg.Lending.MaxBorrowLimit,
			DefaultDueDays: cfg.Lending.DefaultDueDays,
		}, seed),
	)
	if err != nil {
		return nil, err
	}

	auth := NewAuthenticator(repo)
	if err := BootstrapFirstOperator(ctx, cfg.Bootstrap, auth, log); err != nil {
		return nil, fmt.Errorf("bootstrap operator: %w", err)
	}

	// --- Gin ---
	r := gin.New()
	r.Use(TraceID(), RequestLogger(log), Recovery(log))
	useCORS(r, cfg.Server.WebOrigin)

	ok = true
	return &App{
		Router: r, DB: conn, RDB: rdb, Repo: repo,
		Ledger: ledger, Auth: auth, Metrics: mc, Log: log, Config: cfg,
		appSess: session.NewAppSessionStore(rdb, cfg.Server.SessionTTL),
	}, nil
}

func MustNew(cfg *config.Config) *App {
	a, err := New(context.Background(), cfg)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *App) Close() error {
	var err error
	err = multierr.Append(err, a.RDB.Close())
	err = multierr.Append(err, closeDB(a.DB))
	_ = a.Log.Sync()
	return err
}
