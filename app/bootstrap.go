// app/bootstrap.go
package app

import (
	"context"

	"Gin_postgres_redis_lend_ledger/config"

	"go.uber.org/zap"
)

// BootstrapFirstOperator creates the configured operator when the store has
// none. It is a no-op once any operator exists.
func BootstrapFirstOperator(ctx context.Context, cfg config.BootstrapConfig, auth *Authenticator, log *zap.Logger) error {
	n, err := auth.store.CountOperators(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil // 已经有操作员，跳过
	}
	if cfg.Username == "" || cfg.Password == "" {
		log.Warn("[BOOTSTRAP] no operator exists and bootstrap.username/password are not set; nobody can log in")
		return nil
	}

	op, err := auth.Register(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return err
	}
	log.Info("[BOOTSTRAP] created first operator", zap.String("username", op.Username))
	return nil
}
