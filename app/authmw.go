package app

import (
	"context"
	"net/http"

	"Gin_postgres_redis_lend_ledger/models"
	"Gin_postgres_redis_lend_ledger/session"

	"github.com/gin-gonic/gin"
)

const (
	AppSessionCookie = "app_session"

	CtxOperatorID = "operatorID"
	CtxUsername   = "username"
	CtxSessionID  = "sessionID"
)

// SessionGetter is implemented by *session.AppSessionStore.
type SessionGetter interface {
	Get(ctx context.Context, id string) (*session.AppSession, error)
	Delete(ctx context.Context, id string) error
}

// OperatorFinder is implemented by *db.Repo.
type OperatorFinder interface {
	FindOperatorByID(ctx context.Context, id string) (*models.Operator, error)
}

func AuthRequired(sessions SessionGetter, ops OperatorFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AppSessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized", "code": "unauthorized"})
			return
		}
		as, err := sessions.Get(c.Request.Context(), ck.Value)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session", "code": "unauthorized"})
			return
		}

		// 确认操作员还在（账号可能被删）
		op, err := ops.FindOperatorByID(c.Request.Context(), as.OperatorID)
		if err != nil {
			_ = sessions.Delete(c.Request.Context(), ck.Value)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized", "code": "unauthorized"})
			return
		}
		c.Set(CtxOperatorID, op.ID)
		c.Set(CtxUsername, op.Username)
		c.Set(CtxSessionID, ck.Value)

		c.Next()
	}
}
