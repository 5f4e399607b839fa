// controllers/srv.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"Gin_postgres_redis_lend_ledger/app"
	"Gin_postgres_redis_lend_ledger/lending"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionStore is implemented by *session.AppSessionStore.
type SessionStore interface {
	Create(ctx context.Context, id, operatorID, username string) error
	Delete(ctx context.Context, id string) error
	RevokeAllForOperator(ctx context.Context, operatorID string) error
	TTL() time.Duration
}

// LoginRecorder is implemented by *db.Repo.
type LoginRecorder interface {
	TouchOperatorLogin(ctx context.Context, operatorID, ip, ua string) error
}

type Srv struct {
	Ledger       *lending.Service
	Auth         *app.Authenticator
	Logins       LoginRecorder
	AppSess      SessionStore
	SecureCookie bool
	Log          *zap.Logger
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Ledger:       a.Ledger,
		Auth:         a.Auth,
		Logins:       a.Repo,
		AppSess:      a.AppSessions(),
		SecureCookie: a.Config.Server.SecureCookies(),
		Log:          a.Log,
	}
}

// --- helpers ---

// 统一设置业务会话 Cookie；maxAge < 0 表示删除
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	age := int(maxAge / time.Second)
	if maxAge < 0 {
		age = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.SecureCookie,
		MaxAge:   age,
	})
}

// statusOf maps a ledger failure kind to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, lending.ErrInvalidRequest), errors.Is(err, lending.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, lending.ErrUnknownItem), errors.Is(err, lending.ErrUnknownLoan):
		return http.StatusNotFound
	case errors.Is(err, lending.ErrInsufficientStock),
		errors.Is(err, lending.ErrBorrowLimitExceeded),
		errors.Is(err, lending.ErrCapacityViolation),
		errors.Is(err, lending.ErrItemInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errBody renders one error. Ledger errors carry their counts in "detail".
func errBody(err error) app.H {
	h := app.H{"error": err.Error(), "code": lending.CodeOf(err)}
	var le *lending.Error
	if errors.As(err, &le) {
		h["error"] = le.Message
		h["detail"] = le
	}
	return h
}

func (s *Srv) respondErr(c *gin.Context, err error) {
	st := statusOf(err)
	if st == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(st, app.H{"error": "internal server error", "code": "internal"})
		return
	}
	c.JSON(st, errBody(err))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, app.H{"error": err.Error(), "code": "invalid_request"})
}
