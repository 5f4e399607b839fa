package controllers

import (
	"errors"
	"net/http"

	"Gin_postgres_redis_lend_ledger/app"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	op, err := ac.Auth.Authenticate(ctx, in.Username, in.Password)
	if err != nil {
		ac.Log.Info("login failed", zap.String("username", in.Username), zap.String("ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, app.H{"error": err.Error(), "code": "invalid_credentials"})
		return
	}

	if err := ac.Logins.TouchOperatorLogin(ctx, op.ID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		ac.Log.Warn("record login", zap.String("operator_id", op.ID), zap.Error(err)) // 不阻塞登录
	}
	sid := uuid.NewString()
	if err := ac.AppSess.Create(ctx, sid, op.ID, op.Username); err != nil {
		ac.respondErr(c, err)
		return
	}
	ac.setAppCookie(c.Writer, sid, ac.AppSess.TTL())
	c.JSON(http.StatusOK, app.H{"ok": true, "operator": op})
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if sid := c.GetString(app.CtxSessionID); sid != "" {
		_ = ac.AppSess.Delete(c.Request.Context(), sid)
	}
	ac.setAppCookie(c.Writer, "", -1)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/auth/whoami
func (ac *AuthController) WhoAmI(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{
		"operatorID": c.GetString(app.CtxOperatorID),
		"username":   c.GetString(app.CtxUsername),
	})
}

// POST /api/auth/password
// 改密码后撤销该操作员所有会话，需要重新登录
func (ac *AuthController) ChangePassword(c *gin.Context) {
	var in struct {
		Current string `json:"currentPassword" binding:"required"`
		New     string `json:"newPassword" binding:"required"`
		Confirm string `json:"confirmPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	oid := c.GetString(app.CtxOperatorID)

	err := ac.Auth.ChangePassword(ctx, oid, in.Current, in.New, in.Confirm)
	switch {
	case errors.Is(err, app.ErrInvalidCredentials):
		c.JSON(http.StatusForbidden, app.H{"error": "current password is incorrect", "code": "invalid_credentials"})
		return
	case errors.Is(err, app.ErrPasswordMismatch), errors.Is(err, app.ErrWeakPassword):
		badRequest(c, err)
		return
	case err != nil:
		ac.respondErr(c, err)
		return
	}

	if err := ac.AppSess.RevokeAllForOperator(ctx, oid); err != nil {
		ac.Log.Warn("revoke sessions", zap.String("operator_id", oid), zap.Error(err))
	}
	ac.setAppCookie(c.Writer, "", -1)
	ac.Log.Info("password changed", zap.String("operator_id", oid))
	c.JSON(http.StatusOK, app.H{"ok": true})
}
