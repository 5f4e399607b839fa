package controllers

import (
	"net/http"

	"Gin_postgres_redis_lend_ledger/app"
	"Gin_postgres_redis_lend_ledger/lending"
	"Gin_postgres_redis_lend_ledger/models"

	"github.com/gin-gonic/gin"
)

type SettingsController struct{ *Srv }

func NewSettingsController(s *Srv) *SettingsController { return &SettingsController{Srv: s} }

// GET /api/dashboard
func (sc *SettingsController) Dashboard(c *gin.Context) {
	var d lending.Dashboard
	sc.Ledger.View(func(s *lending.Session) { d = s.Dashboard() })
	c.JSON(http.StatusOK, d)
}

// GET /api/settings
func (sc *SettingsController) GetSettings(c *gin.Context) {
	var st models.Settings
	sc.Ledger.View(func(s *lending.Session) { st = s.Settings() })
	c.JSON(http.StatusOK, st)
}

// PUT /api/settings
func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	var in struct {
		MaxBorrowLimit int `json:"maxBorrowLimit"`
		DefaultDueDays int `json:"defaultDueDays"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	st, err := sc.Ledger.UpdateSettings(c.Request.Context(), models.Settings{
		MaxBorrowLimit: in.MaxBorrowLimit,
		DefaultDueDays: in.DefaultDueDays,
	})
	if err != nil {
		sc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "settings": st})
}
