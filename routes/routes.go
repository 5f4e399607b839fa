package routes

import (
	"net/http"

	"Gin_postgres_redis_lend_ledger/app"
	"Gin_postgres_redis_lend_ledger/controllers"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)
	cfg := a.Config.Server

	// 复用的中间件
	authMW := app.AuthRequired(a.AppSessions(), a.Repo)
	seenMW := app.TouchLastSeen(a.Repo, a.RDB, cfg.SeenThrottle)
	loginRL := app.RateLimit(rate.Limit(cfg.LoginRateRPS), cfg.LoginRateBurst)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(a.Metrics.Handler()))

	Register(r.Group("/api"), s, loginRL, authMW, seenMW)
}

// Register mounts the API on g. Split out so tests can pass their own middleware.
func Register(g *gin.RouterGroup, s *controllers.Srv, loginRL gin.HandlerFunc, protect ...gin.HandlerFunc) {
	ac := controllers.NewAuthController(s)
	ic := controllers.NewItemController(s)
	lc := controllers.NewLoanController(s)
	bc := controllers.NewBorrowerController(s)
	sc := controllers.NewSettingsController(s)

	// ------------------------------
	// 登录（公开，限流）
	// ------------------------------
	g.POST("/auth/login", loginRL, ac.Login)

	p := g.Group("", protect...)

	auth := p.Group("/auth")
	{
		auth.POST("/logout", ac.Logout)
		auth.GET("/whoami", ac.WhoAmI)
		auth.POST("/password", ac.ChangePassword)
	}

	items := p.Group("/items")
	{
		items.GET("", ic.ListItems)
		items.POST("", ic.CreateItem)
		items.PUT("/:id", ic.UpdateItem)
		items.DELETE("/:id", ic.DeleteItem)
	}

	// ------------------------------
	// 借还
	// ------------------------------
	loans := p.Group("/loans")
	{
		loans.GET("", lc.ListLoans) // ?q=&status=All|Active|Overdue|Returned
		loans.GET("/export", lc.ExportLoans)
		loans.POST("/borrow", lc.Borrow)
		loans.POST("/return", lc.Return)
	}

	borrowers := p.Group("/borrowers")
	{
		borrowers.GET("", bc.ListBorrowers) // ?q=&page=&size=
		borrowers.GET("/:name", bc.GetBorrower)
	}

	p.GET("/dashboard", sc.Dashboard)
	p.GET("/settings", sc.GetSettings)
	p.PUT("/settings", sc.UpdateSettings)
}
