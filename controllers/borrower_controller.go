package controllers

import (
	"net/http"

	"Gin_postgres_redis_lend_ledger/app"
	"Gin_postgres_redis_lend_ledger/lending"

	"github.com/gin-gonic/gin"
)

type BorrowerController struct{ *Srv }

func NewBorrowerController(s *Srv) *BorrowerController { return &BorrowerController{Srv: s} }

// GET /api/borrowers?q=alice&page=1&size=20
func (bc *BorrowerController) ListBorrowers(c *gin.Context) {
	var in struct {
		Q    string `form:"q"`
		Page int    `form:"page,default=1" binding:"min=1,max=1000000"`
		Size int    `form:"size,default=20" binding:"min=1,max=200"`
	}
	if err := c.ShouldBindQuery(&in); err != nil {
		badRequest(c, err)
		return
	}

	var all []lending.BorrowerSummary
	bc.Ledger.View(func(s *lending.Session) { all = s.BorrowerSummaries(in.Q) })

	from, to := pageBounds(len(all), in.Page, in.Size)
	c.JSON(http.StatusOK, app.H{
		"total":     len(all),
		"page":      in.Page,
		"size":      in.Size,
		"borrowers": all[from:to],
	})
}

// GET /api/borrowers/:name
// 名字不区分大小写、忽略首尾空格
func (bc *BorrowerController) GetBorrower(c *gin.Context) {
	name := c.Param("name")
	var (
		d  lending.BorrowerDetail
		ok bool
	)
	bc.Ledger.View(func(s *lending.Session) { d, ok = s.BorrowerDetail(name) })
	if !ok {
		c.JSON(http.StatusNotFound, app.H{"error": "borrower not found", "code": "unknown_borrower"})
		return
	}
	c.JSON(http.StatusOK, d)
}

// pageBounds returns the slice bounds of page (1-based) without overflowing.
func pageBounds(n, page, size int) (from, to int) {
	if page < 1 || size < 1 {
		return n, n
	}
	pages := n / size
	if n%size != 0 {
		pages++
	}
	if page > pages {
		return n, n
	}
	from = (page - 1) * size
	to = from + size
	if to > n {
		to = n
	}
	return from, to
}
