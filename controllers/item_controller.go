// controllers/item_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"Gin_postgres_redis_lend_ledger/app"
	"Gin_postgres_redis_lend_ledger/lending"
	"Gin_postgres_redis_lend_ledger/models"

	"github.com/gin-gonic/gin"
)

type ItemController struct{ *Srv }

func NewItemController(s *Srv) *ItemController { return &ItemController{Srv: s} }

type itemBody struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
	Quantity *int   `json:"quantity" binding:"required"`
}

func (b itemBody) input() lending.ItemInput {
	return lending.ItemInput{Name: b.Name, Category: b.Category, Quantity: *b.Quantity}
}

func itemID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid item id", "code": "invalid_request"})
		return 0, false
	}
	return id, true
}

// GET /api/items
func (ic *ItemController) ListItems(c *gin.Context) {
	var items []models.Item
	ic.Ledger.View(func(s *lending.Session) { items = s.Items() })
	c.JSON(http.StatusOK, app.H{"items": items})
}

// POST /api/items
func (ic *ItemController) CreateItem(c *gin.Context) {
	var in itemBody
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	it, err := ic.Ledger.AddItem(c.Request.Context(), in.input())
	if err != nil {
		ic.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

// PUT /api/items/:id
// 数量不能低于当前借出数
func (ic *ItemController) UpdateItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	var in itemBody
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	it, err := ic.Ledger.UpdateItem(c.Request.Context(), id, in.input())
	if err != nil {
		ic.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

// DELETE /api/items/:id
func (ic *ItemController) DeleteItem(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	if err := ic.Ledger.RemoveItem(c.Request.Context(), id); err != nil {
		ic.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}
