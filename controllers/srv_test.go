package controllers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"Gin_postgres_redis_lend_ledger/lending"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{lending.ErrInvalidRequest, http.StatusBadRequest},
		{lending.ErrInvalidQuantity, http.StatusBadRequest},
		{lending.ErrUnknownItem, http.StatusNotFound},
		{lending.ErrUnknownLoan, http.StatusNotFound},
		{lending.ErrInsufficientStock, http.StatusConflict},
		{lending.ErrBorrowLimitExceeded, http.StatusConflict},
		{lending.ErrCapacityViolation, http.StatusConflict},
		{lending.ErrItemInUse, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", &lending.Error{Kind: lending.ErrItemInUse}), http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestRespondErr_HidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := &Srv{Log: zap.NewNop()}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	s.respondErr(c, fmt.Errorf("persist borrow: %w", errors.New("connection refused")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Len(t, c.Errors, 1)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	s.respondErr(c, &lending.Error{Kind: lending.ErrItemInUse, Message: "3 units of item 2 are out", ItemID: 2})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"item_in_use"`)
	assert.Contains(t, w.Body.String(), `"itemId":2`)
}

func TestPageBounds(t *testing.T) {
	cases := []struct {
		n, page, size int
		from, to      int
	}{
		{3, 1, 2, 0, 2},
		{3, 2, 2, 2, 3},
		{3, 3, 2, 3, 3},
		{0, 1, 20, 0, 0},
		{3, math.MaxInt, 2, 3, 3},
		{3, 2, math.MaxInt, 3, 3},
		{3, 0, 2, 3, 3},
	}
	for _, tc := range cases {
		from, to := pageBounds(tc.n, tc.page, tc.size)
		assert.Equal(t, tc.from, from, "n=%d page=%d size=%d", tc.n, tc.page, tc.size)
		assert.Equal(t, tc.to, to, "n=%d page=%d size=%d", tc.n, tc.page, tc.size)
	}
}
