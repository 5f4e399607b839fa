package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"Gin_postgres_redis_lend_ledger/app"
	"Gin_postgres_redis_lend_ledger/lending"
	"Gin_postgres_redis_lend_ledger/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type LoanController struct{ *Srv }

func NewLoanController(s *Srv) *LoanController { return &LoanController{Srv: s} }

type borrowBody struct {
	BorrowerName string `json:"borrowerName"`
	Items        []struct {
		ItemID   int `json:"itemId"`
		Quantity int `json:"quantity"`
	} `json:"items"`
	DueInDays int `json:"dueInDays"`
	Contact   struct {
		Phone string `json:"phone" binding:"max=64"`
		Email string `json:"email" binding:"omitempty,email"`
	} `json:"contact"`
}

// POST /api/loans/borrow
// 一单可以借多种物品；全部通过才会借出
func (lc *LoanController) Borrow(c *gin.Context) {
	var in borrowBody
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	req := lending.BorrowRequest{
		BorrowerName: in.BorrowerName,
		DueInDays:    in.DueInDays,
		Contact:      models.ContactInfo{Phone: in.Contact.Phone, Email: in.Contact.Email},
	}
	for _, ln := range in.Items {
		req.Lines = append(req.Lines, lending.BorrowLine{ItemID: ln.ItemID, Quantity: ln.Quantity})
	}

	loans, err := lc.Ledger.Borrow(c.Request.Context(), req)
	if err != nil {
		lc.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"loans": loans})
}

type returnBody struct {
	Lines []struct {
		LoanID    int    `json:"loanId"`
		Quantity  int    `json:"quantity"`
		Condition string `json:"condition"`
		Notes     string `json:"notes" binding:"max=255"`
	} `json:"lines" binding:"dive"`
}

type scoreJSON struct {
	Before    int  `json:"before"`
	After     int  `json:"after"`
	Delta     int  `json:"delta"`
	Late      bool `json:"late"`
	DaysLate  int  `json:"daysLate"`
	Damaged   bool `json:"damaged"`
	Milestone bool `json:"milestone"`
}

type returnResult struct {
	LoanID    int          `json:"loanId"`
	OK        bool         `json:"ok"`
	Returned  *models.Loan `json:"returned,omitempty"`
	Remainder *models.Loan `json:"remainder,omitempty"`
	Score     *scoreJSON   `json:"score,omitempty"`
	Error     string       `json:"error,omitempty"`
	Code      string       `json:"code,omitempty"`
}

// POST /api/loans/return
// 逐行处理：某一行失败不影响其他行。至少一行成功返回 200，全部失败按第一条错误返回
func (lc *LoanController) Return(c *gin.Context) {
	var in returnBody
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	lines := make([]lending.ReturnLine, 0, len(in.Lines))
	for _, ln := range in.Lines {
		lines = append(lines, lending.ReturnLine{
			LoanID: ln.LoanID, Quantity: ln.Quantity, Condition: ln.Condition, Notes: ln.Notes,
		})
	}

	outs, err := lc.Ledger.ReturnLoans(c.Request.Context(), lines)
	if outs == nil {
		lc.respondErr(c, err)
		return
	}

	results := make([]returnResult, 0, len(outs))
	applied := 0
	var firstErr error
	for _, o := range outs {
		r := returnResult{LoanID: o.LoanID}
		if o.Err != nil {
			if firstErr == nil {
				firstErr = o.Err
			}
			r.Error = o.Err.Error()
			r.Code = lending.CodeOf(o.Err)
		} else {
			applied++
			r.OK = true
			r.Returned = o.Returned
			r.Remainder = o.Remainder
			r.Score = &scoreJSON{
				Before: o.Score.Before, After: o.Score.After, Delta: o.Score.Delta(),
				Late: o.Score.Late, DaysLate: o.Score.DaysLate,
				Damaged: o.Score.Damaged, Milestone: o.Score.Milestone,
			}
		}
		results = append(results, r)
	}

	st := http.StatusOK
	if applied == 0 {
		st = statusOf(firstErr)
	}
	c.JSON(st, app.H{"applied": applied, "failed": len(outs) - applied, "results": results})
}

// GET /api/loans?q=&status=All|Active|Overdue|Returned
func (lc *LoanController) ListLoans(c *gin.Context) {
	var in struct {
		Q      string `form:"q"`
		Status string `form:"status" binding:"omitempty,oneof=All Active Overdue Returned"`
	}
	if err := c.ShouldBindQuery(&in); err != nil {
		badRequest(c, err)
		return
	}
	var loans []lending.LoanView
	lc.Ledger.View(func(s *lending.Session) {
		loans = s.SearchLoans(in.Q, models.LoanStatus(in.Status))
	})
	c.JSON(http.StatusOK, app.H{"total": len(loans), "loans": loans})
}

// GET /api/loans/export
func (lc *LoanController) ExportLoans(c *gin.Context) {
	var loans []lending.LoanView
	lc.Ledger.View(func(s *lending.Session) { loans = s.TransactionLog() })

	name := fmt.Sprintf("transaction_log_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Status(http.StatusOK)

	if err := writeLoansCSV(c.Writer, loans); err != nil {
		lc.Log.Error("export loans", zap.Error(err), zap.String("trace_id", app.GetTraceID(c)))
	}
}

var csvHeader = []string{
	"ID", "Borrower", "Item", "Quantity", "Borrow Date", "Due Date",
	"Return Date", "Status", "Condition", "Notes", "Phone", "Email",
}

func writeLoansCSV(w http.ResponseWriter, loans []lending.LoanView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, l := range loans {
		ret, cond := "N/A", "N/A"
		if l.ReturnDate != nil {
			ret = l.ReturnDate.Format(dateLayout)
		}
		if l.ReturnCondition != "" {
			cond = string(l.ReturnCondition)
		}
		row := []string{
			strconv.Itoa(l.ID),
			l.BorrowerName,
			l.ItemName,
			strconv.Itoa(l.Quantity),
			l.BorrowDate.Format(dateLayout),
			l.DueDate.Format(dateLayout),
			ret,
			string(l.Status),
			cond,
			l.ReturnNotes,
			l.Contact.Phone,
			l.Contact.Email,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
