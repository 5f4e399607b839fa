package lending

import (
	"fmt"
	"math"
	"strings"

	"Gin_postgres_redis_lend_ledger/models"
	"Gin_postgres_redis_lend_ledger/policy"

	"go.uber.org/multierr"
)

type BorrowLine struct {
	ItemID   int
	Quantity int
}

// BorrowRequest is one checkout. DueInDays == 0 means the configured default.
type BorrowRequest struct {
	BorrowerName string
	Lines        []BorrowLine
	DueInDays    int
	Contact      models.ContactInfo
}

// ReturnLine closes (part of) one open loan. An empty Condition means Good.
type ReturnLine struct {
	LoanID    int
	Quantity  int
	Condition string
	Notes     string
}

// ReturnOutcome is the per-line result of ReturnLoans. Err is set when the
// line was rejected; Returned and Remainder are set when it was applied.
type ReturnOutcome struct {
	LoanID    int
	Returned  *models.Loan
	Remainder *models.Loan
	Score     policy.ScoreChange
	Err       error
}

// Loan returns a copy of one loan record.
func (s *Session) Loan(id int) (models.Loan, bool) {
	i, ok := s.findLoan(id)
	if !ok {
		return models.Loan{}, false
	}
	return copyLoan(s.loans[i]), true
}

// Loans returns every loan in id order.
func (s *Session) Loans() []models.Loan {
	out := make([]models.Loan, len(s.loans))
	for i, l := range s.loans {
		out[i] = copyLoan(l)
	}
	return out
}

func (s *Session) findLoan(id int) (int, bool) {
	for i := range s.loans {
		if s.loans[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Session) nextLoanID() int {
	id := 0
	for _, l := range s.loans {
		if l.ID > id {
			id = l.ID
		}
	}
	return id + 1
}

// Borrow validates the whole batch, then reserves stock and appends one loan
// per line. On error nothing has changed.
func (s *Session) Borrow(req BorrowRequest) ([]models.Loan, error) {
	name := strings.TrimSpace(req.BorrowerName)
	if name == "" {
		return nil, invalid("borrower name is required")
	}
	if len(req.Lines) == 0 {
		return nil, invalid("select at least one item")
	}
	if req.DueInDays < 0 {
		return nil, invalid("due in days cannot be negative")
	}
	days := req.DueInDays
	if days == 0 {
		days = s.settings.DefaultDueDays
	}

	// 同一物品在一单里出现多次时合并计算
	perItem := make(map[int]int, len(req.Lines))
	order := make([]int, 0, len(req.Lines))
	total := 0
	for _, ln := range req.Lines {
		if ln.Quantity < 1 {
			return nil, invalidQuantity(ln.Quantity, "quantity for item %d must be at least 1", ln.ItemID)
		}
		if _, ok := s.findItem(ln.ItemID); !ok {
			return nil, unknownItem(ln.ItemID)
		}
		if _, seen := perItem[ln.ItemID]; !seen {
			order = append(order, ln.ItemID)
		}
		perItem[ln.ItemID] = addCapped(perItem[ln.ItemID], ln.Quantity)
		total = addCapped(total, ln.Quantity)
	}

	outstanding := policy.ActiveUnitCount(name, s.loans)
	if policy.ExceedsLimit(outstanding, total, s.settings.MaxBorrowLimit) {
		return nil, limitExceeded(outstanding, total, s.settings.MaxBorrowLimit)
	}

	for _, id := range order {
		i, _ := s.findItem(id)
		it := s.items[i]
		if perItem[id] > it.Available {
			return nil, insufficientStock(it.ID, it.Name, perItem[id], it.Available)
		}
	}

	today := s.Today()
	due := policy.DueDate(today, days)
	created := make([]models.Loan, 0, len(req.Lines))
	for _, ln := range req.Lines {
		if err := s.Reserve(ln.ItemID, ln.Quantity); err != nil {
			// 校验后不应发生；调用方会丢弃整个 session
			return nil, fmt.Errorf("borrow commit: %w", err)
		}
		it, _ := s.Item(ln.ItemID)
		loan := models.Loan{
			ID:           s.nextLoanID(),
			BorrowerName: name,
			ItemID:       it.ID,
			ItemName:     it.Name,
			Quantity:     ln.Quantity,
			BorrowDate:   today,
			DueDate:      due,
			Contact:      req.Contact,
		}
		s.loans = append(s.loans, loan)
		s.recordBorrow(name, req.Contact)
		created = append(created, copyLoan(loan))
	}
	return created, nil
}

// addCapped sums two non-negative quantities, saturating at math.MaxInt.
func addCapped(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// ReturnLoans applies each line independently. A rejected line does not undo
// the lines before it; every rejection is reported in its outcome and in the
// combined error.
func (s *Session) ReturnLoans(lines []ReturnLine) ([]ReturnOutcome, error) {
	if len(lines) == 0 {
		return nil, invalid("select at least one loan to return")
	}
	outs := make([]ReturnOutcome, 0, len(lines))
	var errs error
	for _, ln := range lines {
		out := s.returnOne(ln)
		if out.Err != nil {
			errs = multierr.Append(errs, out.Err)
		}
		outs = append(outs, out)
	}
	return outs, errs
}

func (s *Session) returnOne(ln ReturnLine) ReturnOutcome {
	out := ReturnOutcome{LoanID: ln.LoanID}

	idx, ok := s.findLoan(ln.LoanID)
	if !ok || s.loans[idx].Returned {
		out.Err = unknownLoan(ln.LoanID)
		return out
	}
	loan := s.loans[idx]
	if ln.Quantity < 1 || ln.Quantity > loan.Quantity {
		out.Err = invalidQuantity(ln.Quantity, "return quantity must be between 1 and %d", loan.Quantity)
		return out
	}
	cond, ok := models.ParseCondition(ln.Condition)
	if !ok {
		out.Err = invalid("unknown condition %q", ln.Condition)
		return out
	}
	if _, ok := s.findItem(loan.ItemID); !ok {
		out.Err = unknownItem(loan.ItemID)
		return out
	}

	today := s.Today()
	if ln.Quantity < loan.Quantity {
		rem := models.Loan{
			ID:           s.nextLoanID(),
			BorrowerName: loan.BorrowerName,
			ItemID:       loan.ItemID,
			ItemName:     loan.ItemName,
			Quantity:     loan.Quantity - ln.Quantity,
			BorrowDate:   loan.BorrowDate,
			DueDate:      loan.DueDate,
			Contact:      loan.Contact,
		}
		s.loans = append(s.loans, rem)
		out.Remainder = &rem
	}

	l := &s.loans[idx]
	l.Quantity = ln.Quantity
	l.Returned = true
	l.ReturnDate = &today
	l.ReturnCondition = cond
	l.ReturnNotes = strings.TrimSpace(ln.Notes)
	l.ReturnQuantity = ln.Quantity

	_ = s.Release(l.ItemID, ln.Quantity) // item presence checked above

	b := s.ensureBorrower(l.BorrowerName, l.Contact)
	out.Score = policy.ApplyReturn(b, *l)

	final := copyLoan(*l)
	out.Returned = &final
	return out
}
