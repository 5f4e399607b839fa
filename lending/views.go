package lending

import (
	"sort"
	"strings"
	"time"

	"Gin_postgres_redis_lend_ledger/models"
	"Gin_postgres_redis_lend_ledger/policy"
)

// Read-only projections. None of these mutate the session.

type Dashboard struct {
	ItemKinds      int `json:"itemKinds"`
	TotalUnits     int `json:"totalUnits"`
	AvailableUnits int `json:"availableUnits"`
	UnitsOnLoan    int `json:"unitsOnLoan"`
	ActiveLoans    int `json:"activeLoans"`
	OverdueLoans   int `json:"overdueLoans"`
	Borrowers      int `json:"borrowers"`
}

type LoanView struct {
	models.Loan
	Status      models.LoanStatus `json:"status"`
	DaysOverdue int               `json:"daysOverdue"`
}

type BorrowerSummary struct {
	models.Borrower
	Label       string `json:"label"`
	ActiveUnits int    `json:"activeUnits"`
}

type BorrowerDetail struct {
	BorrowerSummary
	History []LoanView `json:"history"`
}

func (s *Session) Dashboard() Dashboard {
	today := s.Today()
	d := Dashboard{ItemKinds: len(s.items), Borrowers: len(s.borrowers)}
	for _, it := range s.items {
		d.TotalUnits += it.Quantity
		d.AvailableUnits += it.Available
	}
	for _, l := range s.loans {
		if l.Returned {
			continue
		}
		d.UnitsOnLoan += l.Quantity
		if policy.IsOverdue(l, today) {
			d.OverdueLoans++
		} else {
			d.ActiveLoans++
		}
	}
	return d
}

func (s *Session) view(l models.Loan, today time.Time) LoanView {
	return LoanView{
		Loan:        copyLoan(l),
		Status:      policy.Status(l, today),
		DaysOverdue: policy.DaysOverdue(l, today),
	}
}

// SearchLoans filters by a borrower or item substring and a status. An empty
// status or "All" matches everything. Newest borrow first.
func (s *Session) SearchLoans(term string, status models.LoanStatus) []LoanView {
	today := s.Today()
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]LoanView, 0)
	for _, l := range s.loans {
		if term != "" &&
			!strings.Contains(strings.ToLower(l.BorrowerName), term) &&
			!strings.Contains(strings.ToLower(l.ItemName), term) {
			continue
		}
		v := s.view(l, today)
		if status != "" && status != "All" && v.Status != status {
			continue
		}
		out = append(out, v)
	}
	sortNewestFirst(out)
	return out
}

// TransactionLog is every loan, newest borrow first.
func (s *Session) TransactionLog() []LoanView {
	return s.SearchLoans("", "")
}

// BorrowerSummaries lists borrowers whose name contains q, by normalized name.
func (s *Session) BorrowerSummaries(q string) []BorrowerSummary {
	q = policy.NormalizeName(q)
	out := make([]BorrowerSummary, 0, len(s.borrowers))
	for _, b := range s.Borrowers() {
		if q != "" && !strings.Contains(b.Key, q) {
			continue
		}
		out = append(out, s.summary(b))
	}
	return out
}

func (s *Session) BorrowerDetail(name string) (BorrowerDetail, bool) {
	b, ok := s.Borrower(name)
	if !ok {
		return BorrowerDetail{}, false
	}
	today := s.Today()
	d := BorrowerDetail{BorrowerSummary: s.summary(b), History: make([]LoanView, 0)}
	for _, l := range s.loans {
		if policy.SameBorrower(l.BorrowerName, b.Key) {
			d.History = append(d.History, s.view(l, today))
		}
	}
	sortNewestFirst(d.History)
	return d, true
}

func (s *Session) summary(b models.Borrower) BorrowerSummary {
	return BorrowerSummary{
		Borrower:    b,
		Label:       policy.CreditScoreLabel(b.CreditScore),
		ActiveUnits: policy.ActiveUnitCount(b.Key, s.loans),
	}
}

func sortNewestFirst(vs []LoanView) {
	sort.SliceStable(vs, func(i, j int) bool {
		if !vs[i].BorrowDate.Equal(vs[j].BorrowDate) {
			return vs[i].BorrowDate.After(vs[j].BorrowDate)
		}
		return vs[i].ID > vs[j].ID
	})
}
