// Package policy holds the lending rules: overdue classification, due dates,
// borrow-limit arithmetic and credit scoring. Every function is pure; callers
// pass in the records and the current date and get a decision back.
package policy

import (
	"strings"
	"time"

	"Gin_postgres_redis_lend_ledger/models"
)

const (
	onTimeBonus     = 5
	excellentBonus  = 2
	damagePenalty   = 50
	milestoneBonus  = 25
	milestoneTarget = 10
)

// NormalizeName is the one borrower identity rule: trimmed and lower-cased.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SameBorrower compares two free-text names by their normalized form.
func SameBorrower(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// Today turns a wall-clock instant into its calendar date, stored as UTC midnight.
func Today(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// DateOf normalizes a stored date value back to UTC midnight.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DueDate returns today plus the loan period in days.
func DueDate(today time.Time, days int) time.Time {
	return DateOf(today).AddDate(0, 0, days)
}

// DaysBetween counts whole calendar days from a to b (negative when b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// IsOverdue is false for returned loans and on the due date itself.
func IsOverdue(loan models.Loan, today time.Time) bool {
	if loan.Returned {
		return false
	}
	return DateOf(today).After(DateOf(loan.DueDate))
}

func DaysOverdue(loan models.Loan, today time.Time) int {
	if !IsOverdue(loan, today) {
		return 0
	}
	return DaysBetween(loan.DueDate, today)
}

// Status classifies a loan for display. Overdue is never stored.
func Status(loan models.Loan, today time.Time) models.LoanStatus {
	switch {
	case loan.Returned:
		return models.StatusReturned
	case IsOverdue(loan, today):
		return models.StatusOverdue
	default:
		return models.StatusActive
	}
}

// DaysLate measures a returned loan against its due date using the recorded
// return date, so the result does not depend on when it is evaluated.
func DaysLate(loan models.Loan) int {
	if !loan.Returned || loan.ReturnDate == nil {
		return 0
	}
	if d := DaysBetween(loan.DueDate, *loan.ReturnDate); d > 0 {
		return d
	}
	return 0
}

// LatePenalty is the (negative) score change for returning days late.
func LatePenalty(days int) int {
	switch {
	case days <= 0:
		return 0
	case days == 1:
		return -10
	case days <= 3:
		return -15
	case days <= 7:
		return -20
	default:
		return -25
	}
}

// ActiveUnitCount sums the quantity of the borrower's unreturned loans.
func ActiveUnitCount(name string, loans []models.Loan) int {
	key := NormalizeName(name)
	n := 0
	for _, l := range loans {
		if !l.Returned && NormalizeName(l.BorrowerName) == key {
			n += l.Quantity
		}
	}
	return n
}

// ExceedsLimit reports whether adding requested units breaks the ceiling.
func ExceedsLimit(outstanding, requested, limit int) bool {
	return requested > limit-outstanding
}

// CreditScoreLabel is presentation only; nothing is gated on it.
func CreditScoreLabel(score int) string {
	switch {
	case score >= 70:
		return "Excellent"
	case score >= 40:
		return "Fair"
	default:
		return "Poor"
	}
}
