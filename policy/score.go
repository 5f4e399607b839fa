package policy

import "Gin_postgres_redis_lend_ledger/models"

// ScoreChange describes what a return event did to a borrower.
type ScoreChange struct {
	Late      bool
	DaysLate  int
	Damaged   bool
	Milestone bool
	Before    int
	After     int
}

func (c ScoreChange) Delta() int { return c.After - c.Before }

// NewBorrower builds the record created on a borrower's first borrow.
func NewBorrower(name string, contact models.ContactInfo) models.Borrower {
	return models.Borrower{
		Key:         NormalizeName(name),
		Name:        name,
		CreditScore: models.InitialCreditScore,
		Contact:     contact,
	}
}

// ApplyBorrow counts the borrowing. The score itself only moves at return time.
func ApplyBorrow(b *models.Borrower) {
	b.TotalBorrowings++
}

// ApplyReturn scores one finalized return. Each adjustment is clamped to
// [0,100] as it is applied.
func ApplyReturn(b *models.Borrower, loan models.Loan) ScoreChange {
	ch := ScoreChange{Before: b.CreditScore}

	if days := DaysLate(loan); days > 0 {
		ch.Late = true
		ch.DaysLate = days
		b.LateReturns++
		b.CreditScore = clamp(b.CreditScore + LatePenalty(days))
	} else {
		b.OnTimeReturns++
		b.CreditScore = clamp(b.CreditScore + onTimeBonus)
	}

	switch {
	case loan.ReturnCondition.Harmful():
		ch.Damaged = true
		b.DamagedItems++
		b.CreditScore = clamp(b.CreditScore - damagePenalty)
	case loan.ReturnCondition == models.ConditionExcellent:
		b.CreditScore = clamp(b.CreditScore + excellentBonus)
	}

	if !b.MilestoneAwarded && b.TotalBorrowings == milestoneTarget &&
		b.LateReturns == 0 && b.DamagedItems == 0 {
		ch.Milestone = true
		b.MilestoneAwarded = true
		b.CreditScore = clamp(b.CreditScore + milestoneBonus)
	}

	ch.After = b.CreditScore
	return ch
}

func clamp(score int) int {
	if score < models.MinCreditScore {
		return models.MinCreditScore
	}
	if score > models.MaxCreditScore {
		return models.MaxCreditScore
	}
	return score
}
