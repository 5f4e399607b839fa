package lending

import (
	"errors"
	"math"
	"testing"
	"time"

	"Gin_postgres_redis_lend_ledger/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

var start = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func newTestSession(t *testing.T, limit int) (*Session, *FixedClock) {
	t.Helper()
	clock := NewFixedClock(start)
	s := NewSession(&Snapshot{
		Items:    SeedItems(),
		Settings: models.Settings{MaxBorrowLimit: limit, DefaultDueDays: 7},
	}, clock)
	return s, clock
}

// assertConsistent checks quantity − available against the open loans.
func assertConsistent(t *testing.T, s *Session) {
	t.Helper()
	for _, it := range s.Items() {
		assert.GreaterOrEqual(t, it.Available, 0, "item %d", it.ID)
		assert.LessOrEqual(t, it.Available, it.Quantity, "item %d", it.ID)
		assert.Equal(t, s.outstandingUnits(it.ID), it.Quantity-it.Available, "item %d", it.ID)
	}
}

func borrowOne(t *testing.T, s *Session, name string, itemID, qty int) models.Loan {
	t.Helper()
	loans, err := s.Borrow(BorrowRequest{BorrowerName: name, Lines: []BorrowLine{{ItemID: itemID, Quantity: qty}}})
	require.NoError(t, err)
	require.Len(t, loans, 1)
	return loans[0]
}

func TestBorrow_ExactlyAvailableSucceeds(t *testing.T) {
	s, _ := newTestSession(t, 20)

	loan := borrowOne(t, s, "Alice", 1, 5)

	it, _ := s.Item(1)
	assert.Equal(t, 0, it.Available)
	assert.Equal(t, 1, loan.ID)
	assert.Equal(t, "Chef Knife", loan.ItemName)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), loan.DueDate)
	assertConsistent(t, s)
}

func TestBorrow_OverAvailableMutatesNothing(t *testing.T) {
	s, _ := newTestSession(t, 20)
	before := s.Snapshot()

	_, err := s.Borrow(BorrowRequest{
		BorrowerName: "Alice",
		Lines:        []BorrowLine{{ItemID: 2, Quantity: 1}, {ItemID: 1, Quantity: 6}},
	})

	require.ErrorIs(t, err, ErrInsufficientStock)
	var le *Error
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 6, le.Requested)
	assert.Equal(t, 5, le.Available)
	assert.Equal(t, before, s.Snapshot())
	_, ok := s.Borrower("alice")
	assert.False(t, ok, "no borrower record on a rejected borrow")
}

func TestBorrow_AggregatesRepeatedItem(t *testing.T) {
	s, _ := newTestSession(t, 20)

	_, err := s.Borrow(BorrowRequest{
		BorrowerName: "Alice",
		Lines:        []BorrowLine{{ItemID: 1, Quantity: 3}, {ItemID: 1, Quantity: 3}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	it, _ := s.Item(1)
	assert.Equal(t, 5, it.Available)
}

func TestBorrow_LimitReached(t *testing.T) {
	s, _ := newTestSession(t, 5)
	borrowOne(t, s, "Alice", 2, 3)
	borrowOne(t, s, " ALICE ", 3, 2)
	before := s.Snapshot()

	_, err := s.Borrow(BorrowRequest{BorrowerName: "alice", Lines: []BorrowLine{{ItemID: 4, Quantity: 1}}})

	require.ErrorIs(t, err, ErrBorrowLimitExceeded)
	var le *Error
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 5, le.Current)
	assert.Equal(t, 5, le.Limit)
	assert.Equal(t, before, s.Snapshot())

	// someone else is unaffected
	borrowOne(t, s, "Bob", 4, 1)
}

func TestBorrow_HugeQuantitiesDoNotWrap(t *testing.T) {
	lines := []BorrowLine{
		{ItemID: 1, Quantity: 5},
		{ItemID: 2, Quantity: 5},
		{ItemID: 3, Quantity: math.MaxInt},
		{ItemID: 3, Quantity: math.MaxInt - 3},
	}

	t.Run("limit", func(t *testing.T) {
		s, _ := newTestSession(t, 5)
		before := s.Snapshot()

		_, err := s.Borrow(BorrowRequest{BorrowerName: "Mallory", Lines: lines})

		require.ErrorIs(t, err, ErrBorrowLimitExceeded)
		assert.Equal(t, before, s.Snapshot())
		_, ok := s.Borrower("mallory")
		assert.False(t, ok)
	})

	t.Run("stock", func(t *testing.T) {
		s, _ := newTestSession(t, math.MaxInt)
		before := s.Snapshot()

		_, err := s.Borrow(BorrowRequest{BorrowerName: "Mallory", Lines: lines})

		require.ErrorIs(t, err, ErrInsufficientStock)
		var le *Error
		require.True(t, errors.As(err, &le))
		assert.Equal(t, 3, le.ItemID)
		assert.Equal(t, math.MaxInt, le.Requested)
		assert.Equal(t, before, s.Snapshot())
		assertConsistent(t, s)
	})
}

func TestBorrow_Validation(t *testing.T) {
	s, _ := newTestSession(t, 5)

	cases := []struct {
		name string
		req  BorrowRequest
		want error
	}{
		{"empty name", BorrowRequest{BorrowerName: "  ", Lines: []BorrowLine{{ItemID: 1, Quantity: 1}}}, ErrInvalidRequest},
		{"no lines", BorrowRequest{BorrowerName: "Alice"}, ErrInvalidRequest},
		{"negative due", BorrowRequest{BorrowerName: "Alice", Lines: []BorrowLine{{ItemID: 1, Quantity: 1}}, DueInDays: -1}, ErrInvalidRequest},
		{"zero quantity", BorrowRequest{BorrowerName: "Alice", Lines: []BorrowLine{{ItemID: 1, Quantity: 0}}}, ErrInvalidQuantity},
		{"unknown item", BorrowRequest{BorrowerName: "Alice", Lines: []BorrowLine{{ItemID: 99, Quantity: 1}}}, ErrUnknownItem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Borrow(tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, s.Loans())
}

func TestBorrow_CountsBorrowingsAndContact(t *testing.T) {
	s, _ := newTestSession(t, 10)

	_, err := s.Borrow(BorrowRequest{
		BorrowerName: "Alice",
		Lines:        []BorrowLine{{ItemID: 1, Quantity: 1}, {ItemID: 2, Quantity: 2}},
		DueInDays:    3,
		Contact:      models.ContactInfo{Email: "a@example.com"},
	})
	require.NoError(t, err)

	b, ok := s.Borrower("alice")
	require.True(t, ok)
	assert.Equal(t, "Alice", b.Name)
	assert.Equal(t, 2, b.TotalBorrowings)
	assert.Equal(t, 100, b.CreditScore)
	assert.Equal(t, "a@example.com", b.Contact.Email)

	for _, l := range s.Loans() {
		assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), l.DueDate)
	}
}

func TestReturn_Partial(t *testing.T) {
	s, clock := newTestSession(t, 10)
	loan := borrowOne(t, s, "Alice", 1, 5)
	clock.AdvanceDays(2)

	outs, err := s.ReturnLoans([]ReturnLine{{LoanID: loan.ID, Quantity: 2}})
	require.NoError(t, err)
	require.Len(t, outs, 1)

	ret := outs[0].Returned
	require.NotNil(t, ret)
	assert.True(t, ret.Returned)
	assert.Equal(t, 2, ret.Quantity)
	assert.Equal(t, 2, ret.ReturnQuantity)
	assert.Equal(t, models.ConditionGood, ret.ReturnCondition)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), *ret.ReturnDate)

	rem := outs[0].Remainder
	require.NotNil(t, rem)
	assert.Equal(t, 2, rem.ID)
	assert.False(t, rem.Returned)
	assert.Equal(t, 3, rem.Quantity)
	assert.Equal(t, loan.DueDate, rem.DueDate)
	assert.Equal(t, loan.BorrowDate, rem.BorrowDate)

	it, _ := s.Item(1)
	assert.Equal(t, 2, it.Available)
	assertConsistent(t, s)

	// the returned record is closed
	_, err = s.ReturnLoans([]ReturnLine{{LoanID: loan.ID, Quantity: 1}})
	assert.ErrorIs(t, err, ErrUnknownLoan)
}

func TestReturn_FullSpawnsNothing(t *testing.T) {
	s, _ := newTestSession(t, 10)
	loan := borrowOne(t, s, "Alice", 1, 2)

	outs, err := s.ReturnLoans([]ReturnLine{{LoanID: loan.ID, Quantity: 2, Condition: "excellent", Notes: " fine "}})
	require.NoError(t, err)
	assert.Nil(t, outs[0].Remainder)
	assert.Equal(t, models.ConditionExcellent, outs[0].Returned.ReturnCondition)
	assert.Equal(t, "fine", outs[0].Returned.ReturnNotes)
	assert.Len(t, s.Loans(), 1)
	assertConsistent(t, s)
}

func TestReturn_BestEffortPerLine(t *testing.T) {
	s, _ := newTestSession(t, 10)
	a := borrowOne(t, s, "Alice", 1, 2)
	b := borrowOne(t, s, "Alice", 2, 1)
	c := borrowOne(t, s, "Alice", 3, 1)

	outs, err := s.ReturnLoans([]ReturnLine{
		{LoanID: a.ID, Quantity: 2},
		{LoanID: 42, Quantity: 1},
		{LoanID: b.ID, Quantity: 3},
		{LoanID: c.ID, Quantity: 1, Condition: "broken"},
	})

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
	assert.ErrorIs(t, err, ErrUnknownLoan)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	require.Len(t, outs, 4)
	assert.NoError(t, outs[0].Err)
	assert.ErrorIs(t, outs[1].Err, ErrUnknownLoan)
	assert.ErrorIs(t, outs[2].Err, ErrInvalidQuantity)
	assert.ErrorIs(t, outs[3].Err, ErrInvalidRequest)

	got, _ := s.Loan(a.ID)
	assert.True(t, got.Returned, "earlier line stays applied")
	got, _ = s.Loan(b.ID)
	assert.False(t, got.Returned)
	assertConsistent(t, s)
}

func TestReturn_EmptyBatch(t *testing.T) {
	s, _ := newTestSession(t, 10)
	_, err := s.ReturnLoans(nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestScoringScenario(t *testing.T) {
	s, clock := newTestSession(t, 5)

	first := borrowOne(t, s, "Alice", 1, 1)
	clock.AdvanceDays(9)
	outs, err := s.ReturnLoans([]ReturnLine{{LoanID: first.ID, Quantity: 1, Condition: "Good"}})
	require.NoError(t, err)
	assert.True(t, outs[0].Score.Late)
	assert.Equal(t, 2, outs[0].Score.DaysLate)

	b, _ := s.Borrower("alice")
	assert.Equal(t, 1, b.LateReturns)
	assert.Equal(t, 85, b.CreditScore)

	second := borrowOne(t, s, "Alice", 1, 1)
	_, err = s.ReturnLoans([]ReturnLine{{LoanID: second.ID, Quantity: 1, Condition: "Excellent"}})
	require.NoError(t, err)

	b, _ = s.Borrower("alice")
	assert.Equal(t, 92, b.CreditScore)
	assert.Equal(t, 1, b.OnTimeReturns)
	assert.Equal(t, 2, b.TotalBorrowings)
}

func TestScoring_LostFloorsAtZero(t *testing.T) {
	s, _ := newTestSession(t, 5)
	loan := borrowOne(t, s, "Alice", 1, 1)
	s.borrowers["alice"].CreditScore = 30

	_, err := s.ReturnLoans([]ReturnLine{{LoanID: loan.ID, Quantity: 1, Condition: "Lost"}})
	require.NoError(t, err)

	b, _ := s.Borrower("Alice")
	assert.Equal(t, 0, b.CreditScore)
	assert.Equal(t, 1, b.DamagedItems)
}

func TestScoring_MilestoneOnTenthReturn(t *testing.T) {
	s, _ := newTestSession(t, 5)
	s.borrowers["alice"] = &models.Borrower{Key: "alice", Name: "Alice", CreditScore: 40}

	for i := 1; i <= 10; i++ {
		loan := borrowOne(t, s, "Alice", 4, 1)
		outs, err := s.ReturnLoans([]ReturnLine{{LoanID: loan.ID, Quantity: 1}})
		require.NoError(t, err)
		assert.Equal(t, i == 10, outs[0].Score.Milestone, "return %d", i)
	}

	b, _ := s.Borrower("alice")
	assert.Equal(t, 10, b.TotalBorrowings)
	assert.True(t, b.MilestoneAwarded)
	// 40 + 10×5 = 90, +25 capped at 100
	assert.Equal(t, 100, b.CreditScore)
}

func TestRemoveItem(t *testing.T) {
	s, _ := newTestSession(t, 5)
	loan := borrowOne(t, s, "Alice", 2, 2)

	err := s.RemoveItem(2)
	require.ErrorIs(t, err, ErrItemInUse)
	var le *Error
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 2, le.Current)

	_, err = s.ReturnLoans([]ReturnLine{{LoanID: loan.ID, Quantity: 2}})
	require.NoError(t, err)
	require.NoError(t, s.RemoveItem(2))

	_, ok := s.Item(2)
	assert.False(t, ok)
	assert.ErrorIs(t, s.RemoveItem(2), ErrUnknownItem)
}

func TestResize(t *testing.T) {
	s, _ := newTestSession(t, 10)
	borrowOne(t, s, "Alice", 3, 4)

	err := s.Resize(3, 3)
	require.ErrorIs(t, err, ErrCapacityViolation)
	it, _ := s.Item(3)
	assert.Equal(t, 10, it.Quantity)
	assert.Equal(t, 6, it.Available)

	require.NoError(t, s.Resize(3, 4))
	it, _ = s.Item(3)
	assert.Equal(t, 0, it.Available)

	require.NoError(t, s.Resize(3, 12))
	it, _ = s.Item(3)
	assert.Equal(t, 8, it.Available)
	assertConsistent(t, s)

	assert.ErrorIs(t, s.Resize(3, -1), ErrInvalidQuantity)
}

func TestReleaseClampsAtQuantity(t *testing.T) {
	s, _ := newTestSession(t, 10)
	require.NoError(t, s.Release(1, 3))
	it, _ := s.Item(1)
	assert.Equal(t, 5, it.Available)
}

func TestAddAndUpdateItem(t *testing.T) {
	s, _ := newTestSession(t, 10)

	it, err := s.AddItem(ItemInput{Name: " Ladle ", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, it.ID)
	assert.Equal(t, "Ladle", it.Name)
	assert.Equal(t, models.DefaultCategory, it.Category)
	assert.Equal(t, 2, it.Available)

	_, err = s.AddItem(ItemInput{Name: "Pan", Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = s.AddItem(ItemInput{Name: "", Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	borrowOne(t, s, "Alice", 6, 2)
	_, err = s.UpdateItem(6, ItemInput{Name: "Big Ladle", Quantity: 1})
	require.ErrorIs(t, err, ErrCapacityViolation)
	got, _ := s.Item(6)
	assert.Equal(t, "Ladle", got.Name, "rename is not applied when resize fails")

	got, err = s.UpdateItem(6, ItemInput{Name: "Big Ladle", Category: "Utensils", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, "Big Ladle", got.Name)
	assert.Equal(t, 1, got.Available)
}

func TestUpdateSettings(t *testing.T) {
	s, _ := newTestSession(t, 5)

	assert.ErrorIs(t, s.UpdateSettings(models.Settings{MaxBorrowLimit: 0, DefaultDueDays: 7}), ErrInvalidRequest)
	assert.ErrorIs(t, s.UpdateSettings(models.Settings{MaxBorrowLimit: 3, DefaultDueDays: 0}), ErrInvalidRequest)

	require.NoError(t, s.UpdateSettings(models.Settings{MaxBorrowLimit: 3, DefaultDueDays: 14}))
	loan := borrowOne(t, s, "Alice", 1, 1)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), loan.DueDate)
}

func TestViews(t *testing.T) {
	s, clock := newTestSession(t, 10)
	late := borrowOne(t, s, "Alice", 1, 2)
	clock.AdvanceDays(8)
	borrowOne(t, s, "Bob", 2, 1)
	done := borrowOne(t, s, "Bob", 3, 1)
	_, err := s.ReturnLoans([]ReturnLine{{LoanID: done.ID, Quantity: 1}})
	require.NoError(t, err)

	d := s.Dashboard()
	assert.Equal(t, 5, d.ItemKinds)
	assert.Equal(t, 36, d.TotalUnits)
	assert.Equal(t, 33, d.AvailableUnits)
	assert.Equal(t, 3, d.UnitsOnLoan)
	assert.Equal(t, 1, d.ActiveLoans)
	assert.Equal(t, 1, d.OverdueLoans)
	assert.Equal(t, 2, d.Borrowers)

	overdue := s.SearchLoans("", models.StatusOverdue)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)
	assert.Equal(t, 1, overdue[0].DaysOverdue)

	assert.Len(t, s.SearchLoans("bowl", "All"), 1)
	assert.Len(t, s.SearchLoans("BOB", ""), 2)

	log := s.TransactionLog()
	require.Len(t, log, 3)
	assert.Equal(t, done.ID, log[0].ID)
	assert.Equal(t, late.ID, log[2].ID)

	sums := s.BorrowerSummaries("")
	require.Len(t, sums, 2)
	assert.Equal(t, "alice", sums[0].Key)
	assert.Equal(t, 2, sums[0].ActiveUnits)
	assert.Equal(t, "Excellent", sums[0].Label)

	detail, ok := s.BorrowerDetail(" BOB")
	require.True(t, ok)
	assert.Len(t, detail.History, 2)
	assert.Equal(t, 1, detail.ActiveUnits)

	_, ok = s.BorrowerDetail("carol")
	assert.False(t, ok)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s, _ := newTestSession(t, 10)
	loan := borrowOne(t, s, "Alice", 1, 1)
	_, err := s.ReturnLoans([]ReturnLine{{LoanID: loan.ID, Quantity: 1}})
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Items[0].Available = -1
	*snap.Loans[0].ReturnDate = time.Time{}

	it, _ := s.Item(1)
	assert.Equal(t, 5, it.Available)
	got, _ := s.Loan(loan.ID)
	assert.False(t, got.ReturnDate.IsZero())
}
