// Package lending is the transaction engine of the ledger: inventory
// bookkeeping, the borrower directory and the loan registry, all held in one
// Session that is mutated by a single writer at a time.
package lending

import (
	"sort"
	"time"

	"Gin_postgres_redis_lend_ledger/models"
	"Gin_postgres_redis_lend_ledger/policy"
)

// Snapshot is the persisted shape of a Session. It is what a Store loads
// and saves; a Session never shares slices with the Snapshot it came from.
type Snapshot struct {
	Items     []models.Item
	Loans     []models.Loan
	Borrowers []models.Borrower
	Settings  models.Settings
}

// Empty reports whether nothing has ever been saved.
func (s *Snapshot) Empty() bool {
	return s == nil || (len(s.Items) == 0 && len(s.Loans) == 0 && len(s.Borrowers) == 0 && s.Settings.MaxBorrowLimit == 0)
}

// SeedItems is the inventory a brand-new ledger starts with.
func SeedItems() []models.Item {
	return []models.Item{
		{ID: 1, Name: "Chef Knife", Category: "Cutlery", Quantity: 5, Available: 5},
		{ID: 2, Name: "Cutting Board", Category: "Preparation", Quantity: 8, Available: 8},
		{ID: 3, Name: "Mixing Bowl", Category: "Cookware", Quantity: 10, Available: 10},
		{ID: 4, Name: "Whisk", Category: "Utensils", Quantity: 6, Available: 6},
		{ID: 5, Name: "Spatula", Category: "Utensils", Quantity: 7, Available: 7},
	}
}

// Session owns every collection. Nothing outside the package mutates them;
// readers get copies.
type Session struct {
	items     []models.Item // ordered by id
	loans     []models.Loan // insertion order
	borrowers map[string]*models.Borrower
	settings  models.Settings
	clock     Clock
}

// NewSession copies snap into a fresh Session. A nil snapshot starts empty
// with default settings.
func NewSession(snap *Snapshot, clock Clock) *Session {
	if clock == nil {
		clock = SystemClock{}
	}
	s := &Session{
		borrowers: make(map[string]*models.Borrower),
		settings:  models.DefaultSettings(),
		clock:     clock,
	}
	if snap == nil {
		return s
	}

	s.items = append([]models.Item(nil), snap.Items...)
	sort.Slice(s.items, func(i, j int) bool { return s.items[i].ID < s.items[j].ID })

	s.loans = make([]models.Loan, 0, len(snap.Loans))
	for _, l := range snap.Loans {
		s.loans = append(s.loans, copyLoan(l))
	}
	sort.SliceStable(s.loans, func(i, j int) bool { return s.loans[i].ID < s.loans[j].ID })

	for _, b := range snap.Borrowers {
		b := b
		if b.Key == "" {
			b.Key = policy.NormalizeName(b.Name)
		}
		s.borrowers[b.Key] = &b
	}

	if snap.Settings.MaxBorrowLimit > 0 && snap.Settings.DefaultDueDays > 0 {
		s.settings = snap.Settings
		s.settings.ID = models.SettingsRowID
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() *Snapshot {
	snap := &Snapshot{
		Items:     append([]models.Item(nil), s.items...),
		Loans:     s.Loans(),
		Borrowers: s.Borrowers(),
		Settings:  s.settings,
	}
	return snap
}

// Today is the session's current calendar date.
func (s *Session) Today() time.Time {
	return policy.Today(s.clock.Now())
}

func (s *Session) Settings() models.Settings { return s.settings }

// UpdateSettings replaces the borrow limit and default loan period.
func (s *Session) UpdateSettings(in models.Settings) error {
	if in.MaxBorrowLimit < 1 {
		return invalid("max borrow limit must be at least 1")
	}
	if in.DefaultDueDays < 1 {
		return invalid("default due days must be at least 1")
	}
	in.ID = models.SettingsRowID
	s.settings = in
	return nil
}

func copyLoan(l models.Loan) models.Loan {
	if l.ReturnDate != nil {
		d := *l.ReturnDate
		l.ReturnDate = &d
	}
	return l
}
