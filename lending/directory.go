package lending

import (
	"sort"
	"strings"

	"Gin_postgres_redis_lend_ledger/models"
	"Gin_postgres_redis_lend_ledger/policy"
)

// Borrower looks a record up by any spelling of the name.
func (s *Session) Borrower(name string) (models.Borrower, bool) {
	b, ok := s.borrowers[policy.NormalizeName(name)]
	if !ok {
		return models.Borrower{}, false
	}
	return *b, true
}

// Borrowers returns every record ordered by normalized name.
func (s *Session) Borrowers() []models.Borrower {
	out := make([]models.Borrower, 0, len(s.borrowers))
	for _, b := range s.borrowers {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ensureBorrower returns the live record, creating it on first sight.
func (s *Session) ensureBorrower(name string, contact models.ContactInfo) *models.Borrower {
	key := policy.NormalizeName(name)
	if b, ok := s.borrowers[key]; ok {
		return b
	}
	nb := policy.NewBorrower(strings.TrimSpace(name), contact)
	s.borrowers[key] = &nb
	return &nb
}

// recordBorrow counts one borrowing and refreshes contact details.
func (s *Session) recordBorrow(name string, contact models.ContactInfo) {
	b := s.ensureBorrower(name, contact)
	if !contact.IsZero() {
		b.Contact = contact
	}
	policy.ApplyBorrow(b)
}
