package lending

import (
	"sort"
	"strings"

	"Gin_postgres_redis_lend_ledger/models"
)

// ItemInput is what an operator submits when creating or editing an item.
type ItemInput struct {
	Name     string
	Category string
	Quantity int
}

func (s *Session) findItem(id int) (int, bool) {
	i := sort.Search(len(s.items), func(i int) bool { return s.items[i].ID >= id })
	if i < len(s.items) && s.items[i].ID == id {
		return i, true
	}
	return -1, false
}

// Item returns a copy of one inventory record.
func (s *Session) Item(id int) (models.Item, bool) {
	i, ok := s.findItem(id)
	if !ok {
		return models.Item{}, false
	}
	return s.items[i], true
}

// Items returns every item ordered by id.
func (s *Session) Items() []models.Item {
	return append([]models.Item(nil), s.items...)
}

// Reserve takes qty units out of the available pool.
func (s *Session) Reserve(id, qty int) error {
	if qty < 1 {
		return invalidQuantity(qty, "quantity must be at least 1")
	}
	i, ok := s.findItem(id)
	if !ok {
		return unknownItem(id)
	}
	it := &s.items[i]
	if qty > it.Available {
		return insufficientStock(it.ID, it.Name, qty, it.Available)
	}
	it.Available -= qty
	return nil
}

// Release puts qty units back. Available never rises above Quantity.
func (s *Session) Release(id, qty int) error {
	if qty < 1 {
		return invalidQuantity(qty, "quantity must be at least 1")
	}
	i, ok := s.findItem(id)
	if !ok {
		return unknownItem(id)
	}
	it := &s.items[i]
	it.Available += qty
	if it.Available > it.Quantity {
		it.Available = it.Quantity
	}
	return nil
}

// Resize changes the total quantity and keeps the borrowed count fixed.
func (s *Session) Resize(id, newQty int) error {
	if newQty < 0 {
		return invalidQuantity(newQty, "quantity cannot be negative")
	}
	i, ok := s.findItem(id)
	if !ok {
		return unknownItem(id)
	}
	it := &s.items[i]
	borrowed := it.Borrowed()
	if newQty < borrowed {
		return capacityViolation(it.ID, borrowed, newQty)
	}
	it.Quantity = newQty
	it.Available = newQty - borrowed
	return nil
}

// AddItem creates an item with everything available. Ids are max+1.
func (s *Session) AddItem(in ItemInput) (models.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Item{}, invalid("item name is required")
	}
	if in.Quantity < 1 {
		return models.Item{}, invalidQuantity(in.Quantity, "quantity must be at least 1")
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	id := 1
	if n := len(s.items); n > 0 {
		id = s.items[n-1].ID + 1
	}
	it := models.Item{ID: id, Name: name, Category: category, Quantity: in.Quantity, Available: in.Quantity}
	s.items = append(s.items, it)
	return it, nil
}

// UpdateItem renames, recategorizes and resizes in one step. Nothing changes
// if the resize is rejected.
func (s *Session) UpdateItem(id int, in ItemInput) (models.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Item{}, invalid("item name is required")
	}
	if err := s.Resize(id, in.Quantity); err != nil {
		return models.Item{}, err
	}
	i, _ := s.findItem(id)
	it := &s.items[i]
	it.Name = name
	if c := strings.TrimSpace(in.Category); c != "" {
		it.Category = c
	}
	return *it, nil
}

// RemoveItem deletes an item that has no units out on loan.
func (s *Session) RemoveItem(id int) error {
	i, ok := s.findItem(id)
	if !ok {
		return unknownItem(id)
	}
	if out := s.outstandingUnits(id); out > 0 {
		return itemInUse(id, out)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *Session) outstandingUnits(itemID int) int {
	n := 0
	for _, l := range s.loans {
		if !l.Returned && l.ItemID == itemID {
			n += l.Quantity
		}
	}
	return n
}
