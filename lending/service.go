package lending

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Gin_postgres_redis_lend_ledger/models"

	"go.uber.org/zap"
)

// Store persists whole snapshots. Save must be atomic: either every
// collection is written or none is.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// Metrics receives operational counters from the Service.
type Metrics interface {
	ObserveBorrow(result string, units int)
	ObserveReturn(result string, condition models.Condition, units int)
	ObservePersist(op string, d time.Duration, err error)
	SetUnitsOnLoan(n int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveBorrow(string, int)                   {}
func (noopMetrics) ObserveReturn(string, models.Condition, int) {}
func (noopMetrics) ObservePersist(string, time.Duration, error) {}
func (noopMetrics) SetUnitsOnLoan(int)                          {}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

func WithMetrics(m Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithSeed sets what an empty store is initialized with.
func WithSeed(settings models.Settings, items []models.Item) Option {
	return func(s *Service) {
		s.seedSettings = settings
		s.seedItems = items
	}
}

// Service serializes access to one Session and writes a snapshot after every
// successful mutation. When a write fails the session is reloaded from the
// store so memory never runs ahead of disk.
type Service struct {
	mu      sync.Mutex
	sess    *Session
	store   Store
	clock   Clock
	log     *zap.Logger
	metrics Metrics

	seedSettings models.Settings
	seedItems    []models.Item
}

func NewService(ctx context.Context, store Store, opts ...Option) (*Service, error) {
	s := &Service{
		store:        store,
		clock:        SystemClock{},
		log:          zap.NewNop(),
		metrics:      noopMetrics{},
		seedSettings: models.DefaultSettings(),
		seedItems:    SeedItems(),
	}
	for _, o := range opts {
		o(s)
	}

	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if snap.Empty() {
		snap = &Snapshot{Items: s.seedItems, Settings: s.seedSettings}
		snap.Settings.ID = models.SettingsRowID
		if err := store.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("seed ledger: %w", err)
		}
		s.log.Info("seeded empty ledger", zap.Int("items", len(snap.Items)))
	}
	s.sess = NewSession(snap, s.clock)
	s.metrics.SetUnitsOnLoan(s.sess.Dashboard().UnitsOnLoan)
	return s, nil
}

// View runs fn against the session under the lock. fn must not retain the
// session or call mutating methods.
func (s *Service) View(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.sess)
}

func (s *Service) Borrow(ctx context.Context, req BorrowRequest) ([]models.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var loans []models.Loan
	err := s.mutate(ctx, "borrow", func(sess *Session) (bool, error) {
		var err error
		loans, err = sess.Borrow(req)
		return err == nil, err
	})
	if err != nil {
		s.metrics.ObserveBorrow(CodeOf(err), 0)
		s.log.Warn("borrow rejected",
			zap.String("borrower", req.BorrowerName),
			zap.Int("lines", len(req.Lines)),
			zap.Error(err))
		return nil, err
	}

	ids := make([]int, len(loans))
	units := 0
	for i, l := range loans {
		ids[i] = l.ID
		units += l.Quantity
	}
	s.metrics.ObserveBorrow("ok", units)
	s.log.Info("borrow",
		zap.String("borrower", req.BorrowerName),
		zap.Ints("loan_ids", ids),
		zap.Int("units", units))
	return loans, nil
}

// ReturnLoans persists whatever lines were applied. The returned error
// combines every rejected line; outcomes say which.
func (s *Service) ReturnLoans(ctx context.Context, lines []ReturnLine) ([]ReturnOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		outs    []ReturnOutcome
		lineErr error
	)
	err := s.mutate(ctx, "return", func(sess *Session) (bool, error) {
		outs, lineErr = sess.ReturnLoans(lines)
		for _, o := range outs {
			if o.Err == nil {
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	for _, o := range outs {
		if o.Err != nil {
			s.metrics.ObserveReturn(CodeOf(o.Err), "", 0)
			s.log.Warn("return rejected", zap.Int("loan_id", o.LoanID), zap.Error(o.Err))
			continue
		}
		s.metrics.ObserveReturn("ok", o.Returned.ReturnCondition, o.Returned.Quantity)
		fields := []zap.Field{
			zap.Int("loan_id", o.LoanID),
			zap.String("borrower", o.Returned.BorrowerName),
			zap.Int("quantity", o.Returned.Quantity),
			zap.String("condition", string(o.Returned.ReturnCondition)),
			zap.Int("score_before", o.Score.Before),
			zap.Int("score_after", o.Score.After),
		}
		if o.Remainder != nil {
			fields = append(fields, zap.Int("remainder_loan_id", o.Remainder.ID))
		}
		if o.Score.Milestone {
			fields = append(fields, zap.Bool("milestone", true))
		}
		s.log.Info("return", fields...)
	}
	if outs == nil && lineErr != nil {
		s.log.Warn("return rejected", zap.Error(lineErr))
	}
	return outs, lineErr
}

func (s *Service) AddItem(ctx context.Context, in ItemInput) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var it models.Item
	err := s.mutate(ctx, "add_item", func(sess *Session) (bool, error) {
		var err error
		it, err = sess.AddItem(in)
		return err == nil, err
	})
	if err != nil {
		return models.Item{}, err
	}
	s.log.Info("item added", zap.Int("item_id", it.ID), zap.String("name", it.Name), zap.Int("quantity", it.Quantity))
	return it, nil
}

func (s *Service) UpdateItem(ctx context.Context, id int, in ItemInput) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var it models.Item
	err := s.mutate(ctx, "update_item", func(sess *Session) (bool, error) {
		var err error
		it, err = sess.UpdateItem(id, in)
		return err == nil, err
	})
	if err != nil {
		return models.Item{}, err
	}
	s.log.Info("item updated", zap.Int("item_id", it.ID), zap.Int("quantity", it.Quantity), zap.Int("available", it.Available))
	return it, nil
}

func (s *Service) RemoveItem(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.mutate(ctx, "remove_item", func(sess *Session) (bool, error) {
		err := sess.RemoveItem(id)
		return err == nil, err
	})
	if err != nil {
		return err
	}
	s.log.Info("item removed", zap.Int("item_id", id))
	return nil
}

func (s *Service) UpdateSettings(ctx context.Context, in models.Settings) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.mutate(ctx, "update_settings", func(sess *Session) (bool, error) {
		err := sess.UpdateSettings(in)
		return err == nil, err
	})
	if err != nil {
		return models.Settings{}, err
	}
	out := s.sess.Settings()
	s.log.Info("settings updated", zap.Int("max_borrow_limit", out.MaxBorrowLimit), zap.Int("default_due_days", out.DefaultDueDays))
	return out, nil
}

// mutate runs fn and, if it changed anything, writes the session. A failed
// write reloads the session from the store, or restores the state from before
// fn if the reload fails too. Caller holds mu.
func (s *Service) mutate(ctx context.Context, op string, fn func(*Session) (bool, error)) error {
	before := s.sess.Snapshot()
	changed, err := fn(s.sess)
	if err != nil {
		// 拒绝的操作不能留下任何半截修改
		s.sess = NewSession(before, s.clock)
		return err
	}
	if !changed {
		return nil
	}

	start := time.Now()
	err = s.store.Save(ctx, s.sess.Snapshot())
	s.metrics.ObservePersist(op, time.Since(start), err)
	if err == nil {
		s.metrics.SetUnitsOnLoan(s.sess.Dashboard().UnitsOnLoan)
		return nil
	}

	s.log.Error("persist failed, reloading ledger", zap.String("op", op), zap.Error(err))
	snap, lerr := s.store.Load(ctx)
	if lerr != nil {
		s.log.Error("reload failed, restoring previous state", zap.Error(lerr))
		snap = before
	}
	s.sess = NewSession(snap, s.clock)
	return fmt.Errorf("persist %s: %w", op, err)
}
