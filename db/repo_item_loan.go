package db

import (
	"context"
	"errors"
	"fmt"

	"Gin_postgres_redis_lend_ledger/lending"
	"Gin_postgres_redis_lend_ledger/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 200

var _ lending.Store = (*Repo)(nil)

// Items
func (r *Repo) LoadItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := r.DB.WithContext(ctx).Order("id").Find(&items).Error
	return items, err
}

// Loans
func (r *Repo) LoadLoans(ctx context.Context) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.DB.WithContext(ctx).Order("id").Find(&loans).Error
	return loans, err
}

// Borrowers
func (r *Repo) LoadBorrowers(ctx context.Context) ([]models.Borrower, error) {
	var bs []models.Borrower
	err := r.DB.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&bs).Error
	return bs, err
}

// LoadSettings returns the zero value when nothing has been saved yet.
func (r *Repo) LoadSettings(ctx context.Context) (models.Settings, error) {
	var s models.Settings
	err := r.DB.WithContext(ctx).First(&s, "id = ?", models.SettingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Settings{}, nil
	}
	return s, err
}

// Load reads every collection in one read-only transaction so the snapshot
// is consistent.
func (r *Repo) Load(ctx context.Context) (*lending.Snapshot, error) {
	snap := &lending.Snapshot{}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rr := &Repo{DB: tx}
		var err error
		if snap.Items, err = rr.LoadItems(ctx); err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		if snap.Loans, err = rr.LoadLoans(ctx); err != nil {
			return fmt.Errorf("load loans: %w", err)
		}
		if snap.Borrowers, err = rr.LoadBorrowers(ctx); err != nil {
			return fmt.Errorf("load borrowers: %w", err)
		}
		if snap.Settings, err = rr.LoadSettings(ctx); err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Save writes the whole snapshot atomically: upsert every row, drop items
// that are no longer present. Loans and borrowers are never deleted.
func (r *Repo) Save(ctx context.Context, snap *lending.Snapshot) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := func() *gorm.DB { return tx.Clauses(clause.OnConflict{UpdateAll: true}) }

		if len(snap.Items) > 0 {
			if err := upsert().CreateInBatches(&snap.Items, batchSize).Error; err != nil {
				return fmt.Errorf("save items: %w", err)
			}
			ids := make([]int, len(snap.Items))
			for i, it := range snap.Items {
				ids[i] = it.ID
			}
			if err := tx.Where("id NOT IN ?", ids).Delete(&models.Item{}).Error; err != nil {
				return fmt.Errorf("prune items: %w", err)
			}
		} else {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Item{}).Error; err != nil {
				return fmt.Errorf("prune items: %w", err)
			}
		}

		if len(snap.Loans) > 0 {
			if err := upsert().CreateInBatches(&snap.Loans, batchSize).Error; err != nil {
				return fmt.Errorf("save loans: %w", err)
			}
		}
		if len(snap.Borrowers) > 0 {
			if err := upsert().CreateInBatches(&snap.Borrowers, batchSize).Error; err != nil {
				return fmt.Errorf("save borrowers: %w", err)
			}
		}

		st := snap.Settings
		st.ID = models.SettingsRowID
		if err := upsert().Create(&st).Error; err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		return nil
	})
}
