package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"Gin_postgres_redis_lend_ledger/models"

	"gorm.io/gorm"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// Operators

var ErrOperatorExists = errors.New("operator already exists")

func (r *Repo) TouchOperatorLogin(ctx context.Context, operatorID, ip, ua string) error {
	now := time.Now().UTC()
	return r.DB.WithContext(ctx).Model(&models.Operator{}).
		Where("id = ?", operatorID).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"last_seen_at":  now,
			"login_count":   gorm.Expr("COALESCE(login_count, 0) + 1"),
			"last_login_ip": ip,
			"last_login_ua": truncate(ua, 255),
		}).Error
}

func (r *Repo) TouchOperatorSeen(ctx context.Context, operatorID string) error {
	return r.DB.WithContext(ctx).Model(&models.Operator{}).
		Where("id = ?", operatorID).
		Update("last_seen_at", time.Now().UTC()).Error
}

// 按 ID 查
func (r *Repo) FindOperatorByID(ctx context.Context, id string) (*models.Operator, error) {
	var op models.Operator
	if err := r.DB.WithContext(ctx).First(&op, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

// 用户名不区分大小写
func (r *Repo) FindOperatorByUsername(ctx context.Context, username string) (*models.Operator, error) {
	var op models.Operator
	if err := r.DB.WithContext(ctx).
		Where("username = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&op).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *Repo) CreateOperator(ctx context.Context, op *models.Operator) error {
	op.Username = strings.ToLower(strings.TrimSpace(op.Username))
	if _, err := r.FindOperatorByUsername(ctx, op.Username); err == nil {
		return ErrOperatorExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.DB.WithContext(ctx).Create(op).Error
}

func (r *Repo) CountOperators(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Operator{}).Count(&n).Error
	return n, err
}

func (r *Repo) UpdateOperatorPassword(ctx context.Context, operatorID, hash string) error {
	res := r.DB.WithContext(ctx).Model(&models.Operator{}).
		Where("id = ?", operatorID).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
