package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Gin_postgres_redis_lend_ledger/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLen = 6

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	ErrPasswordMismatch   = errors.New("new password and confirmation do not match")
)

// OperatorStore is the slice of db.Repo the authenticator needs.
type OperatorStore interface {
	CreateOperator(ctx context.Context, op *models.Operator) error
	FindOperatorByUsername(ctx context.Context, username string) (*models.Operator, error)
	FindOperatorByID(ctx context.Context, id string) (*models.Operator, error)
	UpdateOperatorPassword(ctx context.Context, operatorID, hash string) error
	CountOperators(ctx context.Context) (int64, error)
}

type Authenticator struct {
	store OperatorStore
	cost  int
}

func NewAuthenticator(store OperatorStore) *Authenticator {
	return &Authenticator{store: store, cost: bcrypt.DefaultCost}
}

func validatePassword(p string) error {
	if len(p) < MinPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

func (a *Authenticator) hash(p string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(p), a.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Register creates an operator account.
func (a *Authenticator) Register(ctx context.Context, username, password string) (*models.Operator, error) {
	if strings.TrimSpace(username) == "" {
		return nil, errors.New("username is required")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	h, err := a.hash(password)
	if err != nil {
		return nil, err
	}
	op := &models.Operator{ID: uuid.NewString(), Username: username, PasswordHash: h}
	if err := a.store.CreateOperator(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*models.Operator, error) {
	op, err := a.store.FindOperatorByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return op, nil
}

// ChangePassword requires the current password and a matching confirmation.
func (a *Authenticator) ChangePassword(ctx context.Context, operatorID, current, next, confirm string) error {
	op, err := a.store.FindOperatorByID(ctx, operatorID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if next != confirm {
		return ErrPasswordMismatch
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	h, err := a.hash(next)
	if err != nil {
		return err
	}
	return a.store.UpdateOperatorPassword(ctx, operatorID, h)
}
