package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound means the session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

type AppSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAppSessionStore(rdb *redis.Client, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl}
}

func (s *AppSessionStore) TTL() time.Duration { return s.ttl }

type AppSession struct {
	OperatorID string `json:"oid"`
	Username   string `json:"usr"`
	IssuedAt   int64  `json:"iat"`
	ExpiresAt  int64  `json:"exp"`
}

func key(id string) string             { return fmt.Sprintf("lend:sess:%s", id) }
func operatorSetKey(oid string) string { return fmt.Sprintf("lend:operator_sessions:%s", oid) }

func (s *AppSessionStore) Create(ctx context.Context, id, operatorID, username string) error {
	now := time.Now()
	b, err := json.Marshal(AppSession{
		OperatorID: operatorID,
		Username:   username,
		IssuedAt:   now.Unix(),
		ExpiresAt:  now.Add(s.ttl).Unix(),
	})
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(id), b, s.ttl)
	pipe.SAdd(ctx, operatorSetKey(operatorID), id)
	pipe.Expire(ctx, operatorSetKey(operatorID), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *AppSessionStore) Get(ctx context.Context, id string) (*AppSession, error) {
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var as AppSession
	if err := json.Unmarshal(b, &as); err != nil {
		return nil, err
	}
	return &as, nil
}

func (s *AppSessionStore) Delete(ctx context.Context, id string) error {
	as, _ := s.Get(ctx, id) // 忽略失败
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key(id))
	if as != nil {
		pipe.SRem(ctx, operatorSetKey(as.OperatorID), id)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RevokeAllForOperator ends every session of one operator, e.g. after a
// password change.
func (s *AppSessionStore) RevokeAllForOperator(ctx context.Context, operatorID string) error {
	ids, err := s.rdb.SMembers(ctx, operatorSetKey(operatorID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.rdb.TxPipeline()
	for _, sid := range ids {
		pipe.Del(ctx, key(sid))
	}
	pipe.Del(ctx, operatorSetKey(operatorID))
	_, err = pipe.Exec(ctx)
	return err
}
