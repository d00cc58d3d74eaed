package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis so several hosts (or a reinstalled
// client) can resume the same identity. ttl=0 means no expiry.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) key(roomID string) string {
	return fmt.Sprintf("ww:session:%s", roomID)
}

const nicknameKey = "ww:default_nickname"

func (s *RedisStore) Get(ctx context.Context, roomID string) (Session, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(roomID)).Bytes()
	if err == redis.Nil {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}

	var sess Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return Session{}, false, err
	}
	return sess, true, nil
}

func (s *RedisStore) Put(ctx context.Context, roomID string, sess Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(roomID), b, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	return s.rdb.Del(ctx, s.key(roomID)).Err()
}

func (s *RedisStore) DefaultNickname(ctx context.Context) (string, error) {
	val, err := s.rdb.Get(ctx, nicknameKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (s *RedisStore) SetDefaultNickname(ctx context.Context, nickname string) error {
	return s.rdb.Set(ctx, nicknameKey, nickname, s.ttl).Err()
}
