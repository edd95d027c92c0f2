package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"support-agent/model"

	"github.com/go-redis/redis/v8"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrInvalidParam   = errors.New("invalid parameter")
)

type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore 创建 Redis 会话存储，ttl 兜底空闲过期（清扫之外的保险）
func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisStore{
		client:    client,
		keyPrefix: "support-agent:session:",
		ttl:       ttl,
	}
}

func (s *RedisStore) GetOrCreate(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionID is empty", ErrInvalidParam)
	}

	key := s.keyPrefix + sessionID
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.NewSession(sessionID), nil
	}
	if err != nil {
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		// 损坏的存量数据按缺失处理，重新开始会话
		return model.NewSession(sessionID), nil
	}
	if session.PersistentEntities == nil {
		session.PersistentEntities = make(map[string]string)
	}
	if session.OrderStates == nil {
		session.OrderStates = make(map[string]string)
	}

	return &session, nil
}

func (s *RedisStore) Save(ctx context.Context, session *model.Session) error {
	if session == nil {
		return fmt.Errorf("%w: session is nil", ErrInvalidSession)
	}
	if session.ID == "" {
		return fmt.Errorf("%w: session.ID is empty", ErrInvalidSession)
	}

	key := s.keyPrefix + session.ID
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func (s *RedisStore) Destroy(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: sessionID is empty", ErrInvalidParam)
	}

	// Del 对不存在的 key 也成功，天然幂等
	return s.client.Del(ctx, s.keyPrefix+sessionID).Err()
}

func (s *RedisStore) IdleSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	var idle []string

	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var session model.Session
		if err := json.Unmarshal(data, &session); err != nil {
			// 解析不了的会话也视为过期，交给 Destroy 清理
			idle = append(idle, key[len(s.keyPrefix):])
			continue
		}
		if session.LastActiveAt.Before(cutoff) {
			idle = append(idle, session.ID)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return idle, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
