package dao

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"support-agent/model"
)

// MemoryStore 进程内会话存储，用于单机部署和测试
//
// 读写都做一次 JSON 拷贝，行为与 Redis 后端保持一致：
// 调用方拿到的永远是快照，未 Save 的改动不会泄漏回存储。
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
	}
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionID is empty", ErrInvalidParam)
	}

	s.mu.RLock()
	data, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return model.NewSession(sessionID), nil
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
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

func (s *MemoryStore) Save(ctx context.Context, session *model.Session) error {
	if session == nil {
		return fmt.Errorf("%w: session is nil", ErrInvalidSession)
	}
	if session.ID == "" {
		return fmt.Errorf("%w: session.ID is empty", ErrInvalidSession)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sessions[session.ID] = data
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Destroy(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: sessionID is empty", ErrInvalidParam)
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) IdleSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var idle []string
	for id, data := range s.sessions {
		var session model.Session
		if err := json.Unmarshal(data, &session); err != nil {
			idle = append(idle, id)
			continue
		}
		if session.LastActiveAt.Before(cutoff) {
			idle = append(idle, id)
		}
	}

	return idle, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
