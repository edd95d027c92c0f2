package dao

import (
	"context"
	"time"

	"support-agent/model"
)

// SessionStore 会话存储契约，后端可注入（内存或 Redis）
//
// GetOrCreate 对合法 sessionID 永不失败，缺失时创建空会话；
// Destroy 是唯一允许整体清除会话的操作，且可重复调用。
type SessionStore interface {
	GetOrCreate(ctx context.Context, sessionID string) (*model.Session, error)
	Save(ctx context.Context, session *model.Session) error
	Destroy(ctx context.Context, sessionID string) error
	// IdleSince 列出最后活跃时间早于 cutoff 的会话，供后台清扫使用
	IdleSince(ctx context.Context, cutoff time.Time) ([]string, error)
	Close() error
}
