package session

import (
	"context"
	"sync"
	"time"

	"podcastr/core/player"
	"podcastr/logger"

	"github.com/google/uuid"
)

// ChangeFunc 会话状态变化后被调用，调用时持有会话锁，不能再访问同一会话
type ChangeFunc func(sessionID string, snap player.Snapshot)

// Session 一个浏览器会话，独占一个播放队列
type Session struct {
	ID string

	mu       sync.Mutex
	player   *player.Player
	version  uint64
	lastSeen time.Time
	manager  *Manager
}

// Do 在会话锁内执行一次修改，返回修改后的快照并通知订阅者。
// 通知也在锁内完成，保证订阅者按修改顺序收到快照。
func (s *Session) Do(fn func(p *player.Player)) player.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.player)
	s.version++
	s.lastSeen = s.manager.now()
	snap := s.snapshotLocked()

	if s.manager.onChange != nil {
		s.manager.onChange(s.ID, snap)
	}
	return snap
}

// Snapshot 只读访问当前状态
func (s *Session) Snapshot() player.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.manager.now()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() player.Snapshot {
	snap := s.player.Snapshot()
	snap.Version = s.version
	return snap
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Manager 管理所有会话
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	idleTTL  time.Duration
	onChange ChangeFunc
	opts     []player.Option
	now      func() time.Time
}

// ManagerOption 配置 Manager
type ManagerOption func(*Manager)

// WithChangeFunc 注册状态变化回调
func WithChangeFunc(fn ChangeFunc) ManagerOption {
	return func(m *Manager) {
		m.onChange = fn
	}
}

// WithPlayerOptions 新会话创建 Player 时使用的选项
func WithPlayerOptions(opts ...player.Option) ManagerOption {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

// WithClock 替换时钟，测试用
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager 创建会话管理器，idleTTL 内没有访问的会话会被回收
func NewManager(idleTTL time.Duration, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create 创建新会话
func (m *Manager) Create() *Session {
	s := &Session{
		ID:       uuid.NewString(),
		player:   player.New(m.opts...),
		lastSeen: m.now(),
		manager:  m,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	logger.Debug("session created", logger.String("session", s.ID))
	return s
}

// Get 查找会话
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// GetOrCreate 会话不存在（或已过期）时创建新的
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s, false
		}
	}
	return m.Create(), true
}

// Len 当前会话数
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep 回收空闲会话，返回回收数量
func (m *Manager) Sweep() int {
	deadline := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.idleSince().Before(deadline) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run 定期回收空闲会话，直到 ctx 结束
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logger.Info("idle sessions expired", logger.Int("count", n), logger.Int("remaining", m.Len()))
			}
		}
	}
}
