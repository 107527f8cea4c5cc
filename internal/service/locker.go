package service

import (
	"context"
	"errors"
	"sync"
	"time"

	pkgerrors "spartab/pkg/errors"
	"spartab/pkg/redis"
)

// Locker 会话级写锁，保证同一场次的提交与发布串行执行
type Locker interface {
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

// ── 进程内实现 ──

type lockSlot struct {
	ch   chan struct{}
	refs int
}

type localLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

// NewLocalLocker 按场次 ID 分片的进程内互斥锁
func NewLocalLocker() Locker {
	return &localLocker{slots: make(map[string]*lockSlot)}
}

func (l *localLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[sessionID]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[sessionID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.release(sessionID, slot)
			})
		}, nil
	case <-ctx.Done():
		l.release(sessionID, slot)
		return nil, ctx.Err()
	}
}

func (l *localLocker) release(sessionID string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, sessionID)
	}
}

// ── Redis 实现 ──

const lockPollInterval = 50 * time.Millisecond

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker 多实例部署时使用的分布式锁，锁被占用时轮询等待直至 ctx 结束
func NewRedisLocker(client *redis.Client, ttl time.Duration) Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisLocker{client: client, ttl: ttl}
}

func (l *redisLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()
	for {
		unlock, err := l.client.Lock(ctx, sessionID, l.ttl)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, pkgerrors.ErrLockNotAcquired) {
			return nil, err
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
