package cache

import (
	"sync"
	"time"
)

// TTLCache 进程内 TTL 缓存。作为显式对象构造并注入使用方，
// 时钟可替换，过期判定不依赖后台清理。
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]ttlEntry
	ttl     time.Duration
	now     func() time.Time
}

type ttlEntry struct {
	value     interface{}
	expiresAt time.Time
}

// NewTTLCache 创建 TTL 缓存
func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{
		entries: make(map[string]ttlEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock 注入时钟（测试用）
func (c *TTLCache) WithClock(now func() time.Time) *TTLCache {
	if now != nil {
		c.now = now
	}
	return c
}

// Get 读取缓存，过期条目视为不存在并被移除
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

// Set 写入缓存
func (c *TTLCache) Set(key string, value interface{}) {
	c.mu.Lock()
	c.entries[key] = ttlEntry{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Flush 清空全部条目
func (c *TTLCache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]ttlEntry)
	c.mu.Unlock()
}

// Delete 删除缓存条目
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len 当前未过期条目数
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	count := 0
	now := c.now()
	for _, entry := range c.entries {
		if !now.After(entry.expiresAt) {
			count++
		}
	}
	return count
}
