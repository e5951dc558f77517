package cache

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Item 是缓存中的一条记录：转换后的正文与其 Content-Type。
type Item struct {
	Body        []byte
	ContentType string
}

// EntryCache 是容量固定的 LRU 缓存，命中时提升为最近使用，写满时淘汰最久未用的条目。
type EntryCache struct {
	lru       *simplelru.LRU[string, Item]
	capacity  int
	evictions uint64
}

// New 创建容量为 capacity 的缓存，capacity 必须大于 0。
func New(capacity int) (*EntryCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	lru, err := simplelru.NewLRU[string, Item](capacity, nil)
	if err != nil {
		return nil, err
	}
	return &EntryCache{lru: lru, capacity: capacity}, nil
}

// Get 查找 key，命中时将其提升为最近使用。
func (c *EntryCache) Get(key string) (Item, bool) {
	return c.lru.Get(key)
}

// Put 写入条目；已满时先淘汰最久未用的条目。返回是否发生了淘汰。
func (c *EntryCache) Put(key string, body []byte, contentType string) bool {
	evicted := c.lru.Add(key, Item{Body: body, ContentType: contentType})
	if evicted {
		c.evictions++
	}
	return evicted
}

// Contains 判断 key 是否在缓存中，不影响淘汰顺序。
func (c *EntryCache) Contains(key string) bool {
	return c.lru.Contains(key)
}

// Clear 清空全部条目，仅在 reload 时使用。
func (c *EntryCache) Clear() {
	c.lru.Purge()
}

// Len 返回当前条目数。
func (c *EntryCache) Len() int {
	return c.lru.Len()
}

// Capacity 返回构造时设定的容量。
func (c *EntryCache) Capacity() int {
	return c.capacity
}

// Evictions 返回累计的 LRU 淘汰次数（不含 Clear）。
func (c *EntryCache) Evictions() uint64 {
	return c.evictions
}
