package appearance

import (
	"encoding/binary"
	"encoding/hex"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/a3tai/mcp-pdf-filler/internal/pdf/errors"
)

// DefaultCacheSize is the capacity used when NewCache is given none
const DefaultCacheSize = 32

// Entry is a memoized document together with the warnings produced with it
type Entry struct {
	Document []byte
	Warnings []*errors.PDFError
}

// CacheStats reports cache usage
type CacheStats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Size     int   `json:"size"`
	Capacity int   `json:"capacity"`
}

// Cache is a thread-safe least recently used store of generated documents.
// Callers own its lifetime; pipelines that must not share results use
// separate caches.
type Cache struct {
	mutex    sync.Mutex
	capacity int
	items    map[string]*cacheNode
	head     *cacheNode // most recently used
	tail     *cacheNode // least recently used
	hits     int64
	misses   int64
}

type cacheNode struct {
	key   string
	entry *Entry
	prev  *cacheNode
	next  *cacheNode
}

// NewCache creates a cache holding at most capacity entries
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	c := &Cache{
		capacity: capacity,
		items:    make(map[string]*cacheNode),
		head:     &cacheNode{},
		tail:     &cacheNode{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Key digests the content parts and the full-appearance flag. Parts are
// length-prefixed so that shifting bytes between them changes the key.
func Key(full bool, parts ...[]byte) string {
	h, _ := blake2b.New256(nil)
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	if full {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the entry stored under key and marks it recently used
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	node, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.moveToFront(node)
	c.hits++
	return node.entry, true
}

// Put stores entry under key, evicting the least recently used entry when full
func (c *Cache) Put(key string, entry *Entry) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if node, ok := c.items[key]; ok {
		node.entry = entry
		c.moveToFront(node)
		return
	}
	node := &cacheNode{key: key, entry: entry}
	c.addToFront(node)
	c.items[key] = node

	if len(c.items) > c.capacity {
		lru := c.tail.prev
		c.removeNode(lru)
		delete(c.items, lru.key)
	}
}

// Len returns the number of stored entries
func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.items)
}

// Stats returns hit and miss counters
func (c *Cache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Size: len(c.items), Capacity: c.capacity}
}

// Clear drops every entry and resets the counters
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[string]*cacheNode)
	c.head.next = c.tail
	c.tail.prev = c.head
	c.hits, c.misses = 0, 0
}

func (c *Cache) moveToFront(node *cacheNode) {
	c.removeNode(node)
	c.addToFront(node)
}

func (c *Cache) addToFront(node *cacheNode) {
	node.prev = c.head
	node.next = c.head.next
	c.head.next.prev = node
	c.head.next = node
}

func (c *Cache) removeNode(node *cacheNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
