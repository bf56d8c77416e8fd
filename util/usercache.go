package util

// Audit lines for referral and account events carry the acting user's email.
// A small LRU in front of the users table keeps those writes from querying
// the same handful of clinic accounts on every event.

import (
	"container/list"
	"os"
	"strconv"
	"sync"

	"gorm.io/gorm"
)

const defaultEmailCacheSize = 1000

type emailCacheEntry struct {
	userID uint
	email  string
}

type emailCache struct {
	mu    sync.Mutex
	order *list.List
	byID  map[uint]*list.Element
	limit int
}

var accountEmails *emailCache

// InitUserEmailCache sets up the account email cache. A non-positive
// capacity falls back to the default of 1000 entries.
func InitUserEmailCache(capacity int) {
	if capacity <= 0 {
		capacity = defaultEmailCacheSize
	}
	accountEmails = &emailCache{
		order: list.New(),
		byID:  make(map[uint]*list.Element),
		limit: capacity,
	}
}

// InitUserEmailCacheFromEnv sizes the cache from USER_EMAIL_CACHE_SIZE,
// using the default when the variable is unset or not a number.
func InitUserEmailCacheFromEnv() {
	size, _ := strconv.Atoi(os.Getenv("USER_EMAIL_CACHE_SIZE"))
	InitUserEmailCache(size)
}

func (c *emailCache) get(userID uint) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ele, ok := c.byID[userID]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(ele)
	return ele.Value.(emailCacheEntry).email, true
}

func (c *emailCache) set(userID uint, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.byID[userID]; ok {
		ele.Value = emailCacheEntry{userID: userID, email: email}
		c.order.MoveToFront(ele)
		return
	}
	c.byID[userID] = c.order.PushFront(emailCacheEntry{userID: userID, email: email})
	if c.order.Len() > c.limit {
		oldest := c.order.Back()
		delete(c.byID, oldest.Value.(emailCacheEntry).userID)
		c.order.Remove(oldest)
	}
}

func (c *emailCache) evict(userID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.byID[userID]; ok {
		delete(c.byID, userID)
		c.order.Remove(ele)
	}
}

// UserEmailCacheGet reports the cached email for a user, if any.
func UserEmailCacheGet(userID uint) (string, bool) {
	if accountEmails == nil {
		return "", false
	}
	return accountEmails.get(userID)
}

// UserEmailCacheSet stores a user's email, evicting the least recently
// used entry when the cache is full.
func UserEmailCacheSet(userID uint, email string) {
	if accountEmails == nil {
		return
	}
	accountEmails.set(userID, email)
}

// UserEmailCacheEvict drops a cached email. Called when an account is
// deleted so a reused ID cannot surface a stale address.
func UserEmailCacheEvict(userID uint) {
	if accountEmails == nil {
		return
	}
	accountEmails.evict(userID)
}

// GetUserEmail resolves a user's email through the cache, falling back to
// the users table and caching the hit. Unknown users resolve to "".
func GetUserEmail(db *gorm.DB, userID uint) string {
	if userID == 0 {
		return ""
	}
	if email, ok := UserEmailCacheGet(userID); ok {
		return email
	}
	if db == nil {
		return ""
	}
	var row struct{ Email string }
	if err := db.Table("users").Select("email").Where("id = ?", userID).Take(&row).Error; err != nil {
		return ""
	}
	if row.Email != "" {
		UserEmailCacheSet(userID, row.Email)
	}
	return row.Email
}
