package util

import (
	"fmt"
	"testing"
	"time"

	"github.com/starvisioncare/clinic-backend/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUserDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:usercache_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) model.User {
	t.Helper()
	user := model.User{Name: "Akosua Boateng", Email: email, Password: "x", PasswordSalt: "y", RoleID: model.RoleStaffID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestUserEmailCacheEvictsOldestWhenFull(t *testing.T) {
	InitUserEmailCache(2)
	t.Cleanup(func() { InitUserEmailCache(0) })

	UserEmailCacheSet(1, "one@starvision.example")
	UserEmailCacheSet(2, "two@starvision.example")
	UserEmailCacheSet(3, "three@starvision.example")

	if _, ok := UserEmailCacheGet(1); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	for id, want := range map[uint]string{2: "two@starvision.example", 3: "three@starvision.example"} {
		got, ok := UserEmailCacheGet(id)
		if !ok || got != want {
			t.Fatalf("user %d: got %q ok=%v, want %q", id, got, ok, want)
		}
	}
}

func TestUserEmailCacheGetRefreshesRecency(t *testing.T) {
	InitUserEmailCache(2)
	t.Cleanup(func() { InitUserEmailCache(0) })

	UserEmailCacheSet(1, "one@starvision.example")
	UserEmailCacheSet(2, "two@starvision.example")
	// Touching 1 makes 2 the eviction candidate.
	if _, ok := UserEmailCacheGet(1); !ok {
		t.Fatal("user 1 should be cached")
	}
	UserEmailCacheSet(3, "three@starvision.example")

	if _, ok := UserEmailCacheGet(2); ok {
		t.Fatal("user 2 should have been evicted after user 1 was touched")
	}
	if _, ok := UserEmailCacheGet(1); !ok {
		t.Fatal("recently used entry should survive eviction")
	}
}

func TestUserEmailCacheSetUpdatesExistingEntry(t *testing.T) {
	InitUserEmailCache(2)
	t.Cleanup(func() { InitUserEmailCache(0) })

	UserEmailCacheSet(7, "old@starvision.example")
	UserEmailCacheSet(7, "new@starvision.example")

	got, ok := UserEmailCacheGet(7)
	if !ok || got != "new@starvision.example" {
		t.Fatalf("got %q ok=%v, want the updated address", got, ok)
	}
}

func TestUserEmailCacheEvict(t *testing.T) {
	InitUserEmailCache(4)
	t.Cleanup(func() { InitUserEmailCache(0) })

	UserEmailCacheSet(5, "gone@starvision.example")
	UserEmailCacheEvict(5)
	if _, ok := UserEmailCacheGet(5); ok {
		t.Fatal("evicted entry should not be returned")
	}

	// Evicting an ID that was never cached must not panic.
	UserEmailCacheEvict(99)
}

func TestGetUserEmailFallsBackToDatabaseAndCaches(t *testing.T) {
	InitUserEmailCache(4)
	t.Cleanup(func() { InitUserEmailCache(0) })
	db := setupUserDB(t)
	user := seedUser(t, db, "kofi@starvision.example")

	if got := GetUserEmail(db, user.ID); got != "kofi@starvision.example" {
		t.Fatalf("first lookup: got %q", got)
	}

	// The row is gone but the cached address still resolves.
	if err := db.Unscoped().Delete(&user).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if got := GetUserEmail(db, user.ID); got != "kofi@starvision.example" {
		t.Fatalf("cached lookup: got %q", got)
	}
}

func TestGetUserEmailUnknownUser(t *testing.T) {
	InitUserEmailCache(4)
	t.Cleanup(func() { InitUserEmailCache(0) })
	db := setupUserDB(t)

	if got := GetUserEmail(db, 12345); got != "" {
		t.Fatalf("expected empty email for unknown user, got %q", got)
	}
	if got := GetUserEmail(db, 0); got != "" {
		t.Fatalf("expected empty email for zero user ID, got %q", got)
	}
}

func TestInitUserEmailCacheFromEnv(t *testing.T) {
	t.Setenv("USER_EMAIL_CACHE_SIZE", "1")
	InitUserEmailCacheFromEnv()
	t.Cleanup(func() { InitUserEmailCache(0) })

	UserEmailCacheSet(1, "one@starvision.example")
	UserEmailCacheSet(2, "two@starvision.example")
	if _, ok := UserEmailCacheGet(1); ok {
		t.Fatal("capacity from env should limit the cache to one entry")
	}

	t.Setenv("USER_EMAIL_CACHE_SIZE", "not-a-number")
	InitUserEmailCacheFromEnv()
	if accountEmails.limit != defaultEmailCacheSize {
		t.Fatalf("garbage env value should fall back to the default, got %d", accountEmails.limit)
	}
}
