package util

import (
	"fmt"
	"testing"
	"time"

	"github.com/starvisioncare/clinic-backend/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuditDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:auditlog_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.AuditLog{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	SetAuditLoggerDB(db)
	t.Cleanup(func() { SetAuditLoggerDB(nil) })
	return db
}

func TestLogAuditEventPersists(t *testing.T) {
	db := setupAuditDB(t)

	LogAuditEvent(AuditEvent{
		EventType: EventSoftWriteFailure,
		UserID:    "42",
		IP:        "127.0.0.1",
		Message:   "findings insert failed",
		Details:   map[string]interface{}{"step": "findings"},
	})

	var entry model.AuditLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("expected persisted audit entry: %v", err)
	}
	if entry.EventType != string(EventSoftWriteFailure) {
		t.Fatalf("unexpected event type %s", entry.EventType)
	}
	if entry.UserID != "42" {
		t.Fatalf("unexpected user id %s", entry.UserID)
	}
}

func TestLogAuditEventSanitizesMessage(t *testing.T) {
	db := setupAuditDB(t)

	LogAuditEvent(AuditEvent{
		EventType: EventSuspiciousActivity,
		Message:   "line1\nline2\tend",
	})

	var entry model.AuditLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("expected persisted audit entry: %v", err)
	}
	if entry.Message != "line1 line2 end" {
		t.Fatalf("expected sanitized message, got %q", entry.Message)
	}
}

func TestLogNotificationFailureDoesNotPanicWithoutDB(t *testing.T) {
	SetAuditLoggerDB(nil)
	LogNotificationFailure("email", "clinic@example.com", fmt.Errorf("smtp down"))
}
