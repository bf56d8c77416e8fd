package util

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/starvisioncare/clinic-backend/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEventType represents different types of audit events
type AuditEventType string

const (
	EventLoginSuccess        AuditEventType = "LOGIN_SUCCESS"
	EventLoginFailure        AuditEventType = "LOGIN_FAILURE"
	EventLogout              AuditEventType = "LOGOUT"
	EventAccountLocked       AuditEventType = "ACCOUNT_LOCKED"
	EventUnauthorizedAccess  AuditEventType = "UNAUTHORIZED_ACCESS"
	EventRateLimitExceeded   AuditEventType = "RATE_LIMIT_EXCEEDED"
	EventSuspiciousActivity  AuditEventType = "SUSPICIOUS_ACTIVITY"
	EventEndpointCall        AuditEventType = "ENDPOINT_CALL"
	EventSoftWriteFailure    AuditEventType = "SOFT_WRITE_FAILURE"
	EventNotificationFailure AuditEventType = "NOTIFICATION_FAILURE"
	EventReferralSent        AuditEventType = "REFERRAL_SENT"
)

// AuditEvent represents an event to be logged
type AuditEvent struct {
	EventType AuditEventType
	UserID    string
	Email     string
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

var auditLogger *log.Logger
var auditDB *gorm.DB

// SetAuditLoggerDB sets a gorm DB instance used by the audit logger.
// Call this during application startup (e.g. in main) after DB initialization.
func SetAuditLoggerDB(db *gorm.DB) {
	auditDB = db
}

func init() {
	// Initialize audit logger - in production, this could write to a separate file
	auditLogger = log.New(os.Stdout, "[AUDIT] ", log.LstdFlags|log.Lmsgprefix)
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	// Replace newlines, carriage returns, and tabs with spaces
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	// Truncate very long values to prevent log flooding
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogAuditEvent logs an audit event
func LogAuditEvent(event AuditEvent) {
	// Sanitize all string fields to prevent log injection
	msg := fmt.Sprintf("Event=%s UserID=%s Email=%s IP=%s UserAgent=%s Message=%s",
		sanitizeLogValue(string(event.EventType)),
		sanitizeLogValue(event.UserID),
		sanitizeLogValue(event.Email),
		sanitizeLogValue(event.IP),
		sanitizeLogValue(event.UserAgent),
		sanitizeLogValue(event.Message),
	)

	if len(event.Details) > 0 {
		// Don't log Details map directly to avoid injection
		// Instead, log the count of details
		msg = fmt.Sprintf("%s DetailsCount=%d", msg, len(event.Details))
	}

	auditLogger.Println(msg)

	// Persist to DB if available (best-effort, do not fail operation)
	if auditDB != nil {
		var details datatypes.JSON
		if event.Details != nil {
			if b, err := json.Marshal(event.Details); err == nil {
				details = datatypes.JSON(b)
			}
		}

		// Attempt to resolve city/country for the IP (best-effort, local DB then cache)
		city, country := GetIPLocation(event.IP)
		var location string
		if city != "" && country != "" {
			location = fmt.Sprintf("%s/%s", city, country)
		} else if country != "" {
			location = country
		} else if city != "" {
			location = city
		}

		entry := model.AuditLog{
			EventType: string(event.EventType),
			UserID:    event.UserID,
			Email:     sanitizeLogValue(event.Email),
			IP:        sanitizeLogValue(event.IP),
			Location:  sanitizeLogValue(location),
			UserAgent: sanitizeLogValue(event.UserAgent),
			Message:   sanitizeLogValue(event.Message),
			Details:   details,
		}

		// best-effort write; ignore errors but log them to stderr
		if err := auditDB.Create(&entry).Error; err != nil {
			auditLogger.Printf("Failed to persist audit event: %v", err)
		}
	}
}

// LogLoginSuccess logs a successful login event
func LogLoginSuccess(userID uint, email, ip, userAgent string) {
	LogAuditEvent(AuditEvent{
		EventType: EventLoginSuccess,
		UserID:    fmt.Sprintf("%d", userID),
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "login successful",
	})
}

// LogLoginFailure logs a failed login attempt
func LogLoginFailure(email, ip, userAgent, reason string) {
	LogAuditEvent(AuditEvent{
		EventType: EventLoginFailure,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   fmt.Sprintf("login failed: %s", reason),
	})
}

// LogAccountLocked logs an account lockout
func LogAccountLocked(userID uint, email, ip, reason string) {
	LogAuditEvent(AuditEvent{
		EventType: EventAccountLocked,
		UserID:    fmt.Sprintf("%d", userID),
		Email:     email,
		IP:        ip,
		Message:   fmt.Sprintf("account locked: %s", reason),
	})
}

// LogRateLimitExceeded logs a rate limit violation
func LogRateLimitExceeded(email, ip, endpoint string) {
	LogAuditEvent(AuditEvent{
		EventType: EventRateLimitExceeded,
		Email:     email,
		IP:        ip,
		Message:   fmt.Sprintf("rate limit exceeded on %s", endpoint),
	})
}

// LogSoftWriteFailure records a non-fatal insert failure from the
// registration write path. The request still reports success; this log is
// the only trace the sub-write was lost.
func LogSoftWriteFailure(userID uint, step string, err error) {
	LogAuditEvent(AuditEvent{
		EventType: EventSoftWriteFailure,
		UserID:    fmt.Sprintf("%d", userID),
		Message:   fmt.Sprintf("%s insert failed: %v", step, err),
		Details:   map[string]interface{}{"step": step},
	})
}

// LogNotificationFailure records a failed outbound email/WhatsApp delivery.
// Never surfaced to callers, never retried.
func LogNotificationFailure(channel, recipient string, err error) {
	LogAuditEvent(AuditEvent{
		EventType: EventNotificationFailure,
		Message:   fmt.Sprintf("%s delivery to %s failed: %v", channel, sanitizeLogValue(recipient), err),
		Details:   map[string]interface{}{"channel": channel},
	})
}
