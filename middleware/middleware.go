package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/starvisioncare/clinic-backend/config"
	"github.com/starvisioncare/clinic-backend/model"
	"github.com/starvisioncare/clinic-backend/util"
	"gorm.io/gorm"
)

// Context keys used to pass request-scoped values between middlewares and handlers.
const (
	DBKey       = "db"
	UserIDKey   = "user_id"
	RoleIDKey   = "role_id"
	RoleNameKey = "role_name"
)

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE, PUT, PATCH")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Content-Type", "application/json")

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// DatabaseMiddleware stores the gorm DB handle in the request context so
// handlers can retrieve it via GetDB.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DBKey, db)
		c.Next()
	}
}

// GetDB returns the request-scoped gorm DB handle, or nil when absent.
func GetDB(c *gin.Context) *gorm.DB {
	v, ok := c.Get(DBKey)
	if !ok {
		return nil
	}
	db, ok := v.(*gorm.DB)
	if !ok {
		return nil
	}
	return db
}

// GetUserID returns the authenticated user's ID from the context.
func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// GetRoleID returns the authenticated user's role ID from the context.
func GetRoleID(c *gin.Context) (uint32, bool) {
	v, ok := c.Get(RoleIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint32)
	return id, ok
}

// GetRoleName returns the authenticated user's role name from the context.
func GetRoleName(c *gin.Context) (string, bool) {
	v, ok := c.Get(RoleNameKey)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

// bearerToken extracts the session token from the Authorization header,
// falling back to the legacy session-token header.
func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.GetHeader("session-token")
}

// lookupSessionRedis resolves a token to userID/roleID from the Redis mirror.
// Returns false on any miss or Redis unavailability so callers fall back to the DB.
func lookupSessionRedis(token string) (uint, uint32, bool) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return 0, 0, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	val, err := rdb.Get(ctx, fmt.Sprintf("session:%s", token)).Result()
	if err != nil {
		return 0, 0, false
	}
	parts := strings.SplitN(val, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	userID, err1 := strconv.ParseUint(parts[0], 10, 64)
	roleID, err2 := strconv.ParseUint(parts[1], 10, 32)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return uint(userID), uint32(roleID), true
}

// lookupSessionDB resolves a token against the sessions table, joining users
// and roles for the role assignment. Expired sessions do not resolve.
func lookupSessionDB(db *gorm.DB, token string) (uint, uint32, string, error) {
	var result struct {
		UserID   uint
		RoleID   uint32
		RoleName string
	}
	err := db.Table("sessions").
		Select("sessions.user_id as user_id, users.role_id as role_id, roles.name as role_name").
		Joins("JOIN users ON sessions.user_id = users.id").
		Joins("JOIN roles ON users.role_id = roles.id").
		Where("session_token = ? AND expires_at > ? AND sessions.deleted_at IS NULL", token, time.Now()).
		First(&result).Error
	if err != nil {
		return 0, 0, "", err
	}
	return result.UserID, result.RoleID, result.RoleName, nil
}

func roleName(db *gorm.DB, roleID uint32) string {
	var role model.Role
	if db != nil && db.First(&role, "id = ?", roleID).Error == nil {
		return role.Name
	}
	return ""
}

// ValidateLoginToken authenticates the request's bearer token against the
// Redis session mirror first, then the sessions table. On success the user
// ID, role ID and role name are stored in the context.
func ValidateLoginToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "No token provided",
				Err: fmt.Errorf("missing authorization header"),
			})
			c.Abort()
			return
		}

		db := GetDB(c)

		if userID, roleID, ok := lookupSessionRedis(token); ok {
			c.Set(UserIDKey, userID)
			c.Set(RoleIDKey, roleID)
			c.Set(RoleNameKey, roleName(db, roleID))
			c.Next()
			return
		}

		if db == nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Database connection not available",
				Err: fmt.Errorf("db is nil"),
			})
			c.Abort()
			return
		}

		userID, roleID, name, err := lookupSessionDB(db, token)
		if err != nil {
			util.LogAuditEvent(util.AuditEvent{
				EventType: util.EventUnauthorizedAccess,
				IP:        c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
				Message:   "invalid or expired session token",
			})
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Invalid or expired token",
				Err: fmt.Errorf("session not found"),
			})
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(RoleIDKey, roleID)
		c.Set(RoleNameKey, name)
		c.Next()
	}
}

// RequireRoles aborts with 403 unless the authenticated user's role is one of
// the given names. Must run after ValidateLoginToken.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := GetRoleName(c)
		if !ok || name == "" {
			util.CallUserForbidden(c, util.APIErrorParams{
				Msg: "Role not found",
				Err: fmt.Errorf("no role resolved for session"),
			})
			c.Abort()
			return
		}
		if !util.Contains(name, roles) {
			userID, _ := GetUserID(c)
			util.LogAuditEvent(util.AuditEvent{
				EventType: util.EventUnauthorizedAccess,
				UserID:    fmt.Sprintf("%d", userID),
				IP:        c.ClientIP(),
				Message:   fmt.Sprintf("role %s denied for %s %s", name, c.Request.Method, c.Request.URL.Path),
			})
			util.CallUserForbidden(c, util.APIErrorParams{
				Msg: fmt.Sprintf("Forbidden: %s only", strings.Join(roles, " or ")),
				Err: fmt.Errorf("role mismatch"),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
