package endpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"

	"github.com/starvisioncare/clinic-backend/config"
	"github.com/starvisioncare/clinic-backend/model"
	"github.com/starvisioncare/clinic-backend/util"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
	sessionLifetime = time.Hour
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"kofi@starvision.example"`
	Password string `json:"password" binding:"required" example:"password123"`
}

type LoginResponse struct {
	Token  string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Role   string `json:"role" example:"Staff"`
	UserID uint   `json:"user_id" example:"1"`
}

// Login godoc
// @Summary      User login
// @Description  Authenticate a staff, doctor, or admin account with email and password
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} util.APIResponse{data=LoginResponse} "Login successful"
// @Failure      400 {object} util.APIResponse "Invalid credentials or locked account"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /users/login [post]
func Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	ci := clientInfo{IP: c.ClientIP(), Agent: c.Request.UserAgent()}
	ctx := loginContext{C: c, DB: db, Email: req.Email, CI: ci}

	user, ok := loadUserForLogin(ctx)
	if !ok {
		return
	}
	if !ensureAccountNotLocked(ctx, &user) {
		return
	}
	if !verifyPasswordOrRespond(ctx, &user, req.Password) {
		return
	}
	finalizeLogin(ctx, &user)
}

type loginContext struct {
	C     *gin.Context
	DB    *gorm.DB
	Email string
	CI    clientInfo
}

func loadUserForLogin(ctx loginContext) (model.User, bool) {
	user, err := loadUserByEmail(ctx.DB, ctx.Email)
	if err == gorm.ErrRecordNotFound {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "user not found")
		util.CallUserError(ctx.C, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("user not found")})
		return model.User{}, false
	}
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "database error")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Database error", Err: err})
		return model.User{}, false
	}
	return user, true
}

func ensureAccountNotLocked(ctx loginContext, user *model.User) bool {
	if locked, expiry := isAccountLocked(user); locked {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "account locked")
		util.CallUserError(ctx.C, util.APIErrorParams{
			Msg: fmt.Sprintf("Account is locked until %s due to multiple failed login attempts", expiry.Format(time.RFC3339)),
			Err: fmt.Errorf("account locked"),
		})
		return false
	}
	return true
}

func verifyPasswordOrRespond(ctx loginContext, user *model.User, plain string) bool {
	match, err := util.VerifyPassword(plain, user.Password, user.PasswordSalt)
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "password verification error")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Password verification failed", Err: err})
		return false
	}
	if !match {
		incrementFailedAttempts(ctx.DB, user, ctx.CI)
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "invalid password")
		util.CallUserError(ctx.C, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("invalid password")})
		return false
	}
	return true
}

func finalizeLogin(ctx loginContext, user *model.User) bool {
	if err := resetFailedAttempts(ctx.DB, user); err != nil {
		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventSuspiciousActivity,
			UserID:    fmt.Sprintf("%d", user.ID),
			Email:     user.Email,
			IP:        ctx.CI.IP,
			Message:   fmt.Sprintf("Failed to reset failed attempts: %v", err),
		})
	}

	role, ok := fetchRoleOrRespond(ctx, user.RoleID)
	if !ok {
		return false
	}

	tokenString, err := createJWTToken(*user)
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "token generation failed")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Could not generate token", Err: err})
		return false
	}

	session := model.Session{
		UserID:       user.ID,
		SessionToken: tokenString,
		ClientIP:     ctx.CI.IP,
		Browser:      ctx.CI.Agent,
		ExpiresAt:    time.Now().Add(sessionLifetime),
	}
	if err := ctx.DB.Create(&session).Error; err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "session creation failed")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Failed to record session", Err: err})
		return false
	}

	// Mirror the session in Redis for fast middleware lookups (best-effort).
	if rdb := config.GetRedisClient(); rdb != nil {
		exp := time.Until(session.ExpiresAt)
		val := fmt.Sprintf("%d:%d", user.ID, role.ID)
		_ = rdb.Set(context.Background(), fmt.Sprintf("session:%s", tokenString), val, exp).Err()
		_ = util.AddSessionToUserSet(user.ID, tokenString)
	}

	util.LogLoginSuccess(user.ID, user.Email, ctx.CI.IP, ctx.CI.Agent)
	util.CallSuccessOK(ctx.C, util.APISuccessParams{
		Msg:  "Login successful",
		Data: LoginResponse{Token: tokenString, Role: role.Name, UserID: user.ID},
	})
	return true
}

func loadUserByEmail(db *gorm.DB, email string) (model.User, error) {
	var user model.User
	err := db.Model(&user).Where("email = ?", email).First(&user).Error
	return user, err
}

func isAccountLocked(user *model.User) (bool, time.Time) {
	if user.LockedUntil != nil && *user.LockedUntil > time.Now().Unix() {
		return true, time.Unix(*user.LockedUntil, 0)
	}
	return false, time.Time{}
}

func incrementFailedAttempts(db *gorm.DB, user *model.User, ci clientInfo) {
	user.FailedAttempts++
	if user.FailedAttempts >= maxFailedLogins {
		lockUntil := time.Now().Add(lockoutDuration).Unix()
		user.LockedUntil = &lockUntil
		util.LogAccountLocked(user.ID, user.Email, ci.IP, "too many failed login attempts")
	}
	if err := db.Save(user).Error; err != nil {
		util.LogLoginFailure(user.Email, ci.IP, ci.Agent, "failed to update failed attempts")
	}
}

func resetFailedAttempts(db *gorm.DB, user *model.User) error {
	if user.FailedAttempts > 0 || user.LockedUntil != nil {
		user.FailedAttempts = 0
		user.LockedUntil = nil
		return db.Save(user).Error
	}
	return nil
}

func fetchRoleOrRespond(ctx loginContext, roleID uint32) (model.Role, bool) {
	var role model.Role
	err := ctx.DB.Model(&role).Where("id = ?", roleID).First(&role).Error
	if err == gorm.ErrRecordNotFound {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "role not found")
		util.CallUserError(ctx.C, util.APIErrorParams{Msg: "Role not found", Err: fmt.Errorf("role not found")})
		return model.Role{}, false
	}
	if err != nil {
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Database error", Err: err})
		return model.Role{}, false
	}
	return role, true
}

func createJWTToken(user model.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": user.Email,
		"exp":   time.Now().Add(sessionLifetime).Unix(),
		"role":  user.RoleID,
	})
	return token.SignedString(util.GetJWTSecretByte())
}

// Logout godoc
// @Summary      User logout
// @Description  Invalidate the current session token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Logout successful"
// @Failure      400 {object} util.APIResponse "Session not found"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /users/logout [post]
func Logout(c *gin.Context) {
	sessionToken := c.GetHeader("session-token")
	if sessionToken == "" {
		if auth := c.GetHeader("Authorization"); len(auth) > 7 && auth[:7] == "Bearer " {
			sessionToken = auth[7:]
		}
	}
	if sessionToken == "" {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Session token not provided",
			Err: fmt.Errorf("session token not provided"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var session model.Session
	if err := db.Where("session_token = ?", sessionToken).First(&session).Error; err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Session not found", Err: err})
		return
	}

	var user model.User
	if err := db.First(&user, session.UserID).Error; err == nil {
		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventLogout,
			UserID:    fmt.Sprintf("%d", user.ID),
			Email:     user.Email,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Message:   "User logged out",
		})
	}

	if err := db.Where("session_token = ?", sessionToken).Delete(&session).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to delete session", Err: err})
		return
	}

	if rdb := config.GetRedisClient(); rdb != nil {
		_ = rdb.Del(context.Background(), fmt.Sprintf("session:%s", sessionToken)).Err()
		_ = util.RemoveSessionTokenFromUserSet(session.UserID, sessionToken)
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Logout successful"})
}
