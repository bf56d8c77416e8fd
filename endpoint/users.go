package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/starvisioncare/clinic-backend/model"
	"github.com/starvisioncare/clinic-backend/util"
)

type createAccountRequest struct {
	Name     string `json:"name" binding:"required" example:"Akua Boateng"`
	Email    string `json:"email" binding:"required,email" example:"akua@starvision.example"`
	Phone    string `json:"phone" example:"0249876543"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
}

type updateAccountRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func ensureEmailAvailable(c *gin.Context, db *gorm.DB, email string) bool {
	var existing model.User
	err := db.First(&existing, "email = ?", email).Error
	if err != gorm.ErrRecordNotFound {
		if err == nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Email already exists", Err: fmt.Errorf("email already exists")})
			return false
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return false
	}
	return true
}

func hashNewPassword(c *gin.Context, plain string) (hash, salt string, ok bool) {
	salt, err := util.GenerateSalt()
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to generate password salt", Err: err})
		return "", "", false
	}
	hash, err = util.HashPasswordArgon2(plain, salt)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
		return "", "", false
	}
	return hash, salt, true
}

func createAccount(c *gin.Context, roleID uint32, roleLabel string) {
	var req createAccountRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	if !ensureEmailAvailable(c, db, req.Email) {
		return
	}

	hash, salt, ok := hashNewPassword(c, req.Password)
	if !ok {
		return
	}

	user := model.User{
		Name:         util.NormalizeName(req.Name),
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     hash,
		PasswordSalt: salt,
		RoleID:       roleID,
	}
	if err := db.Create(&user).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: fmt.Sprintf("Failed to create %s account", roleLabel), Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  fmt.Sprintf("%s added successfully", roleLabel),
		Data: user,
	})
}

func listAccounts(c *gin.Context, roleID uint32, roleLabel, key string) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var users []model.User
	if err := db.Where("role_id = ?", roleID).Order("name ASC").Find(&users).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: fmt.Sprintf("Failed to retrieve %s accounts", roleLabel), Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  fmt.Sprintf("%s accounts retrieved", roleLabel),
		Data: map[string]interface{}{key: users},
	})
}

func loadAccountByIDAndRole(c *gin.Context, db *gorm.DB, roleID uint32) (model.User, bool) {
	id := c.Param("id")
	if id == "" {
		util.CallUserError(c, util.APIErrorParams{Msg: "Missing account ID", Err: fmt.Errorf("account ID is required")})
		return model.User{}, false
	}

	var user model.User
	if err := db.Where("role_id = ?", roleID).First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Account not found", Err: err})
		} else {
			util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		}
		return model.User{}, false
	}
	return user, true
}

func updateAccount(c *gin.Context, roleID uint32, roleLabel string) {
	var req updateAccountRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	user, ok := loadAccountByIDAndRole(c, db, roleID)
	if !ok {
		return
	}

	if req.Name != "" {
		user.Name = util.NormalizeName(req.Name)
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}

	if err := db.Save(&user).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: fmt.Sprintf("Failed to update %s account", roleLabel), Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  fmt.Sprintf("%s updated successfully", roleLabel),
		Data: user,
	})
}

func deleteAccount(c *gin.Context, roleID uint32, roleLabel string) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	user, ok := loadAccountByIDAndRole(c, db, roleID)
	if !ok {
		return
	}

	// Drop active sessions first so the deleted account cannot keep acting
	// on a token issued before deletion.
	if err := db.Where("user_id = ?", user.ID).Delete(&model.Session{}).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to revoke account sessions", Err: err})
		return
	}
	_ = util.InvalidateUserSessions(user.ID)
	util.UserEmailCacheEvict(user.ID)

	if err := db.Delete(&user).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: fmt.Sprintf("Failed to delete %s account", roleLabel), Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: fmt.Sprintf("%s deleted successfully", roleLabel)})
}

func countAccounts(c *gin.Context, roleID uint32, roleLabel, key string) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var count int64
	if err := db.Model(&model.User{}).Where("role_id = ?", roleID).Count(&count).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: fmt.Sprintf("Failed to count %s accounts", roleLabel), Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  fmt.Sprintf("%s count retrieved", roleLabel),
		Data: map[string]int64{key: count},
	})
}

// AddStaff godoc
// @Summary      Add a staff account
// @Description  Create a new staff account (admin only)
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        request body createAccountRequest true "Staff details"
// @Success      200 {object} util.APIResponse{data=model.User} "Staff added successfully"
// @Failure      400 {object} util.APIResponse "Invalid request or email already exists"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Admin role required"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /users/add-staff [post]
func AddStaff(c *gin.Context) {
	createAccount(c, model.RoleStaffID, "Staff")
}

// ListStaff godoc
// @Summary      List staff accounts
// @Description  Get all staff accounts (admin only)
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=object} "Staff accounts retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Admin role required"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /users/staff [get]
func ListStaff(c *gin.Context) {
	listAccounts(c, model.RoleStaffID, "Staff", "staff")
}

// UpdateStaff godoc
// @Summary      Update a staff account
// @Description  Update name or phone of a staff account (admin only)
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        id path int true "Staff user ID"
// @Param        request body updateAccountRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=model.User} "Staff updated successfully"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Account not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /users/staff/{id} [put]
func UpdateStaff(c *gin.Context) {
	updateAccount(c, model.RoleStaffID, "Staff")
}

// DeleteStaff godoc
// @Summary      Delete a staff account
// @Description  Soft delete a staff account and revoke its sessions (admin only)
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        id path int true "Staff user ID"
// @Success      200 {object} util.APIResponse "Staff deleted successfully"
// @Failure      404 {object} util.APIResponse "Account not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /users/staff/{id} [delete]
func DeleteStaff(c *gin.Context) {
	deleteAccount(c, model.RoleStaffID, "Staff")
}

// StaffCount godoc
// @Summary      Count staff accounts
// @Description  Get the number of staff accounts (admin only)
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=object} "Staff count retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /users/staff-count [get]
func StaffCount(c *gin.Context) {
	countAccounts(c, model.RoleStaffID, "Staff", "staffCount")
}

// AddDoctor godoc
// @Summary      Add a doctor account
// @Description  Create a new doctor account (admin only)
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        request body createAccountRequest true "Doctor details"
// @Success      200 {object} util.APIResponse{data=model.User} "Doctor added successfully"
// @Failure      400 {object} util.APIResponse "Invalid request or email already exists"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /users/add-doctor [post]
func AddDoctor(c *gin.Context) {
	createAccount(c, model.RoleDoctorID, "Doctor")
}

// ListDoctors godoc
// @Summary      List doctor accounts
// @Description  Get all doctor accounts (admin only)
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=object} "Doctor accounts retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /users/doctors [get]
func ListDoctors(c *gin.Context) {
	listAccounts(c, model.RoleDoctorID, "Doctor", "doctors")
}

// UpdateDoctor godoc
// @Summary      Update a doctor account
// @Description  Update name or phone of a doctor account (admin only)
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        id path int true "Doctor user ID"
// @Param        request body updateAccountRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=model.User} "Doctor updated successfully"
// @Failure      404 {object} util.APIResponse "Account not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /users/doctors/{id} [put]
func UpdateDoctor(c *gin.Context) {
	updateAccount(c, model.RoleDoctorID, "Doctor")
}

// DeleteDoctor godoc
// @Summary      Delete a doctor account
// @Description  Soft delete a doctor account and revoke its sessions (admin only)
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        id path int true "Doctor user ID"
// @Success      200 {object} util.APIResponse "Doctor deleted successfully"
// @Failure      404 {object} util.APIResponse "Account not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /users/doctors/{id} [delete]
func DeleteDoctor(c *gin.Context) {
	deleteAccount(c, model.RoleDoctorID, "Doctor")
}
