package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/starvisioncare/clinic-backend/middleware"
	"github.com/starvisioncare/clinic-backend/util"
)

// ValidateToken godoc
// @Summary      Validate session token
// @Description  Introspect the bearer token attached to the request
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=object} "Token is valid"
// @Failure      401 {object} util.APIResponse "Invalid or expired token"
// @Router       /users/token/validate [get]
func ValidateToken(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Invalid or expired token",
			Err: fmt.Errorf("no authenticated user in context"),
		})
		return
	}
	roleName, _ := middleware.GetRoleName(c)

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Token is valid",
		Data: map[string]interface{}{"user_id": userID, "role": roleName},
	})
}
