package endpoint

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/starvisioncare/clinic-backend/middleware"
	"github.com/starvisioncare/clinic-backend/util"
)

func bindJSONOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: err})
		return false
	}
	return true
}

func getDBOrRespond(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("db is nil")})
		return nil, false
	}
	return db, true
}

// appointmentDateFormats lists accepted appointment date layouts, most
// specific first. The dashboard sends bare dates; API clients may send
// full RFC3339 timestamps.
var appointmentDateFormats = []string{time.RFC3339, "2006-01-02"}

// parseAppointmentDate maps a blank date to nil and rejects anything that
// does not parse. Registration stores null for patients without a scheduled
// appointment rather than a zero time.
func parseAppointmentDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range appointmentDateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid appointment_date: %q", raw)
}

type clientInfo struct {
	IP    string
	Agent string
}
