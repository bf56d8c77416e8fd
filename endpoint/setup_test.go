package endpoint_test

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/starvisioncare/clinic-backend/config"
	"github.com/starvisioncare/clinic-backend/util"
)

// TestMain pins consistent test configuration for every test in the endpoint
// package. The singleton config pattern makes test order matter otherwise.
func TestMain(m *testing.M) {
	os.Setenv("APPENV", "test")
	os.Setenv("JWTSECRET", "test-secret-123")
	os.Setenv("GINMODE", "test")

	util.SetJWTSecret("test-secret-123")
	config.LoadConfig()
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}
