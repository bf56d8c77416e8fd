package endpoint

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/starvisioncare/clinic-backend/middleware"
	"github.com/starvisioncare/clinic-backend/model"
)

// newTestDB opens a uniquely named in-memory SQLite database and migrates the
// given models. The unique DSN prevents cross-test contamination when tests
// run in the same process.
func newTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:endpointdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("auto migrate failed: %v", err)
		}
	}
	return db
}

func newClinicTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return newTestDB(t,
		&model.Patient{}, &model.Examination{}, &model.Finding{}, &model.Diagnosis{},
		&model.Payment{}, &model.Clinic{}, &model.Referral{}, &model.User{}, &model.Role{},
	)
}

type requestSpec struct {
	method       string
	registerPath string
	requestPath  string
	handler      gin.HandlerFunc
	body         interface{}
}

// doHandlerRequest registers a single handler behind the DB middleware and
// performs one request against it.
func doHandlerRequest(t *testing.T, db *gorm.DB, spec requestSpec) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	r.Handle(spec.method, spec.registerPath, spec.handler)

	var reader *strings.Reader
	switch v := spec.body.(type) {
	case nil:
		reader = strings.NewReader("")
	case string:
		reader = strings.NewReader(v)
	default:
		b, _ := json.Marshal(spec.body)
		reader = strings.NewReader(string(b))
	}

	req := httptest.NewRequest(spec.method, spec.requestPath, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("decode response failed: %v; body: %s", err, w.Body.String())
		}
	}
	return w, response
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}
