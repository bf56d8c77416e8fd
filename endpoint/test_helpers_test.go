package endpoint_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/starvisioncare/clinic-backend/config"
	"github.com/starvisioncare/clinic-backend/endpoint"
	"github.com/starvisioncare/clinic-backend/middleware"
	"github.com/starvisioncare/clinic-backend/model"
	"github.com/starvisioncare/clinic-backend/util"
)

type apiResp struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

var testModels = []interface{}{
	&model.Patient{}, &model.Examination{}, &model.Finding{}, &model.Diagnosis{},
	&model.Payment{}, &model.Clinic{}, &model.Referral{},
	&model.User{}, &model.Role{}, &model.Session{}, &model.AuditLog{},
}

// SetupTestServer connects the shared in-memory test DB, migrates all models,
// seeds roles and returns a router with the production route layout. The
// cleanup drops every table so the shared DB starts empty for the next test.
func SetupTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db, err := config.ConnectPostgres()
	if err != nil {
		t.Fatalf("failed to connect test DB: %v", err)
	}
	if err := db.AutoMigrate(testModels...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if err := model.SeedRoles(db); err != nil {
		t.Fatalf("seeding roles failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Migrator().DropTable(testModels...); err != nil {
			t.Errorf("failed to drop tables during cleanup: %v", err)
		}
	})

	r := gin.New()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.DatabaseMiddleware(db))

	r.POST("/users/login", endpoint.Login)

	auth := r.Group("/")
	auth.Use(middleware.ValidateLoginToken())
	{
		auth.POST("/users/logout", endpoint.Logout)
		auth.GET("/users/token/validate", endpoint.ValidateToken)

		admin := auth.Group("/users")
		admin.Use(middleware.RequireRoles("Admin"))
		{
			admin.POST("/add-staff", endpoint.AddStaff)
			admin.GET("/staff", endpoint.ListStaff)
			admin.PUT("/staff/:id", endpoint.UpdateStaff)
			admin.DELETE("/staff/:id", endpoint.DeleteStaff)
			admin.GET("/staff-count", endpoint.StaffCount)
			admin.POST("/add-doctor", endpoint.AddDoctor)
			admin.GET("/doctors", endpoint.ListDoctors)
			admin.PUT("/doctors/:id", endpoint.UpdateDoctor)
			admin.DELETE("/doctors/:id", endpoint.DeleteDoctor)
		}

		// Doctors review records; registration and edits stay with staff.
		patientReads := auth.Group("/patients")
		patientReads.Use(middleware.RequireRoles("Staff", "Admin", "Doctor"))
		{
			patientReads.GET("", endpoint.ListPatients)
			patientReads.GET("/:id", endpoint.GetPatientFullRecord)
		}

		patients := auth.Group("/patients")
		patients.Use(middleware.RequireRoles("Staff", "Admin"))
		{
			patients.POST("", endpoint.RegisterPatient)
			patients.PUT("/:id", endpoint.UpdatePatient)
			patients.PUT("/examinations/:id", endpoint.UpdateExamination)
			patients.PUT("/examination_findings/:id", endpoint.UpdateFinding)
			patients.PUT("/diagnoses/:id", endpoint.UpdateDiagnosis)
			patients.POST("/:patientId/findings", endpoint.AddFinding)
			patients.POST("/:patientId/diagnoses", endpoint.AddDiagnosis)
		}

		referrals := auth.Group("/referrals")
		referrals.Use(middleware.RequireRoles("Doctor", "Admin"))
		{
			referrals.POST("", endpoint.CreateReferral)
			referrals.GET("", endpoint.ListReferrals)
			referrals.GET("/clinics", endpoint.ListClinics)
			referrals.POST("/add-clinic", endpoint.AddClinic)
			referrals.PUT("/clinic/:id", endpoint.UpdateClinic)
			referrals.GET("/patient/:patientId", endpoint.ListPatientReferrals)
		}
	}

	return r, db
}

type accountSpec struct {
	Name     string
	Email    string
	Password string
	RoleID   uint32
}

// createAccount inserts a user directly, bypassing the admin-only endpoint,
// so tests can bootstrap their first admin.
func createAccount(t *testing.T, db *gorm.DB, spec accountSpec) model.User {
	t.Helper()
	salt, err := util.GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	hash, err := util.HashPasswordArgon2(spec.Password, salt)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := model.User{Name: spec.Name, Email: spec.Email, Password: hash, PasswordSalt: salt, RoleID: spec.RoleID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create account %s: %v", spec.Email, err)
	}
	return user
}

func doRequest(r http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func loginAs(t *testing.T, r http.Handler, email, password string) string {
	t.Helper()
	rr := doRequest(r, http.MethodPost, "/users/login", map[string]string{"email": email, "password": password}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s returned %d: %s", email, rr.Code, rr.Body.String())
	}
	resp := parseAPIResp(t, rr)
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("parse login data: %v", err)
	}
	return data.Token
}

func parseAPIResp(t *testing.T, rr *httptest.ResponseRecorder) apiResp {
	t.Helper()
	var resp apiResp
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v; body: %s", err, rr.Body.String())
	}
	return resp
}

func parseDataToMap(t *testing.T, raw json.RawMessage) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("parse data failed: %v", err)
	}
	return data
}
