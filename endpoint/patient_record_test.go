package endpoint

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/starvisioncare/clinic-backend/model"
)

func seedFullRecord(t *testing.T, db *gorm.DB) (model.Patient, model.Examination) {
	t.Helper()

	staff := model.User{Name: "Kofi Asante", Email: "kofi@starvision.example", Phone: "0249876543", RoleID: model.RoleStaffID}
	if err := db.Create(&staff).Error; err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	if err := model.SeedRoles(db); err != nil {
		t.Fatalf("seed roles: %v", err)
	}

	patient := model.Patient{Name: "Ama Mensah", Contact: "0551234567", Gender: "Female", Venue: "Accra", StaffID: staff.ID}
	if err := db.Create(&patient).Error; err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	exam := model.Examination{PatientID: patient.ID, StaffID: staff.ID, VisualAcuityLeft: "6/6", ChiefComplaint: "Blurry vision"}
	if err := db.Create(&exam).Error; err != nil {
		t.Fatalf("seed exam: %v", err)
	}

	seeds := []interface{}{
		&model.Finding{ExamID: exam.ID, Type: "anterior", Finding: "Clear cornea"},
		&model.Diagnosis{ExamID: exam.ID, Diagnosis: "Myopia", Category: "Refractive Error", Plan: "Spectacles"},
		&model.Payment{PatientID: patient.ID, Item: "Consultation", Amount: 50, Status: model.PaymentStatusPaid},
	}
	for _, s := range seeds {
		if err := db.Create(s).Error; err != nil {
			t.Fatalf("seed record: %v", err)
		}
	}
	return patient, exam
}

func TestFetchFullPatientRecordAggregates(t *testing.T) {
	db := newClinicTestDB(t)
	patient, exam := seedFullRecord(t, db)

	record, err := fetchFullPatientRecord(db, fmt.Sprintf("%d", patient.ID))
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	assert.Equal(t, patient.ID, record.Patient.ID)
	if record.Patient.Staff == nil {
		t.Fatal("expected registering staff summary to be embedded")
	}
	assert.Equal(t, "Kofi Asante", record.Patient.Staff.Name)
	assert.Equal(t, "Staff", record.Patient.Staff.Role)

	if assert.Len(t, record.Exams, 1) {
		assert.Equal(t, exam.ID, record.Exams[0].ID)
	}
	assert.Len(t, record.Findings, 1)
	assert.Len(t, record.Diagnoses, 1)
	assert.Len(t, record.Payments, 1)
}

func TestFetchFullPatientRecordZeroExamsShortCircuits(t *testing.T) {
	db := newClinicTestDB(t)

	patient := model.Patient{Name: "Yaw Owusu", Contact: "0551112222", Gender: "Male", Venue: "Kumasi"}
	if err := db.Create(&patient).Error; err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	// Dropping the dependent tables proves the short-circuit: any query
	// against them would fail the fetch.
	if err := db.Migrator().DropTable(&model.Finding{}, &model.Diagnosis{}); err != nil {
		t.Fatalf("drop tables: %v", err)
	}

	record, err := fetchFullPatientRecord(db, fmt.Sprintf("%d", patient.ID))
	if err != nil {
		t.Fatalf("fetch should succeed without examinations: %v", err)
	}
	assert.Empty(t, record.Exams)
	assert.Empty(t, record.Findings)
	assert.Empty(t, record.Diagnoses)
}

func TestFetchFullPatientRecordMissingPatient(t *testing.T) {
	db := newClinicTestDB(t)
	_, err := fetchFullPatientRecord(db, "9999")
	if err != gorm.ErrRecordNotFound {
		t.Fatalf("expected record-not-found, got %v", err)
	}
}

func TestGetPatientFullRecordNotFoundStatus(t *testing.T) {
	db := newClinicTestDB(t)
	w, _ := doHandlerRequest(t, db, requestSpec{
		method:       http.MethodGet,
		registerPath: "/patients/:id",
		requestPath:  "/patients/424242",
		handler:      GetPatientFullRecord,
	})
	assertStatus(t, w, http.StatusNotFound)
}

func TestUpdatePatientMergesFields(t *testing.T) {
	db := newClinicTestDB(t)
	patient := model.Patient{Name: "Ama Mensah", Contact: "0551234567", Gender: "Female", Venue: "Accra"}
	if err := db.Create(&patient).Error; err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	w, _ := doHandlerRequest(t, db, requestSpec{
		method:       http.MethodPut,
		registerPath: "/patients/:id",
		requestPath:  fmt.Sprintf("/patients/%d", patient.ID),
		handler:      UpdatePatient,
		body:         map[string]interface{}{"venue": "Tema", "appointment_date": "2026-04-10"},
	})
	assertStatus(t, w, http.StatusOK)

	var updated model.Patient
	if err := db.First(&updated, patient.ID).Error; err != nil {
		t.Fatalf("reload patient: %v", err)
	}
	assert.Equal(t, "Tema", updated.Venue)
	assert.Equal(t, "Ama Mensah", updated.Name, "unspecified fields must be left unchanged")
	if updated.AppointmentDate == nil {
		t.Fatal("appointment date should be set")
	}
}

func TestUpdatePatientRejectsBadAppointmentDate(t *testing.T) {
	db := newClinicTestDB(t)
	patient := model.Patient{Name: "Ama Mensah", Contact: "0551234567", Gender: "Female", Venue: "Accra"}
	if err := db.Create(&patient).Error; err != nil {
		t.Fatalf("seed patient: %v", err)
	}

	w, _ := doHandlerRequest(t, db, requestSpec{
		method:       http.MethodPut,
		registerPath: "/patients/:id",
		requestPath:  fmt.Sprintf("/patients/%d", patient.ID),
		handler:      UpdatePatient,
		body:         map[string]interface{}{"appointment_date": "sometime soon"},
	})
	assertStatus(t, w, http.StatusBadRequest)
}

func TestListPatientsKeywordFilter(t *testing.T) {
	db := newClinicTestDB(t)
	for _, p := range []model.Patient{
		{Name: "Ama Mensah", Contact: "0551234567", Venue: "Accra"},
		{Name: "Yaw Owusu", Contact: "0551112222", Venue: "Kumasi"},
	} {
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed patient: %v", err)
		}
	}

	summaries, total, err := fetchPatientSummaries(db, patientListQuery{Keyword: "Kumasi"})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	assert.Equal(t, int64(1), total, "total must count only the filtered rows")
	if assert.Len(t, summaries, 1) {
		assert.Equal(t, "Yaw Owusu", summaries[0].Name)
	}

	_, total, err = fetchPatientSummaries(db, patientListQuery{})
	if err != nil {
		t.Fatalf("unfiltered fetch failed: %v", err)
	}
	assert.Equal(t, int64(2), total)

	// The filtered total is independent of pagination.
	summaries, total, err = fetchPatientSummaries(db, patientListQuery{Keyword: "055", Limit: 1})
	if err != nil {
		t.Fatalf("paginated fetch failed: %v", err)
	}
	assert.Len(t, summaries, 1)
	assert.Equal(t, int64(2), total)
}
