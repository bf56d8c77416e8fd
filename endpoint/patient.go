package endpoint

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/starvisioncare/clinic-backend/model"
	"github.com/starvisioncare/clinic-backend/util"
)

type patientSummary struct {
	ID              uint       `json:"id"`
	Name            string     `json:"name"`
	Contact         string     `json:"contact"`
	Gender          string     `json:"gender"`
	Venue           string     `json:"venue"`
	AppointmentDate *time.Time `json:"appointment_date"`
	AppointmentFor  string     `json:"appointment_for"`
	CreatedAt       time.Time  `json:"created_at"`
}

type patientListQuery struct {
	Limit   int
	Offset  int
	Keyword string
}

func parsePatientListQuery(c *gin.Context) patientListQuery {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return patientListQuery{
		Limit:   limit,
		Offset:  offset,
		Keyword: c.Query("keyword"),
	}
}

func fetchPatientSummaries(db *gorm.DB, q patientListQuery) ([]patientSummary, int64, error) {
	var summaries []patientSummary
	var total int64

	query := db.Model(&model.Patient{}).Order("patients.created_at DESC")
	countQuery := db.Model(&model.Patient{})
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Keyword != "" {
		kw := "%" + q.Keyword + "%"
		query = query.Where("name LIKE ? OR contact LIKE ? OR venue LIKE ?", kw, kw, kw)
		countQuery = countQuery.Where("name LIKE ? OR contact LIKE ? OR venue LIKE ?", kw, kw, kw)
	}

	if err := query.Find(&summaries).Error; err != nil {
		return nil, 0, err
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

// ListPatients godoc
// @Summary      List patients
// @Description  Get a paginated patient summary list with optional keyword filtering
// @Tags         Patient
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        limit query int false "Limit number of results"
// @Param        offset query int false "Offset for pagination"
// @Param        keyword query string false "Search keyword for name, contact, or venue"
// @Success      200 {object} util.APIResponse{data=object} "Patients retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients [get]
func ListPatients(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	summaries, total, err := fetchPatientSummaries(db, parsePatientListQuery(c))
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve patients", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients retrieved",
		Data: map[string]interface{}{"total": total, "total_fetched": len(summaries), "patients": summaries},
	})
}

type patientWithStaff struct {
	model.Patient
	Staff *model.StaffSummary `json:"staff,omitempty"`
}

// FullPatientRecord aggregates everything stored for one patient.
type FullPatientRecord struct {
	Patient   patientWithStaff    `json:"patient"`
	Exams     []model.Examination `json:"exams"`
	Findings  []model.Finding     `json:"findings"`
	Diagnoses []model.Diagnosis   `json:"diagnoses"`
	Payments  []model.Payment     `json:"payments"`
}

func loadStaffSummary(db *gorm.DB, staffID uint) (*model.StaffSummary, error) {
	if staffID == 0 {
		return nil, nil
	}
	var user model.User
	if err := db.First(&user, staffID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	var role model.Role
	roleLabel := ""
	if err := db.First(&role, user.RoleID).Error; err == nil {
		roleLabel = role.Name
	}
	return &model.StaffSummary{ID: user.ID, Name: user.Name, Phone: user.Phone, Role: roleLabel}, nil
}

// fetchFullPatientRecord is fail-fast: the first fetch error aborts with that
// error. With zero examinations, findings and diagnoses are returned empty
// without being queried at all.
func fetchFullPatientRecord(db *gorm.DB, patientID string) (FullPatientRecord, error) {
	record := FullPatientRecord{
		Exams:     []model.Examination{},
		Findings:  []model.Finding{},
		Diagnoses: []model.Diagnosis{},
		Payments:  []model.Payment{},
	}

	var patient model.Patient
	if err := db.First(&patient, patientID).Error; err != nil {
		return record, err
	}
	record.Patient.Patient = patient

	staff, err := loadStaffSummary(db, patient.StaffID)
	if err != nil {
		return record, err
	}
	record.Patient.Staff = staff

	if err := db.Where("patient_id = ?", patient.ID).Order("created_at DESC").Find(&record.Exams).Error; err != nil {
		return record, err
	}

	if len(record.Exams) > 0 {
		examIDs := make([]uint, len(record.Exams))
		for i, e := range record.Exams {
			examIDs[i] = e.ID
		}
		if err := db.Where("exam_id IN ?", examIDs).Find(&record.Findings).Error; err != nil {
			return record, err
		}
		if err := db.Where("exam_id IN ?", examIDs).Find(&record.Diagnoses).Error; err != nil {
			return record, err
		}
	}

	if err := db.Where("patient_id = ?", patient.ID).Order("created_at ASC").Find(&record.Payments).Error; err != nil {
		return record, err
	}

	return record, nil
}

// GetPatientFullRecord godoc
// @Summary      Get a patient's full record
// @Description  Aggregate patient details, examinations, findings, diagnoses and payments
// @Tags         Patient
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        id path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=FullPatientRecord} "Patient record retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients/{id} [get]
func GetPatientFullRecord(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		util.CallUserError(c, util.APIErrorParams{Msg: "Missing patient ID", Err: fmt.Errorf("patient ID is required")})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	record, err := fetchFullPatientRecord(db, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve patient record", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient record retrieved",
		Data: record,
	})
}

// UpdatePatient godoc
// @Summary      Update patient details
// @Description  Merge provided fields into an existing patient; empty fields are left unchanged
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        id path int true "Patient ID"
// @Param        request body model.UpdatePatientRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients/{id} [put]
func UpdatePatient(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		util.CallUserError(c, util.APIErrorParams{Msg: "Missing patient ID", Err: fmt.Errorf("patient ID is required")})
		return
	}

	var req model.UpdatePatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return
	}

	if req.Name != "" {
		patient.Name = util.NormalizeName(req.Name)
	}
	if req.Contact != "" {
		patient.Contact = req.Contact
	}
	if req.Gender != "" {
		patient.Gender = req.Gender
	}
	if req.Age != 0 {
		patient.Age = req.Age
	}
	if req.Occupation != "" {
		patient.Occupation = req.Occupation
	}
	if req.Venue != "" {
		patient.Venue = req.Venue
	}
	if req.GuarantorName != "" {
		patient.GuarantorName = req.GuarantorName
	}
	if req.GuarantorContact != "" {
		patient.GuarantorContact = req.GuarantorContact
	}
	if req.AppointmentDate != "" {
		appointment, err := parseAppointmentDate(req.AppointmentDate)
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid appointment date", Err: err})
			return
		}
		patient.AppointmentDate = appointment
	}
	if req.AppointmentFor != "" {
		patient.AppointmentFor = req.AppointmentFor
	}

	if err := db.Save(&patient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update patient", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient updated",
		Data: patient,
	})
}
