package endpoint

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/starvisioncare/clinic-backend/middleware"
	"github.com/starvisioncare/clinic-backend/model"
	"github.com/starvisioncare/clinic-backend/notify"
	"github.com/starvisioncare/clinic-backend/util"
)

var referralMailer notify.Mailer

// SetReferralMailer wires the mail channel used for referral snapshots.
// A nil mailer disables referral email without failing the referral itself.
func SetReferralMailer(m notify.Mailer) {
	referralMailer = m
}

type createReferralRequest struct {
	PatientID uint   `json:"patient_id" binding:"required"`
	ClinicID  uint   `json:"clinic_id" binding:"required"`
	Remark    string `json:"remark"`
}

func buildReferralSnapshot(record FullPatientRecord, remark string) notify.ReferralSnapshot {
	snapshot := notify.ReferralSnapshot{
		Name:           record.Patient.Name,
		Contact:        record.Patient.Contact,
		Gender:         record.Patient.Gender,
		Venue:          record.Patient.Venue,
		AppointmentFor: record.Patient.AppointmentFor,
		Findings:       record.Findings,
		Diagnoses:      record.Diagnoses,
		Payments:       record.Payments,
		Remark:         remark,
	}
	if record.Patient.AppointmentDate != nil {
		snapshot.AppointmentDate = record.Patient.AppointmentDate.Format("2006-01-02")
	}
	if len(record.Exams) > 0 {
		latest := record.Exams[0]
		snapshot.Exam = &latest
		snapshot.ChiefComplaint = latest.ChiefComplaint
	}
	return snapshot
}

func sendReferralSnapshot(clinic model.Clinic, record FullPatientRecord, remark string) {
	if referralMailer == nil {
		return
	}
	subject, body, err := notify.ComposeReferralEmail(buildReferralSnapshot(record, remark))
	if err != nil {
		util.LogNotificationFailure("email", clinic.Email, err)
		return
	}
	if err := referralMailer.SendHTMLEmail(clinic.Email, subject, body); err != nil {
		util.LogNotificationFailure("email", clinic.Email, err)
	}
}

// CreateReferral godoc
// @Summary      Refer a patient to an external clinic
// @Description  Persist a referral and email a snapshot of the patient's record to the clinic. The email is best-effort; a failed referral insert is logged but does not fail the request.
// @Tags         Referral
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        request body createReferralRequest true "Referral"
// @Success      200 {object} util.APIResponse{data=object} "Referral successful"
// @Failure      400 {object} util.APIResponse "Missing patient_id or clinic_id"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Doctor or admin role required"
// @Failure      404 {object} util.APIResponse "Clinic or patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /referrals [post]
func CreateReferral(c *gin.Context) {
	var req createReferralRequest
	if !bindJSONOrRespond(c, &req, "patient_id and clinic_id are required") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var clinic model.Clinic
	if err := db.First(&clinic, req.ClinicID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Referral clinic not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return
	}

	record, err := fetchFullPatientRecord(db, fmt.Sprintf("%d", req.PatientID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Patient not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load patient record", Err: err})
		return
	}

	referredBy, _ := middleware.GetUserID(c)
	referral := model.Referral{
		PatientID:    req.PatientID,
		ClinicID:     req.ClinicID,
		Remark:       req.Remark,
		ReferredByID: referredBy,
		ReferredAt:   time.Now(),
	}
	if err := db.Create(&referral).Error; err != nil {
		// The referral log is secondary to getting the snapshot out.
		util.LogSoftWriteFailure(referredBy, "referral", err)
	}

	sendReferralSnapshot(clinic, record, req.Remark)

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventReferralSent,
		UserID:    fmt.Sprintf("%d", referredBy),
		Email:     util.GetUserEmail(db, referredBy),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   fmt.Sprintf("Patient %d referred to clinic %d", req.PatientID, req.ClinicID),
	})

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Referral successful",
		Data: map[string]interface{}{"referral": referral},
	})
}

type clinicRequest struct {
	Name  string `json:"name" binding:"required" example:"Korle Bu Eye Centre"`
	Email string `json:"email" binding:"required,email" example:"referrals@korlebu.example"`
}

func isDuplicateKeyError(err error) bool {
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

// AddClinic godoc
// @Summary      Add a referral clinic
// @Description  Register an external clinic as a referral target
// @Tags         Referral
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        request body clinicRequest true "Clinic"
// @Success      200 {object} util.APIResponse{data=model.Clinic} "Clinic added successfully"
// @Failure      400 {object} util.APIResponse "Name and email are required"
// @Failure      409 {object} util.APIResponse "A clinic with this email already exists"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /referrals/add-clinic [post]
func AddClinic(c *gin.Context) {
	var req clinicRequest
	if !bindJSONOrRespond(c, &req, "Name and email are required to add a clinic") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	clinic := model.Clinic{Name: req.Name, Email: req.Email}
	if err := db.Create(&clinic).Error; err != nil {
		if isDuplicateKeyError(err) {
			util.CallConflict(c, util.APIErrorParams{Msg: "A clinic with this email already exists", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to add clinic", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Clinic added successfully", Data: clinic})
}

// UpdateClinic godoc
// @Summary      Update a referral clinic
// @Description  Update an external clinic's name and email
// @Tags         Referral
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        id path int true "Clinic ID"
// @Param        request body clinicRequest true "Clinic"
// @Success      200 {object} util.APIResponse{data=model.Clinic} "Clinic updated successfully"
// @Failure      404 {object} util.APIResponse "Clinic not found"
// @Failure      409 {object} util.APIResponse "A clinic with this email already exists"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /referrals/clinic/{id} [put]
func UpdateClinic(c *gin.Context) {
	var req clinicRequest
	if !bindJSONOrRespond(c, &req, "Name and email are required for the update") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	clinic, ok := loadByID[model.Clinic](c, db, "Clinic")
	if !ok {
		return
	}

	clinic.Name = req.Name
	clinic.Email = req.Email
	if err := db.Save(&clinic).Error; err != nil {
		if isDuplicateKeyError(err) {
			util.CallConflict(c, util.APIErrorParams{Msg: "A clinic with this email already exists", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update clinic", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Clinic updated successfully", Data: clinic})
}

// ListClinics godoc
// @Summary      List referral clinics
// @Description  Get all registered external clinics
// @Tags         Referral
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=object} "Clinics retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /referrals/clinics [get]
func ListClinics(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var clinics []model.Clinic
	if err := db.Order("name ASC").Find(&clinics).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve clinics", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Clinics retrieved",
		Data: map[string]interface{}{"clinics": clinics},
	})
}

// referralWithClinic is the referral listing row including clinic details.
type referralWithClinic struct {
	model.Referral
	Clinic model.Clinic `json:"clinic"`
}

func attachClinics(db *gorm.DB, referrals []model.Referral) ([]referralWithClinic, error) {
	clinicIDs := make([]uint, 0, len(referrals))
	seen := make(map[uint]struct{}, len(referrals))
	for _, r := range referrals {
		if _, ok := seen[r.ClinicID]; !ok {
			seen[r.ClinicID] = struct{}{}
			clinicIDs = append(clinicIDs, r.ClinicID)
		}
	}

	clinicsByID := make(map[uint]model.Clinic, len(clinicIDs))
	if len(clinicIDs) > 0 {
		var clinics []model.Clinic
		if err := db.Where("id IN ?", clinicIDs).Find(&clinics).Error; err != nil {
			return nil, err
		}
		for _, cl := range clinics {
			clinicsByID[cl.ID] = cl
		}
	}

	result := make([]referralWithClinic, len(referrals))
	for i, r := range referrals {
		result[i] = referralWithClinic{Referral: r, Clinic: clinicsByID[r.ClinicID]}
	}
	return result, nil
}

// ListReferrals godoc
// @Summary      List referrals
// @Description  Get all referrals with their clinic details
// @Tags         Referral
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=object} "Referrals retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /referrals [get]
func ListReferrals(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var referrals []model.Referral
	if err := db.Order("referred_at DESC").Find(&referrals).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve referrals", Err: err})
		return
	}

	withClinics, err := attachClinics(db, referrals)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve referral clinics", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Referrals retrieved",
		Data: map[string]interface{}{"referrals": withClinics},
	})
}

// ListPatientReferrals godoc
// @Summary      List a patient's referrals
// @Description  Get the referral history of one patient with clinic details
// @Tags         Referral
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        patientId path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=object} "Referrals retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /referrals/patient/{patientId} [get]
func ListPatientReferrals(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var referrals []model.Referral
	if err := db.Where("patient_id = ?", c.Param("patientId")).Order("referred_at DESC").Find(&referrals).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve referrals", Err: err})
		return
	}

	withClinics, err := attachClinics(db, referrals)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve referral clinics", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Referrals retrieved",
		Data: map[string]interface{}{"referrals": withClinics},
	})
}
