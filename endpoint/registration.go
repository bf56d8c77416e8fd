package endpoint

import (
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/starvisioncare/clinic-backend/middleware"
	"github.com/starvisioncare/clinic-backend/model"
	"github.com/starvisioncare/clinic-backend/util"
)

// WelcomeSender delivers the post-registration welcome message. Satisfied by
// notify.WhatsAppClient; tests plug in fakes.
type WelcomeSender interface {
	SendTemplate(to, templateName string) error
}

var welcomeSender WelcomeSender

// SetWelcomeSender wires the welcome-message channel used after patient
// registration. A nil sender disables the welcome message.
func SetWelcomeSender(s WelcomeSender) {
	welcomeSender = s
}

const welcomeTemplate = "patient_welcome"

// jsonAmount tolerates both `"50"` and `50` in request bodies. Form clients
// submit amounts as strings.
type jsonAmount string

func (a *jsonAmount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = jsonAmount(s)
		return nil
	}
	*a = jsonAmount(data)
	return nil
}

func (a jsonAmount) value() (float64, error) {
	return strconv.ParseFloat(string(a), 64)
}

type registrationFinding struct {
	Type    string `json:"type" example:"Lens"`
	Finding string `json:"finding" example:"Cataract"`
}

type registrationDiagnosis struct {
	Diagnosis string `json:"diagnosis" example:"Myopia"`
	Category  string `json:"category" example:"Refractive Error"`
	Plan      string `json:"plan" example:"Spectacles"`
}

type registrationPayment struct {
	Category string     `json:"category" example:"Examination"`
	Item     string     `json:"item" example:"Consult"`
	Amount   jsonAmount `json:"amount" swaggertype:"string" example:"50"`
	Status   string     `json:"status" example:"pending"`
}

func (d registrationDiagnosis) toModel() model.Diagnosis {
	return model.Diagnosis{Diagnosis: d.Diagnosis, Category: d.Category, Plan: d.Plan}
}

func (p registrationPayment) toModel() (model.Payment, error) {
	amount, err := p.Amount.value()
	if err != nil {
		return model.Payment{}, fmt.Errorf("amount must be numeric")
	}
	return model.Payment{Category: p.Category, Item: p.Item, Amount: amount, Status: p.Status}, nil
}

// registerPatientRequest is the POST /patients body. The examination fields
// sit at the top level of the payload alongside the patient fields; the
// embedded struct flattens them for binding.
type registerPatientRequest struct {
	Name             string `json:"name" example:"Ama Mensah"`
	Contact          string `json:"contact" example:"0551234567"`
	Gender           string `json:"gender" example:"Female"`
	Age              int    `json:"age" example:"34"`
	Occupation       string `json:"occupation" example:"Teacher"`
	Venue            string `json:"venue" example:"Accra"`
	GuarantorName    string `json:"guarantor_name"`
	GuarantorContact string `json:"guarantor_contact"`
	ProfilePicture   string `json:"profile_picture"`
	AppointmentDate  string `json:"appointment_date" example:"2026-03-01"`
	AppointmentFor   string `json:"appointment_for" example:"Review"`

	model.Examination

	Findings  []registrationFinding   `json:"findings"`
	Diagnoses []registrationDiagnosis `json:"diagnoses"`
	Payments  []registrationPayment   `json:"payments"`
}

// RegistrationOutcome is the structured result of one registration attempt.
// Warnings lists the sub-writes that failed after the patient row was
// committed; an empty list means every requested write succeeded.
type RegistrationOutcome struct {
	Patient  model.Patient      `json:"patient"`
	Exam     *model.Examination `json:"exam"`
	Warnings []string           `json:"warnings"`
}

func numericOrEmpty(value string) bool {
	if value == "" {
		return true
	}
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

func validateRegistration(req registerPatientRequest) error {
	if utf8.RuneCountInString(req.Name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	if utf8.RuneCountInString(req.Contact) < 10 {
		return fmt.Errorf("contact must be at least 10 characters")
	}
	if req.Gender == "" {
		return fmt.Errorf("gender is required")
	}
	if req.Venue == "" {
		return fmt.Errorf("venue is required")
	}

	exam := req.Examination
	refractions := []string{
		exam.AutoRefractionLeftSphere, exam.AutoRefractionLeftCylinder, exam.AutoRefractionLeftAxis,
		exam.AutoRefractionRightSphere, exam.AutoRefractionRightCylinder, exam.AutoRefractionRightAxis,
		exam.SubjectiveRefractionLeftSphere, exam.SubjectiveRefractionLeftCylinder, exam.SubjectiveRefractionLeftAxis,
		exam.SubjectiveRefractionRightSphere, exam.SubjectiveRefractionRightCylinder, exam.SubjectiveRefractionRightAxis,
	}
	for _, r := range refractions {
		if !numericOrEmpty(r) {
			return fmt.Errorf("refraction values must be numeric: %q", r)
		}
	}

	for i, f := range req.Findings {
		if f.Type == "" || f.Finding == "" {
			return fmt.Errorf("finding %d: type and finding text are required", i+1)
		}
	}
	for i, d := range req.Diagnoses {
		if err := d.toModel().Validate(); err != nil {
			return fmt.Errorf("diagnosis %d: %w", i+1, err)
		}
	}
	for i, p := range req.Payments {
		payment, err := p.toModel()
		if err != nil {
			return fmt.Errorf("payment %d: %w", i+1, err)
		}
		if err := payment.Validate(); err != nil {
			return fmt.Errorf("payment %d: %w", i+1, err)
		}
	}
	return nil
}

func buildPatient(req registerPatientRequest, staffID uint) (model.Patient, error) {
	appointment, err := parseAppointmentDate(req.AppointmentDate)
	if err != nil {
		return model.Patient{}, err
	}
	return model.Patient{
		Name:             util.NormalizeName(req.Name),
		Contact:          req.Contact,
		Gender:           req.Gender,
		Age:              req.Age,
		Occupation:       req.Occupation,
		Venue:            req.Venue,
		GuarantorName:    req.GuarantorName,
		GuarantorContact: req.GuarantorContact,
		ProfilePicture:   req.ProfilePicture,
		AppointmentDate:  appointment,
		AppointmentFor:   req.AppointmentFor,
		StaffID:          staffID,
	}, nil
}

func sendWelcomeMessage(patient model.Patient) {
	if welcomeSender == nil {
		return
	}
	if err := welcomeSender.SendTemplate(patient.Contact, welcomeTemplate); err != nil {
		util.LogNotificationFailure("whatsapp", patient.Contact, err)
	}
}

// registerPatientRecord runs the registration write sequence. The patient
// insert is the only fatal step; every later write degrades to a warning so
// a partly stored visit is still returned to the caller.
func registerPatientRecord(db *gorm.DB, staffID uint, req registerPatientRequest) (RegistrationOutcome, error) {
	outcome := RegistrationOutcome{Warnings: []string{}}

	patient, err := buildPatient(req, staffID)
	if err != nil {
		return outcome, err
	}
	if err := db.Create(&patient).Error; err != nil {
		return outcome, fmt.Errorf("failed to register patient: %w", err)
	}
	outcome.Patient = patient

	sendWelcomeMessage(patient)

	examCreated := false
	if !req.Examination.IsEmpty() {
		exam := req.Examination
		// The flattened request can carry row metadata; a new row never does.
		exam.Model = gorm.Model{}
		exam.PatientID = patient.ID
		exam.StaffID = staffID
		if err := db.Create(&exam).Error; err != nil {
			util.LogSoftWriteFailure(staffID, "examination", err)
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("examination not stored: %v", err))
		} else {
			outcome.Exam = &exam
			examCreated = true
		}
	}

	if len(req.Findings) > 0 {
		if !examCreated {
			outcome.Warnings = append(outcome.Warnings, "findings not stored: no examination to attach them to")
		} else {
			findings := make([]model.Finding, len(req.Findings))
			for i, f := range req.Findings {
				findings[i] = model.Finding{ExamID: outcome.Exam.ID, Type: f.Type, Finding: f.Finding}
			}
			if err := db.Create(&findings).Error; err != nil {
				util.LogSoftWriteFailure(staffID, "findings", err)
				outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("findings not stored: %v", err))
			}
		}
	}

	if len(req.Diagnoses) > 0 {
		if !examCreated {
			outcome.Warnings = append(outcome.Warnings, "diagnoses not stored: no examination to attach them to")
		} else {
			diagnoses := make([]model.Diagnosis, len(req.Diagnoses))
			for i, d := range req.Diagnoses {
				diagnosis := d.toModel()
				diagnosis.ExamID = outcome.Exam.ID
				diagnoses[i] = diagnosis
			}
			if err := db.Create(&diagnoses).Error; err != nil {
				util.LogSoftWriteFailure(staffID, "diagnoses", err)
				outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("diagnoses not stored: %v", err))
			}
		}
	}

	if len(req.Payments) > 0 {
		payments := make([]model.Payment, 0, len(req.Payments))
		for i, p := range req.Payments {
			payment, err := p.toModel()
			if err != nil {
				outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("payment %d not stored: %v", i+1, err))
				continue
			}
			payment.PatientID = patient.ID
			if payment.Status == "" {
				payment.Status = model.PaymentStatusPending
			}
			payments = append(payments, payment)
		}
		if len(payments) > 0 {
			if err := db.Create(&payments).Error; err != nil {
				util.LogSoftWriteFailure(staffID, "payments", err)
				outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("payments not stored: %v", err))
			}
		}
	}

	return outcome, nil
}

// RegisterPatient godoc
// @Summary      Register a patient visit
// @Description  Store a patient plus optional examination, findings, diagnoses and payments in one call. The patient insert is fatal; later writes degrade to warnings in the response.
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        request body registerPatientRequest true "Registration payload"
// @Success      200 {object} util.APIResponse{data=RegistrationOutcome} "Patient registered"
// @Failure      400 {object} util.APIResponse "Validation failure or patient insert error"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Staff or admin role required"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients [post]
func RegisterPatient(c *gin.Context) {
	var req registerPatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	if err := validateRegistration(req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid registration payload", Err: err})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	staffID, _ := middleware.GetUserID(c)

	outcome, err := registerPatientRecord(db, staffID, req)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Failed to register patient", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient registered",
		Data: outcome,
	})
}
