package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/starvisioncare/clinic-backend/model"
	"github.com/starvisioncare/clinic-backend/util"
)

func loadByID[T any](c *gin.Context, db *gorm.DB, label string) (T, bool) {
	var entity T
	id := c.Param("id")
	if id == "" {
		util.CallUserError(c, util.APIErrorParams{Msg: "Missing " + label + " ID", Err: fmt.Errorf("%s ID is required", label)})
		return entity, false
	}
	if err := db.First(&entity, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: label + " not found", Err: err})
		} else {
			util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		}
		return entity, false
	}
	return entity, true
}

type updateExaminationRequest struct {
	VisualAcuityLeft  string `json:"visual_acuity_left"`
	VisualAcuityRight string `json:"visual_acuity_right"`
	PinholeLeft       string `json:"pinhole_left"`
	PinholeRight      string `json:"pinhole_right"`

	AutoRefractionLeftSphere    string `json:"auto_refraction_left_sphere"`
	AutoRefractionLeftCylinder  string `json:"auto_refraction_left_cylinder"`
	AutoRefractionLeftAxis      string `json:"auto_refraction_left_axis"`
	AutoRefractionRightSphere   string `json:"auto_refraction_right_sphere"`
	AutoRefractionRightCylinder string `json:"auto_refraction_right_cylinder"`
	AutoRefractionRightAxis     string `json:"auto_refraction_right_axis"`

	SubjectiveRefractionLeftSphere    string `json:"subjective_refraction_left_sphere"`
	SubjectiveRefractionLeftCylinder  string `json:"subjective_refraction_left_cylinder"`
	SubjectiveRefractionLeftAxis      string `json:"subjective_refraction_left_axis"`
	SubjectiveRefractionRightSphere   string `json:"subjective_refraction_right_sphere"`
	SubjectiveRefractionRightCylinder string `json:"subjective_refraction_right_cylinder"`
	SubjectiveRefractionRightAxis     string `json:"subjective_refraction_right_axis"`

	ChiefComplaint string `json:"chief_complaint"`
}

func mergeExamFields(exam *model.Examination, req updateExaminationRequest) {
	fields := []struct {
		src string
		dst *string
	}{
		{req.VisualAcuityLeft, &exam.VisualAcuityLeft},
		{req.VisualAcuityRight, &exam.VisualAcuityRight},
		{req.PinholeLeft, &exam.PinholeLeft},
		{req.PinholeRight, &exam.PinholeRight},
		{req.AutoRefractionLeftSphere, &exam.AutoRefractionLeftSphere},
		{req.AutoRefractionLeftCylinder, &exam.AutoRefractionLeftCylinder},
		{req.AutoRefractionLeftAxis, &exam.AutoRefractionLeftAxis},
		{req.AutoRefractionRightSphere, &exam.AutoRefractionRightSphere},
		{req.AutoRefractionRightCylinder, &exam.AutoRefractionRightCylinder},
		{req.AutoRefractionRightAxis, &exam.AutoRefractionRightAxis},
		{req.SubjectiveRefractionLeftSphere, &exam.SubjectiveRefractionLeftSphere},
		{req.SubjectiveRefractionLeftCylinder, &exam.SubjectiveRefractionLeftCylinder},
		{req.SubjectiveRefractionLeftAxis, &exam.SubjectiveRefractionLeftAxis},
		{req.SubjectiveRefractionRightSphere, &exam.SubjectiveRefractionRightSphere},
		{req.SubjectiveRefractionRightCylinder, &exam.SubjectiveRefractionRightCylinder},
		{req.SubjectiveRefractionRightAxis, &exam.SubjectiveRefractionRightAxis},
		{req.ChiefComplaint, &exam.ChiefComplaint},
	}
	for _, f := range fields {
		if f.src != "" {
			*f.dst = f.src
		}
	}
}

// UpdateExamination godoc
// @Summary      Update an examination
// @Description  Merge provided examination fields; empty fields are left unchanged
// @Tags         Examination
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        id path int true "Examination ID"
// @Param        request body updateExaminationRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=model.Examination} "Examination updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Examination not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients/examinations/{id} [put]
func UpdateExamination(c *gin.Context) {
	var req updateExaminationRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	exam, ok := loadByID[model.Examination](c, db, "Examination")
	if !ok {
		return
	}

	mergeExamFields(&exam, req)

	if err := db.Save(&exam).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update examination", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Examination updated", Data: exam})
}

type updateFindingRequest struct {
	Type    string `json:"type"`
	Finding string `json:"finding"`
}

// UpdateFinding godoc
// @Summary      Update a finding
// @Description  Merge provided finding fields; empty fields are left unchanged
// @Tags         Examination
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        id path int true "Finding ID"
// @Param        request body updateFindingRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=model.Finding} "Finding updated"
// @Failure      404 {object} util.APIResponse "Finding not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients/examination_findings/{id} [put]
func UpdateFinding(c *gin.Context) {
	var req updateFindingRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	finding, ok := loadByID[model.Finding](c, db, "Finding")
	if !ok {
		return
	}

	if req.Type != "" {
		finding.Type = req.Type
	}
	if req.Finding != "" {
		finding.Finding = req.Finding
	}

	if err := db.Save(&finding).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update finding", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Finding updated", Data: finding})
}

type updateDiagnosisRequest struct {
	Diagnosis string `json:"diagnosis"`
	Category  string `json:"category"`
	Plan      string `json:"plan"`
}

// UpdateDiagnosis godoc
// @Summary      Update a diagnosis
// @Description  Merge provided diagnosis fields; the category must stay within the accepted set
// @Tags         Examination
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        id path int true "Diagnosis ID"
// @Param        request body updateDiagnosisRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=model.Diagnosis} "Diagnosis updated"
// @Failure      400 {object} util.APIResponse "Unknown diagnosis category"
// @Failure      404 {object} util.APIResponse "Diagnosis not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients/diagnoses/{id} [put]
func UpdateDiagnosis(c *gin.Context) {
	var req updateDiagnosisRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	if req.Category != "" && !model.ValidDiagnosisCategory(req.Category) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Unknown diagnosis category",
			Err: fmt.Errorf("category %q is not in the accepted set", req.Category),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	diagnosis, ok := loadByID[model.Diagnosis](c, db, "Diagnosis")
	if !ok {
		return
	}

	if req.Diagnosis != "" {
		diagnosis.Diagnosis = req.Diagnosis
	}
	if req.Category != "" {
		diagnosis.Category = req.Category
	}
	if req.Plan != "" {
		diagnosis.Plan = req.Plan
	}

	if err := db.Save(&diagnosis).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update diagnosis", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Diagnosis updated", Data: diagnosis})
}

// loadPatientExam checks that the exam exists and belongs to the patient in
// the route. Findings and diagnoses are invalid without such an examination.
func loadPatientExam(c *gin.Context, db *gorm.DB, examID uint) (model.Examination, bool) {
	patientID := c.Param("patientId")
	if examID == 0 {
		util.CallUserError(c, util.APIErrorParams{Msg: "exam_id is required", Err: fmt.Errorf("exam_id is required")})
		return model.Examination{}, false
	}

	var exam model.Examination
	if err := db.First(&exam, examID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Examination not found", Err: err})
		} else {
			util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		}
		return model.Examination{}, false
	}
	if fmt.Sprintf("%d", exam.PatientID) != patientID {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Examination does not belong to this patient",
			Err: fmt.Errorf("exam %d belongs to patient %d", exam.ID, exam.PatientID),
		})
		return model.Examination{}, false
	}
	return exam, true
}

type addFindingRequest struct {
	ExamID  uint   `json:"exam_id" binding:"required"`
	Type    string `json:"type" binding:"required"`
	Finding string `json:"finding" binding:"required"`
}

// AddFinding godoc
// @Summary      Add a finding to an examination
// @Description  Append one finding to an existing examination of the patient
// @Tags         Examination
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        patientId path int true "Patient ID"
// @Param        request body addFindingRequest true "Finding"
// @Success      200 {object} util.APIResponse{data=model.Finding} "Finding added"
// @Failure      400 {object} util.APIResponse "Invalid request or exam does not belong to patient"
// @Failure      404 {object} util.APIResponse "Examination not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients/{patientId}/findings [post]
func AddFinding(c *gin.Context) {
	var req addFindingRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	exam, ok := loadPatientExam(c, db, req.ExamID)
	if !ok {
		return
	}

	finding := model.Finding{ExamID: exam.ID, Type: req.Type, Finding: req.Finding}
	if err := db.Create(&finding).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to add finding", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Finding added", Data: finding})
}

type addDiagnosisRequest struct {
	ExamID    uint   `json:"exam_id" binding:"required"`
	Diagnosis string `json:"diagnosis" binding:"required"`
	Category  string `json:"category"`
	Plan      string `json:"plan"`
}

// AddDiagnosis godoc
// @Summary      Add a diagnosis to an examination
// @Description  Append one diagnosis to an existing examination of the patient
// @Tags         Examination
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     SessionToken
// @Param        patientId path int true "Patient ID"
// @Param        request body addDiagnosisRequest true "Diagnosis"
// @Success      200 {object} util.APIResponse{data=model.Diagnosis} "Diagnosis added"
// @Failure      400 {object} util.APIResponse "Invalid request, unknown category, or exam does not belong to patient"
// @Failure      404 {object} util.APIResponse "Examination not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients/{patientId}/diagnoses [post]
func AddDiagnosis(c *gin.Context) {
	var req addDiagnosisRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	diagnosis := model.Diagnosis{Diagnosis: req.Diagnosis, Category: req.Category, Plan: req.Plan}
	if err := diagnosis.Validate(); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid diagnosis", Err: err})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	exam, ok := loadPatientExam(c, db, req.ExamID)
	if !ok {
		return
	}

	diagnosis.ExamID = exam.ID
	if err := db.Create(&diagnosis).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to add diagnosis", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Diagnosis added", Data: diagnosis})
}
