// Package wizard implements the multi-step patient registration form as a
// reusable state machine. It validates one step at a time, keeps entered data
// across failed validations, and assembles the registration payload submitted
// to the backend.
package wizard

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/starvisioncare/clinic-backend/model"
)

// Step identifies one page of the registration wizard.
type Step int

const (
	StepPatientDetails Step = iota
	StepExamination
	StepFindings
	StepDiagnoses
	StepPayments
	StepReferral // terminal step
)

func (s Step) String() string {
	switch s {
	case StepPatientDetails:
		return "patient details"
	case StepExamination:
		return "examination"
	case StepFindings:
		return "findings"
	case StepDiagnoses:
		return "diagnoses"
	case StepPayments:
		return "payments"
	case StepReferral:
		return "referral"
	}
	return fmt.Sprintf("step %d", int(s))
}

// FindingEntry is one finding row in the findings step.
type FindingEntry struct {
	Type    string
	Finding string
}

// DiagnosisEntry is one diagnosis row in the diagnoses step.
type DiagnosisEntry struct {
	Diagnosis string
	Category  string
	Plan      string
}

// PaymentEntry is one payment row in the payments step. Amount is kept as
// the raw form input so validation can report non-numeric values.
type PaymentEntry struct {
	Category string
	Item     string
	Amount   string
	Status   string
}

// RegistrationPayload is the request body assembled on submission.
type RegistrationPayload struct {
	Name             string `json:"name"`
	Contact          string `json:"contact"`
	Gender           string `json:"gender"`
	Age              int    `json:"age,omitempty"`
	Occupation       string `json:"occupation,omitempty"`
	Venue            string `json:"venue"`
	GuarantorName    string `json:"guarantor_name,omitempty"`
	GuarantorContact string `json:"guarantor_contact,omitempty"`
	AppointmentDate  string `json:"appointment_date,omitempty"`
	AppointmentFor   string `json:"appointment_for,omitempty"`

	Examination model.Examination `json:"examination"`
	Findings    []model.Finding   `json:"findings"`
	Diagnoses   []model.Diagnosis `json:"diagnoses"`
	Payments    []model.Payment   `json:"payments"`
}

// Submitter delivers an assembled payload to the backend.
type Submitter interface {
	SubmitRegistration(ctx context.Context, payload RegistrationPayload) error
}

// RegistrationForm is the wizard state for one registration in progress.
// All methods are safe for concurrent use; validation and submission never
// overlap for the same form.
type RegistrationForm struct {
	mu   sync.Mutex
	step Step
	busy bool

	errors map[string]string

	Name             string
	Contact          string
	Gender           string
	Age              string
	Occupation       string
	Venue            string
	GuarantorName    string
	GuarantorContact string
	AppointmentDate  string
	AppointmentFor   string

	Exam model.Examination

	Findings  []FindingEntry
	Diagnoses []DiagnosisEntry
	Payments  []PaymentEntry

	submitter Submitter
}

// NewRegistrationForm returns a form at the first step bound to a submitter.
func NewRegistrationForm(submitter Submitter) *RegistrationForm {
	return &RegistrationForm{
		submitter: submitter,
		errors:    map[string]string{},
	}
}

// Step returns the current wizard step.
func (f *RegistrationForm) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Busy reports whether a submission is in flight.
func (f *RegistrationForm) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Errors returns a copy of the field-keyed validation errors from the most
// recent Advance or Submit attempt.
func (f *RegistrationForm) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// AddFinding appends an empty finding row.
func (f *RegistrationForm) AddFinding() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Findings = append(f.Findings, FindingEntry{})
}

// RemoveFinding removes the row at index i; out-of-range indexes are ignored.
func (f *RegistrationForm) RemoveFinding(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= 0 && i < len(f.Findings) {
		f.Findings = append(f.Findings[:i], f.Findings[i+1:]...)
	}
}

// AddDiagnosis appends an empty diagnosis row.
func (f *RegistrationForm) AddDiagnosis() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Diagnoses = append(f.Diagnoses, DiagnosisEntry{})
}

// RemoveDiagnosis removes the row at index i; out-of-range indexes are ignored.
func (f *RegistrationForm) RemoveDiagnosis(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= 0 && i < len(f.Diagnoses) {
		f.Diagnoses = append(f.Diagnoses[:i], f.Diagnoses[i+1:]...)
	}
}

// AddPayment appends an empty payment row.
func (f *RegistrationForm) AddPayment() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Payments = append(f.Payments, PaymentEntry{})
}

// RemovePayment removes the row at index i; out-of-range indexes are ignored.
func (f *RegistrationForm) RemovePayment(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= 0 && i < len(f.Payments) {
		f.Payments = append(f.Payments[:i], f.Payments[i+1:]...)
	}
}

// Advance validates the current step and moves forward on success. On
// validation failure the step and all entered data are unchanged and the
// field errors are available via Errors.
func (f *RegistrationForm) Advance() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.busy {
		return fmt.Errorf("submission in progress")
	}
	if f.step >= StepReferral {
		return fmt.Errorf("already at the final step")
	}

	errs := f.validateStep(f.step)
	f.errors = errs
	if len(errs) > 0 {
		return fmt.Errorf("%s step has %d invalid field(s)", f.step, len(errs))
	}

	f.step++
	return nil
}

// Retreat moves one step back. It never validates and never drops data; the
// only refusals are the first step and an in-flight submission.
func (f *RegistrationForm) Retreat() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.busy {
		return fmt.Errorf("submission in progress")
	}
	if f.step == 0 {
		return fmt.Errorf("already at the first step")
	}
	f.step--
	return nil
}

func numericOrEmpty(value string) bool {
	if value == "" {
		return true
	}
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

func (f *RegistrationForm) validateStep(step Step) map[string]string {
	errs := map[string]string{}
	switch step {
	case StepPatientDetails:
		if utf8.RuneCountInString(f.Name) < 2 {
			errs["name"] = "name must be at least 2 characters"
		}
		if utf8.RuneCountInString(f.Contact) < 10 {
			errs["contact"] = "contact must be at least 10 characters"
		}
		if f.Gender == "" {
			errs["gender"] = "gender is required"
		}
		if f.Venue == "" {
			errs["venue"] = "venue is required"
		}
		if f.Age != "" {
			if _, err := strconv.Atoi(f.Age); err != nil {
				errs["age"] = "age must be a whole number"
			}
		}
	case StepExamination:
		refractions := map[string]string{
			"auto_refraction_left_sphere":          f.Exam.AutoRefractionLeftSphere,
			"auto_refraction_left_cylinder":        f.Exam.AutoRefractionLeftCylinder,
			"auto_refraction_left_axis":            f.Exam.AutoRefractionLeftAxis,
			"auto_refraction_right_sphere":         f.Exam.AutoRefractionRightSphere,
			"auto_refraction_right_cylinder":       f.Exam.AutoRefractionRightCylinder,
			"auto_refraction_right_axis":           f.Exam.AutoRefractionRightAxis,
			"subjective_refraction_left_sphere":    f.Exam.SubjectiveRefractionLeftSphere,
			"subjective_refraction_left_cylinder":  f.Exam.SubjectiveRefractionLeftCylinder,
			"subjective_refraction_left_axis":      f.Exam.SubjectiveRefractionLeftAxis,
			"subjective_refraction_right_sphere":   f.Exam.SubjectiveRefractionRightSphere,
			"subjective_refraction_right_cylinder": f.Exam.SubjectiveRefractionRightCylinder,
			"subjective_refraction_right_axis":     f.Exam.SubjectiveRefractionRightAxis,
		}
		for field, value := range refractions {
			if !numericOrEmpty(value) {
				errs[field] = "must be a number"
			}
		}
	case StepFindings:
		for i, entry := range f.Findings {
			if entry.Type == "" {
				errs[fmt.Sprintf("findings[%d].type", i)] = "finding type is required"
			}
			if entry.Finding == "" {
				errs[fmt.Sprintf("findings[%d].finding", i)] = "finding text is required"
			}
		}
	case StepDiagnoses:
		for i, entry := range f.Diagnoses {
			if entry.Diagnosis == "" {
				errs[fmt.Sprintf("diagnoses[%d].diagnosis", i)] = "diagnosis text is required"
			}
			if !model.ValidDiagnosisCategory(entry.Category) {
				errs[fmt.Sprintf("diagnoses[%d].category", i)] = "unknown diagnosis category"
			}
		}
	case StepPayments:
		for i, entry := range f.Payments {
			if entry.Item == "" {
				errs[fmt.Sprintf("payments[%d].item", i)] = "payment item is required"
			}
			amount, err := strconv.ParseFloat(entry.Amount, 64)
			if err != nil || amount <= 0 {
				errs[fmt.Sprintf("payments[%d].amount", i)] = "amount must be a positive number"
			}
			if entry.Status != "" && entry.Status != model.PaymentStatusPending && entry.Status != model.PaymentStatusPaid {
				errs[fmt.Sprintf("payments[%d].status", i)] = "status must be pending or paid"
			}
		}
	case StepReferral:
		// Nothing to validate on the terminal step.
	}
	return errs
}

func (f *RegistrationForm) validateAll() map[string]string {
	for step := StepPatientDetails; step <= StepPayments; step++ {
		if errs := f.validateStep(step); len(errs) > 0 {
			return errs
		}
	}
	return map[string]string{}
}

func (f *RegistrationForm) buildPayload() RegistrationPayload {
	age, _ := strconv.Atoi(f.Age)

	payload := RegistrationPayload{
		Name:             f.Name,
		Contact:          f.Contact,
		Gender:           f.Gender,
		Age:              age,
		Occupation:       f.Occupation,
		Venue:            f.Venue,
		GuarantorName:    f.GuarantorName,
		GuarantorContact: f.GuarantorContact,
		AppointmentDate:  f.AppointmentDate,
		AppointmentFor:   f.AppointmentFor,
		Examination:      f.Exam,
		Findings:         make([]model.Finding, 0, len(f.Findings)),
		Diagnoses:        make([]model.Diagnosis, 0, len(f.Diagnoses)),
		Payments:         make([]model.Payment, 0, len(f.Payments)),
	}

	for _, entry := range f.Findings {
		payload.Findings = append(payload.Findings, model.Finding{Type: entry.Type, Finding: entry.Finding})
	}
	for _, entry := range f.Diagnoses {
		payload.Diagnoses = append(payload.Diagnoses, model.Diagnosis{
			Diagnosis: entry.Diagnosis,
			Category:  entry.Category,
			Plan:      entry.Plan,
		})
	}
	for _, entry := range f.Payments {
		amount, _ := strconv.ParseFloat(entry.Amount, 64)
		status := entry.Status
		if status == "" {
			status = model.PaymentStatusPending
		}
		payload.Payments = append(payload.Payments, model.Payment{
			Category: entry.Category,
			Item:     entry.Item,
			Amount:   amount,
			Status:   status,
		})
	}
	return payload
}

// reset clears everything except the submitter binding. Assigning a fresh
// struct would clobber the held mutex, so fields are cleared one by one.
func (f *RegistrationForm) reset() {
	f.step = StepPatientDetails
	f.errors = map[string]string{}
	f.Name, f.Contact, f.Gender, f.Age = "", "", "", ""
	f.Occupation, f.Venue = "", ""
	f.GuarantorName, f.GuarantorContact = "", ""
	f.AppointmentDate, f.AppointmentFor = "", ""
	f.Exam = model.Examination{}
	f.Findings = nil
	f.Diagnoses = nil
	f.Payments = nil
}

// Submit validates the whole form and delivers the payload through the
// submitter. It is only legal at the final step. On success the form resets
// to a fresh first step; on failure every entered value is preserved so the
// user can retry.
func (f *RegistrationForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return fmt.Errorf("submission in progress")
	}
	if f.step != StepReferral {
		f.mu.Unlock()
		return fmt.Errorf("cannot submit from the %s step", f.step)
	}
	if f.submitter == nil {
		f.mu.Unlock()
		return fmt.Errorf("no submitter configured")
	}

	if errs := f.validateAll(); len(errs) > 0 {
		f.errors = errs
		f.mu.Unlock()
		return fmt.Errorf("form has %d invalid field(s)", len(errs))
	}

	payload := f.buildPayload()
	f.busy = true
	f.mu.Unlock()

	err := f.submitter.SubmitRegistration(ctx, payload)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
	if err != nil {
		return fmt.Errorf("registration submission failed: %w", err)
	}
	f.reset()
	return nil
}
