package wizard

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starvisioncare/clinic-backend/model"
)

type fakeSubmitter struct {
	payloads []RegistrationPayload
	err      error
	block    chan struct{}
}

func (s *fakeSubmitter) SubmitRegistration(ctx context.Context, payload RegistrationPayload) error {
	if s.block != nil {
		<-s.block
	}
	s.payloads = append(s.payloads, payload)
	return s.err
}

func filledForm(submitter Submitter) *RegistrationForm {
	f := NewRegistrationForm(submitter)
	f.Name = "Ama Mensah"
	f.Contact = "0551234567"
	f.Gender = "Female"
	f.Venue = "Accra"
	return f
}

func advanceTo(t *testing.T, f *RegistrationForm, target Step) {
	t.Helper()
	for f.Step() < target {
		if err := f.Advance(); err != nil {
			t.Fatalf("advance from %s failed: %v (errors: %v)", f.Step(), err, f.Errors())
		}
	}
}

func TestAdvanceValidatesOnlyCurrentStep(t *testing.T) {
	f := filledForm(nil)
	// A broken payments row must not block the patient-details step.
	f.Payments = []PaymentEntry{{Item: "", Amount: "-5"}}

	if err := f.Advance(); err != nil {
		t.Fatalf("expected step 0 to pass with a broken later step: %v", err)
	}
	assert.Equal(t, StepExamination, f.Step())
}

func TestFailedAdvanceKeepsStepAndData(t *testing.T) {
	f := NewRegistrationForm(nil)
	f.Name = "A"
	f.Contact = "055"
	f.Occupation = "Teacher"

	err := f.Advance()
	if err == nil {
		t.Fatal("expected validation failure")
	}

	assert.Equal(t, StepPatientDetails, f.Step(), "step must not move on failure")
	assert.Equal(t, "A", f.Name, "entered data must be preserved")
	assert.Equal(t, "Teacher", f.Occupation)

	errs := f.Errors()
	for _, key := range []string{"name", "contact", "gender", "venue"} {
		if _, ok := errs[key]; !ok {
			t.Fatalf("expected a field error for %q, got %v", key, errs)
		}
	}
}

func TestAdvanceClearsStaleErrors(t *testing.T) {
	f := NewRegistrationForm(nil)
	if err := f.Advance(); err == nil {
		t.Fatal("expected failure on an empty form")
	}
	f.Name = "Ama Mensah"
	f.Contact = "0551234567"
	f.Gender = "Female"
	f.Venue = "Accra"
	if err := f.Advance(); err != nil {
		t.Fatalf("advance failed after fixing fields: %v", err)
	}
	assert.Empty(t, f.Errors())
}

func TestExaminationStepRejectsNonNumericRefraction(t *testing.T) {
	f := filledForm(nil)
	advanceTo(t, f, StepExamination)

	f.Exam.AutoRefractionLeftSphere = "abc"
	if err := f.Advance(); err == nil {
		t.Fatal("expected refraction validation failure")
	}
	assert.Contains(t, f.Errors(), "auto_refraction_left_sphere")

	f.Exam.AutoRefractionLeftSphere = "-1.25"
	if err := f.Advance(); err != nil {
		t.Fatalf("numeric refraction should pass: %v", err)
	}
}

func TestPaymentAmountValidation(t *testing.T) {
	for amount, wantOK := range map[string]bool{"-5": false, "0": false, "12.50": true} {
		t.Run(amount, func(t *testing.T) {
			f := filledForm(nil)
			advanceTo(t, f, StepPayments)
			f.Payments = []PaymentEntry{{Item: "Consultation", Amount: amount}}

			err := f.Advance()
			if wantOK && err != nil {
				t.Fatalf("amount %s should pass: %v (errors: %v)", amount, err, f.Errors())
			}
			if !wantOK {
				if err == nil {
					t.Fatalf("amount %s should fail validation", amount)
				}
				assert.Contains(t, f.Errors(), "payments[0].amount")
			}
		})
	}
}

func TestDiagnosisCategoryValidation(t *testing.T) {
	f := filledForm(nil)
	advanceTo(t, f, StepDiagnoses)

	f.Diagnoses = []DiagnosisEntry{{Diagnosis: "Open-angle glaucoma", Category: "Glaucoma"}}
	if err := f.Advance(); err != nil {
		t.Fatalf("known category should pass: %v", err)
	}

	if err := f.Retreat(); err != nil {
		t.Fatalf("retreat failed: %v", err)
	}
	f.Diagnoses = []DiagnosisEntry{{Diagnosis: "Something", Category: "Dermatology"}}
	if err := f.Advance(); err == nil {
		t.Fatal("unknown category should fail")
	}

	f.Diagnoses[0].Category = ""
	if err := f.Advance(); err != nil {
		t.Fatalf("empty category should be accepted: %v", err)
	}
}

func TestRetreatFloorsAtFirstStep(t *testing.T) {
	f := filledForm(nil)
	if err := f.Retreat(); err == nil {
		t.Fatal("expected refusal at the first step")
	}
	advanceTo(t, f, StepExamination)
	if err := f.Retreat(); err != nil {
		t.Fatalf("retreat failed: %v", err)
	}
	assert.Equal(t, StepPatientDetails, f.Step())
}

func TestSubmitOnlyAtTerminalStep(t *testing.T) {
	submitter := &fakeSubmitter{}
	f := filledForm(submitter)

	if err := f.Submit(context.Background()); err == nil {
		t.Fatal("expected refusal before the final step")
	}
	assert.Empty(t, submitter.payloads)
}

func TestSubmitBuildsPayloadAndResets(t *testing.T) {
	submitter := &fakeSubmitter{}
	f := filledForm(submitter)
	f.Age = "34"
	f.Exam.VisualAcuityLeft = "6/6"
	f.Findings = []FindingEntry{{Type: "anterior", Finding: "Clear cornea"}}
	f.Payments = []PaymentEntry{{Item: "Consultation", Amount: "50"}}

	advanceTo(t, f, StepReferral)
	if err := f.Submit(context.Background()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if len(submitter.payloads) != 1 {
		t.Fatalf("expected one submission, got %d", len(submitter.payloads))
	}
	payload := submitter.payloads[0]
	assert.Equal(t, "Ama Mensah", payload.Name)
	assert.Equal(t, 34, payload.Age)
	assert.Equal(t, "", payload.AppointmentDate, "blank appointment date is omitted")
	assert.Equal(t, "6/6", payload.Examination.VisualAcuityLeft)
	if assert.Len(t, payload.Payments, 1) {
		assert.Equal(t, 50.0, payload.Payments[0].Amount)
		assert.Equal(t, model.PaymentStatusPending, payload.Payments[0].Status, "blank status defaults to pending")
	}

	// Successful submission resets the wizard for the next patient.
	assert.Equal(t, StepPatientDetails, f.Step())
	assert.Empty(t, f.Name)
	assert.Empty(t, f.Findings)
}

func TestFailedSubmitPreservesState(t *testing.T) {
	submitter := &fakeSubmitter{err: fmt.Errorf("backend unavailable")}
	f := filledForm(submitter)
	f.Findings = []FindingEntry{{Type: "anterior", Finding: "Clear cornea"}}
	advanceTo(t, f, StepReferral)

	if err := f.Submit(context.Background()); err == nil {
		t.Fatal("expected submission failure")
	}

	assert.Equal(t, StepReferral, f.Step(), "failed submission must keep the wizard at the final step")
	assert.Equal(t, "Ama Mensah", f.Name)
	assert.Len(t, f.Findings, 1)
	assert.False(t, f.Busy())
}

func TestNavigationRefusedWhileSubmitting(t *testing.T) {
	block := make(chan struct{})
	submitter := &fakeSubmitter{block: block}
	f := filledForm(submitter)
	advanceTo(t, f, StepReferral)

	done := make(chan error, 1)
	go func() { done <- f.Submit(context.Background()) }()

	// Wait for the submission goroutine to flip the busy flag.
	for !f.Busy() {
		runtime.Gosched()
	}

	if err := f.Retreat(); err == nil {
		t.Fatal("retreat must be refused while submitting")
	}
	if err := f.Submit(context.Background()); err == nil {
		t.Fatal("concurrent submit must be refused")
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("submission failed: %v", err)
	}
}

func TestRowMutators(t *testing.T) {
	f := NewRegistrationForm(nil)
	f.AddFinding()
	f.AddFinding()
	f.Findings[0].Type = "anterior"
	f.Findings[1].Type = "posterior"

	f.RemoveFinding(0)
	if assert.Len(t, f.Findings, 1) {
		assert.Equal(t, "posterior", f.Findings[0].Type)
	}

	// Out-of-range removals are ignored.
	f.RemoveFinding(5)
	f.RemoveFinding(-1)
	assert.Len(t, f.Findings, 1)
}
