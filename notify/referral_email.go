package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/starvisioncare/clinic-backend/model"
)

// ReferralSnapshot carries the patient data rendered into a referral email.
// It is a point-in-time copy so the email reflects the record as referred,
// not whatever the record looks like when the mail is finally delivered.
type ReferralSnapshot struct {
	Name            string
	Contact         string
	Gender          string
	Venue           string
	AppointmentDate string
	AppointmentFor  string
	ChiefComplaint  string
	Exam            *model.Examination
	Findings        []model.Finding
	Diagnoses       []model.Diagnosis
	Payments        []model.Payment
	Remark          string
}

var referralEmailTmpl = template.Must(template.New("referral").Funcs(template.FuncMap{
	"orNA": func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	},
	"amountOrNA": func(a float64) string {
		if a == 0 {
			return "N/A"
		}
		return fmt.Sprintf("%.2f", a)
	},
}).Parse(`<h2>New Patient Referral</h2>
<p>Please find the details for a new patient referral below.</p>

<h3>Patient Details</h3>
<ul>
  <li><b>Name:</b> {{orNA .Name}}</li>
  <li><b>Contact:</b> {{orNA .Contact}}</li>
  <li><b>Gender:</b> {{orNA .Gender}}</li>
  <li><b>Venue:</b> {{orNA .Venue}}</li>
  <li><b>Appointment Date:</b> {{orNA .AppointmentDate}}</li>
  <li><b>Reason for Appointment:</b> {{orNA .AppointmentFor}}</li>
  <li><b>Chief Complaint:</b> {{orNA .ChiefComplaint}}</li>
</ul>

{{if .Exam}}<h3>Examination Details</h3>
<ul>
  <li><b>Visual Acuity (Left):</b> {{orNA .Exam.VisualAcuityLeft}}</li>
  <li><b>Visual Acuity (Right):</b> {{orNA .Exam.VisualAcuityRight}}</li>
  <li><b>Pinhole (Left):</b> {{orNA .Exam.PinholeLeft}}</li>
  <li><b>Pinhole (Right):</b> {{orNA .Exam.PinholeRight}}</li>
  <li><b>Left Refraction (Sphere):</b> {{orNA .Exam.AutoRefractionLeftSphere}}</li>
  <li><b>Left Refraction (Cylinder):</b> {{orNA .Exam.AutoRefractionLeftCylinder}}</li>
  <li><b>Left Refraction (Axis):</b> {{orNA .Exam.AutoRefractionLeftAxis}}</li>
  <li><b>Right Refraction (Sphere):</b> {{orNA .Exam.AutoRefractionRightSphere}}</li>
  <li><b>Right Refraction (Cylinder):</b> {{orNA .Exam.AutoRefractionRightCylinder}}</li>
  <li><b>Right Refraction (Axis):</b> {{orNA .Exam.AutoRefractionRightAxis}}</li>
</ul>
{{end}}
{{if .Findings}}<h3>Findings</h3>
<ul>
{{range .Findings}}  <li>{{orNA .Finding}}</li>
{{end}}</ul>
{{end}}
{{if .Diagnoses}}<h3>Diagnoses &amp; Treatment Plans</h3>
<ul>
{{range .Diagnoses}}  <li>
    <b>Diagnosis:</b> {{orNA .Diagnosis}} <br>
    <b>Category:</b> {{orNA .Category}} <br>
    <b>Treatment Plan:</b> {{orNA .Plan}}
  </li>
{{end}}</ul>
{{end}}
{{if .Payments}}<h3>Payments</h3>
<ul>
{{range .Payments}}  <li>
    <b>Description:</b> {{orNA .Item}} <br>
    <b>Amount:</b> {{amountOrNA .Amount}}
  </li>
{{end}}</ul>
{{end}}
{{if .Remark}}<h3>Remarks</h3>
<p>{{.Remark}}</p>
{{end}}
<p>This patient was referred by Star Vision.</p>`))

// ComposeReferralEmail renders a referral snapshot into a subject line and
// HTML body ready to hand to a Mailer.
func ComposeReferralEmail(snapshot ReferralSnapshot) (subject, htmlBody string, err error) {
	name := snapshot.Name
	if name == "" {
		name = "N/A"
	}
	subject = "Patient Referral: " + name

	var buf bytes.Buffer
	if err := referralEmailTmpl.Execute(&buf, snapshot); err != nil {
		return "", "", fmt.Errorf("failed to render referral email: %w", err)
	}
	return subject, buf.String(), nil
}
