package model

import "testing"

func TestValidDiagnosisCategory(t *testing.T) {
	for _, category := range DiagnosisCategories {
		if !ValidDiagnosisCategory(category) {
			t.Fatalf("category %q should be valid", category)
		}
	}
	if !ValidDiagnosisCategory("") {
		t.Fatal("empty category means no category and must be accepted")
	}
	if ValidDiagnosisCategory("Dermatology") {
		t.Fatal("unknown category should be rejected")
	}
}

func TestDiagnosisValidate(t *testing.T) {
	if err := (Diagnosis{Diagnosis: "Myopia", Category: "Refractive Error"}).Validate(); err != nil {
		t.Fatalf("valid diagnosis rejected: %v", err)
	}
	if err := (Diagnosis{Category: "Glaucoma"}).Validate(); err == nil {
		t.Fatal("diagnosis text is required")
	}
	if err := (Diagnosis{Diagnosis: "Rash", Category: "Dermatology"}).Validate(); err == nil {
		t.Fatal("unknown category should fail validation")
	}
}

func TestDiagnosisCategoryRoundTrip(t *testing.T) {
	db := setupTestDB(t, "diagnosis", &Diagnosis{})

	stored := Diagnosis{ExamID: 1, Diagnosis: "Open-angle glaucoma", Category: "Glaucoma"}
	if err := db.Create(&stored).Error; err != nil {
		t.Fatalf("create diagnosis: %v", err)
	}

	var loaded Diagnosis
	if err := db.First(&loaded, stored.ID).Error; err != nil {
		t.Fatalf("load diagnosis: %v", err)
	}
	if loaded.Category != "Glaucoma" {
		t.Fatalf("category did not round-trip, got %q", loaded.Category)
	}
}
