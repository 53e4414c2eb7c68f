package records

import (
	"cmp"
	"slices"
	"strings"
)

// columns maps searchable fields to cattle table columns.
var columns = map[Field]string{
	FieldBreed:      "breed",
	FieldColor:      "color",
	FieldAge:        "age",
	FieldShedNumber: "shed_no",
	FieldGender:     "gender",
	FieldTagNumber:  "tag_number",
}

// Column size limits mirror the cattle table definition.
const (
	maxBreedLen     = 100
	maxColorLen     = 50
	maxShedLen      = 20
	maxGenderLen    = 10
	maxTagLen       = 50
	maxUsernameLen  = 100
	maxAge          = 60
	maxNotesBytes   = 16 << 10
	maxClinicalText = 16 << 10
)

func validateRecordInput(op string, in RecordInput) error {
	limits := []struct {
		name string
		v    string
		max  int
	}{
		{"breed", in.Breed, maxBreedLen},
		{"color", in.Color, maxColorLen},
		{"shed_number", in.ShedNumber, maxShedLen},
		{"gender", in.Gender, maxGenderLen},
		{"tag_number", in.TagNumber, maxTagLen},
	}
	for _, l := range limits {
		if len(strings.TrimSpace(l.v)) > l.max {
			return invalid(op, l.name+" is too long")
		}
	}
	if strings.TrimSpace(in.Breed) == "" {
		return invalid(op, "breed is required")
	}
	if in.Age != nil && (*in.Age < 0 || *in.Age > maxAge) {
		return invalid(op, "age out of range")
	}
	if len(in.Notes) > maxNotesBytes {
		return invalid(op, "notes is too long")
	}
	return nil
}

func validateHealthInput(op string, in HealthEntryInput) error {
	if in.CattleID <= 0 {
		return invalid(op, "missing cattle_id")
	}
	if len(strings.TrimSpace(in.DoctorUsername)) > maxUsernameLen {
		return invalid(op, "doctor_username is too long")
	}
	for _, v := range []string{in.Diagnosis, in.Medicines, in.Remarks} {
		if len(v) > maxClinicalText {
			return invalid(op, "clinical text is too long")
		}
	}
	return nil
}

// sortHealthEntries orders by checkup date, newest first, then by id descending.
func sortHealthEntries(es []HealthEntry) {
	slices.SortStableFunc(es, func(a, b HealthEntry) int {
		if c := b.CheckupDate.Compare(a.CheckupDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
