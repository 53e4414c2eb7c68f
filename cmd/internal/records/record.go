package records

import "time"

// Record is one animal as stored in the cattle table.
type Record struct {
	ID         int64
	Breed      string
	Color      string
	Age        *int
	ShedNumber string
	Gender     string
	TagNumber  string
	Notes      string
	CreatedAt  time.Time
}

// RecordInput carries the writable fields of a Record.
type RecordInput struct {
	Breed      string
	Color      string
	Age        *int
	ShedNumber string
	Gender     string
	TagNumber  string
	Notes      string
	Now        time.Time
}

// HealthEntry is one checkup in an animal's health log.
type HealthEntry struct {
	ID             int64
	CattleID       int64
	CheckupDate    time.Time
	Diagnosis      string
	Medicines      string
	Remarks        string
	DoctorUsername string
	CreatedAt      time.Time
}

// HealthEntryInput describes a checkup to append.
// A zero CheckupDate means "today" in UTC.
type HealthEntryInput struct {
	CattleID       int64
	CheckupDate    time.Time
	Diagnosis      string
	Medicines      string
	Remarks        string
	DoctorUsername string
	Now            time.Time
}
