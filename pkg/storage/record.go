package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"questionnairebot/pkg/generator"
)

// SurveyRecord is one completed survey: the three validated answers plus the
// generated filler.
type SurveyRecord struct {
	UserID      int64
	FullName    string
	BirthDate   time.Time
	Citizenship string
	Filler      generator.Filler
	CreatedAt   time.Time
}

// BirthDateLayout is the layout of birth dates in answers and reports.
const BirthDateLayout = "02.01.2006"

// NewSurveyRecord merges validated answers with filler. birthDate must be DD.MM.YYYY.
func NewSurveyRecord(userID int64, fullName, birthDate, citizenship string, filler generator.Filler) (SurveyRecord, error) {
	date, err := time.Parse(BirthDateLayout, birthDate)
	if err != nil {
		return SurveyRecord{}, fmt.Errorf("parse birth date %q: %w", birthDate, err)
	}
	return SurveyRecord{
		UserID:      userID,
		FullName:    fullName,
		BirthDate:   date,
		Citizenship: citizenship,
		Filler:      filler,
	}, nil
}

// Fields flattens the record into column keys for report rendering.
func (r SurveyRecord) Fields() map[string]string {
	f := r.Filler
	return map[string]string{
		"full_name":           r.FullName,
		"birth_date":          r.BirthDate.Format(BirthDateLayout),
		"citizenship":         r.Citizenship,
		"phone_number":        f.PhoneNumber,
		"email":               f.Email,
		"address":             f.Address,
		"passport_series":     f.PassportSeries,
		"passport_number":     f.PassportNumber,
		"passport_issued_by":  f.PassportIssuedBy,
		"passport_issue_date": f.PassportIssueDate,
		"inn":                 f.INN,
		"snils":               f.SNILS,
		"education":           f.Education,
		"occupation":          f.Occupation,
		"income_level":        f.IncomeLevel,
		"marital_status":      f.MaritalStatus,
		"children_count":      strconv.Itoa(f.ChildrenCount),
	}
}

// RecordSink persists completed surveys. Save returns the new record id.
type RecordSink interface {
	Save(ctx context.Context, rec SurveyRecord) (int64, error)
}

// HistoryReader lists the saved records of one user, oldest first.
type HistoryReader interface {
	ByUser(ctx context.Context, userID int64) ([]SurveyRecord, error)
}

// Sink is a RecordSink that can also report health, list history and be closed.
type Sink interface {
	RecordSink
	HistoryReader
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Close() error
}
