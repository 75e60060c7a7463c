package models

import (
	"strings"

	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/google/uuid"
	"github.com/ryanuber/go-glob"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// IncomeStream is a recurring income, e.g. a salary.
type IncomeStream struct {
	DefaultModel
	UserID      uuid.UUID          `json:"userId" gorm:"type:uuid;uniqueIndex:income_stream_user_name"`
	Name        string             `json:"name" gorm:"uniqueIndex:income_stream_user_name" example:"Salary"`
	Note        string             `json:"note" example:"Paid every second Thursday"`
	Amount      decimal.Decimal    `json:"amount" gorm:"type:DECIMAL(20,8)" example:"2150.00"` // Amount per occurrence, not annualized
	Frequency   engine.Frequency   `json:"frequency" example:"fortnightly"`
	Match       string             `json:"match" example:"ACME PAYROLL*"`                      // Glob matched against transaction notes
	Allocations []IncomeAllocation `json:"allocations" gorm:"constraint:OnDelete:CASCADE"`
}

// IncomeAllocation is the amount of each occurrence of an income stream that goes to an envelope.
type IncomeAllocation struct {
	DefaultModel
	IncomeStreamID uuid.UUID       `json:"incomeStreamId" gorm:"type:uuid;uniqueIndex:income_allocation_stream_envelope"`
	EnvelopeID     uuid.UUID       `json:"envelopeId" gorm:"type:uuid;uniqueIndex:income_allocation_stream_envelope"`
	Envelope       Envelope        `json:"-"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)" example:"400"`
	Position       int             `json:"position"`
}

func (s *IncomeStream) BeforeSave(_ *gorm.DB) error {
	s.Name = strings.TrimSpace(s.Name)
	s.Note = strings.TrimSpace(s.Note)
	s.Match = strings.TrimSpace(s.Match)

	if s.Name == "" {
		return engine.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	if s.Amount.IsNegative() {
		return engine.ValidationError{Field: "amount", Reason: "must not be negative"}
	}

	if s.Frequency == engine.None {
		return engine.ValidationError{Field: "frequency", Reason: "income streams must recur"}
	}

	return s.Frequency.Validate()
}

func (a *IncomeAllocation) BeforeSave(_ *gorm.DB) error {
	if a.Amount.IsNegative() {
		return engine.ValidationError{Field: "allocation amount", Reason: "must not be negative"}
	}

	return nil
}

// Matches reports if the note of a transaction matches the stream's pattern.
// Streams without a pattern never match.
func (s IncomeStream) Matches(note string) bool {
	if s.Match == "" {
		return false
	}

	return glob.Glob(s.Match, strings.TrimSpace(note))
}

// Shares returns the contributions of all given streams to one envelope.
func Shares(streams []IncomeStream, envelopeID uuid.UUID) []engine.IncomeShare {
	var shares []engine.IncomeShare
	for _, s := range streams {
		for _, a := range s.Allocations {
			if a.EnvelopeID != envelopeID {
				continue
			}

			shares = append(shares, engine.IncomeShare{
				IncomeStreamID: s.ID,
				Amount:         a.Amount,
				Frequency:      s.Frequency,
			})
		}
	}

	return shares
}

// MatchIncomeStream returns the first stream whose pattern matches the note.
func MatchIncomeStream(streams []IncomeStream, note string) (IncomeStream, bool) {
	for _, s := range streams {
		if s.Matches(note) {
			return s, true
		}
	}

	return IncomeStream{}, false
}
