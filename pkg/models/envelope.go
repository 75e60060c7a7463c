package models

import (
	"strings"

	"github.com/envelope-zero/allocator/internal/types"
	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Envelope is a named budget bucket with a target, a priority and an optional due date.
type Envelope struct {
	DefaultModel
	UserID            uuid.UUID        `json:"userId" gorm:"type:uuid;uniqueIndex:envelope_user_name"`
	Name              string           `json:"name" gorm:"uniqueIndex:envelope_user_name" example:"Rent"`
	Note              string           `json:"note" example:"Due on the first"`
	Priority          engine.Priority  `json:"priority" example:"essential"`
	CreditCardHolding bool             `json:"creditCardHolding" example:"false"`                                  // Holds money to pay off credit cards
	TargetAmount      decimal.Decimal  `json:"targetAmount" gorm:"type:DECIMAL(20,8)" example:"1200"`              // Amount needed per occurrence of Frequency
	Frequency         engine.Frequency `json:"frequency" example:"monthly"`                                        // How often the target recurs
	DueDay            uint8            `json:"dueDay" example:"1"`                                                 // Day of the month the target is due, 0 if unset
	DueDate           *types.Date      `json:"dueDate" example:"2025-12-24"`                                       // Absolute due date, wins over DueDay
	BillCycleStart    *types.Date      `json:"billCycleStart" example:"2025-01-01"`                                // Start of the current bill cycle
	CurrentBalance    decimal.Decimal  `json:"currentBalance" gorm:"type:DECIMAL(20,8)" example:"350.12"`          // Balance accrued through allocations
	OpeningBalance    decimal.Decimal  `json:"openingBalance" gorm:"type:DECIMAL(20,8)" example:"100"`             // Balance the envelope started with
	Position          int              `json:"position" example:"3"`                                               // Order within the priority tier
	Archived          bool             `json:"archived" example:"false"`
}

// BeforeSave trims whitespace and validates the envelope.
func (e *Envelope) BeforeSave(_ *gorm.DB) error {
	e.Name = strings.TrimSpace(e.Name)
	e.Note = strings.TrimSpace(e.Note)

	if e.Frequency == "" {
		e.Frequency = engine.None
	}

	return e.Validate()
}

// Validate checks the envelope for values the engine cannot work with.
func (e Envelope) Validate() error {
	if e.Name == "" {
		return engine.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	if err := e.Priority.Validate(); err != nil {
		return err
	}

	if err := e.Frequency.Validate(); err != nil {
		return err
	}

	if e.TargetAmount.IsNegative() {
		return engine.ValidationError{Field: "targetAmount", Reason: "must not be negative"}
	}

	if e.DueDay > 31 {
		return engine.ValidationError{Field: "dueDay", Reason: "must be between 1 and 31"}
	}

	return nil
}

// Due returns the due date of the envelope for the engine.
func (e Envelope) Due() engine.DueDate {
	return engine.DueDate{
		Date:       e.DueDate.Ptr(),
		DayOfMonth: int(e.DueDay),
	}
}
