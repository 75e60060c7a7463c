package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is money moving into or out of the household.
//
// Positive amounts are inflows. Child transactions mirror the items of an
// allocation plan and reference the income transaction they were created from.
type Transaction struct {
	DefaultModel
	UserID              uuid.UUID       `json:"userId" gorm:"type:uuid;index"`
	Date                time.Time       `json:"date" example:"1815-12-10T18:43:00.271152Z"`
	Amount              decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)" example:"2150.00"`
	Note                string          `json:"note" example:"ACME PAYROLL 2024-05"`
	IncomeStreamID      *uuid.UUID      `json:"incomeStreamId" gorm:"type:uuid"`
	EnvelopeID          *uuid.UUID      `json:"envelopeId" gorm:"type:uuid"`        // The envelope a child transaction credits
	Reconciled          bool            `json:"reconciled" example:"false"`
	IsAutoAllocated     bool            `json:"isAutoAllocated" example:"true"`
	AllocationPlanID    *uuid.UUID      `json:"allocationPlanId" gorm:"type:uuid;index"`
	ParentTransactionID *uuid.UUID      `json:"parentTransactionId" gorm:"type:uuid;index"`
}

// AfterFind moves the timestamps and the transaction date to UTC.
func (t *Transaction) AfterFind(tx *gorm.DB) (err error) {
	err = t.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	// Enforce dates to be in UTC
	t.Date = t.Date.In(time.UTC)
	return
}

// BeforeSave
//   - sets the timezone for the Date for UTC
//   - normalizes references to the nil UUID to nil
//   - trims whitespace from string fields
func (t *Transaction) BeforeSave(_ *gorm.DB) (err error) {
	t.Note = strings.TrimSpace(t.Note)

	for _, id := range []**uuid.UUID{&t.IncomeStreamID, &t.EnvelopeID, &t.AllocationPlanID, &t.ParentTransactionID} {
		if *id != nil && **id == uuid.Nil {
			*id = nil
		}
	}

	if t.Date.IsZero() {
		t.Date = time.Now().In(time.UTC)
	} else {
		t.Date = t.Date.In(time.UTC)
	}

	return
}

// IsChild reports if the transaction was created for an allocation plan item.
func (t Transaction) IsChild() bool {
	return t.ParentTransactionID != nil
}
