package models

import (
	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanStatus is the workflow state of an allocation plan.
type PlanStatus string

const (
	PlanPending  PlanStatus = "pending"
	PlanApproved PlanStatus = "approved"
	PlanReversed PlanStatus = "reversed"
)

// AllocationPlan is a proposed, approvable distribution of one income transaction.
type AllocationPlan struct {
	DefaultModel
	UserID              uuid.UUID            `json:"userId" gorm:"type:uuid;index"`
	SourceTransactionID uuid.UUID            `json:"sourceTransactionId" gorm:"type:uuid;uniqueIndex"` // A transaction backs at most one plan
	Status              PlanStatus           `json:"status" example:"pending"`
	IncomeAmount        decimal.Decimal      `json:"incomeAmount" gorm:"type:DECIMAL(20,8)" example:"2000"`
	TotalAllocated      decimal.Decimal      `json:"totalAllocated" gorm:"type:DECIMAL(20,8)" example:"1850"`
	TotalRegular        decimal.Decimal      `json:"totalRegular" gorm:"type:DECIMAL(20,8)" example:"1650"`
	Surplus             decimal.Decimal      `json:"surplus" gorm:"type:DECIMAL(20,8)" example:"150"`
	PayCycle            engine.Frequency     `json:"payCycle" example:"fortnightly"`
	CCFirst             bool                 `json:"ccFirst"`
	Items               []AllocationPlanItem `json:"items" gorm:"constraint:OnDelete:CASCADE"`
}

// AllocationPlanItem is the amount a plan moves into one envelope.
type AllocationPlanItem struct {
	DefaultModel
	AllocationPlanID uuid.UUID       `json:"allocationPlanId" gorm:"type:uuid;index"`
	EnvelopeID       uuid.UUID       `json:"envelopeId" gorm:"type:uuid"`
	Position         int             `json:"position"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)" example:"400"`
	IsRegular        bool            `json:"isRegular"`
	Priority         engine.Priority `json:"priority" example:"essential"`
}

// Transition reports whether a plan may move from its status to next.
// Only pending plans can change, and only to approved or reversed.
func (p AllocationPlan) Transition(next PlanStatus) error {
	if p.Status != PlanPending {
		return ErrPlanNotPending
	}

	switch next {
	case PlanApproved, PlanReversed:
		return nil
	}

	return engine.ValidationError{Field: "status", Reason: "plans can only be approved or reversed"}
}
