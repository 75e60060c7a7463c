package controllers

import (
	"fmt"

	"github.com/envelope-zero/allocator/internal/types"
	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/envelope-zero/allocator/pkg/httputil"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EnvelopeEditable struct {
	Name              string           `json:"name" example:"Rent" default:""`                                  // Name of the envelope
	Note              string           `json:"note" example:"Due on the first" default:""`                      // Note about the envelope
	Priority          engine.Priority  `json:"priority" example:"essential"`                                    // Tier the envelope is funded in
	CreditCardHolding bool             `json:"creditCardHolding" example:"false" default:"false"`               // Holds money to pay off credit cards
	TargetAmount      decimal.Decimal  `json:"targetAmount" example:"1200" default:"0"`                         // Amount needed per occurrence of frequency
	Frequency         engine.Frequency `json:"frequency" example:"monthly" default:"none"`                      // How often the target recurs
	DueDay            uint8            `json:"dueDay" example:"1" default:"0"`                                  // Day of the month the target is due
	DueDate           *types.Date      `json:"dueDate" example:"2025-12-24"`                                    // Absolute due date, wins over dueDay
	BillCycleStart    *types.Date      `json:"billCycleStart" example:"2025-01-01"`                             // Start of the current bill cycle
	CurrentBalance    decimal.Decimal  `json:"currentBalance" example:"350.12" default:"0"`                     // Balance accrued through allocations
	OpeningBalance    decimal.Decimal  `json:"openingBalance" example:"100" default:"0"`                        // Balance the envelope started with
	Position          int              `json:"position" example:"3" default:"0"`                                // Order within the priority tier
	Archived          bool             `json:"archived" example:"false" default:"false"`                        // Archived envelopes are not allocated to
}

func (editable EnvelopeEditable) model(userID uuid.UUID) models.Envelope {
	return models.Envelope{
		UserID:            userID,
		Name:              editable.Name,
		Note:              editable.Note,
		Priority:          editable.Priority,
		CreditCardHolding: editable.CreditCardHolding,
		TargetAmount:      editable.TargetAmount,
		Frequency:         editable.Frequency,
		DueDay:            editable.DueDay,
		DueDate:           editable.DueDate,
		BillCycleStart:    editable.BillCycleStart,
		CurrentBalance:    editable.CurrentBalance,
		OpeningBalance:    editable.OpeningBalance,
		Position:          editable.Position,
		Archived:          editable.Archived,
	}
}

type EnvelopeLinks struct {
	Self            string `json:"self" example:"https://example.com/api/v1/envelopes/45b6b5b9-f746-4ae9-b77b-7688b91f8166"`                          // The envelope itself
	Gap             string `json:"gap" example:"https://example.com/api/v1/envelopes/45b6b5b9-f746-4ae9-b77b-7688b91f8166/gap"`                       // Gap analysis
	OpeningBalance  string `json:"openingBalance" example:"https://example.com/api/v1/envelopes/45b6b5b9-f746-4ae9-b77b-7688b91f8166/opening-balance"` // Opening balance report
	IdealAllocation string `json:"idealAllocation" example:"https://example.com/api/v1/envelopes/45b6b5b9-f746-4ae9-b77b-7688b91f8166/ideal-allocation"`
}

type Envelope struct {
	models.Envelope
	Links EnvelopeLinks `json:"links"`
}

func newEnvelope(c *gin.Context, model models.Envelope) Envelope {
	self := fmt.Sprintf("%s/v1/envelopes/%s", httputil.BaseURL(c), model.ID)

	return Envelope{
		Envelope: model,
		Links: EnvelopeLinks{
			Self:            self,
			Gap:             self + "/gap",
			OpeningBalance:  self + "/opening-balance",
			IdealAllocation: self + "/ideal-allocation",
		},
	}
}

type EnvelopeResponse struct {
	Error *string   `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *Envelope `json:"data"`                                                          // The resource
}

type EnvelopeListResponse struct {
	Data       []Envelope  `json:"data"`                                                          // List of resources
	Error      *string     `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination `json:"pagination"`                                                    // Pagination information
}

type EnvelopeCreateResponse struct {
	Error *string            `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  []EnvelopeResponse `json:"data"`                                                          // List of created resources
}

func (r *EnvelopeCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, EnvelopeResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type EnvelopeQueryFilter struct {
	Name              string          `form:"name" filterField:"false"`   // By name
	Note              string          `form:"note" filterField:"false"`   // By note
	Search            string          `form:"search" filterField:"false"` // By string in name or note
	Priority          engine.Priority `form:"priority"`                   // By priority tier
	Frequency         engine.Frequency `form:"frequency"`                 // By target frequency
	CreditCardHolding bool            `form:"creditCardHolding"`          // Is the envelope a credit card holding envelope?
	Archived          bool            `form:"archived"`                   // Is the envelope archived?
	Offset            uint            `form:"offset" filterField:"false"` // The offset of the first envelope returned. Defaults to 0.
	Limit             int             `form:"limit" filterField:"false"`  // Maximum number of envelopes to return. Defaults to 50.
}

func (f EnvelopeQueryFilter) model(userID uuid.UUID) models.Envelope {
	return models.Envelope{
		UserID:            userID,
		Priority:          f.Priority,
		Frequency:         f.Frequency,
		CreditCardHolding: f.CreditCardHolding,
		Archived:          f.Archived,
	}
}

type QueryReport struct {
	Date     string `form:"date" example:"2024-05-01"` // Day the report is computed for. Defaults to today.
	PerCycle string `form:"perCycle" example:"200"`    // Amount accrued per pay cycle. Defaults to the regular need of the envelope.
}

type EnvelopeGapResponse struct {
	Error *string          `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *engine.GapResult `json:"data"`                                                         // Gap analysis of the envelope
}

type EnvelopeOpeningBalanceResponse struct {
	Error *string                      `json:"error" example:"due date: must be set for a positive target"` // The error, if any occurred
	Data  *engine.OpeningBalanceResult `json:"data"`                                                       // Opening balance report of the envelope
}

type IncomeShare struct {
	IncomeStreamID uuid.UUID        `json:"incomeStreamId" example:"9b3e5e0c-3ef6-4c55-9b58-4f4bd1b2c9bf"` // The income stream
	Amount         decimal.Decimal  `json:"amount" example:"300"`                                          // Amount per occurrence of the income
	Frequency      engine.Frequency `json:"frequency" example:"fortnightly"`                               // Frequency of the income
}

type IdealAllocation struct {
	PayCycle      engine.Frequency `json:"payCycle" example:"monthly"`   // The household pay cycle
	IdealPerCycle decimal.Decimal  `json:"idealPerCycle" example:"650"`  // What the envelope should receive per pay cycle
	Shares        []IncomeShare    `json:"shares"`                       // Contributions of the income streams
}

type EnvelopeIdealAllocationResponse struct {
	Error *string          `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *IdealAllocation `json:"data"`                                                          // Ideal allocation of the envelope
}
