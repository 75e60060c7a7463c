package controllers

import (
	"fmt"

	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/envelope-zero/allocator/pkg/httputil"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type IncomeAllocationEditable struct {
	EnvelopeID uuid.UUID       `json:"envelopeId" example:"45b6b5b9-f746-4ae9-b77b-7688b91f8166"` // The envelope that receives the amount
	Amount     decimal.Decimal `json:"amount" example:"400" default:"0"`                          // Amount per occurrence of the income
}

type IncomeStreamEditable struct {
	Name        string                     `json:"name" example:"Salary" default:""`                           // Name of the income stream
	Note        string                     `json:"note" example:"Paid every second Thursday" default:""`       // Note about the income stream
	Amount      decimal.Decimal            `json:"amount" example:"2150" default:"0"`                          // Amount per occurrence, not annualized
	Frequency   engine.Frequency           `json:"frequency" example:"fortnightly"`                            // How often the income occurs
	Match       string                     `json:"match" example:"ACME PAYROLL*" default:""`                   // Glob matched against transaction notes
	Allocations []IncomeAllocationEditable `json:"allocations"`                                                // Amounts allocated to envelopes. Replaces all allocations on update.
}

func (editable IncomeStreamEditable) model(userID uuid.UUID) models.IncomeStream {
	allocations := make([]models.IncomeAllocation, 0, len(editable.Allocations))
	for i, a := range editable.Allocations {
		allocations = append(allocations, models.IncomeAllocation{
			EnvelopeID: a.EnvelopeID,
			Amount:     a.Amount,
			Position:   i,
		})
	}

	return models.IncomeStream{
		UserID:      userID,
		Name:        editable.Name,
		Note:        editable.Note,
		Amount:      editable.Amount,
		Frequency:   editable.Frequency,
		Match:       editable.Match,
		Allocations: allocations,
	}
}

type IncomeStreamLinks struct {
	Self string `json:"self" example:"https://example.com/api/v1/income-streams/9b3e5e0c-3ef6-4c55-9b58-4f4bd1b2c9bf"` // The income stream itself
}

type IncomeStream struct {
	models.IncomeStream
	Links IncomeStreamLinks `json:"links"`
}

func newIncomeStream(c *gin.Context, model models.IncomeStream) IncomeStream {
	return IncomeStream{
		IncomeStream: model,
		Links: IncomeStreamLinks{
			Self: fmt.Sprintf("%s/v1/income-streams/%s", httputil.BaseURL(c), model.ID),
		},
	}
}

type IncomeStreamResponse struct {
	Error *string       `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  *IncomeStream `json:"data"`                                                          // The resource
}

type IncomeStreamListResponse struct {
	Data       []IncomeStream `json:"data"`                                                          // List of resources
	Error      *string        `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination    `json:"pagination"`                                                    // Pagination information
}

type IncomeStreamCreateResponse struct {
	Error *string                `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  []IncomeStreamResponse `json:"data"`                                                          // List of created resources
}

func (r *IncomeStreamCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	r.Data = append(r.Data, IncomeStreamResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type IncomeStreamQueryFilter struct {
	Name      string           `form:"name" filterField:"false"`   // By name
	Note      string           `form:"note" filterField:"false"`   // By note
	Search    string           `form:"search" filterField:"false"` // By string in name or note
	Frequency engine.Frequency `form:"frequency"`                  // By frequency
	Offset    uint             `form:"offset" filterField:"false"` // The offset of the first income stream returned. Defaults to 0.
	Limit     int              `form:"limit" filterField:"false"`  // Maximum number of income streams to return. Defaults to 50.
}

func (f IncomeStreamQueryFilter) model(userID uuid.UUID) models.IncomeStream {
	return models.IncomeStream{
		UserID:    userID,
		Frequency: f.Frequency,
	}
}
