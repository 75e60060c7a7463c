package controllers

import (
	"fmt"
	"time"

	"github.com/envelope-zero/allocator/pkg/httputil"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/envelope-zero/allocator/pkg/planner"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionEditable struct {
	Date time.Time `json:"date" example:"1815-12-10T18:43:00.271152Z"` // Date of the transaction

	// The maximum value is "999999999999.99999999", swagger unfortunately rounds this.
	Amount decimal.Decimal `json:"amount" example:"2150" maximum:"999999999999.99999999" multipleOf:"0.00000001"` // The amount of the transaction. Positive amounts are income.

	Note           string     `json:"note" example:"ACME PAYROLL 2024-05" default:""`                // A note
	IncomeStreamID *uuid.UUID `json:"incomeStreamId" example:"9b3e5e0c-3ef6-4c55-9b58-4f4bd1b2c9bf"` // ID of the income stream. Detected from the note when not set.
	EnvelopeID     *uuid.UUID `json:"envelopeId" example:"2649c965-7999-4873-ae16-89d5d5fa972e"`     // ID of the envelope
	Reconciled     bool       `json:"reconciled" example:"false" default:"false"`                    // Is the transaction reconciled?
}

// model returns the database resource for the API representation of the editable fields
func (editable TransactionEditable) model(userID uuid.UUID) models.Transaction {
	return models.Transaction{
		UserID:         userID,
		Date:           editable.Date,
		Amount:         editable.Amount,
		Note:           editable.Note,
		IncomeStreamID: editable.IncomeStreamID,
		EnvelopeID:     editable.EnvelopeID,
		Reconciled:     editable.Reconciled,
	}
}

type TransactionLinks struct {
	Self     string `json:"self" example:"https://example.com/api/v1/transactions/d430d7c3-d14c-4712-9336-ee56965a6673"`              // The transaction itself
	Allocate string `json:"allocate" example:"https://example.com/api/v1/transactions/d430d7c3-d14c-4712-9336-ee56965a6673/allocate"` // Automatic allocation of the transaction
	Plan     string `json:"plan" example:"https://example.com/api/v1/plans/0b1f5f1c-0bd4-4e8b-8f3e-2b9e1c8c1f10"`                     // The plan the transaction backs or was created for. Empty if there is none.
}

// Transaction is the representation of a Transaction in the API.
type Transaction struct {
	models.Transaction
	Links TransactionLinks `json:"links"`
}

// newTransaction returns the API representation of the resource
func newTransaction(c *gin.Context, model models.Transaction) Transaction {
	url := httputil.BaseURL(c)

	var plan string
	if model.AllocationPlanID != nil {
		plan = fmt.Sprintf("%s/v1/plans/%s", url, *model.AllocationPlanID)
	}

	return Transaction{
		Transaction: model,
		Links: TransactionLinks{
			Self:     fmt.Sprintf("%s/v1/transactions/%s", url, model.ID),
			Allocate: fmt.Sprintf("%s/v1/transactions/%s/allocate", url, model.ID),
			Plan:     plan,
		},
	}
}

type TransactionResponse struct {
	Error *string      `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred for this transaction
	Data  *Transaction `json:"data"`                                                          // The Transaction data, if creation was successful
}

type TransactionListResponse struct {
	Data       []Transaction `json:"data"`                                                          // List of transactions
	Error      *string       `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Pagination *Pagination   `json:"pagination"`                                                    // Pagination information
}

type TransactionCreateResponse struct {
	Error *string               `json:"error" example:"the specified resource ID is not a valid UUID"` // The error, if any occurred
	Data  []TransactionResponse `json:"data"`                                                          // List of created Transactions
}

func (t *TransactionCreateResponse) appendError(err error, currentStatus int) int {
	s := err.Error()
	t.Data = append(t.Data, TransactionResponse{Error: &s})

	// The final status code is the highest HTTP status code number
	newStatus := status(err)
	if newStatus > currentStatus {
		return newStatus
	}

	return currentStatus
}

type TransactionQueryFilter struct {
	FromDate          time.Time       `form:"fromDate" filterField:"false"`          // From this date. Time is ignored.
	UntilDate         time.Time       `form:"untilDate" filterField:"false"`         // Until this date. Time is ignored.
	Amount            decimal.Decimal `form:"amount"`                                // Exact amount
	AmountLessOrEqual decimal.Decimal `form:"amountLessOrEqual" filterField:"false"` // Amount less than or equal to this
	AmountMoreOrEqual decimal.Decimal `form:"amountMoreOrEqual" filterField:"false"` // Amount more than or equal to this
	Note              string          `form:"note" filterField:"false"`              // Note contains this string
	IncomeStreamID    string          `form:"incomeStream" filterField:"false"`      // ID of the income stream
	EnvelopeID        string          `form:"envelope" filterField:"false"`          // ID of the envelope
	AllocationPlanID  string          `form:"plan" filterField:"false"`              // ID of the allocation plan
	Reconciled        bool            `form:"reconciled"`                            // Is the transaction reconciled?
	IsAutoAllocated   bool            `form:"isAutoAllocated"`                       // Was the transaction allocated automatically?
	Offset            uint            `form:"offset" filterField:"false"`            // The offset of the first Transaction returned. Defaults to 0.
	Limit             int             `form:"limit" filterField:"false"`             // Maximum number of transactions to return. Defaults to 50.
}

// model returns the values used for the fields that are filtered on directly.
// References, strings and dates are handled in the controller function.
func (f TransactionQueryFilter) model(userID uuid.UUID) models.Transaction {
	return models.Transaction{
		UserID:          userID,
		Amount:          f.Amount,
		Reconciled:      f.Reconciled,
		IsAutoAllocated: f.IsAutoAllocated,
	}
}

type AllocationLinks struct {
	Plan string `json:"plan" example:"https://example.com/api/v1/plans/0b1f5f1c-0bd4-4e8b-8f3e-2b9e1c8c1f10"` // The plan backed by the transaction
}

type Allocation struct {
	planner.Outcome
	Links AllocationLinks `json:"links"`
}

type AllocationResponse struct {
	Error *string     `json:"error" example:"there are no envelopes to allocate to"` // The error, if any occurred
	Data  *Allocation `json:"data"`                                                     // The outcome of the allocation
}

type BatchAllocationRequest struct {
	IDs []uuid.UUID `json:"ids" example:"d430d7c3-d14c-4712-9336-ee56965a6673"` // Transactions to allocate. All candidate transactions of the user are allocated when empty.
}

type BatchAllocationResponse struct {
	Error *string              `json:"error" example:"at most 100 transactions can be allocated at once"` // The error, if any occurred
	Data  *planner.BatchResult `json:"data"`                                                              // The outcome for every transaction
}
