package planner

import (
	"context"
	"fmt"

	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShouldAutoAllocate reports if a transaction is a candidate for automatic allocation.
//
// Only unreconciled inflows of at least the threshold that do not back a plan yet
// and were not created for one are allocated.
func ShouldAutoAllocate(transaction models.Transaction, threshold decimal.Decimal) bool {
	switch {
	case !transaction.Amount.IsPositive():
		return false
	case transaction.Amount.LessThan(threshold):
		return false
	case transaction.Reconciled:
		return false
	case transaction.AllocationPlanID != nil:
		return false
	case transaction.IsChild():
		return false
	}

	return true
}

// BatchStatus is what happened to one transaction of a batch.
type BatchStatus string

const (
	BatchCreated  BatchStatus = "created"
	BatchExisting BatchStatus = "existing"
	BatchSkipped  BatchStatus = "skipped"
	BatchFailed   BatchStatus = "failed"
)

// BatchItem is the outcome for one transaction of a batch.
type BatchItem struct {
	TransactionID uuid.UUID   `json:"transactionId"`
	Status        BatchStatus `json:"status"`
	PlanID        uuid.UUID   `json:"planId"`
	Error         string      `json:"error,omitempty"`
	Err           error       `json:"-"`
}

// BatchResult lists the outcome of every transaction in input order.
type BatchResult struct {
	Items   []BatchItem `json:"items"`
	Created int         `json:"created"`
	Skipped int         `json:"skipped"`
	Failed  int         `json:"failed"`
}

// ProcessBatch allocates every candidate transaction of the list.
//
// A failing transaction is recorded and does not stop the batch. An error is
// only returned when the household strategy cannot be loaded.
func (p Planner) ProcessBatch(ctx context.Context, transactions []models.Transaction, userID uuid.UUID) (BatchResult, error) {
	strategy, err := p.Store.LoadStrategy(ctx, userID)
	if err != nil {
		return BatchResult{}, fmt.Errorf("loading strategy: %w", err)
	}

	result := BatchResult{Items: make([]BatchItem, 0, len(transactions))}
	for _, transaction := range transactions {
		item := BatchItem{TransactionID: transaction.ID}

		if !ShouldAutoAllocate(transaction, strategy.AutoAllocateThreshold) {
			item.Status = BatchSkipped
			result.Skipped++
			result.Items = append(result.Items, item)
			continue
		}

		outcome, err := p.CreateAutoAllocation(ctx, transaction, userID)
		item.PlanID = outcome.PlanID

		switch {
		case err != nil:
			item.Status = BatchFailed
			item.Err = err
			item.Error = err.Error()
			result.Failed++
			p.Logger.Error().Err(err).Str("transaction", transaction.ID.String()).Msg("auto allocation failed")
		case outcome.Existing:
			item.Status = BatchExisting
		default:
			item.Status = BatchCreated
			result.Created++
		}

		result.Items = append(result.Items, item)
	}

	return result, nil
}
