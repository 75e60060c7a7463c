// Package store implements the planner's storage on top of gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/envelope-zero/allocator/pkg/planner"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store reads and writes allocation data with gorm.
type Store struct {
	DB *gorm.DB
}

var _ planner.Store = Store{}

// Household returns the settings of a user. Users that never changed
// their settings get the defaults.
func (s Store) Household(ctx context.Context, userID uuid.UUID) (models.Household, error) {
	var household models.Household
	err := s.DB.WithContext(ctx).Where(&models.Household{UserID: userID}).First(&household).Error
	if errors.Is(err, models.ErrResourceNotFound) {
		return models.NewHousehold(userID), nil
	} else if err != nil {
		return models.Household{}, err
	}

	return household, nil
}

func (s Store) LoadEnvelopes(ctx context.Context, userID uuid.UUID, filter planner.EnvelopeFilter) ([]models.Envelope, error) {
	query := s.DB.WithContext(ctx).Where(&models.Envelope{UserID: userID})
	if !filter.IncludeArchived {
		query = query.Where("archived = ?", false)
	}

	var envelopes []models.Envelope
	err := query.Order("position ASC, created_at ASC").Find(&envelopes).Error
	if err != nil {
		return nil, err
	}

	return envelopes, nil
}

func (s Store) LoadPayCycle(ctx context.Context, userID uuid.UUID) (engine.Frequency, error) {
	household, err := s.Household(ctx, userID)
	if err != nil {
		return "", err
	}

	return household.PayCycle, nil
}

func (s Store) LoadStrategy(ctx context.Context, userID uuid.UUID) (planner.Strategy, error) {
	household, err := s.Household(ctx, userID)
	if err != nil {
		return planner.Strategy{}, err
	}

	return planner.Strategy{
		CCFirst:               household.CCFirst,
		AutoAllocateThreshold: household.AutoAllocateThreshold,
		Locale:                household.Language(),
	}, nil
}

func (s Store) LoadIncomeStreams(ctx context.Context, userID uuid.UUID) ([]models.IncomeStream, error) {
	var streams []models.IncomeStream
	err := s.DB.WithContext(ctx).
		Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where(&models.IncomeStream{UserID: userID}).
		Order("name ASC").
		Find(&streams).Error
	if err != nil {
		return nil, err
	}

	return streams, nil
}

func (s Store) FindExistingPlan(ctx context.Context, transactionID uuid.UUID) (uuid.UUID, error) {
	var plans []models.AllocationPlan
	err := s.DB.WithContext(ctx).
		Where(&models.AllocationPlan{SourceTransactionID: transactionID}).
		Limit(1).
		Find(&plans).Error
	if err != nil {
		return uuid.Nil, err
	}

	if len(plans) == 0 {
		return uuid.Nil, nil
	}

	return plans[0].ID, nil
}

func (s Store) CreatePlan(ctx context.Context, plan *models.AllocationPlan) error {
	return s.DB.WithContext(ctx).Create(plan).Error
}

func (s Store) CreatePlanItems(ctx context.Context, planID uuid.UUID, items []models.AllocationPlanItem) error {
	if len(items) == 0 {
		return nil
	}

	for i := range items {
		items[i].AllocationPlanID = planID
	}

	return s.DB.WithContext(ctx).Create(&items).Error
}

func (s Store) CreateChildTransactions(ctx context.Context, children []models.Transaction) error {
	if len(children) == 0 {
		return nil
	}

	return s.DB.WithContext(ctx).Create(&children).Error
}

// LinkTransactionToPlan marks the transaction as the source of the plan.
func (s Store) LinkTransactionToPlan(ctx context.Context, transactionID, planID uuid.UUID) error {
	result := s.DB.WithContext(ctx).
		Model(&models.Transaction{DefaultModel: models.DefaultModel{ID: transactionID}}).
		UpdateColumns(map[string]any{
			"allocation_plan_id": planID,
			"is_auto_allocated":  true,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w transaction matching your query", models.ErrResourceNotFound)
	}

	return nil
}

// Candidates returns the transactions of a user that could be allocated automatically,
// oldest first.
func (s Store) Candidates(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := s.DB.WithContext(ctx).
		Where(&models.Transaction{UserID: userID}).
		Where("reconciled = ? AND amount > 0", false).
		Where("allocation_plan_id IS NULL AND parent_transaction_id IS NULL").
		Order("date ASC, created_at ASC").
		Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	return transactions, nil
}
