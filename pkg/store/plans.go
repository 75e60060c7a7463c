package store

import (
	"context"

	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan returns a plan of the user with its items.
func (s Store) Plan(ctx context.Context, userID, planID uuid.UUID) (models.AllocationPlan, error) {
	return plan(s.DB.WithContext(ctx), userID, planID)
}

// Plans returns the plans of a user, newest first. An empty status returns plans in all states.
func (s Store) Plans(ctx context.Context, userID uuid.UUID, status models.PlanStatus) ([]models.AllocationPlan, error) {
	var plans []models.AllocationPlan
	err := s.DB.WithContext(ctx).
		Preload("Items", orderItems).
		Where(&models.AllocationPlan{UserID: userID, Status: status}).
		Order("created_at DESC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}

	return plans, nil
}

// ApprovePlan reconciles the child transactions of a pending plan and credits
// every item's amount to its envelope.
func (s Store) ApprovePlan(ctx context.Context, userID, planID uuid.UUID) (models.AllocationPlan, error) {
	var approved models.AllocationPlan

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := plan(tx, userID, planID)
		if err != nil {
			return err
		}

		if err := p.Transition(models.PlanApproved); err != nil {
			return err
		}

		err = tx.Model(&models.Transaction{}).
			Where("allocation_plan_id = ? AND parent_transaction_id IS NOT NULL", p.ID).
			UpdateColumn("reconciled", true).Error
		if err != nil {
			return err
		}

		for _, item := range p.Items {
			var envelope models.Envelope
			err := tx.Where(&models.Envelope{UserID: userID}).First(&envelope, "id = ?", item.EnvelopeID).Error
			if err != nil {
				return err
			}

			err = tx.Model(&envelope).UpdateColumn("current_balance", envelope.CurrentBalance.Add(item.Amount)).Error
			if err != nil {
				return err
			}
		}

		if err := tx.Model(&p).Update("status", models.PlanApproved).Error; err != nil {
			return err
		}
		p.Status = models.PlanApproved

		approved = p
		return nil
	})

	return approved, err
}

// ReversePlan deletes the child transactions of a pending plan and clears the
// auto-allocation flag of its source transaction. The plan itself is kept so that
// its source transaction cannot back another plan.
func (s Store) ReversePlan(ctx context.Context, userID, planID uuid.UUID) (models.AllocationPlan, error) {
	var reversed models.AllocationPlan

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := plan(tx, userID, planID)
		if err != nil {
			return err
		}

		if err := p.Transition(models.PlanReversed); err != nil {
			return err
		}

		err = tx.Where("allocation_plan_id = ? AND parent_transaction_id IS NOT NULL", p.ID).
			Delete(&models.Transaction{}).Error
		if err != nil {
			return err
		}

		err = tx.Model(&models.Transaction{}).
			Where("id = ?", p.SourceTransactionID).
			UpdateColumn("is_auto_allocated", false).Error
		if err != nil {
			return err
		}

		if err := tx.Model(&p).Update("status", models.PlanReversed).Error; err != nil {
			return err
		}
		p.Status = models.PlanReversed

		reversed = p
		return nil
	})

	return reversed, err
}

func plan(db *gorm.DB, userID, planID uuid.UUID) (models.AllocationPlan, error) {
	var p models.AllocationPlan
	err := db.Preload("Items", orderItems).
		Where(&models.AllocationPlan{UserID: userID}).
		First(&p, "id = ?", planID).Error
	if err != nil {
		return models.AllocationPlan{}, err
	}

	return p, nil
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
