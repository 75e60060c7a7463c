// Package planner turns income transactions into allocation plans.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"golang.org/x/text/language"
)

// EnvelopeFilter restricts the envelopes loaded for a user.
type EnvelopeFilter struct {
	IncludeArchived bool
}

// Strategy holds the allocation settings of a household.
type Strategy struct {
	CCFirst               bool
	AutoAllocateThreshold decimal.Decimal
	Locale                language.Tag
}

// Store reads the data a plan is computed from and writes plans.
type Store interface {
	LoadEnvelopes(ctx context.Context, userID uuid.UUID, filter EnvelopeFilter) ([]models.Envelope, error)
	LoadPayCycle(ctx context.Context, userID uuid.UUID) (engine.Frequency, error)
	LoadStrategy(ctx context.Context, userID uuid.UUID) (Strategy, error)
	LoadIncomeStreams(ctx context.Context, userID uuid.UUID) ([]models.IncomeStream, error)

	// FindExistingPlan returns the id of the plan backed by the transaction, uuid.Nil if there is none.
	FindExistingPlan(ctx context.Context, transactionID uuid.UUID) (uuid.UUID, error)
	CreatePlan(ctx context.Context, plan *models.AllocationPlan) error
	CreatePlanItems(ctx context.Context, planID uuid.UUID, items []models.AllocationPlanItem) error
	CreateChildTransactions(ctx context.Context, children []models.Transaction) error
	LinkTransactionToPlan(ctx context.Context, transactionID, planID uuid.UUID) error
}

// Planner creates allocation plans.
type Planner struct {
	Store  Store
	Logger zerolog.Logger
	Now    func() time.Time // defaults to time.Now
}

// Outcome is the result of allocating one transaction.
type Outcome struct {
	PlanID     uuid.UUID                `json:"planId"`
	Existing   bool                     `json:"existing"` // The transaction already backed a plan, nothing was written
	Allocation *engine.AllocationResult `json:"allocation,omitempty"`
}

func (p Planner) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}

	return p.Now()
}

// CreateAutoAllocation distributes the amount of an income transaction over the
// user's envelopes and persists the result as a pending plan.
//
// A transaction backs at most one plan. If it already does, the id of that plan
// is returned and nothing is written. Child transactions of a plan and
// transactions linked to a plan they are not the source of cannot be allocated.
//
// The plan header, its items and the child transactions are written in that
// order. If one of them fails, a PersistenceError is returned and the earlier
// writes are kept. Linking the source transaction to the plan is best effort:
// failures are logged and the plan counts as created.
func (p Planner) CreateAutoAllocation(ctx context.Context, transaction models.Transaction, userID uuid.UUID) (Outcome, error) {
	logger := p.Logger.With().Str("transaction", transaction.ID.String()).Str("user", userID.String()).Logger()

	if transaction.UserID != uuid.Nil && transaction.UserID != userID {
		return Outcome{}, fmt.Errorf("%w: transaction %s", ErrNotFound, transaction.ID)
	}

	if transaction.IsChild() {
		return Outcome{}, engine.ValidationError{Field: "transaction", Reason: "was created by an allocation plan and cannot be allocated"}
	}

	existing, err := p.Store.FindExistingPlan(ctx, transaction.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("looking up existing plan: %w", err)
	}

	if transaction.AllocationPlanID != nil && *transaction.AllocationPlanID != existing {
		return Outcome{}, engine.ValidationError{Field: "transaction", Reason: "belongs to an allocation plan it is not the source of"}
	}

	if existing != uuid.Nil {
		return p.existing(ctx, logger, transaction, existing), nil
	}

	envelopes, err := p.Store.LoadEnvelopes(ctx, userID, EnvelopeFilter{})
	if err != nil {
		return Outcome{}, fmt.Errorf("loading envelopes: %w", err)
	}

	if len(envelopes) == 0 {
		return Outcome{}, ErrNoEnvelopes
	}

	payCycle, err := p.Store.LoadPayCycle(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading pay cycle: %w", err)
	}

	strategy, err := p.Store.LoadStrategy(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading strategy: %w", err)
	}

	streams, err := p.Store.LoadIncomeStreams(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading income streams: %w", err)
	}

	if transaction.IncomeStreamID != nil && !slices.ContainsFunc(streams, func(s models.IncomeStream) bool {
		return s.ID == *transaction.IncomeStreamID
	}) {
		return Outcome{}, fmt.Errorf("%w: income stream %s", ErrNotFound, *transaction.IncomeStreamID)
	}

	result, err := p.Preview(transaction.Amount, envelopes, streams, payCycle, strategy.CCFirst)
	if err != nil {
		return Outcome{}, err
	}

	plan := models.AllocationPlan{
		UserID:              userID,
		SourceTransactionID: transaction.ID,
		Status:              models.PlanPending,
		IncomeAmount:        transaction.Amount,
		TotalAllocated:      result.Total(),
		TotalRegular:        result.TotalRegular,
		Surplus:             result.Surplus,
		PayCycle:            payCycle,
		CCFirst:             strategy.CCFirst,
	}

	err = p.Store.CreatePlan(ctx, &plan)
	if errors.Is(err, models.ErrPlanForTransactionExists) {
		// Another caller created the plan concurrently
		existing, err := p.Store.FindExistingPlan(ctx, transaction.ID)
		if err != nil || existing == uuid.Nil {
			return Outcome{}, PersistenceError{Step: StepPlan, Err: models.ErrPlanForTransactionExists}
		}

		return p.existing(ctx, logger, transaction, existing), nil
	} else if err != nil {
		return Outcome{}, PersistenceError{Step: StepPlan, Err: err}
	}

	names := make(map[uuid.UUID]string, len(envelopes))
	for _, e := range envelopes {
		names[e.ID] = e.Name
	}

	items := make([]models.AllocationPlanItem, 0, len(result.Allocations))
	children := make([]models.Transaction, 0, len(result.Allocations))
	for i, a := range result.Allocations {
		items = append(items, models.AllocationPlanItem{
			AllocationPlanID: plan.ID,
			EnvelopeID:       a.EnvelopeID,
			Position:         i,
			Amount:           a.Amount,
			IsRegular:        a.IsRegular,
			Priority:         a.Priority,
		})

		envelopeID := a.EnvelopeID
		children = append(children, models.Transaction{
			UserID:              userID,
			Date:                transaction.Date,
			Amount:              a.Amount,
			Note:                childNote(strategy.Locale, names[a.EnvelopeID], a.Amount),
			EnvelopeID:          &envelopeID,
			Reconciled:          false,
			IsAutoAllocated:     true,
			AllocationPlanID:    &plan.ID,
			ParentTransactionID: &transaction.ID,
		})
	}

	if err := p.Store.CreatePlanItems(ctx, plan.ID, items); err != nil {
		return Outcome{PlanID: plan.ID}, PersistenceError{Step: StepItems, PlanID: plan.ID, Err: err}
	}

	if err := p.Store.CreateChildTransactions(ctx, children); err != nil {
		return Outcome{PlanID: plan.ID}, PersistenceError{Step: StepChildren, PlanID: plan.ID, Err: err}
	}

	p.link(ctx, logger, transaction.ID, plan.ID)
	plansCreated.Inc()

	logger.Info().
		Str("plan", plan.ID.String()).
		Int("items", len(items)).
		Str("allocated", plan.TotalAllocated.String()).
		Str("surplus", plan.Surplus.String()).
		Msg("created allocation plan")

	return Outcome{PlanID: plan.ID, Allocation: &result}, nil
}

// Preview computes the waterfall allocation of an income without persisting anything.
func (p Planner) Preview(income decimal.Decimal, envelopes []models.Envelope, streams []models.IncomeStream, payCycle engine.Frequency, ccFirst bool) (engine.AllocationResult, error) {
	now := p.now()

	input := engine.WaterfallInput{
		Income:    income,
		Envelopes: make([]engine.WaterfallEnvelope, 0, len(envelopes)),
		CCFirst:   ccFirst,
	}

	for _, e := range envelopes {
		need, err := RegularNeed(e, streams, payCycle, now)
		if err != nil {
			return engine.AllocationResult{}, fmt.Errorf("envelope %s: %w", e.Name, err)
		}

		input.Envelopes = append(input.Envelopes, engine.WaterfallEnvelope{
			EnvelopeID:          e.ID,
			Priority:            e.Priority,
			RegularAmountNeeded: need,
			CreditCardHolding:   e.CreditCardHolding,
		})
	}

	return engine.Waterfall(input)
}

// existing handles a transaction that already backs a plan. A link missing
// from an earlier attempt is retried.
func (p Planner) existing(ctx context.Context, logger zerolog.Logger, transaction models.Transaction, planID uuid.UUID) Outcome {
	plansDeduplicated.Inc()
	logger.Debug().Str("plan", planID.String()).Msg("transaction already backs an allocation plan")

	if transaction.AllocationPlanID == nil {
		p.link(ctx, logger, transaction.ID, planID)
	}

	return Outcome{PlanID: planID, Existing: true}
}

func (p Planner) link(ctx context.Context, logger zerolog.Logger, transactionID, planID uuid.UUID) {
	if err := p.Store.LinkTransactionToPlan(ctx, transactionID, planID); err != nil {
		linkFailures.Inc()
		logger.Warn().Err(err).Str("plan", planID.String()).Msg("could not link transaction to allocation plan")
	}
}
