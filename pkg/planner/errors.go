package planner

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNoEnvelopes = errors.New("there are no envelopes to allocate to")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("could not persist allocation plan")
)

// Step names the write of the plan sequence that failed.
type Step string

const (
	StepPlan     Step = "plan"
	StepItems    Step = "items"
	StepChildren Step = "child transactions"
)

// PersistenceError is returned when one of the critical writes fails.
//
// Writes before the failing one stay committed. PlanID is set when the plan
// header was already created.
type PersistenceError struct {
	Step   Step
	PlanID uuid.UUID
	Err    error
}

func (e PersistenceError) Error() string {
	if e.PlanID == uuid.Nil {
		return fmt.Sprintf("%s: writing %s: %s", ErrPersistence, e.Step, e.Err)
	}

	return fmt.Sprintf("%s %s: writing %s: %s", ErrPersistence, e.PlanID, e.Step, e.Err)
}

func (e PersistenceError) Unwrap() error {
	return e.Err
}

func (e PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
