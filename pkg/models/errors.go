package models

import (
	"errors"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")
)

var (
	ErrReferenceNotFound         = errors.New("there is no resource for the ID you specified in the reference to another resource")
	ErrEnvelopeNameNotUnique     = errors.New("the envelope name must be unique")
	ErrIncomeStreamNameNotUnique = errors.New("the income stream name must be unique")
	ErrIncomeAllocationNotUnique = errors.New("an income stream can only allocate to an envelope once")
	ErrPlanForTransactionExists  = errors.New("the transaction already backs an allocation plan")
	ErrPlanNotPending            = errors.New("only pending allocation plans can be changed")
)
