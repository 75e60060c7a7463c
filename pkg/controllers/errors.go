package controllers

import (
	"errors"
	"net/http"

	"github.com/envelope-zero/allocator/pkg/httputil"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/envelope-zero/allocator/pkg/planner"
)

type httpError struct {
	Error string `json:"error" example:"the specified resource ID is not a valid UUID"`
}

// status returns the appropriate status for an error
func status(err error) int {
	switch {
	case errors.Is(err, models.ErrGeneral), errors.Is(err, planner.ErrPersistence):
		return http.StatusInternalServerError
	case errors.Is(err, models.ErrResourceNotFound), errors.Is(err, planner.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, planner.ErrNoEnvelopes):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrPlanNotPending):
		return http.StatusConflict
	case errors.Is(err, httputil.ErrMissingUser):
		return http.StatusUnauthorized
	}

	return http.StatusBadRequest
}

var (
	errIncomeNegative   = errors.New("the income amount must not be negative")
	errTooManyIDs       = errors.New("at most 100 transactions can be allocated at once")
	errInvalidPlanState = errors.New("the status must be one of pending, approved or reversed")
)
