package controllers

import (
	"fmt"

	"github.com/envelope-zero/allocator/pkg/httputil"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/gin-gonic/gin"
)

type PlanLinks struct {
	Self         string `json:"self" example:"https://example.com/api/v1/plans/0b1f5f1c-0bd4-4e8b-8f3e-2b9e1c8c1f10"`                                        // The plan itself
	Approve      string `json:"approve" example:"https://example.com/api/v1/plans/0b1f5f1c-0bd4-4e8b-8f3e-2b9e1c8c1f10/approve"`                             // Approves the plan
	Reverse      string `json:"reverse" example:"https://example.com/api/v1/plans/0b1f5f1c-0bd4-4e8b-8f3e-2b9e1c8c1f10/reverse"`                             // Reverses the plan
	Source       string `json:"source" example:"https://example.com/api/v1/transactions/d430d7c3-d14c-4712-9336-ee56965a6673"`                               // The income transaction backing the plan
	Transactions string `json:"transactions" example:"https://example.com/api/v1/transactions?plan=0b1f5f1c-0bd4-4e8b-8f3e-2b9e1c8c1f10&isAutoAllocated=true"` // Transactions of the plan
}

// Plan is the representation of an allocation plan in the API.
type Plan struct {
	models.AllocationPlan
	Links PlanLinks `json:"links"`
}

func newPlan(c *gin.Context, model models.AllocationPlan) Plan {
	url := httputil.BaseURL(c)
	self := fmt.Sprintf("%s/v1/plans/%s", url, model.ID)

	return Plan{
		AllocationPlan: model,
		Links: PlanLinks{
			Self:         self,
			Approve:      self + "/approve",
			Reverse:      self + "/reverse",
			Source:       fmt.Sprintf("%s/v1/transactions/%s", url, model.SourceTransactionID),
			Transactions: fmt.Sprintf("%s/v1/transactions?plan=%s", url, model.ID),
		},
	}
}

type PlanResponse struct {
	Error *string `json:"error" example:"only pending allocation plans can be changed"` // The error, if any occurred
	Data  *Plan   `json:"data"`                                                         // The plan
}

type PlanListResponse struct {
	Data  []Plan  `json:"data"`                                                                 // List of plans
	Error *string `json:"error" example:"the status must be one of pending, approved or reversed"` // The error, if any occurred
}

type PlanQueryFilter struct {
	Status models.PlanStatus `form:"status"` // By status
}

func (f PlanQueryFilter) validate() error {
	switch f.Status {
	case "", models.PlanPending, models.PlanApproved, models.PlanReversed:
		return nil
	}

	return errInvalidPlanState
}
