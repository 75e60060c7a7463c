package controllers

import (
	"context"
	"net/http"

	"github.com/envelope-zero/allocator/pkg/httputil"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterPlanRoutes registers the routes for allocation plans with
// the RouterGroup that is passed.
func (co Controller) RegisterPlanRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", co.OptionsPlanList)
		r.GET("", co.GetPlans)
	}

	// Plan with ID
	{
		r.OPTIONS("/:id", co.OptionsPlanDetail)
		r.GET("/:id", co.GetPlan)
		r.OPTIONS("/:id/approve", co.OptionsPlanTransition)
		r.POST("/:id/approve", co.ApprovePlan)
		r.OPTIONS("/:id/reverse", co.OptionsPlanTransition)
		r.POST("/:id/reverse", co.ReversePlan)
	}
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Plans
// @Success		204
// @Router			/v1/plans [options]
func (co Controller) OptionsPlanList(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Plans
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/plans/{id} [options]
func (co Controller) OptionsPlanDetail(c *gin.Context) {
	var uri URIID
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(status(httputil.ErrInvalidUUID), httpError{
			Error: httputil.ErrInvalidUUID.Error(),
		})
		return
	}

	_, err := co.Store.Plan(c.Request.Context(), httputil.UserID(c), uri.ID.UUID)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGet(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Plans
// @Success		204
// @Param			id	path	string	true	"ID formatted as string"
// @Router			/v1/plans/{id}/approve [options]
// @Router			/v1/plans/{id}/reverse [options]
func (co Controller) OptionsPlanTransition(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Get plans
// @Description	Returns the allocation plans of the user, newest first
// @Tags			Plans
// @Produce		json
// @Success		200		{object}	PlanListResponse
// @Failure		400		{object}	PlanListResponse
// @Failure		500		{object}	PlanListResponse
// @Param			status	query		string	false	"Filter by status"
// @Router			/v1/plans [get]
func (co Controller) GetPlans(c *gin.Context) {
	var filter PlanQueryFilter
	err := c.ShouldBindQuery(&filter)
	if err == nil {
		err = filter.validate()
	}
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PlanListResponse{Error: &e})
		return
	}

	plans, err := co.Store.Plans(c.Request.Context(), httputil.UserID(c), filter.Status)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PlanListResponse{Error: &e})
		return
	}

	data := make([]Plan, 0, len(plans))
	for _, p := range plans {
		data = append(data, newPlan(c, p))
	}

	c.JSON(http.StatusOK, PlanListResponse{Data: data})
}

// @Summary		Get plan
// @Description	Returns a specific allocation plan with its items
// @Tags			Plans
// @Produce		json
// @Success		200	{object}	PlanResponse
// @Failure		400	{object}	PlanResponse
// @Failure		404	{object}	PlanResponse
// @Failure		500	{object}	PlanResponse
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/plans/{id} [get]
func (co Controller) GetPlan(c *gin.Context) {
	co.plan(c, co.Store.Plan)
}

// @Summary		Approve plan
// @Description	Reconciles the transactions of a pending plan and credits the item amounts to the envelopes
// @Tags			Plans
// @Produce		json
// @Success		200	{object}	PlanResponse
// @Failure		400	{object}	PlanResponse
// @Failure		404	{object}	PlanResponse
// @Failure		409	{object}	PlanResponse
// @Failure		500	{object}	PlanResponse
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/plans/{id}/approve [post]
func (co Controller) ApprovePlan(c *gin.Context) {
	co.plan(c, co.Store.ApprovePlan)
}

// @Summary		Reverse plan
// @Description	Deletes the transactions of a pending plan. The plan is kept as reversed, so its income transaction cannot be allocated again.
// @Tags			Plans
// @Produce		json
// @Success		200	{object}	PlanResponse
// @Failure		400	{object}	PlanResponse
// @Failure		404	{object}	PlanResponse
// @Failure		409	{object}	PlanResponse
// @Failure		500	{object}	PlanResponse
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/plans/{id}/reverse [post]
func (co Controller) ReversePlan(c *gin.Context) {
	co.plan(c, co.Store.ReversePlan)
}

// plan runs f for the plan with the ID in the path and responds with the plan it returns.
func (co Controller) plan(c *gin.Context, f func(ctx context.Context, userID, planID uuid.UUID) (models.AllocationPlan, error)) {
	var uri URIID
	if err := c.ShouldBindUri(&uri); err != nil {
		e := httputil.ErrInvalidUUID.Error()
		c.JSON(status(httputil.ErrInvalidUUID), PlanResponse{Error: &e})
		return
	}

	p, err := f(c.Request.Context(), httputil.UserID(c), uri.ID.UUID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PlanResponse{Error: &e})
		return
	}

	data := newPlan(c, p)
	c.JSON(http.StatusOK, PlanResponse{Data: &data})
}
