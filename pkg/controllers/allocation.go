package controllers

import (
	"net/http"

	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/envelope-zero/allocator/pkg/httputil"
	"github.com/envelope-zero/allocator/pkg/planner"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PreviewRequest struct {
	Amount  decimal.Decimal `json:"amount" example:"2000"`  // The income to distribute
	CCFirst *bool           `json:"ccFirst" example:"true"` // Fund credit card holding envelopes first. Defaults to the household setting.
}

type Preview struct {
	engine.AllocationResult
	Income         decimal.Decimal  `json:"income" example:"2000"`         // The income that was distributed
	TotalAllocated decimal.Decimal  `json:"totalAllocated" example:"1850"` // Sum of all allocations
	PayCycle       engine.Frequency `json:"payCycle" example:"monthly"`    // The household pay cycle the needs were computed for
	CCFirst        bool             `json:"ccFirst" example:"false"`       // Were credit card holding envelopes funded first?
}

type PreviewResponse struct {
	Error *string  `json:"error" example:"there are no envelopes to allocate to"` // The error, if any occurred
	Data  *Preview `json:"data"`                                                     // The allocation
}

func (co Controller) RegisterAllocationRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/preview", co.OptionsAllocationPreview)
	r.POST("/preview", co.PreviewAllocation)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Allocations
// @Success		204
// @Router			/v1/allocations/preview [options]
func (co Controller) OptionsAllocationPreview(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Preview allocation
// @Description	Distributes an income over the envelopes of the user without persisting anything
// @Tags			Allocations
// @Accept			json
// @Produce		json
// @Success		200		{object}	PreviewResponse
// @Failure		400		{object}	PreviewResponse
// @Failure		422		{object}	PreviewResponse
// @Failure		500		{object}	PreviewResponse
// @Param			request	body		PreviewRequest	true	"Income"
// @Router			/v1/allocations/preview [post]
func (co Controller) PreviewAllocation(c *gin.Context) {
	var request PreviewRequest
	if err := httputil.BindData(c, &request); err != nil {
		e := err.Error()
		c.JSON(status(err), PreviewResponse{Error: &e})
		return
	}

	if request.Amount.IsNegative() {
		e := errIncomeNegative.Error()
		c.JSON(http.StatusBadRequest, PreviewResponse{Error: &e})
		return
	}

	ctx := c.Request.Context()
	userID := httputil.UserID(c)

	household, err := co.Store.Household(ctx, userID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PreviewResponse{Error: &e})
		return
	}

	envelopes, err := co.Store.LoadEnvelopes(ctx, userID, planner.EnvelopeFilter{})
	if err == nil && len(envelopes) == 0 {
		err = planner.ErrNoEnvelopes
	}
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PreviewResponse{Error: &e})
		return
	}

	streams, err := co.Store.LoadIncomeStreams(ctx, userID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PreviewResponse{Error: &e})
		return
	}

	ccFirst := household.CCFirst
	if request.CCFirst != nil {
		ccFirst = *request.CCFirst
	}

	result, err := co.Planner.Preview(request.Amount, envelopes, streams, household.PayCycle, ccFirst)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), PreviewResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, PreviewResponse{Data: &Preview{
		AllocationResult: result,
		Income:           request.Amount,
		TotalAllocated:   result.Total(),
		PayCycle:         household.PayCycle,
		CCFirst:          ccFirst,
	}})
}
