package controllers

import (
	"errors"
	"net/http"

	"github.com/envelope-zero/allocator/pkg/httputil"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var errCleanupConfirmation = errors.New("the confirmation for the cleanup API call was incorrect")

func (co Controller) RegisterRootRoutes(r *gin.RouterGroup) {
	r.GET("", co.Get)
	r.DELETE("", co.Cleanup)
	r.OPTIONS("", co.Options)
}

type Response struct {
	Links Links `json:"links"` // Links for the v1 API
}

type Links struct {
	Household     string `json:"household" example:"https://example.com/api/v1/household"`           // URL of the household settings
	Envelopes     string `json:"envelopes" example:"https://example.com/api/v1/envelopes"`           // URL of Envelope collection endpoint
	IncomeStreams string `json:"incomeStreams" example:"https://example.com/api/v1/income-streams"`  // URL of Income Stream collection endpoint
	Transactions  string `json:"transactions" example:"https://example.com/api/v1/transactions"`     // URL of Transaction collection endpoint
	Plans         string `json:"plans" example:"https://example.com/api/v1/plans"`                   // URL of Plan collection endpoint
	Preview       string `json:"preview" example:"https://example.com/api/v1/allocations/preview"`   // URL of the allocation preview
}

// Get returns the link list for v1
//
//	@Summary		v1 API
//	@Description	Returns general information about the v1 API
//	@Tags			v1
//	@Success		200	{object}	Response
//	@Router			/v1 [get]
func (co Controller) Get(c *gin.Context) {
	url := httputil.BaseURL(c)

	c.JSON(http.StatusOK, Response{
		Links: Links{
			Household:     url + "/v1/household",
			Envelopes:     url + "/v1/envelopes",
			IncomeStreams: url + "/v1/income-streams",
			Transactions:  url + "/v1/transactions",
			Plans:         url + "/v1/plans",
			Preview:       url + "/v1/allocations/preview",
		},
	})
}

// Options returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			v1
//	@Success		204
//	@Router			/v1 [options]
func (co Controller) Options(c *gin.Context) {
	httputil.OptionsGetDelete(c)
}

// @Summary		Delete everything
// @Description	Permanently deletes all resources of the user
// @Tags			v1
// @Success		204
// @Failure		400		{object}	httpError
// @Failure		500		{object}	httpError
// @Param			confirm	query		string	false	"Confirmation to delete all resources. Must have the value 'yes-please-delete-everything'"
// @Router			/v1 [delete]
func (co Controller) Cleanup(c *gin.Context) {
	var params struct {
		Confirm string `form:"confirm"`
	}

	err := c.ShouldBindQuery(&params)
	if err != nil || params.Confirm != "yes-please-delete-everything" {
		c.JSON(http.StatusBadRequest, httpError{
			Error: errCleanupConfirmation.Error(),
		})
		return
	}

	userID := httputil.UserID(c)

	err = co.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		plans := tx.Model(&models.AllocationPlan{}).Select("id").Where("user_id = ?", userID)
		streams := tx.Model(&models.IncomeStream{}).Select("id").Where("user_id = ?", userID)

		// The order is important here since there are foreign keys to consider!
		steps := []struct {
			model any
			query any
			args  []any
		}{
			{&models.AllocationPlanItem{}, "allocation_plan_id IN (?)", []any{plans}},
			{&models.Transaction{}, "user_id = ?", []any{userID}},
			{&models.AllocationPlan{}, "user_id = ?", []any{userID}},
			{&models.IncomeAllocation{}, "income_stream_id IN (?)", []any{streams}},
			{&models.IncomeStream{}, "user_id = ?", []any{userID}},
			{&models.Envelope{}, "user_id = ?", []any{userID}},
			{&models.Household{}, "user_id = ?", []any{userID}},
		}

		for _, step := range steps {
			if err := tx.Unscoped().Where(step.query, step.args...).Delete(step.model).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
