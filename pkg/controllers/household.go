package controllers

import (
	"net/http"

	"github.com/envelope-zero/allocator/pkg/httputil"
	"github.com/gin-gonic/gin"
)

func (co Controller) RegisterHouseholdRoutes(r *gin.RouterGroup) {
	r.OPTIONS("", co.OptionsHousehold)
	r.GET("", co.GetHousehold)
	r.PATCH("", co.UpdateHousehold)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Household
// @Success		204
// @Router			/v1/household [options]
func (co Controller) OptionsHousehold(c *gin.Context) {
	httputil.OptionsGetPatch(c)
}

// @Summary		Get household
// @Description	Returns the allocation settings of the household. Users that never changed them get the defaults.
// @Tags			Household
// @Produce		json
// @Success		200	{object}	HouseholdResponse
// @Failure		401	{object}	HouseholdResponse
// @Failure		500	{object}	HouseholdResponse
// @Router			/v1/household [get]
func (co Controller) GetHousehold(c *gin.Context) {
	household, err := co.Store.Household(c.Request.Context(), httputil.UserID(c))
	if err != nil {
		e := err.Error()
		c.JSON(status(err), HouseholdResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, HouseholdResponse{Data: &household})
}

// @Summary		Update household
// @Description	Updates the allocation settings. Only values to be updated need to be specified.
// @Tags			Household
// @Accept			json
// @Produce		json
// @Success		200			{object}	HouseholdResponse
// @Failure		400			{object}	HouseholdResponse
// @Failure		500			{object}	HouseholdResponse
// @Param			household	body		HouseholdEditable	true	"Household"
// @Router			/v1/household [patch]
func (co Controller) UpdateHousehold(c *gin.Context) {
	household, err := co.Store.Household(c.Request.Context(), httputil.UserID(c))
	if err != nil {
		e := err.Error()
		c.JSON(status(err), HouseholdResponse{Error: &e})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, HouseholdEditable{})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), HouseholdResponse{Error: &e})
		return
	}

	var data HouseholdEditable
	if err := httputil.BindData(c, &data); err != nil {
		e := err.Error()
		c.JSON(status(err), HouseholdResponse{Error: &e})
		return
	}

	httputil.Merge(&household, data.model(), updateFields)

	// Households are created on their first update
	if household.CreatedAt.IsZero() {
		err = co.DB.Create(&household).Error
	} else {
		err = co.DB.Save(&household).Error
	}
	if err != nil {
		e := err.Error()
		c.JSON(status(err), HouseholdResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, HouseholdResponse{Data: &household})
}
