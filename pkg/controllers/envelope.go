package controllers

import (
	"net/http"
	"time"

	"github.com/envelope-zero/allocator/internal/types"
	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/envelope-zero/allocator/pkg/httputil"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/envelope-zero/allocator/pkg/planner"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RegisterEnvelopeRoutes registers the routes for envelopes with
// the RouterGroup that is passed.
func (co Controller) RegisterEnvelopeRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", co.OptionsEnvelopeList)
		r.GET("", co.GetEnvelopes)
		r.POST("", co.CreateEnvelopes)
	}

	// Envelope with ID
	{
		r.OPTIONS("/:id", co.OptionsEnvelopeDetail)
		r.GET("/:id", co.GetEnvelope)
		r.PATCH("/:id", co.UpdateEnvelope)
		r.DELETE("/:id", co.DeleteEnvelope)
	}

	// Reports
	{
		r.GET("/:id/gap", co.GetEnvelopeGap)
		r.GET("/:id/opening-balance", co.GetEnvelopeOpeningBalance)
		r.GET("/:id/ideal-allocation", co.GetEnvelopeIdealAllocation)
	}
}

// envelope returns the envelope with the ID in the path if it belongs to the user.
func (co Controller) envelope(c *gin.Context) (models.Envelope, error) {
	id, err := httputil.UUIDFromString(c.Param("id"))
	if err != nil {
		return models.Envelope{}, err
	}

	var envelope models.Envelope
	err = co.DB.Where("id = ? AND user_id = ?", id, httputil.UserID(c)).First(&envelope).Error
	if err != nil {
		return models.Envelope{}, err
	}

	return envelope, nil
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Envelopes
// @Success		204
// @Router			/v1/envelopes [options]
func (co Controller) OptionsEnvelopeList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Envelopes
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/envelopes/{id} [options]
func (co Controller) OptionsEnvelopeDetail(c *gin.Context) {
	_, err := co.envelope(c)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Create envelope
// @Description	Creates new envelopes
// @Tags			Envelopes
// @Produce		json
// @Success		201			{object}	EnvelopeCreateResponse
// @Failure		400			{object}	EnvelopeCreateResponse
// @Failure		500			{object}	EnvelopeCreateResponse
// @Param			envelope	body		[]EnvelopeEditable	true	"Envelopes"
// @Router			/v1/envelopes [post]
func (co Controller) CreateEnvelopes(c *gin.Context) {
	var envelopes []EnvelopeEditable

	err := httputil.BindData(c, &envelopes)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := EnvelopeCreateResponse{}

	for _, editable := range envelopes {
		envelope := editable.model(httputil.UserID(c))
		err = co.DB.Create(&envelope).Error
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newEnvelope(c, envelope)
		r.Data = append(r.Data, EnvelopeResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get envelopes
// @Description	Returns a list of envelopes ordered by priority tier position
// @Tags			Envelopes
// @Produce		json
// @Success		200	{object}	EnvelopeListResponse
// @Failure		400	{object}	EnvelopeListResponse
// @Failure		500	{object}	EnvelopeListResponse
// @Router			/v1/envelopes [get]
// @Param			name				query	string	false	"Filter by name"
// @Param			note				query	string	false	"Filter by note"
// @Param			priority			query	string	false	"Filter by priority"
// @Param			frequency			query	string	false	"Filter by frequency"
// @Param			creditCardHolding	query	bool	false	"Is the envelope a credit card holding envelope?"
// @Param			archived			query	bool	false	"Is the envelope archived?"
// @Param			search				query	string	false	"Search for this text in name and note"
// @Param			offset				query	uint	false	"The offset of the first Envelope returned. Defaults to 0."
// @Param			limit				query	int		false	"Maximum number of Envelopes to return. Defaults to 50."
func (co Controller) GetEnvelopes(c *gin.Context) {
	var filter EnvelopeQueryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeListResponse{
			Error: &e,
		})
		return
	}

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := co.DB.
		Order("position ASC, name ASC").
		Where("user_id = ?", httputil.UserID(c)).
		Where(filter.model(httputil.UserID(c)), queryFields...)

	q = stringFilters(co.DB, q, setFields, filter.Name, filter.Note, filter.Search)

	q, limit := paginate(q, setFields, filter.Offset, filter.Limit)

	var envelopes []models.Envelope
	err := q.Find(&envelopes).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeListResponse{
			Error: &e,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeListResponse{
			Error: &e,
		})
		return
	}

	data := make([]Envelope, 0, len(envelopes))
	for _, envelope := range envelopes {
		data = append(data, newEnvelope(c, envelope))
	}

	c.JSON(http.StatusOK, EnvelopeListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get Envelope
// @Description	Returns a specific Envelope
// @Tags			Envelopes
// @Produce		json
// @Success		200	{object}	EnvelopeResponse
// @Failure		400	{object}	EnvelopeResponse
// @Failure		404	{object}	EnvelopeResponse
// @Failure		500	{object}	EnvelopeResponse
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/envelopes/{id} [get]
func (co Controller) GetEnvelope(c *gin.Context) {
	envelope, err := co.envelope(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeResponse{
			Error: &e,
		})
		return
	}

	data := newEnvelope(c, envelope)
	c.JSON(http.StatusOK, EnvelopeResponse{Data: &data})
}

// @Summary		Update envelope
// @Description	Updates an existing envelope. Only values to be updated need to be specified.
// @Tags			Envelopes
// @Accept			json
// @Produce		json
// @Success		200			{object}	EnvelopeResponse
// @Failure		400			{object}	EnvelopeResponse
// @Failure		404			{object}	EnvelopeResponse
// @Failure		500			{object}	EnvelopeResponse
// @Param			id			path		string				true	"ID formatted as string"
// @Param			envelope	body		EnvelopeEditable	true	"Envelope"
// @Router			/v1/envelopes/{id} [patch]
func (co Controller) UpdateEnvelope(c *gin.Context) {
	envelope, err := co.envelope(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeResponse{
			Error: &e,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, EnvelopeEditable{})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeResponse{
			Error: &e,
		})
		return
	}

	var data EnvelopeEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeResponse{
			Error: &e,
		})
		return
	}

	httputil.Merge(&envelope, data.model(envelope.UserID), updateFields)

	err = co.DB.Save(&envelope).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeResponse{
			Error: &e,
		})
		return
	}

	apiResource := newEnvelope(c, envelope)
	c.JSON(http.StatusOK, EnvelopeResponse{Data: &apiResource})
}

// @Summary		Delete envelope
// @Description	Deletes an envelope. Income stream allocations to it are deleted with it.
// @Tags			Envelopes
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/envelopes/{id} [delete]
func (co Controller) DeleteEnvelope(c *gin.Context) {
	envelope, err := co.envelope(c)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = co.DB.Unscoped().Where(&models.IncomeAllocation{EnvelopeID: envelope.ID}).Delete(&models.IncomeAllocation{}).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = co.DB.Delete(&envelope).Error
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// report holds what all envelope reports are computed from.
type report struct {
	Envelope models.Envelope
	Streams  []models.IncomeStream
	PayCycle engine.Frequency
	Now      time.Time
	PerCycle *decimal.Decimal // set when overridden in the query
}

func (co Controller) report(c *gin.Context) (report, error) {
	envelope, err := co.envelope(c)
	if err != nil {
		return report{}, err
	}

	var query QueryReport
	if err := c.BindQuery(&query); err != nil {
		return report{}, err
	}

	r := report{Envelope: envelope, Now: co.now()}

	if query.Date != "" {
		date, err := types.ParseDate(query.Date)
		if err != nil {
			return report{}, engine.ValidationError{Field: "date", Reason: "must be formatted as YYYY-MM-DD"}
		}
		r.Now = date.Time()
	}

	if query.PerCycle != "" {
		perCycle, err := decimal.NewFromString(query.PerCycle)
		if err != nil {
			return report{}, engine.ValidationError{Field: "perCycle", Reason: "must be a decimal number"}
		}
		r.PerCycle = &perCycle
	}

	ctx := c.Request.Context()
	userID := httputil.UserID(c)

	r.PayCycle, err = co.Store.LoadPayCycle(ctx, userID)
	if err != nil {
		return report{}, err
	}

	r.Streams, err = co.Store.LoadIncomeStreams(ctx, userID)
	if err != nil {
		return report{}, err
	}

	return r, nil
}

// @Summary		Get envelope gap
// @Description	Compares the balance of the envelope to the balance it should have accrued since the start of its bill cycle
// @Tags			Envelopes
// @Produce		json
// @Success		200		{object}	EnvelopeGapResponse
// @Failure		400		{object}	EnvelopeGapResponse
// @Failure		404		{object}	EnvelopeGapResponse
// @Failure		500		{object}	EnvelopeGapResponse
// @Param			id		path		string	true	"ID formatted as string"
// @Param			date	query		string	false	"Day to compute the gap for, formatted as YYYY-MM-DD. Defaults to today."
// @Router			/v1/envelopes/{id}/gap [get]
func (co Controller) GetEnvelopeGap(c *gin.Context) {
	r, err := co.report(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeGapResponse{Error: &e})
		return
	}

	ideal, err := planner.RegularNeed(r.Envelope, r.Streams, r.PayCycle, r.Now)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeGapResponse{Error: &e})
		return
	}

	if r.PerCycle != nil {
		ideal = *r.PerCycle
	}

	gap, err := engine.AnalyzeGap(engine.GapInput{
		CurrentBalance: r.Envelope.CurrentBalance,
		OpeningBalance: r.Envelope.OpeningBalance,
		IdealPerCycle:  ideal,
		BillCycleStart: r.Envelope.BillCycleStart.Ptr(),
		Now:            r.Now,
		PayCycle:       r.PayCycle,
	})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeGapResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, EnvelopeGapResponse{Data: &gap})
}

// @Summary		Get envelope opening balance
// @Description	Returns the balance the envelope needs up front so that its target is met on its due date
// @Tags			Envelopes
// @Produce		json
// @Success		200			{object}	EnvelopeOpeningBalanceResponse
// @Failure		400			{object}	EnvelopeOpeningBalanceResponse
// @Failure		404			{object}	EnvelopeOpeningBalanceResponse
// @Failure		500			{object}	EnvelopeOpeningBalanceResponse
// @Param			id			path		string	true	"ID formatted as string"
// @Param			date		query		string	false	"Day to compute the opening balance for, formatted as YYYY-MM-DD. Defaults to today."
// @Param			perCycle	query		string	false	"Amount allocated per pay cycle. Defaults to what income streams allocate to the envelope."
// @Router			/v1/envelopes/{id}/opening-balance [get]
func (co Controller) GetEnvelopeOpeningBalance(c *gin.Context) {
	r, err := co.report(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeOpeningBalanceResponse{Error: &e})
		return
	}

	var perCycle decimal.Decimal
	if r.PerCycle != nil {
		perCycle = *r.PerCycle
	} else {
		perCycle, err = engine.IdealPerCycle(models.Shares(r.Streams, r.Envelope.ID), r.PayCycle)
		if err != nil {
			e := err.Error()
			c.JSON(status(err), EnvelopeOpeningBalanceResponse{Error: &e})
			return
		}
	}

	opening, err := engine.OpeningBalance(engine.OpeningBalanceInput{
		TargetAmount:       r.Envelope.TargetAmount,
		DueDate:            r.Envelope.Due(),
		PerCycleAllocation: perCycle,
		PayCycle:           r.PayCycle,
		Now:                r.Now,
	})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeOpeningBalanceResponse{Error: &e})
		return
	}

	c.JSON(http.StatusOK, EnvelopeOpeningBalanceResponse{Data: &opening})
}

// @Summary		Get envelope ideal allocation
// @Description	Returns what the income streams allocate to the envelope per household pay cycle
// @Tags			Envelopes
// @Produce		json
// @Success		200	{object}	EnvelopeIdealAllocationResponse
// @Failure		400	{object}	EnvelopeIdealAllocationResponse
// @Failure		404	{object}	EnvelopeIdealAllocationResponse
// @Failure		500	{object}	EnvelopeIdealAllocationResponse
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/envelopes/{id}/ideal-allocation [get]
func (co Controller) GetEnvelopeIdealAllocation(c *gin.Context) {
	r, err := co.report(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeIdealAllocationResponse{Error: &e})
		return
	}

	shares := models.Shares(r.Streams, r.Envelope.ID)
	ideal, err := engine.IdealPerCycle(shares, r.PayCycle)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), EnvelopeIdealAllocationResponse{Error: &e})
		return
	}

	data := IdealAllocation{
		PayCycle:      r.PayCycle,
		IdealPerCycle: engine.RoundCents(ideal),
		Shares:        make([]IncomeShare, 0, len(shares)),
	}

	for _, s := range shares {
		data.Shares = append(data.Shares, IncomeShare{
			IncomeStreamID: s.IncomeStreamID,
			Amount:         s.Amount,
			Frequency:      s.Frequency,
		})
	}

	c.JSON(http.StatusOK, EnvelopeIdealAllocationResponse{Data: &data})
}
