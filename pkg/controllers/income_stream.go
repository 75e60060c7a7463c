package controllers

import (
	"context"
	"net/http"

	"github.com/envelope-zero/allocator/pkg/httputil"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegisterIncomeStreamRoutes registers the routes for income streams with
// the RouterGroup that is passed.
func (co Controller) RegisterIncomeStreamRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", co.OptionsIncomeStreamList)
		r.GET("", co.GetIncomeStreams)
		r.POST("", co.CreateIncomeStreams)
	}

	// Income stream with ID
	{
		r.OPTIONS("/:id", co.OptionsIncomeStreamDetail)
		r.GET("/:id", co.GetIncomeStream)
		r.PATCH("/:id", co.UpdateIncomeStream)
		r.DELETE("/:id", co.DeleteIncomeStream)
	}
}

func preloadAllocations(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// incomeStream returns the income stream with the ID in the path if it belongs to the user.
func (co Controller) incomeStream(c *gin.Context) (models.IncomeStream, error) {
	id, err := httputil.UUIDFromString(c.Param("id"))
	if err != nil {
		return models.IncomeStream{}, err
	}

	var stream models.IncomeStream
	err = co.DB.
		Preload("Allocations", preloadAllocations).
		Where("id = ? AND user_id = ?", id, httputil.UserID(c)).
		First(&stream).Error
	if err != nil {
		return models.IncomeStream{}, err
	}

	return stream, nil
}

// checkEnvelopes verifies that all envelopes allocated to belong to the user
// and that no envelope is allocated to twice.
func checkEnvelopes(ctx context.Context, db *gorm.DB, userID uuid.UUID, allocations []models.IncomeAllocation) error {
	if len(allocations) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(allocations))
	seen := make(map[uuid.UUID]struct{}, len(allocations))
	for _, a := range allocations {
		if _, ok := seen[a.EnvelopeID]; ok {
			return models.ErrIncomeAllocationNotUnique
		}

		seen[a.EnvelopeID] = struct{}{}
		ids = append(ids, a.EnvelopeID)
	}

	var count int64
	err := db.WithContext(ctx).Model(&models.Envelope{}).Where("user_id = ? AND id IN ?", userID, ids).Count(&count).Error
	if err != nil {
		return err
	}

	if int(count) != len(ids) {
		return models.ErrReferenceNotFound
	}

	return nil
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Income Streams
// @Success		204
// @Router			/v1/income-streams [options]
func (co Controller) OptionsIncomeStreamList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Income Streams
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/income-streams/{id} [options]
func (co Controller) OptionsIncomeStreamDetail(c *gin.Context) {
	_, err := co.incomeStream(c)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	httputil.OptionsGetPatchDelete(c)
}

// @Summary		Create income streams
// @Description	Creates new income streams together with their allocations
// @Tags			Income Streams
// @Produce		json
// @Success		201				{object}	IncomeStreamCreateResponse
// @Failure		400				{object}	IncomeStreamCreateResponse
// @Failure		404				{object}	IncomeStreamCreateResponse
// @Failure		500				{object}	IncomeStreamCreateResponse
// @Param			incomeStreams	body		[]IncomeStreamEditable	true	"Income streams"
// @Router			/v1/income-streams [post]
func (co Controller) CreateIncomeStreams(c *gin.Context) {
	var streams []IncomeStreamEditable

	err := httputil.BindData(c, &streams)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), IncomeStreamCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := IncomeStreamCreateResponse{}

	for _, editable := range streams {
		stream := editable.model(httputil.UserID(c))

		err := co.DB.Transaction(func(tx *gorm.DB) error {
			if err := checkEnvelopes(c.Request.Context(), tx, stream.UserID, stream.Allocations); err != nil {
				return err
			}

			return tx.Create(&stream).Error
		})
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newIncomeStream(c, stream)
		r.Data = append(r.Data, IncomeStreamResponse{Data: &data})
	}

	c.JSON(status, r)
}

// @Summary		Get income streams
// @Description	Returns a list of income streams with their allocations
// @Tags			Income Streams
// @Produce		json
// @Success		200	{object}	IncomeStreamListResponse
// @Failure		400	{object}	IncomeStreamListResponse
// @Failure		500	{object}	IncomeStreamListResponse
// @Router			/v1/income-streams [get]
// @Param			name		query	string	false	"Filter by name"
// @Param			note		query	string	false	"Filter by note"
// @Param			frequency	query	string	false	"Filter by frequency"
// @Param			search		query	string	false	"Search for this text in name and note"
// @Param			offset		query	uint	false	"The offset of the first income stream returned. Defaults to 0."
// @Param			limit		query	int		false	"Maximum number of income streams to return. Defaults to 50."
func (co Controller) GetIncomeStreams(c *gin.Context) {
	var filter IncomeStreamQueryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		e := err.Error()
		c.JSON(status(err), IncomeStreamListResponse{
			Error: &e,
		})
		return
	}

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := co.DB.
		Order("name ASC").
		Where("user_id = ?", httputil.UserID(c)).
		Where(filter.model(httputil.UserID(c)), queryFields...)

	q = stringFilters(co.DB, q, setFields, filter.Name, filter.Note, filter.Search)

	q, limit := paginate(q, setFields, filter.Offset, filter.Limit)

	var streams []models.IncomeStream
	err := q.Preload("Allocations", preloadAllocations).Find(&streams).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), IncomeStreamListResponse{
			Error: &e,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), IncomeStreamListResponse{
			Error: &e,
		})
		return
	}

	data := make([]IncomeStream, 0, len(streams))
	for _, stream := range streams {
		data = append(data, newIncomeStream(c, stream))
	}

	c.JSON(http.StatusOK, IncomeStreamListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get income stream
// @Description	Returns a specific income stream with its allocations
// @Tags			Income Streams
// @Produce		json
// @Success		200	{object}	IncomeStreamResponse
// @Failure		400	{object}	IncomeStreamResponse
// @Failure		404	{object}	IncomeStreamResponse
// @Failure		500	{object}	IncomeStreamResponse
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/income-streams/{id} [get]
func (co Controller) GetIncomeStream(c *gin.Context) {
	stream, err := co.incomeStream(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), IncomeStreamResponse{
			Error: &e,
		})
		return
	}

	data := newIncomeStream(c, stream)
	c.JSON(http.StatusOK, IncomeStreamResponse{Data: &data})
}

// @Summary		Update income stream
// @Description	Updates an existing income stream. Only values to be updated need to be specified. If allocations are specified, they replace all existing allocations.
// @Tags			Income Streams
// @Accept			json
// @Produce		json
// @Success		200				{object}	IncomeStreamResponse
// @Failure		400				{object}	IncomeStreamResponse
// @Failure		404				{object}	IncomeStreamResponse
// @Failure		500				{object}	IncomeStreamResponse
// @Param			id				path		string					true	"ID formatted as string"
// @Param			incomeStream	body		IncomeStreamEditable	true	"Income stream"
// @Router			/v1/income-streams/{id} [patch]
func (co Controller) UpdateIncomeStream(c *gin.Context) {
	stream, err := co.incomeStream(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), IncomeStreamResponse{
			Error: &e,
		})
		return
	}

	updateFields, err := httputil.GetBodyFields(c, IncomeStreamEditable{})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), IncomeStreamResponse{
			Error: &e,
		})
		return
	}

	var data IncomeStreamEditable
	err = httputil.BindData(c, &data)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), IncomeStreamResponse{
			Error: &e,
		})
		return
	}

	update := data.model(stream.UserID)
	httputil.Merge(&stream, update, updateFields)

	err = co.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Allocations").Save(&stream).Error; err != nil {
			return err
		}

		if !containsField(updateFields, "Allocations") {
			return nil
		}

		if err := checkEnvelopes(c.Request.Context(), tx, stream.UserID, stream.Allocations); err != nil {
			return err
		}

		// Allocations are replaced, not merged
		err := tx.Unscoped().Where(&models.IncomeAllocation{IncomeStreamID: stream.ID}).Delete(&models.IncomeAllocation{}).Error
		if err != nil {
			return err
		}

		if len(stream.Allocations) == 0 {
			return nil
		}

		for i := range stream.Allocations {
			stream.Allocations[i].IncomeStreamID = stream.ID
		}

		return tx.Create(&stream.Allocations).Error
	})
	if err != nil {
		e := err.Error()
		c.JSON(status(err), IncomeStreamResponse{
			Error: &e,
		})
		return
	}

	apiResource := newIncomeStream(c, stream)
	c.JSON(http.StatusOK, IncomeStreamResponse{Data: &apiResource})
}

// @Summary		Delete income stream
// @Description	Deletes an income stream and its allocations
// @Tags			Income Streams
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/income-streams/{id} [delete]
func (co Controller) DeleteIncomeStream(c *gin.Context) {
	stream, err := co.incomeStream(c)
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	err = co.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Unscoped().Where(&models.IncomeAllocation{IncomeStreamID: stream.ID}).Delete(&models.IncomeAllocation{}).Error
		if err != nil {
			return err
		}

		return tx.Delete(&stream).Error
	})
	if err != nil {
		c.JSON(status(err), httpError{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

func containsField(fields []any, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}

	return false
}
