package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/envelope-zero/allocator/pkg/httputil"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/envelope-zero/allocator/pkg/planner"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// maxBatchSize is the maximum number of transactions that can be allocated in one request.
const maxBatchSize = 100

// RegisterTransactionRoutes registers the routes for transactions with
// the RouterGroup that is passed.
func (co Controller) RegisterTransactionRoutes(r *gin.RouterGroup) {
	// Root group
	{
		r.OPTIONS("", co.OptionsTransactionList)
		r.GET("", co.GetTransactions)
		r.POST("", co.CreateTransactions)
		r.OPTIONS("/allocate", co.OptionsTransactionAllocate)
		r.POST("/allocate", co.AllocateTransactions)
	}

	// Transaction with ID
	{
		r.OPTIONS("/:id", co.OptionsTransactionDetail)
		r.GET("/:id", co.GetTransaction)
		r.OPTIONS("/:id/allocate", co.OptionsTransactionAllocate)
		r.POST("/:id/allocate", co.AllocateTransaction)
	}
}

// transaction returns the transaction with the ID in the path if it belongs to the user.
func (co Controller) transaction(c *gin.Context) (models.Transaction, error) {
	id, err := httputil.UUIDFromString(c.Param("id"))
	if err != nil {
		return models.Transaction{}, err
	}

	var transaction models.Transaction
	err = co.DB.Where("id = ? AND user_id = ?", id, httputil.UserID(c)).First(&transaction).Error
	if err != nil {
		return models.Transaction{}, err
	}

	return transaction, nil
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Transactions
// @Success		204
// @Router			/v1/transactions [options]
func (co Controller) OptionsTransactionList(c *gin.Context) {
	httputil.OptionsGetPost(c)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			Transactions
// @Success		204
// @Failure		400	{object}	httpError
// @Failure		404	{object}	httpError
// @Failure		500	{object}	httpError
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/transactions/{id} [options]
func (co Controller) OptionsTransactionDetail(c *gin.Context) {
	_, err := co.transaction(c)
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
// @Tags			Transactions
// @Success		204
// @Router			/v1/transactions/allocate [options]
// @Router			/v1/transactions/{id}/allocate [options]
func (co Controller) OptionsTransactionAllocate(c *gin.Context) {
	httputil.OptionsPost(c)
}

// @Summary		Create transactions
// @Description	Creates transactions. Transactions without an income stream are tagged with the first income stream whose pattern matches the note.
// @Tags			Transactions
// @Produce		json
// @Success		201				{object}	TransactionCreateResponse
// @Failure		400				{object}	TransactionCreateResponse
// @Failure		404				{object}	TransactionCreateResponse
// @Failure		500				{object}	TransactionCreateResponse
// @Param			transactions	body		[]TransactionEditable	true	"Transactions"
// @Router			/v1/transactions [post]
func (co Controller) CreateTransactions(c *gin.Context) {
	var editables []TransactionEditable

	err := httputil.BindData(c, &editables)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionCreateResponse{
			Error: &e,
		})
		return
	}

	userID := httputil.UserID(c)

	streams, err := co.Store.LoadIncomeStreams(c.Request.Context(), userID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionCreateResponse{
			Error: &e,
		})
		return
	}

	// The final http status. Will be modified when errors occur
	status := http.StatusCreated
	r := TransactionCreateResponse{}

	for _, editable := range editables {
		transaction, err := co.createTransaction(c, editable.model(userID), streams)
		if err != nil {
			status = r.appendError(err, status)
			continue
		}

		data := newTransaction(c, transaction)
		r.Data = append(r.Data, TransactionResponse{Data: &data})
	}

	c.JSON(status, r)
}

func (co Controller) createTransaction(c *gin.Context, transaction models.Transaction, streams []models.IncomeStream) (models.Transaction, error) {
	if transaction.IncomeStreamID != nil && *transaction.IncomeStreamID != uuid.Nil {
		if !slices.ContainsFunc(streams, func(s models.IncomeStream) bool { return s.ID == *transaction.IncomeStreamID }) {
			return models.Transaction{}, fmt.Errorf("%w income stream matching your query", models.ErrResourceNotFound)
		}
	} else if stream, ok := models.MatchIncomeStream(streams, transaction.Note); ok {
		transaction.IncomeStreamID = &stream.ID
	}

	if transaction.EnvelopeID != nil && *transaction.EnvelopeID != uuid.Nil {
		err := co.DB.Where("id = ? AND user_id = ?", *transaction.EnvelopeID, transaction.UserID).First(&models.Envelope{}).Error
		if err != nil {
			return models.Transaction{}, err
		}
	}

	err := co.DB.Create(&transaction).Error
	if err != nil {
		return models.Transaction{}, err
	}

	return transaction, nil
}

// @Summary		Get transactions
// @Description	Returns a list of transactions, newest first
// @Tags			Transactions
// @Produce		json
// @Success		200	{object}	TransactionListResponse
// @Failure		400	{object}	TransactionListResponse
// @Failure		500	{object}	TransactionListResponse
// @Router			/v1/transactions [get]
// @Param			fromDate			query	string	false	"Transactions at and after this date"
// @Param			untilDate			query	string	false	"Transactions before and at this date"
// @Param			amount				query	string	false	"Filter by amount"
// @Param			amountLessOrEqual	query	string	false	"Amount less than or equal to this"
// @Param			amountMoreOrEqual	query	string	false	"Amount more than or equal to this"
// @Param			note				query	string	false	"Filter by note"
// @Param			incomeStream		query	string	false	"Filter by income stream ID"
// @Param			envelope			query	string	false	"Filter by envelope ID"
// @Param			plan				query	string	false	"Filter by allocation plan ID"
// @Param			reconciled			query	bool	false	"Reconcilication state"
// @Param			isAutoAllocated		query	bool	false	"Was the transaction allocated automatically?"
// @Param			offset				query	uint	false	"The offset of the first Transaction returned. Defaults to 0."
// @Param			limit				query	int		false	"Maximum number of transactions to return. Defaults to 50."
func (co Controller) GetTransactions(c *gin.Context) {
	var filter TransactionQueryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionListResponse{
			Error: &e,
		})
		return
	}

	queryFields, setFields := httputil.GetURLFields(c.Request.URL, filter)

	q := co.DB.
		Order("date(transactions.date) DESC, transactions.created_at DESC").
		Where("user_id = ?", httputil.UserID(c)).
		Where(filter.model(httputil.UserID(c)), queryFields...)

	if !filter.FromDate.IsZero() {
		q = q.Where("transactions.date >= date(?)", time.Date(filter.FromDate.Year(), filter.FromDate.Month(), filter.FromDate.Day(), 0, 0, 0, 0, time.UTC))
	}

	if !filter.UntilDate.IsZero() {
		q = q.Where("transactions.date < date(?)", time.Date(filter.UntilDate.Year(), filter.UntilDate.Month(), filter.UntilDate.Day()+1, 0, 0, 0, 0, time.UTC))
	}

	if !filter.AmountLessOrEqual.IsZero() {
		q = q.Where("transactions.amount <= ?", filter.AmountLessOrEqual)
	}

	if !filter.AmountMoreOrEqual.IsZero() {
		q = q.Where("transactions.amount >= ?", filter.AmountMoreOrEqual)
	}

	if filter.Note != "" {
		q = q.Where("transactions.note LIKE ?", fmt.Sprintf("%%%s%%", filter.Note))
	} else if slices.Contains(setFields, "Note") {
		q = q.Where("transactions.note = ''")
	}

	for _, reference := range []struct {
		field  string
		column string
		value  string
	}{
		{"IncomeStreamID", "income_stream_id", filter.IncomeStreamID},
		{"EnvelopeID", "envelope_id", filter.EnvelopeID},
		{"AllocationPlanID", "allocation_plan_id", filter.AllocationPlanID},
	} {
		if !slices.Contains(setFields, reference.field) {
			continue
		}

		id, err := httputil.UUIDFromString(reference.value)
		if err != nil {
			e := err.Error()
			c.JSON(status(err), TransactionListResponse{
				Error: &e,
			})
			return
		}

		// An empty value filters for transactions without the reference
		if id == uuid.Nil {
			q = q.Where(fmt.Sprintf("transactions.%s IS NULL", reference.column))
		} else {
			q = q.Where(fmt.Sprintf("transactions.%s = ?", reference.column), id)
		}
	}

	q, limit := paginate(q, setFields, filter.Offset, filter.Limit)

	var transactions []models.Transaction
	err := q.Find(&transactions).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionListResponse{
			Error: &e,
		})
		return
	}

	var count int64
	err = q.Limit(-1).Offset(-1).Count(&count).Error
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionListResponse{
			Error: &e,
		})
		return
	}

	data := make([]Transaction, 0, len(transactions))
	for _, transaction := range transactions {
		data = append(data, newTransaction(c, transaction))
	}

	c.JSON(http.StatusOK, TransactionListResponse{
		Data: data,
		Pagination: &Pagination{
			Count:  len(data),
			Total:  count,
			Offset: filter.Offset,
			Limit:  limit,
		},
	})
}

// @Summary		Get transaction
// @Description	Returns a specific transaction
// @Tags			Transactions
// @Produce		json
// @Success		200	{object}	TransactionResponse
// @Failure		400	{object}	TransactionResponse
// @Failure		404	{object}	TransactionResponse
// @Failure		500	{object}	TransactionResponse
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/transactions/{id} [get]
func (co Controller) GetTransaction(c *gin.Context) {
	transaction, err := co.transaction(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), TransactionResponse{
			Error: &e,
		})
		return
	}

	data := newTransaction(c, transaction)
	c.JSON(http.StatusOK, TransactionResponse{Data: &data})
}

// @Summary		Allocate transaction
// @Description	Distributes the amount of an income transaction over the envelopes and creates a pending allocation plan.
// @Description	If the transaction already backs a plan, that plan is returned with status 200 and nothing is written.
// @Tags			Transactions
// @Produce		json
// @Success		200	{object}	AllocationResponse
// @Success		201	{object}	AllocationResponse
// @Failure		400	{object}	AllocationResponse
// @Failure		404	{object}	AllocationResponse
// @Failure		422	{object}	AllocationResponse
// @Failure		500	{object}	AllocationResponse
// @Param			id	path		string	true	"ID formatted as string"
// @Router			/v1/transactions/{id}/allocate [post]
func (co Controller) AllocateTransaction(c *gin.Context) {
	transaction, err := co.transaction(c)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	if transaction.Amount.IsNegative() {
		e := errIncomeNegative.Error()
		c.JSON(http.StatusBadRequest, AllocationResponse{Error: &e})
		return
	}

	outcome, err := co.Planner.CreateAutoAllocation(c.Request.Context(), transaction, httputil.UserID(c))
	if err != nil {
		e := err.Error()
		c.JSON(status(err), AllocationResponse{Error: &e})
		return
	}

	code := http.StatusCreated
	if outcome.Existing {
		code = http.StatusOK
	}

	c.JSON(code, AllocationResponse{Data: &Allocation{
		Outcome: outcome,
		Links: AllocationLinks{
			Plan: fmt.Sprintf("%s/v1/plans/%s", httputil.BaseURL(c), outcome.PlanID),
		},
	}})
}

// @Summary		Allocate transactions
// @Description	Allocates all candidate transactions of the user or the transactions with the IDs in the body.
// @Description	Transactions below the household's threshold, outflows, reconciled transactions and transactions that already back a plan are skipped.
// @Description	A failing transaction does not stop the others.
// @Tags			Transactions
// @Accept			json
// @Produce		json
// @Success		200		{object}	BatchAllocationResponse
// @Failure		400		{object}	BatchAllocationResponse
// @Failure		500		{object}	BatchAllocationResponse
// @Param			request	body		BatchAllocationRequest	false	"Transactions to allocate"
// @Router			/v1/transactions/allocate [post]
func (co Controller) AllocateTransactions(c *gin.Context) {
	var request BatchAllocationRequest
	err := httputil.BindData(c, &request)
	if err != nil && !errors.Is(err, httputil.ErrRequestBodyEmpty) {
		e := err.Error()
		c.JSON(status(err), BatchAllocationResponse{Error: &e})
		return
	}

	if len(request.IDs) > maxBatchSize {
		e := errTooManyIDs.Error()
		c.JSON(http.StatusBadRequest, BatchAllocationResponse{Error: &e})
		return
	}

	ctx := c.Request.Context()
	userID := httputil.UserID(c)

	var transactions []models.Transaction
	if len(request.IDs) == 0 {
		transactions, err = co.Store.Candidates(ctx, userID)
	} else {
		err = co.DB.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, request.IDs).Find(&transactions).Error
	}
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BatchAllocationResponse{Error: &e})
		return
	}

	transactions = requestOrder(transactions, request.IDs)

	result, err := co.Planner.ProcessBatch(ctx, transactions, userID)
	if err != nil {
		e := err.Error()
		c.JSON(status(err), BatchAllocationResponse{Error: &e})
		return
	}

	// IDs that do not belong to the user are reported as failed
	for _, id := range request.IDs {
		if slices.ContainsFunc(transactions, func(t models.Transaction) bool { return t.ID == id }) {
			continue
		}

		notFound := fmt.Errorf("%w transaction matching your query", models.ErrResourceNotFound)
		result.Items = append(result.Items, planner.BatchItem{
			TransactionID: id,
			Status:        planner.BatchFailed,
			Error:         notFound.Error(),
			Err:           notFound,
		})
		result.Failed++
	}

	c.JSON(http.StatusOK, BatchAllocationResponse{Data: &result})
}

// requestOrder sorts the transactions in the order of the requested IDs.
// Without IDs, the order is kept.
func requestOrder(transactions []models.Transaction, ids []uuid.UUID) []models.Transaction {
	if len(ids) == 0 {
		return transactions
	}

	ordered := make([]models.Transaction, 0, len(transactions))
	for _, id := range ids {
		i := slices.IndexFunc(transactions, func(t models.Transaction) bool { return t.ID == id })
		if i == -1 || slices.ContainsFunc(ordered, func(t models.Transaction) bool { return t.ID == id }) {
			continue
		}

		ordered = append(ordered, transactions[i])
	}

	return ordered
}
