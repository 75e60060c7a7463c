package controllers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/envelope-zero/allocator/internal/test"
	"github.com/envelope-zero/allocator/pkg/controllers"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/envelope-zero/allocator/pkg/planner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *TestSuiteStandard) allocate(transaction controllers.Transaction, expectedStatus int) controllers.AllocationResponse {
	r := suite.request(http.MethodPost, transaction.Links.Allocate[len(baseURL):], nil)
	suite.assertHTTPStatus(&r, expectedStatus)

	var response controllers.AllocationResponse
	suite.decodeResponse(&r, &response)
	return response
}

func (suite *TestSuiteStandard) TestTransactionsCreate() {
	stream := suite.createTestIncomeStream(controllers.IncomeStreamEditable{Name: "Salary", Match: "ACME PAYROLL*"})

	matched := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(2000), Note: "ACME PAYROLL 2024-05"})
	require.NotNil(suite.T(), matched.IncomeStreamID, "Income stream is detected from the note")
	assert.Equal(suite.T(), stream.ID, *matched.IncomeStreamID)
	assert.Equal(suite.T(), now, matched.Date)

	unmatched := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(20), Note: "Birthday money"})
	assert.Nil(suite.T(), unmatched.IncomeStreamID)

	nilID := uuid.Nil
	explicit := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(20), Note: "ACME PAYROLL bonus", IncomeStreamID: &nilID})
	require.NotNil(suite.T(), explicit.IncomeStreamID, "The nil UUID counts as not set")
	assert.Equal(suite.T(), stream.ID, *explicit.IncomeStreamID)

	r := suite.request(http.MethodGet, matched.Links.Self[len(baseURL):], nil)
	suite.assertHTTPStatus(&r, http.StatusOK)

	var response controllers.TransactionResponse
	suite.decodeResponse(&r, &response)
	assert.True(suite.T(), response.Data.Amount.Equal(decimal.NewFromInt(2000)))
	assert.Equal(suite.T(), "", response.Data.Links.Plan)
}

func (suite *TestSuiteStandard) TestTransactionsCreateFails() {
	foreignStream := suite.requestAs(uuid.New(), http.MethodPost, "/v1/income-streams", []controllers.IncomeStreamEditable{{Name: "Foreign", Frequency: "monthly"}})
	var foreign controllers.IncomeStreamCreateResponse
	suite.decodeResponse(&foreignStream, &foreign)

	unknown := uuid.New()

	tests := []struct {
		name        string
		transaction controllers.TransactionEditable
		status      int
	}{
		{"Unknown income stream", controllers.TransactionEditable{Amount: decimal.NewFromInt(1), IncomeStreamID: &unknown}, http.StatusNotFound},
		{"Income stream of other user", controllers.TransactionEditable{Amount: decimal.NewFromInt(1), IncomeStreamID: &foreign.Data[0].Data.ID}, http.StatusNotFound},
		{"Unknown envelope", controllers.TransactionEditable{Amount: decimal.NewFromInt(1), EnvelopeID: &unknown}, http.StatusNotFound},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			r := suite.request(http.MethodPost, "/v1/transactions", []controllers.TransactionEditable{tt.transaction})
			test.AssertHTTPStatus(t, tt.status, &r)
		})
	}

	r := suite.request(http.MethodPost, "/v1/transactions", `{ "amount": 2`)
	suite.assertHTTPStatus(&r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestTransactionsList() {
	stream := suite.createTestIncomeStream(controllers.IncomeStreamEditable{Name: "Salary", Match: "ACME*"})

	suite.createTestTransaction(controllers.TransactionEditable{Date: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(2000), Note: "ACME April"})
	suite.createTestTransaction(controllers.TransactionEditable{Date: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(2000), Note: "ACME May"})
	suite.createTestTransaction(controllers.TransactionEditable{Date: time.Date(2024, 5, 3, 18, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(-45), Note: "Groceries", Reconciled: true})
	suite.requestAs(uuid.New(), http.MethodPost, "/v1/transactions", []controllers.TransactionEditable{{Amount: decimal.NewFromInt(1)}})

	tests := []struct {
		query string
		len   int
	}{
		{"", 3},
		{"fromDate=2024-04-15T00:00:00Z", 2},
		{"untilDate=2024-05-01T00:00:00Z", 2},
		{"fromDate=2024-05-01T00:00:00Z&untilDate=2024-05-01T00:00:00Z", 1},
		{"amountMoreOrEqual=100", 2},
		{"amountLessOrEqual=-1", 1},
		{"note=acme", 2},
		{"note=", 0},
		{fmt.Sprintf("incomeStream=%s", stream.ID), 2},
		{"incomeStream=", 1},
		{"envelope=", 3},
		{"reconciled=true", 1},
		{"reconciled=false", 2},
		{"isAutoAllocated=true", 0},
		{"limit=2", 2},
		{"offset=2", 1},
	}

	for _, tt := range tests {
		suite.T().Run(tt.query, func(t *testing.T) {
			r := suite.request(http.MethodGet, "/v1/transactions?"+tt.query, nil)
			test.AssertHTTPStatus(t, http.StatusOK, &r)

			var response controllers.TransactionListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.len)
		})
	}

	r := suite.request(http.MethodGet, "/v1/transactions?envelope=not-a-uuid", nil)
	suite.assertHTTPStatus(&r, http.StatusBadRequest)

	// Newest first
	r = suite.request(http.MethodGet, "/v1/transactions", nil)
	var response controllers.TransactionListResponse
	suite.decodeResponse(&r, &response)
	assert.Equal(suite.T(), "Groceries", response.Data[0].Note)
	assert.Equal(suite.T(), "ACME April", response.Data[2].Note)
}

func (suite *TestSuiteStandard) TestTransactionsGetFails() {
	transaction := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(10)})

	r := suite.requestAs(uuid.New(), http.MethodGet, transaction.Links.Self[len(baseURL):], nil)
	suite.assertHTTPStatus(&r, http.StatusNotFound)

	r = suite.request(http.MethodGet, "/v1/transactions/not-a-uuid", nil)
	suite.assertHTTPStatus(&r, http.StatusBadRequest)

	r = suite.request(http.MethodGet, "/v1/transactions/"+uuid.NewString(), nil)
	suite.assertHTTPStatus(&r, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestTransactionsAllocate() {
	rent, fun := suite.rentAndFun()
	transaction := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(2500), Note: "Salary"})

	response := suite.allocate(transaction, http.StatusCreated)
	require.NotNil(suite.T(), response.Data.Allocation)
	assert.False(suite.T(), response.Data.Existing)

	allocations := response.Data.Allocation.Allocations
	require.Len(suite.T(), allocations, 2)
	assert.Equal(suite.T(), rent.ID, allocations[0].EnvelopeID)
	assert.True(suite.T(), allocations[0].Amount.Equal(decimal.NewFromInt(1200)))
	assert.Equal(suite.T(), fun.ID, allocations[1].EnvelopeID)
	assert.True(suite.T(), allocations[1].Amount.Equal(decimal.NewFromInt(800)))
	assert.True(suite.T(), response.Data.Allocation.Surplus.Equal(decimal.NewFromInt(500)))
	assert.Equal(suite.T(), fmt.Sprintf("%s/v1/plans/%s", baseURL, response.Data.PlanID), response.Data.Links.Plan)

	// The source transaction is linked to the plan
	r := suite.request(http.MethodGet, transaction.Links.Self[len(baseURL):], nil)
	var source controllers.TransactionResponse
	suite.decodeResponse(&r, &source)
	require.NotNil(suite.T(), source.Data.AllocationPlanID)
	assert.Equal(suite.T(), response.Data.PlanID, *source.Data.AllocationPlanID)
	assert.Equal(suite.T(), response.Data.Links.Plan, source.Data.Links.Plan)

	// The source and one child transaction per envelope reference the plan
	r = suite.request(http.MethodGet, fmt.Sprintf("/v1/transactions?plan=%s&isAutoAllocated=true", response.Data.PlanID), nil)
	var planTransactions controllers.TransactionListResponse
	suite.decodeResponse(&r, &planTransactions)
	require.Len(suite.T(), planTransactions.Data, 3)

	var children int
	for _, t := range planTransactions.Data {
		if t.ID == transaction.ID {
			continue
		}

		children++
		require.NotNil(suite.T(), t.ParentTransactionID)
		assert.Equal(suite.T(), transaction.ID, *t.ParentTransactionID)
		assert.False(suite.T(), t.Reconciled)
		assert.Contains(suite.T(), t.Note, "Auto-allocation")
	}
	assert.Equal(suite.T(), 2, children)

	// Allocating again returns the existing plan
	again := suite.allocate(transaction, http.StatusOK)
	assert.True(suite.T(), again.Data.Existing)
	assert.Equal(suite.T(), response.Data.PlanID, again.Data.PlanID)
	assert.Nil(suite.T(), again.Data.Allocation)

	r = suite.request(http.MethodGet, "/v1/plans", nil)
	var plans controllers.PlanListResponse
	suite.decodeResponse(&r, &plans)
	assert.Len(suite.T(), plans.Data, 1)
}

func (suite *TestSuiteStandard) TestTransactionsAllocateFails() {
	noEnvelopes := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(2000)})
	response := suite.allocate(noEnvelopes, http.StatusUnprocessableEntity)
	assert.Equal(suite.T(), planner.ErrNoEnvelopes.Error(), *response.Error)

	suite.rentAndFun()

	outflow := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(-20)})
	suite.allocate(outflow, http.StatusBadRequest)

	r := suite.request(http.MethodPost, "/v1/transactions/"+uuid.NewString()+"/allocate", nil)
	suite.assertHTTPStatus(&r, http.StatusNotFound)

	r = suite.requestAs(uuid.New(), http.MethodPost, noEnvelopes.Links.Allocate[len(baseURL):], nil)
	suite.assertHTTPStatus(&r, http.StatusNotFound)
}

func (suite *TestSuiteStandard) TestTransactionsAllocatePlanMembers() {
	suite.rentAndFun()
	transaction := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(2500), Note: "Salary"})
	planID := suite.allocate(transaction, http.StatusCreated).Data.PlanID

	r := suite.request(http.MethodGet, fmt.Sprintf("/v1/transactions?plan=%s", planID), nil)
	var planTransactions controllers.TransactionListResponse
	suite.decodeResponse(&r, &planTransactions)

	var child controllers.Transaction
	for _, t := range planTransactions.Data {
		if t.ParentTransactionID != nil {
			child = t
			break
		}
	}
	require.NotEqual(suite.T(), uuid.Nil, child.ID)

	response := suite.allocate(child, http.StatusBadRequest)
	assert.Contains(suite.T(), *response.Error, "created by an allocation plan")

	// A transaction linked to a plan it is not the source of
	linked := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(300), Note: "Bonus"})
	require.Nil(suite.T(), suite.controller.DB.Model(&models.Transaction{}).Where("id = ?", linked.ID).UpdateColumn("allocation_plan_id", planID).Error)

	response = suite.allocate(linked, http.StatusBadRequest)
	assert.Contains(suite.T(), *response.Error, "not the source of")

	// The child still belongs to its plan and no other plan was created
	r = suite.request(http.MethodGet, child.Links.Self[len(baseURL):], nil)
	var reloaded controllers.TransactionResponse
	suite.decodeResponse(&r, &reloaded)
	require.NotNil(suite.T(), reloaded.Data.AllocationPlanID)
	assert.Equal(suite.T(), planID, *reloaded.Data.AllocationPlanID)

	r = suite.request(http.MethodGet, "/v1/plans", nil)
	var plans controllers.PlanListResponse
	suite.decodeResponse(&r, &plans)
	assert.Len(suite.T(), plans.Data, 1)
}

func (suite *TestSuiteStandard) TestTransactionsAllocateBatch() {
	suite.setHousehold("monthly", 100)
	suite.rentAndFun()

	income := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(2000), Note: "Salary"})
	small := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(50), Note: "Refund"})
	suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(-30), Note: "Coffee"})
	suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(500), Note: "Bonus", Reconciled: true})

	r := suite.request(http.MethodPost, "/v1/transactions/allocate", nil)
	suite.assertHTTPStatus(&r, http.StatusOK)

	var response controllers.BatchAllocationResponse
	suite.decodeResponse(&r, &response)
	require.NotNil(suite.T(), response.Data)
	assert.Equal(suite.T(), 1, response.Data.Created)
	assert.Equal(suite.T(), 1, response.Data.Skipped)
	assert.Equal(suite.T(), 0, response.Data.Failed)
	require.Len(suite.T(), response.Data.Items, 2, "Outflows and reconciled transactions are not candidates")
	assert.Equal(suite.T(), income.ID, response.Data.Items[0].TransactionID)
	assert.Equal(suite.T(), planner.BatchCreated, response.Data.Items[0].Status)
	assert.Equal(suite.T(), small.ID, response.Data.Items[1].TransactionID)
	assert.Equal(suite.T(), planner.BatchSkipped, response.Data.Items[1].Status)

	// The allocated transaction and the child transactions are no candidates anymore
	r = suite.request(http.MethodPost, "/v1/transactions/allocate", map[string]any{})
	suite.assertHTTPStatus(&r, http.StatusOK)
	suite.decodeResponse(&r, &response)
	assert.Equal(suite.T(), 0, response.Data.Created)
	assert.Len(suite.T(), response.Data.Items, 1)
}

func (suite *TestSuiteStandard) TestTransactionsAllocateBatchIDs() {
	suite.rentAndFun()

	first := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(2000)})
	second := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(1000)})
	suite.allocate(first, http.StatusCreated)

	unknown := uuid.New()
	r := suite.request(http.MethodPost, "/v1/transactions/allocate", controllers.BatchAllocationRequest{
		IDs: []uuid.UUID{second.ID, unknown, first.ID},
	})
	suite.assertHTTPStatus(&r, http.StatusOK)

	var response controllers.BatchAllocationResponse
	suite.decodeResponse(&r, &response)
	require.Len(suite.T(), response.Data.Items, 3)

	assert.Equal(suite.T(), second.ID, response.Data.Items[0].TransactionID)
	assert.Equal(suite.T(), planner.BatchCreated, response.Data.Items[0].Status)

	// The already allocated transaction is skipped since it backs a plan
	assert.Equal(suite.T(), first.ID, response.Data.Items[1].TransactionID)
	assert.Equal(suite.T(), planner.BatchSkipped, response.Data.Items[1].Status)

	assert.Equal(suite.T(), unknown, response.Data.Items[2].TransactionID)
	assert.Equal(suite.T(), planner.BatchFailed, response.Data.Items[2].Status)
	assert.Contains(suite.T(), response.Data.Items[2].Error, "there is no transaction")

	assert.Equal(suite.T(), 1, response.Data.Created)
	assert.Equal(suite.T(), 1, response.Data.Skipped)
	assert.Equal(suite.T(), 1, response.Data.Failed)
}

func (suite *TestSuiteStandard) TestTransactionsAllocateBatchFails() {
	ids := make([]uuid.UUID, 101)
	for i := range ids {
		ids[i] = uuid.New()
	}

	r := suite.request(http.MethodPost, "/v1/transactions/allocate", controllers.BatchAllocationRequest{IDs: ids})
	suite.assertHTTPStatus(&r, http.StatusBadRequest)

	r = suite.request(http.MethodPost, "/v1/transactions/allocate", `{ "ids": [ "not-a-uuid" ] }`)
	suite.assertHTTPStatus(&r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestTransactionsOptions() {
	transaction := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(10)})

	tests := []struct {
		path  string
		allow string
	}{
		{"/v1/transactions", "OPTIONS, GET, POST"},
		{"/v1/transactions/allocate", "OPTIONS, POST"},
		{transaction.Links.Self[len(baseURL):], "OPTIONS, GET"},
		{transaction.Links.Allocate[len(baseURL):], "OPTIONS, POST"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.path, func(t *testing.T) {
			r := suite.request(http.MethodOptions, tt.path, nil)
			test.AssertHTTPStatus(t, http.StatusNoContent, &r)
			assert.Equal(t, tt.allow, r.Header().Get("allow"))
		})
	}
}
