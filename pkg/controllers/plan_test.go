package controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/envelope-zero/allocator/internal/test"
	"github.com/envelope-zero/allocator/pkg/controllers"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestPlan allocates a new income transaction and returns the resulting plan.
func (suite *TestSuiteStandard) createTestPlan(amount int64) (controllers.Transaction, controllers.Plan) {
	transaction := suite.createTestTransaction(controllers.TransactionEditable{Amount: decimal.NewFromInt(amount), Note: "Salary"})
	allocation := suite.allocate(transaction, http.StatusCreated)

	r := suite.request(http.MethodGet, allocation.Data.Links.Plan[len(baseURL):], nil)
	suite.assertHTTPStatus(&r, http.StatusOK)

	var response controllers.PlanResponse
	suite.decodeResponse(&r, &response)
	return transaction, *response.Data
}

func (suite *TestSuiteStandard) TestPlansGet() {
	rent, fun := suite.rentAndFun()
	transaction, plan := suite.createTestPlan(2100)

	assert.Equal(suite.T(), models.PlanPending, plan.Status)
	assert.Equal(suite.T(), transaction.ID, plan.SourceTransactionID)
	assert.True(suite.T(), plan.IncomeAmount.Equal(decimal.NewFromInt(2100)))
	assert.True(suite.T(), plan.TotalAllocated.Equal(decimal.NewFromInt(2000)))
	assert.True(suite.T(), plan.TotalRegular.Equal(decimal.NewFromInt(2000)))
	assert.True(suite.T(), plan.Surplus.Equal(decimal.NewFromInt(100)))
	assert.Equal(suite.T(), "monthly", string(plan.PayCycle))

	require.Len(suite.T(), plan.Items, 2)
	assert.Equal(suite.T(), rent.ID, plan.Items[0].EnvelopeID)
	assert.Equal(suite.T(), fun.ID, plan.Items[1].EnvelopeID)

	assert.Equal(suite.T(), plan.Links.Self+"/approve", plan.Links.Approve)
	assert.Equal(suite.T(), transaction.Links.Self, plan.Links.Source)

	r := suite.requestAs(uuid.New(), http.MethodGet, plan.Links.Self[len(baseURL):], nil)
	suite.assertHTTPStatus(&r, http.StatusNotFound)

	r = suite.request(http.MethodGet, "/v1/plans/not-a-uuid", nil)
	suite.assertHTTPStatus(&r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestPlansApprove() {
	rent, fun := suite.rentAndFun()
	_, plan := suite.createTestPlan(2000)

	r := suite.request(http.MethodPost, plan.Links.Approve[len(baseURL):], nil)
	suite.assertHTTPStatus(&r, http.StatusOK)

	var response controllers.PlanResponse
	suite.decodeResponse(&r, &response)
	assert.Equal(suite.T(), models.PlanApproved, response.Data.Status)

	// Envelope balances are credited
	for _, tt := range []struct {
		envelope controllers.Envelope
		balance  int64
	}{
		{rent, 1200},
		{fun, 800},
	} {
		r := suite.request(http.MethodGet, tt.envelope.Links.Self[len(baseURL):], nil)
		var envelope controllers.EnvelopeResponse
		suite.decodeResponse(&r, &envelope)
		assert.True(suite.T(), envelope.Data.CurrentBalance.Equal(decimal.NewFromInt(tt.balance)), "%s has balance %s", envelope.Data.Name, envelope.Data.CurrentBalance)
	}

	// Child transactions are reconciled
	r = suite.request(http.MethodGet, fmt.Sprintf("/v1/transactions?plan=%s&reconciled=true", plan.ID), nil)
	var transactions controllers.TransactionListResponse
	suite.decodeResponse(&r, &transactions)
	assert.Len(suite.T(), transactions.Data, 2)

	// Only pending plans can change
	r = suite.request(http.MethodPost, plan.Links.Approve[len(baseURL):], nil)
	suite.assertHTTPStatus(&r, http.StatusConflict)

	r = suite.request(http.MethodPost, plan.Links.Reverse[len(baseURL):], nil)
	suite.assertHTTPStatus(&r, http.StatusConflict)

	r = suite.request(http.MethodGet, rent.Links.Self[len(baseURL):], nil)
	var envelope controllers.EnvelopeResponse
	suite.decodeResponse(&r, &envelope)
	assert.True(suite.T(), envelope.Data.CurrentBalance.Equal(decimal.NewFromInt(1200)), "A second approval must not credit again")
}

func (suite *TestSuiteStandard) TestPlansReverse() {
	rent, _ := suite.rentAndFun()
	transaction, plan := suite.createTestPlan(2000)

	r := suite.request(http.MethodPost, plan.Links.Reverse[len(baseURL):], nil)
	suite.assertHTTPStatus(&r, http.StatusOK)

	var response controllers.PlanResponse
	suite.decodeResponse(&r, &response)
	assert.Equal(suite.T(), models.PlanReversed, response.Data.Status)

	// Child transactions are gone, the source transaction stays linked
	r = suite.request(http.MethodGet, fmt.Sprintf("/v1/transactions?plan=%s", plan.ID), nil)
	var transactions controllers.TransactionListResponse
	suite.decodeResponse(&r, &transactions)
	require.Len(suite.T(), transactions.Data, 1)
	assert.Equal(suite.T(), transaction.ID, transactions.Data[0].ID)
	assert.False(suite.T(), transactions.Data[0].IsAutoAllocated)

	r = suite.request(http.MethodGet, rent.Links.Self[len(baseURL):], nil)
	var envelope controllers.EnvelopeResponse
	suite.decodeResponse(&r, &envelope)
	assert.True(suite.T(), envelope.Data.CurrentBalance.IsZero())

	// The transaction cannot back another plan
	allocation := suite.allocate(transaction, http.StatusOK)
	assert.True(suite.T(), allocation.Data.Existing)
	assert.Equal(suite.T(), plan.ID, allocation.Data.PlanID)

	r = suite.request(http.MethodPost, plan.Links.Approve[len(baseURL):], nil)
	suite.assertHTTPStatus(&r, http.StatusConflict)
}

func (suite *TestSuiteStandard) TestPlansTransitionFails() {
	suite.rentAndFun()
	_, plan := suite.createTestPlan(2000)

	for _, path := range []string{
		fmt.Sprintf("/v1/plans/%s/approve", uuid.New()),
		fmt.Sprintf("/v1/plans/%s/reverse", uuid.New()),
	} {
		r := suite.request(http.MethodPost, path, nil)
		suite.assertHTTPStatus(&r, http.StatusNotFound)
	}

	r := suite.requestAs(uuid.New(), http.MethodPost, plan.Links.Approve[len(baseURL):], nil)
	suite.assertHTTPStatus(&r, http.StatusNotFound)

	r = suite.request(http.MethodPost, "/v1/plans/not-a-uuid/reverse", nil)
	suite.assertHTTPStatus(&r, http.StatusBadRequest)
}

func (suite *TestSuiteStandard) TestPlansList() {
	suite.rentAndFun()
	_, approved := suite.createTestPlan(2000)
	suite.createTestPlan(1500)
	suite.createTestPlan(1000)

	r := suite.request(http.MethodPost, approved.Links.Approve[len(baseURL):], nil)
	suite.assertHTTPStatus(&r, http.StatusOK)

	tests := []struct {
		query  string
		len    int
		status int
	}{
		{"", 3, http.StatusOK},
		{"status=pending", 2, http.StatusOK},
		{"status=approved", 1, http.StatusOK},
		{"status=reversed", 0, http.StatusOK},
		{"status=done", 0, http.StatusBadRequest},
	}

	for _, tt := range tests {
		suite.T().Run(tt.query, func(t *testing.T) {
			r := suite.request(http.MethodGet, "/v1/plans?"+tt.query, nil)
			test.AssertHTTPStatus(t, tt.status, &r)

			var response controllers.PlanListResponse
			test.DecodeResponse(t, &r, &response)
			assert.Len(t, response.Data, tt.len)
		})
	}

	r = suite.requestAs(uuid.New(), http.MethodGet, "/v1/plans", nil)
	var response controllers.PlanListResponse
	suite.decodeResponse(&r, &response)
	assert.Len(suite.T(), response.Data, 0)
}

func (suite *TestSuiteStandard) TestPlansOptions() {
	suite.rentAndFun()
	_, plan := suite.createTestPlan(2000)

	tests := []struct {
		path  string
		allow string
	}{
		{"/v1/plans", "OPTIONS, GET"},
		{plan.Links.Self[len(baseURL):], "OPTIONS, GET"},
		{plan.Links.Approve[len(baseURL):], "OPTIONS, POST"},
		{plan.Links.Reverse[len(baseURL):], "OPTIONS, POST"},
	}

	for _, tt := range tests {
		suite.T().Run(tt.path, func(t *testing.T) {
			r := suite.request(http.MethodOptions, tt.path, nil)
			test.AssertHTTPStatus(t, http.StatusNoContent, &r)
			assert.Equal(t, tt.allow, r.Header().Get("allow"))
		})
	}
}
