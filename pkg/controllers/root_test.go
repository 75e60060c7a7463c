package controllers_test

import (
	"net/http"

	"github.com/envelope-zero/allocator/pkg/controllers"
	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestRootGet() {
	r := suite.request(http.MethodGet, "/v1", nil)
	suite.assertHTTPStatus(&r, http.StatusOK)

	var response controllers.Response
	suite.decodeResponse(&r, &response)
	assert.Equal(suite.T(), controllers.Links{
		Household:     baseURL + "/v1/household",
		Envelopes:     baseURL + "/v1/envelopes",
		IncomeStreams: baseURL + "/v1/income-streams",
		Transactions:  baseURL + "/v1/transactions",
		Plans:         baseURL + "/v1/plans",
		Preview:       baseURL + "/v1/allocations/preview",
	}, response.Links)
}

func (suite *TestSuiteStandard) TestRootOptions() {
	r := suite.request(http.MethodOptions, "/v1", nil)
	suite.assertHTTPStatus(&r, http.StatusNoContent)
	assert.Equal(suite.T(), "OPTIONS, GET, DELETE", r.Header().Get("allow"))
}

func (suite *TestSuiteStandard) TestRootCleanup() {
	suite.setHousehold(engine.Weekly, 0)
	rent, _ := suite.rentAndFun()
	suite.createTestIncomeStream(controllers.IncomeStreamEditable{
		Name:        "Salary",
		Allocations: []controllers.IncomeAllocationEditable{{EnvelopeID: rent.ID, Amount: decimal.NewFromInt(1200)}},
	})
	suite.createTestPlan(2000)

	other := uuid.New()
	suite.requestAs(other, http.MethodPost, "/v1/envelopes", []controllers.EnvelopeEditable{{Name: "Other", Priority: engine.Essential}})

	r := suite.request(http.MethodDelete, "/v1?confirm=yes-please-delete-everything", nil)
	suite.assertHTTPStatus(&r, http.StatusNoContent)

	for _, path := range []string{"/v1/envelopes", "/v1/income-streams", "/v1/transactions"} {
		r := suite.request(http.MethodGet, path, nil)
		suite.assertHTTPStatus(&r, http.StatusOK)

		var response struct {
			Data []any `json:"data"`
		}
		suite.decodeResponse(&r, &response)
		assert.Len(suite.T(), response.Data, 0, path)
	}

	r = suite.request(http.MethodGet, "/v1/plans", nil)
	var plans controllers.PlanListResponse
	suite.decodeResponse(&r, &plans)
	assert.Len(suite.T(), plans.Data, 0)

	r = suite.request(http.MethodGet, "/v1/household", nil)
	var household controllers.HouseholdResponse
	suite.decodeResponse(&r, &household)
	assert.Equal(suite.T(), engine.Monthly, household.Data.PayCycle, "Household settings are back to the defaults")

	// Other users keep their data
	r = suite.requestAs(other, http.MethodGet, "/v1/envelopes", nil)
	var envelopes controllers.EnvelopeListResponse
	suite.decodeResponse(&r, &envelopes)
	assert.Len(suite.T(), envelopes.Data, 1)

	// Names can be reused after the cleanup
	suite.rentAndFun()
}

func (suite *TestSuiteStandard) TestRootCleanupFails() {
	suite.rentAndFun()

	for _, path := range []string{"/v1", "/v1?confirm=yes"} {
		r := suite.request(http.MethodDelete, path, nil)
		suite.assertHTTPStatus(&r, http.StatusBadRequest)
	}

	r := suite.request(http.MethodGet, "/v1/envelopes", nil)
	var envelopes controllers.EnvelopeListResponse
	suite.decodeResponse(&r, &envelopes)
	assert.Len(suite.T(), envelopes.Data, 2)
}

func (suite *TestSuiteStandard) TestHealthz() {
	r := suite.request(http.MethodGet, "/healthz", nil)
	suite.assertHTTPStatus(&r, http.StatusNoContent)

	r = suite.request(http.MethodOptions, "/healthz", nil)
	suite.assertHTTPStatus(&r, http.StatusNoContent)
	assert.Equal(suite.T(), "OPTIONS, GET", r.Header().Get("allow"))

	sqlDB, err := suite.controller.DB.DB()
	assert.Nil(suite.T(), err)
	sqlDB.Close()

	r = suite.request(http.MethodGet, "/healthz", nil)
	suite.assertHTTPStatus(&r, http.StatusInternalServerError)
}
