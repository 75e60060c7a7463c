package controllers_test

import (
	"net/http"

	"github.com/envelope-zero/allocator/pkg/controllers"
	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func (suite *TestSuiteStandard) createTestEnvelope(c controllers.EnvelopeEditable) controllers.Envelope {
	if c.Priority == "" {
		c.Priority = engine.Essential
	}

	r := suite.request(http.MethodPost, "/v1/envelopes", []controllers.EnvelopeEditable{c})
	suite.assertHTTPStatus(&r, http.StatusCreated)

	var response controllers.EnvelopeCreateResponse
	suite.decodeResponse(&r, &response)
	require.Len(suite.T(), response.Data, 1)

	return *response.Data[0].Data
}

func (suite *TestSuiteStandard) createTestIncomeStream(c controllers.IncomeStreamEditable) controllers.IncomeStream {
	if c.Frequency == "" {
		c.Frequency = engine.Monthly
	}

	r := suite.request(http.MethodPost, "/v1/income-streams", []controllers.IncomeStreamEditable{c})
	suite.assertHTTPStatus(&r, http.StatusCreated)

	var response controllers.IncomeStreamCreateResponse
	suite.decodeResponse(&r, &response)
	require.Len(suite.T(), response.Data, 1)

	return *response.Data[0].Data
}

func (suite *TestSuiteStandard) createTestTransaction(c controllers.TransactionEditable) controllers.Transaction {
	if c.Date.IsZero() {
		c.Date = now
	}

	r := suite.request(http.MethodPost, "/v1/transactions", []controllers.TransactionEditable{c})
	suite.assertHTTPStatus(&r, http.StatusCreated)

	var response controllers.TransactionCreateResponse
	suite.decodeResponse(&r, &response)
	require.Len(suite.T(), response.Data, 1)

	return *response.Data[0].Data
}

// setHousehold stores the settings of the user of the test.
func (suite *TestSuiteStandard) setHousehold(payCycle engine.Frequency, threshold int64) {
	household := models.NewHousehold(suite.userID)
	household.PayCycle = payCycle
	household.AutoAllocateThreshold = decimal.NewFromInt(threshold)

	require.Nil(suite.T(), suite.controller.DB.Create(&household).Error)
}

// rentAndFun creates the envelopes most allocation tests use.
func (suite *TestSuiteStandard) rentAndFun() (controllers.Envelope, controllers.Envelope) {
	rent := suite.createTestEnvelope(controllers.EnvelopeEditable{
		Name:         "Rent",
		Priority:     engine.Essential,
		TargetAmount: decimal.NewFromInt(1200),
		Frequency:    engine.Monthly,
	})

	fun := suite.createTestEnvelope(controllers.EnvelopeEditable{
		Name:         "Fun",
		Priority:     engine.Discretionary,
		TargetAmount: decimal.NewFromInt(800),
		Frequency:    engine.Monthly,
		Position:     1,
	})

	return rent, fun
}
