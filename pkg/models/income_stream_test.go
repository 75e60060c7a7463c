package models_test

import (
	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *TestSuiteStandard) TestIncomeStreamMatches() {
	tests := []struct {
		match string
		note  string
		ok    bool
	}{
		{"ACME PAYROLL*", "ACME PAYROLL 2024-05", true},
		{"ACME PAYROLL*", "  ACME PAYROLL 2024-05 ", true},
		{"*Salary*", "Monthly Salary May", true},
		{"ACME PAYROLL*", "Groceries", false},
		{"", "ACME PAYROLL", false},
	}

	for _, tt := range tests {
		s := models.IncomeStream{Match: tt.match}
		assert.Equal(suite.T(), tt.ok, s.Matches(tt.note), "%q on %q", tt.match, tt.note)
	}
}

func (suite *TestSuiteStandard) TestMatchIncomeStream() {
	first := models.IncomeStream{Name: "Salary", Match: "*PAYROLL*"}
	second := models.IncomeStream{Name: "Side gig", Match: "*"}

	s, ok := models.MatchIncomeStream([]models.IncomeStream{first, second}, "ACME PAYROLL")
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "Salary", s.Name)

	s, ok = models.MatchIncomeStream([]models.IncomeStream{first, second}, "Invoice 42")
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "Side gig", s.Name)

	_, ok = models.MatchIncomeStream([]models.IncomeStream{first}, "Invoice 42")
	assert.False(suite.T(), ok)
}

func (suite *TestSuiteStandard) TestIncomeStreamCreateWithAllocations() {
	rent := suite.createTestEnvelope(models.Envelope{Name: "Rent"})
	food := suite.createTestEnvelope(models.Envelope{Name: "Food"})

	stream := models.IncomeStream{
		UserID:    suite.userID,
		Name:      " Salary ",
		Amount:    decimal.NewFromInt(2000),
		Frequency: engine.Fortnightly,
		Allocations: []models.IncomeAllocation{
			{EnvelopeID: rent.ID, Amount: decimal.NewFromInt(600)},
			{EnvelopeID: food.ID, Amount: decimal.NewFromInt(250), Position: 1},
		},
	}
	require.Nil(suite.T(), suite.db.Create(&stream).Error)
	assert.Equal(suite.T(), "Salary", stream.Name)

	var loaded models.IncomeStream
	require.Nil(suite.T(), suite.db.Preload("Allocations").First(&loaded, "id = ?", stream.ID).Error)
	assert.Len(suite.T(), loaded.Allocations, 2)

	shares := models.Shares([]models.IncomeStream{loaded}, rent.ID)
	require.Len(suite.T(), shares, 1)
	assert.Equal(suite.T(), stream.ID, shares[0].IncomeStreamID)
	assert.True(suite.T(), decimal.NewFromInt(600).Equal(shares[0].Amount))
	assert.Equal(suite.T(), engine.Fortnightly, shares[0].Frequency)

	assert.Empty(suite.T(), models.Shares([]models.IncomeStream{loaded}, uuid.New()))
}

func (suite *TestSuiteStandard) TestIncomeStreamValidation() {
	tests := []models.IncomeStream{
		{UserID: suite.userID, Name: "", Frequency: engine.Monthly},
		{UserID: suite.userID, Name: "a", Frequency: engine.Monthly, Amount: decimal.NewFromInt(-1)},
		{UserID: suite.userID, Name: "a", Frequency: "sometimes"},
		{UserID: suite.userID, Name: "a", Frequency: engine.None},
	}

	for _, s := range tests {
		err := suite.db.Create(&s).Error
		assert.ErrorIs(suite.T(), err, engine.ErrValidation, "%#v", s)
	}
}

func (suite *TestSuiteStandard) TestIncomeAllocationMissingEnvelope() {
	stream := models.IncomeStream{UserID: suite.userID, Name: "Salary", Frequency: engine.Monthly}
	require.Nil(suite.T(), suite.db.Create(&stream).Error)

	allocation := models.IncomeAllocation{IncomeStreamID: stream.ID, EnvelopeID: uuid.New(), Amount: decimal.NewFromInt(1)}
	err := suite.db.Create(&allocation).Error
	assert.ErrorIs(suite.T(), err, models.ErrReferenceNotFound)
}
