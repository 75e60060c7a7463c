package models_test

import (
	"strings"
	"testing"

	"github.com/envelope-zero/allocator/internal/types"
	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func (suite *TestSuiteStandard) TestEnvelopeTrimWhitespace() {
	name := "\t Rent  "
	note := " First of the month  "

	envelope := suite.createTestEnvelope(models.Envelope{
		Name: name,
		Note: note,
	})

	assert.Equal(suite.T(), strings.TrimSpace(name), envelope.Name)
	assert.Equal(suite.T(), strings.TrimSpace(note), envelope.Note)
	assert.Equal(suite.T(), engine.None, envelope.Frequency, "frequency defaults to none")
}

func (suite *TestSuiteStandard) TestEnvelopeValidation() {
	tests := []struct {
		name     string
		envelope models.Envelope
	}{
		{"empty name", models.Envelope{Name: "  ", Priority: engine.Essential}},
		{"unknown priority", models.Envelope{Name: "a", Priority: "urgent"}},
		{"unknown frequency", models.Envelope{Name: "a", Priority: engine.Essential, Frequency: "daily"}},
		{"negative target", models.Envelope{Name: "a", Priority: engine.Essential, TargetAmount: decimal.NewFromInt(-1)}},
		{"due day out of range", models.Envelope{Name: "a", Priority: engine.Essential, DueDay: 32}},
	}

	for _, tt := range tests {
		suite.T().Run(tt.name, func(t *testing.T) {
			tt.envelope.UserID = suite.userID
			err := suite.db.Create(&tt.envelope).Error
			assert.ErrorIs(t, err, engine.ErrValidation)
		})
	}
}

func (suite *TestSuiteStandard) TestEnvelopeNameUnique() {
	_ = suite.createTestEnvelope(models.Envelope{Name: "Groceries"})

	duplicate := models.Envelope{UserID: suite.userID, Name: "Groceries", Priority: engine.Important}
	err := suite.db.Create(&duplicate).Error
	assert.ErrorIs(suite.T(), err, models.ErrEnvelopeNameNotUnique)
}

func (suite *TestSuiteStandard) TestEnvelopeDue() {
	date := types.NewDate(2025, 3, 14)

	due := models.Envelope{DueDate: &date, DueDay: 3}.Due()
	if assert.NotNil(suite.T(), due.Date) {
		assert.True(suite.T(), date.Time().Equal(*due.Date))
	}
	assert.Equal(suite.T(), 3, due.DayOfMonth)

	assert.True(suite.T(), models.Envelope{}.Due().IsZero())
}

func (suite *TestSuiteStandard) TestEnvelopeDatesPersist() {
	start := types.NewDate(2024, 1, 1)
	envelope := suite.createTestEnvelope(models.Envelope{BillCycleStart: &start})

	var loaded models.Envelope
	err := suite.db.First(&loaded, "id = ?", envelope.ID).Error
	assert.Nil(suite.T(), err)
	if assert.NotNil(suite.T(), loaded.BillCycleStart) {
		assert.Equal(suite.T(), "2024-01-01", loaded.BillCycleStart.String())
	}
	assert.Nil(suite.T(), loaded.DueDate)
}

func (suite *TestSuiteStandard) TestEnvelopeNotFound() {
	var e models.Envelope
	err := suite.db.First(&e, "id = ?", "4c3b8d4c-6f1f-4e42-9a3a-1f1f1f1f1f1f").Error
	assert.ErrorIs(suite.T(), err, models.ErrResourceNotFound)
	assert.Contains(suite.T(), err.Error(), "envelope matching your query")
}

func (suite *TestSuiteStandard) TestClosedDatabase() {
	suite.CloseDB()

	var envelopes []models.Envelope
	err := suite.db.Find(&envelopes).Error
	assert.ErrorIs(suite.T(), err, models.ErrGeneral)
}
