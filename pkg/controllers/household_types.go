package controllers

import (
	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/envelope-zero/allocator/pkg/models"
	"github.com/shopspring/decimal"
)

type HouseholdEditable struct {
	PayCycle              engine.Frequency `json:"payCycle" example:"fortnightly" default:"monthly"`           // The household's income cadence
	CCFirst               bool             `json:"ccFirst" example:"true" default:"false"`                     // Fund credit card holding envelopes before all tiers
	AutoAllocateThreshold decimal.Decimal  `json:"autoAllocateThreshold" example:"100" default:"0"`            // Income below this amount is not allocated automatically
	Locale                string           `json:"locale" example:"de-DE" default:"en-US"`                     // BCP 47 language tag used to format notes
}

func (editable HouseholdEditable) model() models.Household {
	return models.Household{
		PayCycle:              editable.PayCycle,
		CCFirst:               editable.CCFirst,
		AutoAllocateThreshold: editable.AutoAllocateThreshold,
		Locale:                editable.Locale,
	}
}

type HouseholdResponse struct {
	Error *string           `json:"error" example:"the X-User-ID header must be set to a valid UUID"` // The error, if any occurred
	Data  *models.Household `json:"data"`                                                            // The household settings
}
