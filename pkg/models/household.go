package models

import (
	"strings"

	"github.com/envelope-zero/allocator/pkg/engine"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// DefaultLocale is used for households that have not set a locale.
const DefaultLocale = "en-US"

// Household holds the allocation settings of one user.
type Household struct {
	Timestamps
	UserID                uuid.UUID        `json:"userId" gorm:"type:uuid;primaryKey"`
	PayCycle              engine.Frequency `json:"payCycle" example:"fortnightly" default:"monthly"`       // The household's income cadence
	CCFirst               bool             `json:"ccFirst" example:"true" default:"false"`                 // Fund credit card holding envelopes before all tiers
	AutoAllocateThreshold decimal.Decimal  `json:"autoAllocateThreshold" gorm:"type:DECIMAL(20,8)"`        // Income below this amount is not allocated automatically
	Locale                string           `json:"locale" example:"de-DE" default:"en-US"`                 // BCP 47 language tag used for formatting
}

// NewHousehold returns the settings a user has before changing anything.
func NewHousehold(userID uuid.UUID) Household {
	return Household{
		UserID:                userID,
		PayCycle:              engine.Monthly,
		AutoAllocateThreshold: decimal.Zero,
		Locale:                DefaultLocale,
	}
}

// BeforeSave validates the settings.
func (h *Household) BeforeSave(_ *gorm.DB) error {
	h.Locale = strings.TrimSpace(h.Locale)
	if h.Locale == "" {
		h.Locale = DefaultLocale
	}

	if _, err := language.Parse(h.Locale); err != nil {
		return engine.ValidationError{Field: "locale", Reason: err.Error()}
	}

	if h.PayCycle == "" {
		h.PayCycle = engine.Monthly
	}

	if err := h.PayCycle.Validate(); err != nil {
		return err
	}

	if h.AutoAllocateThreshold.IsNegative() {
		return engine.ValidationError{Field: "autoAllocateThreshold", Reason: "must not be negative"}
	}

	return nil
}

// Language returns the language tag for the household's locale.
// Unparseable locales fall back to DefaultLocale.
func (h Household) Language() language.Tag {
	tag, err := language.Parse(h.Locale)
	if err != nil {
		return language.MustParse(DefaultLocale)
	}

	return tag
}
