package controllers

import (
	"time"

	"github.com/envelope-zero/allocator/pkg/planner"
	"github.com/envelope-zero/allocator/pkg/store"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Controller holds the dependencies of all handlers.
type Controller struct {
	DB      *gorm.DB
	Store   store.Store
	Planner planner.Planner
}

// New returns a Controller that works on the database.
func New(db *gorm.DB, logger zerolog.Logger) Controller {
	s := store.Store{DB: db}

	return Controller{
		DB:    db,
		Store: s,
		Planner: planner.Planner{
			Store:  s,
			Logger: logger.With().Str("component", "planner").Logger(),
		},
	}
}

// now returns the current time of the planner's clock.
func (co Controller) now() time.Time {
	if co.Planner.Now == nil {
		return time.Now()
	}

	return co.Planner.Now()
}
