package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	go_sqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var pluralIES = regexp.MustCompile("ies$")

// Connect opens the SQLite database at dsn, migrates the schema and
// registers the error translating callbacks.
//
// Foreign keys are always enabled.
func Connect(dsn string) (*gorm.DB, error) {
	config := &gorm.Config{
		// Set generated timestamps in UTC
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		Logger: newLogger(log.Logger),
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	dsn = fmt.Sprintf("%s%s_pragma=foreign_keys(1)", dsn, separator)

	db, err := gorm.Open(sqlite.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Get new connections after one hour
	sqlDB.SetConnMaxLifetime(time.Hour)

	// This is done to prevent SQLITE_BUSY errors.
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	err = Migrate(db)
	if err != nil {
		return nil, err
	}

	for _, cb := range []struct {
		name     string
		register func() error
	}{
		{"query", func() error {
			return db.Callback().Query().After("*").Register("allocator:after_query", queryCallback)
		}},
		{"query general", func() error {
			return db.Callback().Query().After("*").Register("allocator:after_query_general", generalCallback)
		}},
		{"create", func() error {
			return db.Callback().Create().After("*").Register("allocator:after_create", createUpdateCallback)
		}},
		{"create general", func() error {
			return db.Callback().Create().After("*").Register("allocator:after_create_general", generalCallback)
		}},
		{"update", func() error {
			return db.Callback().Update().After("*").Register("allocator:after_update", createUpdateCallback)
		}},
		{"update general", func() error {
			return db.Callback().Update().After("*").Register("allocator:after_update_general", generalCallback)
		}},
		{"delete general", func() error {
			return db.Callback().Delete().After("*").Register("allocator:after_delete_general", generalCallback)
		}},
	} {
		if err := cb.register(); err != nil {
			return nil, fmt.Errorf("could not register %s callback: %w", cb.name, err)
		}
	}

	return db, nil
}

// Migrate migrates all models to the schema defined in the code.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(Household{}, Envelope{}, IncomeStream{}, IncomeAllocation{}, Transaction{}, AllocationPlan{}, AllocationPlanItem{})
	if err != nil {
		return fmt.Errorf("error during DB migration: %w", err)
	}

	return nil
}

// queryCallback replaces the generic "no record" error with a more user
// friendly one
func queryCallback(db *gorm.DB) {
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		// Use the table name as information about the type of resource
		// and replace "_" with "[space]"
		name := strings.ReplaceAll(db.Statement.Table, "_", " ")

		// Replace pluralized "ies" with "y"
		name = pluralIES.ReplaceAllString(name, "y")

		// Remove plural "s"
		name = strings.TrimRight(name, "s")

		db.Error = fmt.Errorf("%w %s matching your query", ErrResourceNotFound, name)
	}
}

// createUpdateCallback inspects errors returned by the database for create
// and update calls and replaces them with user friendly ones
func createUpdateCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	msg := db.Error.Error()

	// Envelope names are unique per user
	if strings.Contains(msg, "UNIQUE constraint failed: envelopes.user_id, envelopes.name") {
		db.Error = ErrEnvelopeNameNotUnique
	}

	if strings.Contains(msg, "UNIQUE constraint failed: income_streams.user_id, income_streams.name") {
		db.Error = ErrIncomeStreamNameNotUnique
	}

	if strings.Contains(msg, "UNIQUE constraint failed: income_allocations.income_stream_id, income_allocations.envelope_id") {
		db.Error = ErrIncomeAllocationNotUnique
	}

	if strings.Contains(msg, "FOREIGN KEY constraint failed") {
		db.Error = ErrReferenceNotFound
	}

	// A transaction backs at most one plan
	if strings.Contains(msg, "UNIQUE constraint failed: allocation_plans.source_transaction_id") {
		db.Error = ErrPlanForTransactionExists
	}
}

// generalCallback handles unspecified errors.
//
// For these errors, we cannot provide the user with a helpful message.
// Instead, the error is logged and we return a general message to users.
func generalCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	// "sql: database is closed" is hard-coded in the sql module, see
	// https://cs.opensource.google/go/go/+/master:src/database/sql/sql.go;l=1298;drc=0d018b49e33b1383dc0ae5cc968e800dffeeaf7d
	if db.Error.Error() == "sql: database is closed" || reflect.TypeOf(db.Error) == reflect.TypeOf(&go_sqlite.Error{}) {
		// A general error where we cannot provide more useful information to the end user
		// We log the error and provide a general error message so that server admins can debug
		log.Error().Msgf("%T: %v", db.Error, db.Error.Error())
		db.Error = ErrGeneral
	}
}
