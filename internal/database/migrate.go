package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates or updates tables for the given models and, on PostgreSQL,
// installs the overlap exclusion constraint on reservations.
func Migrate(db *gorm.DB, models ...any) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return ensureNoOverlapConstraint(db)
}

// NoOverlapConstraint is the exclusion constraint name PostgreSQL reports
// when two live reservations of a room would intersect.
const NoOverlapConstraint = "reservation_no_overlap"

// ensureNoOverlapConstraint rejects two non-cancelled reservations of the same
// room whose half-open date ranges intersect.
func ensureNoOverlapConstraint(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return fmt.Errorf("create btree_gist: %w", err)
	}

	var n int64
	if err := db.Raw("SELECT COUNT(*) FROM pg_constraint WHERE conname = ?", NoOverlapConstraint).Scan(&n).Error; err != nil {
		return fmt.Errorf("lookup %s: %w", NoOverlapConstraint, err)
	}
	if n > 0 {
		return nil
	}

	stmt := `ALTER TABLE reservation ADD CONSTRAINT ` + NoOverlapConstraint + `
		EXCLUDE USING gist (
			room_id WITH =,
			daterange(start_date, end_date, '[)') WITH &&
		) WHERE (status <> 'annulee')`
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("add %s: %w", NoOverlapConstraint, err)
	}
	return nil
}
