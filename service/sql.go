package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// rangeQuery reads the numeric metadata row for one concept from the
// dictionary's concept_numeric table.
const rangeQuery = `
SELECT precise, low_absolute, hi_absolute
FROM concept_numeric
WHERE concept_id = $1`

// SQLRangeResolver implements ConceptRangeResolver against a relational
// concept dictionary.
type SQLRangeResolver struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewSQLRangeResolver creates a resolver over the given database handle.
// The caller owns the handle and its lifecycle.
func NewSQLRangeResolver(db *sqlx.DB, log zerolog.Logger) *SQLRangeResolver {
	return &SQLRangeResolver{db: db, log: log}
}

// rangeRow is the scan target for rangeQuery.
type rangeRow struct {
	Precise     bool                `db:"precise"`
	LowAbsolute decimal.NullDecimal `db:"low_absolute"`
	HiAbsolute  decimal.NullDecimal `db:"hi_absolute"`
}

// ResolveNumericRange looks up the concept_numeric row for the concept.
// A missing row maps to ErrNotFound so chains can fall through.
func (r *SQLRangeResolver) ResolveNumericRange(ctx context.Context, conceptID int) (*NumericRange, error) {
	var row rangeRow
	if err := r.db.GetContext(ctx, &row, rangeQuery, conceptID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("numeric concept %d: %w", conceptID, ErrNotFound)
		}
		return nil, fmt.Errorf("query numeric range for concept %d: %w", conceptID, err)
	}

	nr := &NumericRange{Precise: row.Precise}
	if row.LowAbsolute.Valid {
		nr.LowAbsolute = &row.LowAbsolute.Decimal
	}
	if row.HiAbsolute.Valid {
		nr.HiAbsolute = &row.HiAbsolute.Decimal
	}

	r.log.Debug().
		Int("conceptId", conceptID).
		Bool("precise", nr.Precise).
		Msg("Resolved numeric range")

	return nr, nil
}
