// Package option provides composable query options for the generic store.
package option

import (
	"fmt"
	"strings"

	"github.com/comparepco/rentalcore/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption func(*gorm.DB) *gorm.DB

// Apply runs the option against db.
func (o QueryOption) Apply(db *gorm.DB) *gorm.DB {
	if o == nil {
		return db
	}
	return o(db)
}

// Operator names a comparison for ApplyOperator conditions.
type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "!="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

// Condition is a single field comparison.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a WHERE clause for the condition.
func ApplyOperator(cond Condition) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(cond.Field)
		if field == "" {
			return db
		}
		return db.Where(fmt.Sprintf("%s %s ?", field, cond.Operator), cond.Value)
	}
}

// ApplyPagination applies cursor pagination. One extra row beyond the page
// size is fetched so callers can detect whether more pages exist.
func ApplyPagination(p pagination.Pagination) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		pageSize := p.PageSize
		if pageSize <= 0 {
			pageSize = 10
		}

		if token := strings.TrimSpace(p.PageToken); token != "" {
			cursor, err := pagination.DecodeCursor(token)
			if err == nil && cursor.CreatedAt != "" {
				db = db.Where(
					"(created_at < ?) OR (created_at = ? AND id < ?)",
					cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
				)
			}
		}

		return db.Limit(pageSize + 1)
	}
}

// WithSortBy applies a pre-validated ORDER BY clause.
func WithSortBy(clause string) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			return db
		}
		return db.Order(clause)
	}
}

// WithQuerySortBy builds an ORDER BY clause from caller input, restricted to
// the allowed column set. Unknown columns fall back to created_at.
func WithQuerySortBy(field, direction string, allowed map[string]bool) string {
	field = strings.ToLower(strings.TrimSpace(field))
	if !allowed[field] {
		field = "created_at"
	}

	direction = strings.ToLower(strings.TrimSpace(direction))
	if direction != "asc" && direction != "desc" {
		direction = "desc"
	}

	return field + " " + direction
}
