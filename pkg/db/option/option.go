// Package option provides composable gorm query options used by the
// generic repository and the feature repositories.
package option

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/subora/pkg/db/pagination"
	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if cond.Field == "" || cond.Operator == "" {
			return db
		}
		return db.Where(fmt.Sprintf("%s %s ?", cond.Field, cond.Operator), cond.Value)
	})
}

// ApplyPagination seeks past the cursor and fetches one extra row so the
// caller can detect whether more pages exist.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if token := strings.TrimSpace(page.PageToken); token != "" {
			cursor, err := pagination.DecodeCursor(token)
			if err == nil && cursor != nil && cursor.CreatedAt != "" {
				db = db.Where("created_at < ?", cursor.CreatedAt)
			}
		}

		size := page.PageSize
		if size <= 0 {
			size = 10
		}
		return db.Limit(size + 1)
	})
}

func WithLimit(limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func WithSortBy(expr string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(expr) == "" {
			return db
		}
		return db.Order(expr)
	})
}

// WithQuerySortBy validates a requested sort column against an allowlist
// and falls back to created_at when the column is not sortable.
func WithQuerySortBy(field, order string, allowed map[string]bool) string {
	field = strings.TrimSpace(strings.ToLower(field))
	if field == "" || !allowed[field] {
		field = "created_at"
	}

	order = strings.TrimSpace(strings.ToLower(order))
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	return fmt.Sprintf("%s %s", field, order)
}
