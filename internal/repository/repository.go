// Package repository implements Postgres data access with sqlx. Uniqueness
// is enforced by database constraints; violations surface as domain
// conflict errors rather than being pre-checked racily.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/opensharing/showcase/internal/domain"
)

// pgUniqueViolation is the Postgres error code for unique constraint hits.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// ListParams is offset-based pagination with a whitelisted order column.
type ListParams struct {
	Page     int
	PageSize int
	OrderBy  string
	Order    string // "asc" or "desc"
}

// Offset returns the row offset for the current page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// orderClause validates OrderBy against the allowed column set and returns
// a safe ORDER BY expression. Column names are interpolated into SQL, so
// the whitelist is mandatory.
func (p ListParams) orderClause(allowed map[string]bool, fallback string) (string, error) {
	col := p.OrderBy
	if col == "" {
		col = fallback
	}
	if !allowed[col] {
		return "", domain.ValidationError(map[string]string{
			"order_by": fmt.Sprintf("cannot order by %q", col),
		})
	}
	dir := "ASC"
	if p.Order == "desc" {
		dir = "DESC"
	}
	return col + " " + dir, nil
}
