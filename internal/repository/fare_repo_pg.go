package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/avdeenkov/farewatch/internal/domain"
	"github.com/avdeenkov/farewatch/internal/search"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGFareRepository runs the same fare predicates against a relational
// `fares` table, for deployments without a search cluster.
type PGFareRepository struct {
	db *pgxpool.Pool
}

func NewPGFareRepository(db *pgxpool.Pool) *PGFareRepository {
	return &PGFareRepository{db: db}
}

func (r *PGFareRepository) Search(ctx context.Context, q search.Query, size int) ([]domain.FareRecord, error) {
	where, args := sqlConditions(q)
	args = append(args, size)

	query := fmt.Sprintf(
		`SELECT id, origin, destination, date, date_retrieved, type, COALESCE(direction, ''), price FROM fares WHERE %s ORDER BY price ASC LIMIT $%d`,
		where, len(args),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search fares: %w", err)
	}
	defer rows.Close()

	records := make([]domain.FareRecord, 0)
	for rows.Next() {
		var rec domain.FareRecord
		if err := rows.Scan(&rec.ID, &rec.Origin, &rec.Destination, &rec.Date, &rec.DateRetrieved, &rec.Type, &rec.Direction, &rec.PriceCents); err != nil {
			return nil, err
		}
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// sqlConditions renders the predicate as a WHERE clause with positional
// arguments. Clause fields come from the query builder, never from raw user
// input.
func sqlConditions(q search.Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, c := range q.Must {
		conds = append(conds, sqlClause(c, place, false))
	}
	for _, c := range q.MustNot {
		conds = append(conds, sqlClause(c, place, true))
	}
	if len(conds) == 0 {
		return "TRUE", nil
	}
	return strings.Join(conds, " AND "), args
}

func sqlClause(c search.Clause, place func(any) string, negate bool) string {
	var cond string
	switch c := c.(type) {
	case search.Term:
		cond = fmt.Sprintf("%s = %s", c.Field, place(c.Value))
	case search.Terms:
		cond = fmt.Sprintf("%s = ANY(%s)", c.Field, place(c.Values))
	case search.Range:
		var parts []string
		if c.GTE != "" {
			parts = append(parts, fmt.Sprintf("%s >= %s", c.Field, place(c.GTE)))
		}
		if c.LTE != "" {
			parts = append(parts, fmt.Sprintf("%s <= %s", c.Field, place(c.LTE)))
		}
		cond = "(" + strings.Join(parts, " AND ") + ")"
	default:
		panic(fmt.Sprintf("unknown clause type %T", c))
	}
	if negate {
		return "NOT " + cond
	}
	return cond
}

var _ FareRepository = (*PGFareRepository)(nil)
