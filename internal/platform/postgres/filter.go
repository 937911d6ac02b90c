// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/pkg/query"
	"github.com/taibuivan/scholaris/pkg/uuid"
)

// ColumnType is the SQL type a filter value is cast to.
type ColumnType string

const (
	TypeText        ColumnType = "text"
	TypeUUID        ColumnType = "uuid"
	TypeInt         ColumnType = "int"
	TypeDate        ColumnType = "date"
	TypeTimestamptz ColumnType = "timestamptz"
)

// Column binds a public field name to its SQL expression.
type Column struct {
	Expr  string
	Type  ColumnType
	Array bool
}

// Columns is the allow-list of filterable and sortable fields for one listing.
type Columns map[string]Column

// Args accumulates positional parameters across WHERE fragments.
type Args struct {
	values []any
}

// Add appends a value and returns its placeholder.
func (args *Args) Add(value any) string {
	args.values = append(args.values, value)
	return "$" + strconv.Itoa(len(args.values))
}

// Values returns the bound parameters in placeholder order.
func (args *Args) Values() []any {
	return args.values
}

/*
Where translates filters into an AND-joined predicate list.

Fields missing from columns produce FALSE so the listing matches nothing,
the same outcome as filtering on a field no record has. Values are checked
against the column type first; a malformed value is a VALIDATION_ERROR
rather than a database cast failure.

Parameters:
  - filters: []query.Filter
  - args: *Args receiving the bound values

Returns:
  - []string: predicates, one per filter
  - error: apperr.ValidationError for malformed values
*/
func (columns Columns) Where(filters []query.Filter, args *Args) ([]string, error) {
	predicates := make([]string, 0, len(filters))

	for _, filter := range filters {
		column, ok := columns[filter.Field]
		if !ok || len(filter.Values) == 0 {
			predicates = append(predicates, "FALSE")
			continue
		}

		for _, value := range filter.Values {
			if err := checkValue(column.Type, value); err != nil {
				return nil, apperr.ValidationError("Invalid filter value", apperr.FieldError{
					Field:   filter.Field,
					Message: err.Error(),
				})
			}
		}

		predicates = append(predicates, column.predicate(filter, args))
	}

	return predicates, nil
}

func (column Column) predicate(filter query.Filter, args *Args) string {
	sqlType := string(column.Type)

	switch filter.Op {
	case query.OpIn:
		placeholder := args.Add(filter.Values)
		if column.Array {
			return fmt.Sprintf("%s && %s::%s[]", column.Expr, placeholder, sqlType)
		}
		return fmt.Sprintf("%s = ANY(%s::%s[])", column.Expr, placeholder, sqlType)

	case query.OpEq:
		placeholder := args.Add(filter.Values[0])
		if column.Array {
			return fmt.Sprintf("%s::%s = ANY(%s)", placeholder, sqlType, column.Expr)
		}
		return fmt.Sprintf("%s = %s::%s", column.Expr, placeholder, sqlType)
	}

	// Range comparisons on array columns have no meaning.
	if column.Array {
		return "FALSE"
	}

	operator := map[query.Op]string{
		query.OpGt:  ">",
		query.OpGte: ">=",
		query.OpLt:  "<",
		query.OpLte: "<=",
	}[filter.Op]
	if operator == "" {
		return "FALSE"
	}

	placeholder := args.Add(filter.Values[0])
	return fmt.Sprintf("%s %s %s::%s", column.Expr, operator, placeholder, sqlType)
}

func checkValue(columnType ColumnType, value string) error {
	switch columnType {
	case TypeUUID:
		if !uuid.Valid(value) {
			return fmt.Errorf("must be a UUID")
		}
	case TypeInt:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("must be an integer")
		}
	case TypeDate, TypeTimestamptz:
		if _, err := time.Parse(time.DateOnly, value); err == nil {
			return nil
		}
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			return fmt.Errorf("must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		}
	}
	return nil
}

// OrderBy renders an ORDER BY list. Unknown keys are skipped; when nothing
// usable remains, fallback is used. The id tiebreaker keeps paging stable.
func (columns Columns) OrderBy(keys []query.SortKey, fallback []query.SortKey, tiebreaker string) string {
	parts := columns.orderParts(keys)
	if len(parts) == 0 {
		parts = columns.orderParts(fallback)
	}
	if tiebreaker != "" {
		parts = append(parts, tiebreaker)
	}
	return strings.Join(parts, ", ")
}

func (columns Columns) orderParts(keys []query.SortKey) []string {
	var parts []string
	for _, key := range keys {
		column, ok := columns[key.Field]
		if !ok || column.Array {
			continue
		}
		direction := "ASC"
		if key.Desc {
			direction = "DESC"
		}
		parts = append(parts, column.Expr+" "+direction)
	}
	return parts
}
