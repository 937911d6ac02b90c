// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/internal/platform/postgres"
	"github.com/taibuivan/scholaris/pkg/query"
)

var columns = postgres.Columns{
	"status":          {Expr: "s.status", Type: postgres.TypeText},
	"submission_date": {Expr: "s.submission_date", Type: postgres.TypeTimestamptz},
	"keywords":        {Expr: "s.keywords", Type: postgres.TypeText, Array: true},
	"owner_id":        {Expr: "s.owner_id", Type: postgres.TypeUUID},
}

/*
TestWhere_Translation checks the SQL rendered for each operator.
*/
func TestWhere_Translation(t *testing.T) {
	args := &postgres.Args{}
	args.Add("already-bound")

	predicates, err := columns.Where([]query.Filter{
		{Field: "status", Op: query.OpEq, Values: []string{"pending"}},
		{Field: "submission_date", Op: query.OpGte, Values: []string{"2024-01-01"}},
		{Field: "status", Op: query.OpIn, Values: []string{"pending", "rejected"}},
		{Field: "keywords", Op: query.OpEq, Values: []string{"soil"}},
		{Field: "keywords", Op: query.OpIn, Values: []string{"soil", "water"}},
	}, args)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"s.status = $2::text",
		"s.submission_date >= $3::timestamptz",
		"s.status = ANY($4::text[])",
		"$5::text = ANY(s.keywords)",
		"s.keywords && $6::text[]",
	}, predicates)
	assert.Len(t, args.Values(), 6)
}

/*
TestWhere_UnknownFieldMatchesNothing verifies that filters on fields outside the
allow-list yield FALSE and bind no value.
*/
func TestWhere_UnknownFieldMatchesNothing(t *testing.T) {
	args := &postgres.Args{}
	predicates, err := columns.Where([]query.Filter{
		{Field: "password", Op: query.OpEq, Values: []string{"x"}},
		{Field: "keywords", Op: query.OpGt, Values: []string{"a"}},
	}, args)
	require.NoError(t, err)

	assert.Equal(t, []string{"FALSE", "FALSE"}, predicates)
	assert.Empty(t, args.Values())
}

func TestWhere_MalformedValue(t *testing.T) {
	_, err := columns.Where([]query.Filter{
		{Field: "owner_id", Op: query.OpEq, Values: []string{"nope"}},
	}, &postgres.Args{})

	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

func TestOrderBy(t *testing.T) {
	fallback := []query.SortKey{{Field: "submission_date", Desc: true}}

	assert.Equal(t, "s.status ASC, s.id",
		columns.OrderBy([]query.SortKey{{Field: "status"}, {Field: "bogus"}}, fallback, "s.id"))
	assert.Equal(t, "s.submission_date DESC, s.id",
		columns.OrderBy([]query.SortKey{{Field: "bogus"}}, fallback, "s.id"))
}
