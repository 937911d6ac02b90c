// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package query parses list-endpoint query strings into a storage-neutral
description of filters, projection, ordering and paging.

Grammar:

  - Reserved keys: select, sort, page, limit.
  - field[op]=value with op one of gt, gte, lt, lte, in.
  - Any other key is an equality filter.

The in operator accepts comma-separated values, repeated keys, or both.
Translating a [Query] to SQL is the store's job; this package never sees a column.
*/
package query

import (
	"encoding/json"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/taibuivan/scholaris/pkg/pagination"
)

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

// Reserved keys never become filters.
const (
	KeySelect = "select"
	KeySort   = "sort"
	KeyPage   = "page"
	KeyLimit  = "limit"
)

var operatorKey = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\[(gt|gte|lt|lte|in)\]$`)

// Filter is a single predicate on one field.
type Filter struct {
	Field  string
	Op     Op
	Values []string
}

// SortKey orders results by one field.
type SortKey struct {
	Field string
	Desc  bool
}

// Query is the parsed form of a list request.
type Query struct {
	Filters []Filter
	Select  []string
	Sort    []SortKey
	Page    pagination.Params
}

// Parse turns a raw query string into a [Query].
// Filters are returned ordered by field name so the generated SQL is stable.
func Parse(values url.Values) Query {
	parsed := Query{
		Select: StringSlice(strings.Join(values[KeySelect], ",")),
		Sort:   parseSort(strings.Join(values[KeySort], ",")),
		Page:   pagination.FromValues(values),
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch key {
		case KeySelect, KeySort, KeyPage, KeyLimit:
			continue
		}

		raw := values[key]
		if match := operatorKey.FindStringSubmatch(key); match != nil {
			op := Op(match[2])
			filter := Filter{Field: match[1], Op: op, Values: raw}
			if op == OpIn {
				filter.Values = StringSlice(strings.Join(raw, ","))
			} else {
				filter.Values = raw[len(raw)-1:]
			}
			parsed.Filters = append(parsed.Filters, filter)
			continue
		}

		// A repeated equality key behaves like membership.
		if len(raw) > 1 {
			parsed.Filters = append(parsed.Filters, Filter{Field: key, Op: OpIn, Values: raw})
			continue
		}
		parsed.Filters = append(parsed.Filters, Filter{Field: key, Op: OpEq, Values: raw})
	}

	return parsed
}

// parseSort reads "-a,b" into descending a then ascending b.
func parseSort(raw string) []SortKey {
	var keys []SortKey
	for _, field := range StringSlice(raw) {
		desc := strings.HasPrefix(field, "-")
		field = strings.TrimLeft(field, "-+")
		if field == "" {
			continue
		}
		keys = append(keys, SortKey{Field: field, Desc: desc})
	}
	return keys
}

// Project reduces each item to the selected JSON fields; "id" is always kept.
// An empty selection returns the items unchanged.
func Project[T any](items []T, fields []string) (any, error) {
	if len(fields) == 0 {
		return items, nil
	}

	keep := map[string]struct{}{"id": {}}
	for _, field := range fields {
		keep[field] = struct{}{}
	}

	projected := make([]map[string]json.RawMessage, 0, len(items))
	for _, item := range items {
		encoded, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}

		var full map[string]json.RawMessage
		if err := json.Unmarshal(encoded, &full); err != nil {
			return nil, err
		}

		reduced := make(map[string]json.RawMessage, len(keep))
		for field := range keep {
			if value, ok := full[field]; ok {
				reduced[field] = value
			}
		}
		projected = append(projected, reduced)
	}

	return projected, nil
}

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}
