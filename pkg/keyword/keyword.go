// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package keyword normalizes the free-text keyword sets attached to submissions.
//
// # Pipeline
//
//  1. Normalizes to NFC so composed and decomposed input compare equal.
//  2. Trims and collapses internal whitespace.
//  3. Drops blanks and case-insensitive duplicates, keeping the first spelling.
//
// Arabic and other non-Latin scripts pass through untouched apart from
// normalization; accents are preserved because they change meaning.
package keyword

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// MaxKeywords caps how many keywords a submission may carry.
const MaxKeywords = 20

// Normalize returns the cleaned, de-duplicated keyword set in input order.
func Normalize(raw []string) []string {
	folder := cases.Fold()
	seen := make(map[string]struct{}, len(raw))
	result := make([]string, 0, len(raw))

	for _, entry := range raw {
		clean := strings.Join(strings.Fields(norm.NFC.String(entry)), " ")
		if clean == "" {
			continue
		}

		key := folder.String(clean)
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		result = append(result, clean)
	}

	return result
}

// Key returns the case-folded comparison form used for keyword filters.
func Key(entry string) string {
	return cases.Fold().String(strings.Join(strings.Fields(norm.NFC.String(entry)), " "))
}
