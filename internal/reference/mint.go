// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"fmt"

	"github.com/taibuivan/scholaris/internal/platform/apperr"
	"github.com/taibuivan/scholaris/internal/platform/constants"
)

/*
Mint renders a reference number as {code}{year:04d}{serial:04d}{suffix}.

Parameters:
  - code: TypeCode (never [TypeUnknown])
  - year: int (calendar year of issuance)
  - serial: int (1..constants.MaxSerial)
  - suffix: string (institutional domain code)

Returns:
  - string: e.g. "MA20250008CS"
  - error: ALLOCATION_EXHAUSTED past the serial space, CONFIGURATION_ERROR for XX
*/
func Mint(code TypeCode, year, serial int, suffix string) (string, error) {
	if code == TypeUnknown || code == "" {
		return "", apperr.Configuration("Reference type code is not configured")
	}
	if serial > constants.MaxSerial {
		return "", apperr.AllocationExhausted(fmt.Sprintf("Reference serials for %s %d are exhausted", code, year))
	}
	if serial < 1 {
		return "", apperr.Internal(fmt.Errorf("reference: serial %d out of range", serial))
	}
	if year < 0 || year > 9999 {
		return "", apperr.Internal(fmt.Errorf("reference: year %d out of range", year))
	}

	return fmt.Sprintf("%s%04d%04d%s", code, year, serial, suffix), nil
}
