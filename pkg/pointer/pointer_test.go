// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/scholaris/pkg/pointer"
)

func TestToAndVal(t *testing.T) {
	notes := pointer.To("insufficient data")
	assert.Equal(t, "insufficient data", pointer.Val(notes))

	var missing *string
	assert.Equal(t, "", pointer.Val(missing))
	assert.Equal(t, 0, pointer.Val[int](nil))
}
