// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/scholaris/pkg/slice"
)

func TestMap(t *testing.T) {
	assert.Nil(t, slice.Map[int, string](nil, func(int) string { return "" }))
	assert.Equal(t, []int{2, 4}, slice.Map([]int{1, 2}, func(v int) int { return v * 2 }))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"u-2", "u-3"}, slice.Unique([]string{"u-2", "u-3", "u-2"}))
	assert.NotNil(t, slice.Unique[string](nil))
}
