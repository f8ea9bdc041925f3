// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/blinklabs-io/gogmios/protocol/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointJSON(t *testing.T) {
	testDefs := []struct {
		point common.Point
		json  string
	}{
		{
			point: common.NewPointOrigin(),
			json:  `"origin"`,
		},
		{
			point: common.NewPoint(
				12345,
				"0d8d00cdd4657ac84d82f0a56067634a7859e6b9a95017cc6b7e0e38eaedd634",
			),
			json: `{"slot":12345,"id":"0d8d00cdd4657ac84d82f0a56067634a7859e6b9a95017cc6b7e0e38eaedd634"}`,
		},
	}
	for _, testDef := range testDefs {
		data, err := json.Marshal(testDef.point)
		require.NoError(t, err)
		assert.Equal(t, testDef.json, string(data))
		var point common.Point
		require.NoError(t, json.Unmarshal(data, &point))
		assert.Equal(t, testDef.point, point)
	}
}

func TestPointFromValue(t *testing.T) {
	point, err := common.PointFromValue("origin")
	require.NoError(t, err)
	assert.True(t, point.Origin())

	point, err = common.PointFromValue(map[string]any{
		"slot": json.Number("12345"),
		"id":   "abcd",
	})
	require.NoError(t, err)
	assert.Equal(t, common.NewPoint(12345, "abcd"), point)

	_, err = common.PointFromValue("not-origin")
	require.Error(t, err)
	_, err = common.PointFromValue(map[string]any{"slot": json.Number("1")})
	require.Error(t, err)
	_, err = common.PointFromValue(42)
	require.Error(t, err)
}

func TestTipFromValue(t *testing.T) {
	tip, err := common.TipFromValue(map[string]any{
		"slot":   json.Number("500"),
		"id":     "abcd",
		"height": json.Number("77"),
	})
	require.NoError(t, err)
	assert.Equal(
		t,
		common.Tip{Slot: 500, ID: "abcd", Height: 77},
		tip,
	)
	assert.Equal(t, common.NewPoint(500, "abcd"), tip.Point())

	// Height is optional
	tip, err = common.TipFromValue(map[string]any{
		"slot": json.Number("500"),
		"id":   "abcd",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), tip.Height)

	_, err = common.TipFromValue("origin")
	require.Error(t, err)
}

func TestCoerceUint64(t *testing.T) {
	testDefs := []struct {
		value    any
		expected uint64
		fails    bool
	}{
		{value: json.Number("12345"), expected: 12345},
		{value: json.Number("18446744073709551615"), expected: 18446744073709551615},
		{value: json.Number("1.5"), fails: true},
		{value: json.Number("-1"), fails: true},
		{value: big.NewInt(42), expected: 42},
		{value: big.NewInt(-42), fails: true},
		{value: uint64(7), expected: 7},
		{value: int64(7), expected: 7},
		{value: int64(-7), fails: true},
		{value: 7, expected: 7},
		{value: float64(7), expected: 7},
		{value: float64(7.5), fails: true},
		{value: nil, fails: true},
		{value: "7", fails: true},
	}
	for _, testDef := range testDefs {
		result, err := common.CoerceUint64(testDef.value)
		if testDef.fails {
			assert.Error(t, err, "expected error for %v", testDef.value)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, testDef.expected, result)
	}
}
