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

// The common package contains types used by multiple parts of the protocol
package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

// The Point type represents a point on the blockchain. It consists of a slot
// number and a block header hash in hex form. The zero value represents the
// origin of the chain, which has the special serialized form "origin"
type Point struct {
	Slot uint64 `json:"slot"`
	ID   string `json:"id"`
}

// NewPoint returns a Point object with the specified slot number and block
// header hash
func NewPoint(slot uint64, id string) Point {
	return Point{
		Slot: slot,
		ID:   id,
	}
}

// NewPointOrigin returns an "empty" Point object which represents the origin
// of the blockchain
func NewPointOrigin() Point {
	return Point{}
}

// Origin returns whether the point represents the origin of the blockchain
func (p Point) Origin() bool {
	return p.Slot == 0 && p.ID == ""
}

// MarshalJSON is a helper function for encoding a Point object to JSON. The
// origin point has a special string form, so we need to do some special
// handling when encoding. It is not intended to be called directly
func (p Point) MarshalJSON() ([]byte, error) {
	if p.Origin() {
		return []byte(`"origin"`), nil
	}
	type tPoint Point
	return json.Marshal(tPoint(p))
}

// UnmarshalJSON is a helper function for decoding a Point object from JSON.
// It is not intended to be called directly
func (p *Point) UnmarshalJSON(data []byte) error {
	if string(data) == `"origin"` {
		*p = Point{}
		return nil
	}
	type tPoint Point
	var tmp tPoint
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = Point(tmp)
	return nil
}

// PointFromValue builds a Point from a decoded value tree
func PointFromValue(v any) (Point, error) {
	switch tv := v.(type) {
	case string:
		if tv == "origin" {
			return NewPointOrigin(), nil
		}
		return Point{}, fmt.Errorf("unknown point value %q", tv)
	case map[string]any:
		slot, err := CoerceUint64(tv["slot"])
		if err != nil {
			return Point{}, fmt.Errorf("point slot: %w", err)
		}
		id, ok := tv["id"].(string)
		if !ok {
			return Point{}, errors.New("point is missing an id")
		}
		return NewPoint(slot, id), nil
	default:
		return Point{}, fmt.Errorf("unexpected point value type %T", v)
	}
}

// Tip represents a Point combined with a block height
type Tip struct {
	Slot   uint64 `json:"slot"`
	ID     string `json:"id"`
	Height uint64 `json:"height"`
}

// Point returns the chain point for the tip
func (t Tip) Point() Point {
	return NewPoint(t.Slot, t.ID)
}

// TipFromValue builds a Tip from a decoded value tree
func TipFromValue(v any) (Tip, error) {
	tv, ok := v.(map[string]any)
	if !ok {
		return Tip{}, fmt.Errorf("unexpected tip value type %T", v)
	}
	slot, err := CoerceUint64(tv["slot"])
	if err != nil {
		return Tip{}, fmt.Errorf("tip slot: %w", err)
	}
	id, ok := tv["id"].(string)
	if !ok {
		return Tip{}, errors.New("tip is missing an id")
	}
	ret := Tip{
		Slot: slot,
		ID:   id,
	}
	if height, ok := tv["height"]; ok {
		h, err := CoerceUint64(height)
		if err != nil {
			return Tip{}, fmt.Errorf("tip height: %w", err)
		}
		ret.Height = h
	}
	return ret, nil
}

// CoerceUint64 converts the numeric representations produced by the codec
// into a uint64
func CoerceUint64(v any) (uint64, error) {
	switch tv := v.(type) {
	case json.Number:
		i, ok := new(big.Int).SetString(tv.String(), 10)
		if !ok {
			return 0, fmt.Errorf("non-integer number %q", tv.String())
		}
		if !i.IsUint64() {
			return 0, fmt.Errorf("number %q out of range", tv.String())
		}
		return i.Uint64(), nil
	case *big.Int:
		if !tv.IsUint64() {
			return 0, fmt.Errorf("number %s out of range", tv.String())
		}
		return tv.Uint64(), nil
	case uint64:
		return tv, nil
	case int64:
		if tv < 0 {
			return 0, fmt.Errorf("number %d out of range", tv)
		}
		return uint64(tv), nil
	case int:
		if tv < 0 {
			return 0, fmt.Errorf("number %d out of range", tv)
		}
		return uint64(tv), nil
	case float64:
		if tv < 0 || tv != float64(uint64(tv)) {
			return 0, fmt.Errorf("number %v out of range", tv)
		}
		return uint64(tv), nil
	case nil:
		return 0, errors.New("missing number")
	default:
		return 0, fmt.Errorf("unexpected number type %T", v)
	}
}
