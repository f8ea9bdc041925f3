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

package chainsync

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/gogmios/protocol/common"
)

// Direction indicates whether an event advances the chain or retreats due
// to a reorganization
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// Event represents one chain-sync event. Block holds the decoded block for
// forward events; Point holds the rollback target for backward events
type Event struct {
	Direction Direction
	Block     any
	Point     common.Point
	Tip       common.Tip
}

// EventFromValue interprets a decoded block-fetch result as an Event
func EventFromValue(v any) (*Event, error) {
	msg, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf(
			"%s: unexpected event value type %T",
			ProtocolName,
			v,
		)
	}
	direction, ok := msg["direction"].(string)
	if !ok {
		return nil, fmt.Errorf("%s: event has no direction", ProtocolName)
	}
	ev := &Event{
		Direction: Direction(direction),
	}
	switch ev.Direction {
	case DirectionForward:
		block, ok := msg["block"]
		if !ok {
			return nil, fmt.Errorf(
				"%s: forward event has no block",
				ProtocolName,
			)
		}
		ev.Block = block
	case DirectionBackward:
		if pointVal, ok := msg["point"]; ok {
			point, err := common.PointFromValue(pointVal)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", ProtocolName, err)
			}
			ev.Point = point
		}
	default:
		return nil, fmt.Errorf(
			"%s: unknown direction %q",
			ProtocolName,
			direction,
		)
	}
	if tipVal, ok := msg["tip"]; ok {
		tip, err := common.TipFromValue(tipVal)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ProtocolName, err)
		}
		ev.Tip = tip
	}
	return ev, nil
}

// intersectionFromValue extracts the negotiated intersection point from a
// findIntersection result
func intersectionFromValue(v any) (common.Point, error) {
	msg, ok := v.(map[string]any)
	if !ok {
		return common.Point{}, fmt.Errorf(
			"%s: unexpected intersection value type %T",
			ProtocolName,
			v,
		)
	}
	intersection, ok := msg["intersection"]
	if !ok {
		return common.Point{}, errors.New(
			ProtocolName + ": result has no intersection",
		)
	}
	point, err := common.PointFromValue(intersection)
	if err != nil {
		return common.Point{}, fmt.Errorf("%s: %w", ProtocolName, err)
	}
	return point, nil
}
