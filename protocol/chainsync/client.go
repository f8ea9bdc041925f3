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
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gogmios/protocol"
	"github.com/blinklabs-io/gogmios/protocol/common"
)

// FollowOptionFunc is a type that represents functions that modify a follow
// request
type FollowOptionFunc func(*followOptions)

type followOptions struct {
	points []common.Point
	// count is the number of forward events to yield; negative means
	// unbounded
	count    int
	countSet bool
}

// WithIntersectPoints specifies the candidate intersection points for the
// follower. If none are provided, the follower starts from the current
// chain tip
func WithIntersectPoints(points ...common.Point) FollowOptionFunc {
	return func(o *followOptions) {
		o.points = points
	}
}

// WithBlockCount specifies a finite number of forward events to yield, after
// which the follower terminates. The default is unbounded consumption
func WithBlockCount(count int) FollowOptionFunc {
	return func(o *followOptions) {
		o.count = count
		o.countSet = true
	}
}

// Follow negotiates an intersection with the remote node and starts
// streaming block events. Invalid arguments are rejected before any network
// interaction. If the node does not know any of the intersect points, the
// peer's rejection is returned as a *protocol.RemoteError and the follower
// never starts
func (c *Client) Follow(
	ctx context.Context,
	options ...FollowOptionFunc,
) (*Follower, error) {
	opts := followOptions{
		count: -1,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.countSet && opts.count < 0 {
		return nil, fmt.Errorf(
			"%w: block count must be non-negative",
			ErrInvalidArgument,
		)
	}
	for _, point := range opts.points {
		if point.Origin() {
			continue
		}
		if point.ID == "" {
			return nil, fmt.Errorf(
				"%w: intersect point has no id",
				ErrInvalidArgument,
			)
		}
		if _, err := hex.DecodeString(point.ID); err != nil {
			return nil, fmt.Errorf(
				"%w: intersect point id %q is not hex",
				ErrInvalidArgument,
				point.ID,
			)
		}
	}

	points := opts.points
	if len(points) == 0 {
		// Two round trips: fetch the current tip, then negotiate an
		// intersection at it
		tipVal, err := c.proto.Ask(ctx, methodNetworkTip, nil)
		if err != nil {
			return nil, err
		}
		tip, err := common.PointFromValue(tipVal)
		if err != nil {
			return nil, err
		}
		points = []common.Point{tip}
	}

	c.logger.Debug(
		fmt.Sprintf("calling Follow(points: %+v)", points),
		"component", "network",
		"protocol", ProtocolName,
		"role", "client",
	)

	result, err := c.proto.Ask(
		ctx,
		methodFindIntersection,
		map[string]any{"points": points},
	)
	if err != nil {
		return nil, err
	}
	intersection, err := intersectionFromValue(result)
	if err != nil {
		return nil, err
	}

	f := &Follower{
		proto:        c.proto,
		logger:       c.logger,
		burst:        c.config.PipelineLimit,
		remaining:    opts.count,
		intersection: intersection,
		// Negotiation produces one rollback before streaming starts; it
		// occupies a window slot and is discarded without being yielded
		handshake: true,
		events:    make(chan followResult),
		doneChan:  make(chan struct{}),
	}
	if err := f.fill(); err != nil {
		return nil, err
	}
	go f.pump()
	return f, nil
}

// followResult carries one event or error from the pump to the consumer
type followResult struct {
	event *Event
	err   error
}

// Follower produces a lazy, single-pass sequence of chain events. It is not
// resumable: a new Follower must be started to restart consumption
type Follower struct {
	proto        *protocol.Protocol
	logger       *slog.Logger
	burst        int
	remaining    int
	intersection common.Point
	handshake    bool
	window       []<-chan protocol.Result
	events       chan followResult
	doneChan     chan struct{}
	onceStop     sync.Once
}

// Intersection returns the chain point the follower started from
func (f *Follower) Intersection() common.Point {
	return f.intersection
}

// Next returns the next chain event, blocking until the oldest outstanding
// block fetch resolves. After a finite block count is exhausted it returns
// ErrFollowDone. If the channel closes or errors while events are still
// expected, the failure is returned here
func (f *Follower) Next(ctx context.Context) (*Event, error) {
	select {
	case res, ok := <-f.events:
		if !ok {
			select {
			case <-f.doneChan:
				return nil, ErrFollowStopped
			default:
				return nil, ErrFollowDone
			}
		}
		if res.err != nil {
			return nil, res.err
		}
		return res.event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop abandons the follower. Any blocked Next call fails with
// ErrFollowStopped. Stopping a follower with fetches still in flight leaves
// the conversation ordering indeterminate, so it should only be used when
// the channel is about to be closed
func (f *Follower) Stop() {
	f.onceStop.Do(func() {
		close(f.doneChan)
	})
}

// fill tops the window up to the pipeline limit, or to the number of events
// still owed to the consumer (plus the handshake slot) when that is smaller
func (f *Follower) fill() error {
	for len(f.window) < f.burst {
		if f.remaining >= 0 {
			slots := f.remaining
			if f.handshake {
				slots++
			}
			if len(f.window) >= slots {
				break
			}
		}
		ch, err := f.proto.Queue(methodNextBlock, nil)
		if err != nil {
			return err
		}
		f.window = append(f.window, ch)
	}
	return nil
}

// pump resolves window entries in strict FIFO order and hands events to the
// consumer. It exits when the window drains (finite count fully yielded),
// on any error, or when the follower is stopped
func (f *Follower) pump() {
	defer close(f.events)
	for len(f.window) > 0 {
		ch := f.window[0]
		f.window = f.window[1:]
		var res protocol.Result
		select {
		case res = <-ch:
		case <-f.doneChan:
			return
		}
		if res.Err != nil {
			f.deliverError(res.Err)
			return
		}
		event, err := EventFromValue(res.Value)
		if err != nil {
			f.deliverError(err)
			return
		}
		if f.handshake {
			f.handshake = false
			if event.Direction == DirectionBackward {
				f.logger.Debug(
					"discarding handshake rollback",
					"component", "network",
					"protocol", ProtocolName,
					"role", "client",
				)
				if err := f.fill(); err != nil {
					f.deliverError(err)
					return
				}
				continue
			}
			// A forward event here is unexpected but deliverable
		}
		if f.remaining == 0 {
			// Past the requested count; drain without yielding
			continue
		}
		select {
		case f.events <- followResult{event: event}:
		case <-f.doneChan:
			return
		}
		if f.remaining > 0 {
			f.remaining--
		}
		if err := f.fill(); err != nil {
			f.deliverError(err)
			return
		}
	}
}

func (f *Follower) deliverError(err error) {
	select {
	case f.events <- followResult{err: err}:
	case <-f.doneChan:
	}
}
