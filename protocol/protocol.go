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

// Package protocol implements the request/response correlator for a single
// ordered conversation with the remote node.
//
// The channel guarantees that responses arrive in the order requests were
// sent, so an inbound message is always matched to the oldest pending
// request. Requests carry no correlation IDs on the streamed paths; FIFO
// ordering is the correctness mechanism.
package protocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gogmios/channel"
	"github.com/blinklabs-io/gogmios/json"
)

// DefaultPendingLimit is the default maximum number of simultaneously
// outstanding requests on one conversation
const DefaultPendingLimit = 128

var (
	// ErrChannelClosed is returned for requests issued or outstanding after
	// the channel has closed cleanly
	ErrChannelClosed = errors.New("protocol: channel closed")
	// ErrPendingLimit is returned when the pending request queue is full
	ErrPendingLimit = errors.New("protocol: too many outstanding requests")
)

// Result represents the resolution of a pending request
type Result struct {
	Value any
	Err   error
}

// Config is used to configure the protocol instance
type Config struct {
	Logger *slog.Logger
	// ErrorChan reports asynchronous protocol violations, such as
	// unparseable inbound payloads. If nil, one is created
	ErrorChan chan error
	// PendingLimit bounds the pending request queue
	PendingLimit int
}

// Protocol provides the SendRequest/Ask/Queue operations over a channel and
// dispatches inbound messages to pending waiters in FIFO order
type Protocol struct {
	channel      channel.Channel
	logger       *slog.Logger
	errorChan    chan error
	doneChan     chan struct{}
	pendingLimit int

	pendingMutex sync.Mutex
	pending      []chan<- Result
	failure      error
}

// New returns a new Protocol object for the specified channel and registers
// its inbound handlers. The protocol assumes sole ownership of the channel's
// message, close, and error subscriptions
func New(ch channel.Channel, cfg *Config) *Protocol {
	if cfg == nil {
		cfg = &Config{}
	}
	p := &Protocol{
		channel:      ch,
		logger:       cfg.Logger,
		errorChan:    cfg.ErrorChan,
		doneChan:     make(chan struct{}),
		pendingLimit: cfg.PendingLimit,
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.errorChan == nil {
		p.errorChan = make(chan error, 10)
	}
	if p.pendingLimit == 0 {
		p.pendingLimit = DefaultPendingLimit
	}
	ch.OnClose(p.handleClose)
	ch.OnError(p.handleError)
	ch.OnMessage(p.handleMessage)
	return p
}

// ErrorChan returns the channel for asynchronous errors
func (p *Protocol) ErrorChan() chan error {
	return p.errorChan
}

// DoneChan returns a channel that is closed when the conversation ends
func (p *Protocol) DoneChan() <-chan struct{} {
	return p.doneChan
}

// SendRequest writes one request to the channel without registering for a
// response. The optional ID is echoed back by the peer but is not used for
// correlation
func (p *Protocol) SendRequest(method string, params any, id any) error {
	return p.write(NewRequest(method, params, id))
}

// Queue sends a request and registers a pending waiter for it. The returned
// channel receives exactly one Result, matched to this request by arrival
// order. Queue is the pipelining primitive: callers may hold multiple
// results outstanding as long as they retire them in the order queued
func (p *Protocol) Queue(method string, params any) (<-chan Result, error) {
	ch := make(chan Result, 1)
	p.pendingMutex.Lock()
	if p.failure != nil {
		p.pendingMutex.Unlock()
		return nil, p.failure
	}
	if len(p.pending) >= p.pendingLimit {
		p.pendingMutex.Unlock()
		return nil, ErrPendingLimit
	}
	p.pending = append(p.pending, ch)
	p.pendingMutex.Unlock()
	if err := p.write(NewRequest(method, params, nil)); err != nil {
		return nil, err
	}
	return ch, nil
}

// Ask sends a request and blocks until the next inbound message resolves it,
// returning the peer's result value or its error as a *RemoteError.
//
// Ask relies on the channel's ordering guarantee and must not be called
// concurrently with other outstanding requests on the same conversation:
// doing so makes correlation undefined
func (p *Protocol) Ask(
	ctx context.Context,
	method string,
	params any,
) (any, error) {
	ch, err := p.Queue(method, params)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-ch:
		return res.Value, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Protocol) write(req *Request) error {
	data, err := json.Encode(req)
	if err != nil {
		return err
	}
	p.logger.Debug(
		"sending request",
		"component", "protocol",
		"method", req.Method,
	)
	if err := p.channel.Send(data); err != nil {
		// A lost write desynchronizes order-based correlation for every
		// later request, so the whole conversation fails
		p.fail(err)
		return err
	}
	return nil
}

func (p *Protocol) handleMessage(data []byte) {
	v, err := json.Decode(data)
	if err != nil {
		p.sendError(err)
		return
	}
	resp, err := responseFromValue(v)
	if err != nil {
		p.sendError(err)
		return
	}
	var res Result
	if resp.Error != nil {
		res.Err = resp.Error
	} else {
		res.Value = resp.Result
	}
	p.pendingMutex.Lock()
	if len(p.pending) == 0 {
		p.pendingMutex.Unlock()
		p.sendError(
			fmt.Errorf("received response with no pending request (id %v)", resp.ID),
		)
		return
	}
	waiter := p.pending[0]
	p.pending = p.pending[1:]
	p.pendingMutex.Unlock()
	waiter <- res
}

func (p *Protocol) handleClose(code int, reason string) {
	p.logger.Debug(
		"channel closed",
		"component", "protocol",
		"code", code,
		"reason", reason,
	)
	if code == channel.CloseNormal {
		p.fail(ErrChannelClosed)
		return
	}
	p.fail(&channel.CloseError{Code: code, Reason: reason})
}

func (p *Protocol) handleError(err error) {
	p.logger.Debug(
		"channel error",
		"component", "protocol",
		"error", err,
	)
	p.fail(err)
}

// fail resolves every pending waiter with the provided error and marks the
// conversation as over. Later Queue/Ask calls fail immediately with the same
// error
func (p *Protocol) fail(err error) {
	p.pendingMutex.Lock()
	if p.failure != nil {
		p.pendingMutex.Unlock()
		return
	}
	p.failure = err
	pending := p.pending
	p.pending = nil
	p.pendingMutex.Unlock()
	for _, waiter := range pending {
		waiter <- Result{Err: err}
	}
	close(p.doneChan)
}

func (p *Protocol) sendError(err error) {
	select {
	case p.errorChan <- err:
	default:
		p.logger.Warn(
			"dropping error: error channel full",
			"component", "protocol",
			"error", err,
		)
	}
}
