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

// Package gogmios implements a client for Ogmios-compatible Cardano node
// gateways speaking JSON-RPC 2.0 over a single ordered full-duplex channel.
//
// The client multiplexes independent request/response exchanges and a
// pipelined chain-sync subscription over that one channel. Correlation
// relies on the channel's ordering guarantee rather than request IDs, so
// callers must not issue overlapping requests on the same connection outside
// of the chain-sync window, which manages its own ordered queue.
//
// This package is the main entry point into this library. The other packages
// can be used outside of this one, but it's not a primary design goal.
package gogmios

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gogmios/channel"
	"github.com/blinklabs-io/gogmios/protocol"
	"github.com/blinklabs-io/gogmios/protocol/chainsync"
)

// ErrNotConnected is returned when an operation is attempted before a
// channel has been established
var ErrNotConnected = errors.New("not connected")

// The Client type is a wrapper around a duplex message channel that handles
// communication with an Ogmios-compatible node over that channel
type Client struct {
	channel         channel.Channel
	protocol        *protocol.Protocol
	chainSync       *chainsync.Client
	chainSyncConfig *chainsync.Config
	logger          *slog.Logger
	errorChan       chan error
	onceClose       sync.Once
}

// NewClient returns a new Client object with the specified options. If a
// channel is provided via WithChannel, the protocol is wired up immediately;
// otherwise Dial() can be used to establish one later
func NewClient(options ...ClientOptionFunc) (*Client, error) {
	c := &Client{}
	// Apply provided options functions
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.errorChan == nil {
		c.errorChan = make(chan error, 10)
	}
	if c.channel != nil {
		c.setupProtocol()
	}
	return c, nil
}

// New is an alias to NewClient
func New(options ...ClientOptionFunc) (*Client, error) {
	return NewClient(options...)
}

// Dial establishes a WebSocket connection to the specified URL and wires the
// protocol over it
func (c *Client) Dial(ctx context.Context, url string) error {
	if c.channel != nil {
		return errors.New("already connected")
	}
	ch, err := channel.Dial(ctx, url)
	if err != nil {
		return err
	}
	c.channel = ch
	c.setupProtocol()
	return nil
}

// Close will shutdown the underlying channel. Any in-flight requests fail
// rather than hang
func (c *Client) Close() error {
	var err error
	c.onceClose.Do(func() {
		if c.channel != nil {
			err = c.channel.Close()
		}
	})
	return err
}

// ErrorChan returns the channel for asynchronous errors
func (c *Client) ErrorChan() chan error {
	return c.errorChan
}

// Ask issues a request and waits for the peer's response, returning the
// result value or the peer's error as a *protocol.RemoteError. Ask must not
// be called while other requests are outstanding on the same connection
func (c *Client) Ask(
	ctx context.Context,
	method string,
	params any,
) (any, error) {
	if c.protocol == nil {
		return nil, ErrNotConnected
	}
	return c.protocol.Ask(ctx, method, params)
}

// Send issues a fire-and-forget request. The optional ID is echoed back by
// the peer when it responds
func (c *Client) Send(method string, params any, id any) error {
	if c.protocol == nil {
		return ErrNotConnected
	}
	return c.protocol.SendRequest(method, params, id)
}

// ChainSync returns the chain-sync client
func (c *Client) ChainSync() *chainsync.Client {
	return c.chainSync
}

func (c *Client) setupProtocol() {
	c.protocol = protocol.New(
		c.channel,
		&protocol.Config{
			Logger:    c.logger,
			ErrorChan: c.errorChan,
		},
	)
	csConfig := c.chainSyncConfig
	if csConfig == nil {
		tmpCfg := chainsync.NewConfig()
		csConfig = &tmpCfg
	}
	if csConfig.Logger == nil {
		csConfig.Logger = c.logger
	}
	c.chainSync = chainsync.NewClient(c.protocol, csConfig)
}
