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

// Package chainsync implements the pipelined chain-sync subscription.
//
// A follower negotiates an intersection with the remote node and then keeps
// a bounded window of outstanding block fetches in flight, converting the
// ordered response stream into a demand-driven sequence of roll-forward and
// roll-backward events. The window is the sole flow-control mechanism: a
// slow consumer delays refills and never causes unbounded growth.
package chainsync

import (
	"log/slog"

	"github.com/blinklabs-io/gogmios/protocol"
)

// Protocol identifiers
const (
	ProtocolName = "chain-sync"

	methodFindIntersection = "findIntersection"
	methodNextBlock        = "nextBlock"
	methodNetworkTip       = "queryNetwork/tip"
)

// DefaultPipelineLimit is the default maximum number of block fetches kept
// in flight
const DefaultPipelineLimit = 100

// Config is used to configure the ChainSync client instance
type Config struct {
	Logger        *slog.Logger
	PipelineLimit int
}

// NewConfig returns a new ChainSync config object with the provided options
func NewConfig(options ...ConfigOptionFunc) Config {
	c := Config{
		PipelineLimit: DefaultPipelineLimit,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

// ConfigOptionFunc is a type that represents functions that modify the
// ChainSync config
type ConfigOptionFunc func(*Config)

// WithLogger specifies the logger
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithPipelineLimit specifies the maximum number of block fetches kept in
// flight
func WithPipelineLimit(limit int) ConfigOptionFunc {
	return func(c *Config) {
		c.PipelineLimit = limit
	}
}

// Client implements the chain-sync client
type Client struct {
	config Config
	proto  *protocol.Protocol
	logger *slog.Logger
}

// NewClient returns a new ChainSync client object
func NewClient(proto *protocol.Protocol, cfg *Config) *Client {
	if cfg == nil {
		tmpCfg := NewConfig()
		cfg = &tmpCfg
	}
	// Apply defaults for zero values to handle Config{} created without
	// NewConfig()
	config := *cfg
	if config.PipelineLimit == 0 {
		config.PipelineLimit = DefaultPipelineLimit
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		config: config,
		proto:  proto,
		logger: logger,
	}
}
