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

package gogmios

import (
	"log/slog"

	"github.com/blinklabs-io/gogmios/channel"
	"github.com/blinklabs-io/gogmios/protocol/chainsync"
)

// ClientOptionFunc is a type that represents functions that modify the
// Client config
type ClientOptionFunc func(*Client)

// WithChannel specifies an existing channel to use. If none is provided, the
// Dial() function can be used to create one later. The channel remains owned
// by the caller, but its message, close, and error subscriptions are taken
// over by the client
func WithChannel(ch channel.Channel) ClientOptionFunc {
	return func(c *Client) {
		c.channel = ch
	}
}

// WithLogger specifies the logger to use. If none is provided, logging is
// disabled
func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithErrorChan specifies the error channel to use. If none is provided, one
// will be created
func WithErrorChan(errorChan chan error) ClientOptionFunc {
	return func(c *Client) {
		c.errorChan = errorChan
	}
}

// WithChainSyncConfig specifies the chain-sync client config
func WithChainSyncConfig(cfg chainsync.Config) ClientOptionFunc {
	return func(c *Client) {
		c.chainSyncConfig = &cfg
	}
}
