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

// Package channel defines the ordered full-duplex message channel that the
// protocol engine runs over, along with a WebSocket implementation of it
package channel

import (
	"errors"
	"fmt"
)

// CloseNormal is the close code for a clean channel shutdown. Any other
// close code is reported as a CloseError
const CloseNormal = 1000

// ErrChannelClosed is returned when sending on a channel that has been
// closed locally
var ErrChannelClosed = errors.New("channel closed")

// Channel is an ordered full-duplex message stream. Messages sent via Send
// arrive at the peer in call order, and inbound messages are delivered to
// the OnMessage handler in arrival order. The OnClose and OnError handlers
// fire at most once per channel lifetime
type Channel interface {
	// Send writes one message to the peer
	Send(data []byte) error
	// OnMessage registers the handler for inbound messages. Inbound
	// delivery does not begin until a handler is registered
	OnMessage(handler func(data []byte))
	// OnClose registers the handler invoked when the peer closes the
	// channel
	OnClose(handler func(code int, reason string))
	// OnError registers the handler invoked on a transport-level failure
	OnError(handler func(err error))
	// Close shuts down the channel
	Close() error
}

// CloseError represents a channel closed by the peer with a code other than
// CloseNormal
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("channel closed abnormally: code %d", e.Code)
	}
	return fmt.Sprintf(
		"channel closed abnormally: code %d: %s",
		e.Code,
		e.Reason,
	)
}
