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

package channel

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultHandshakeTimeout = 10 * time.Second

// WebSocketChannel implements Channel over a WebSocket connection
type WebSocketChannel struct {
	conn           *websocket.Conn
	mutex          sync.Mutex
	sendMutex      sync.Mutex
	messageHandler func([]byte)
	closeHandler   func(int, string)
	errorHandler   func(error)
	onceStart      sync.Once
	onceClose      sync.Once
	onceTerminal   sync.Once
	doneChan       chan struct{}
}

// DialOptionFunc is a type that represents functions that modify the dialer
// config
type DialOptionFunc func(*dialOptions)

type dialOptions struct {
	handshakeTimeout time.Duration
	header           http.Header
}

// WithHandshakeTimeout specifies the WebSocket handshake timeout
func WithHandshakeTimeout(timeout time.Duration) DialOptionFunc {
	return func(o *dialOptions) {
		o.handshakeTimeout = timeout
	}
}

// WithHeader specifies additional HTTP headers for the handshake request
func WithHeader(header http.Header) DialOptionFunc {
	return func(o *dialOptions) {
		o.header = header
	}
}

// Dial establishes a WebSocket connection to the provided URL and returns a
// channel over it. The channel's read loop does not start until OnMessage is
// called, so no inbound messages are lost while handlers are being wired up
func Dial(
	ctx context.Context,
	url string,
	options ...DialOptionFunc,
) (*WebSocketChannel, error) {
	opts := dialOptions{
		handshakeTimeout: defaultHandshakeTimeout,
	}
	for _, option := range options {
		option(&opts)
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: opts.handshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, opts.header)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return NewWebSocketChannel(conn), nil
}

// NewWebSocketChannel returns a channel wrapping an existing WebSocket
// connection
func NewWebSocketChannel(conn *websocket.Conn) *WebSocketChannel {
	return &WebSocketChannel{
		conn:     conn,
		doneChan: make(chan struct{}),
	}
}

// Send writes one text message to the peer. Writes are serialized, so Send
// is safe for concurrent use
func (c *WebSocketChannel) Send(data []byte) error {
	select {
	case <-c.doneChan:
		return ErrChannelClosed
	default:
	}
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *WebSocketChannel) OnMessage(handler func(data []byte)) {
	c.mutex.Lock()
	c.messageHandler = handler
	c.mutex.Unlock()
	c.onceStart.Do(func() {
		go c.readLoop()
	})
}

func (c *WebSocketChannel) OnClose(handler func(code int, reason string)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.closeHandler = handler
}

func (c *WebSocketChannel) OnError(handler func(err error)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errorHandler = handler
}

// Close performs a clean shutdown of the channel
func (c *WebSocketChannel) Close() error {
	var retErr error
	c.onceClose.Do(func() {
		close(c.doneChan)
		c.sendMutex.Lock()
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.sendMutex.Unlock()
		retErr = c.conn.Close()
	})
	return retErr
}

func (c *WebSocketChannel) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}
		c.mutex.Lock()
		handler := c.messageHandler
		c.mutex.Unlock()
		if handler != nil {
			handler(data)
		}
	}
}

func (c *WebSocketChannel) handleReadError(err error) {
	select {
	case <-c.doneChan:
		// Locally initiated shutdown
		return
	default:
	}
	c.onceTerminal.Do(func() {
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			c.mutex.Lock()
			handler := c.closeHandler
			c.mutex.Unlock()
			if handler != nil {
				handler(closeErr.Code, closeErr.Text)
			}
			return
		}
		c.mutex.Lock()
		handler := c.errorHandler
		c.mutex.Unlock()
		if handler != nil {
			handler(err)
		}
	})
}
