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

// Package mock provides a scripted channel for testing protocol behavior.
// A conversation is an ordered list of expected inbound requests and the
// outbound messages played in response; any deviation from the script is
// reported on the error channel. Because the script is strictly ordered, it
// doubles as an assertion on how many requests are in flight at any point
package mock

import (
	"encoding/json"
	"fmt"
	"sync"
)

// ConversationEntry represents one step in a scripted conversation
type ConversationEntry interface {
	isConversationEntry()
}

// ConversationEntryInput represents an expected request from the client
type ConversationEntryInput struct {
	Method string
}

func (ConversationEntryInput) isConversationEntry() {}

// ConversationEntryOutput represents a message sent to the client. Message
// is marshalled to JSON unless RawMessage is provided
type ConversationEntryOutput struct {
	Message    any
	RawMessage []byte
}

func (ConversationEntryOutput) isConversationEntry() {}

// ConversationEntryClose represents the peer closing the channel
type ConversationEntryClose struct {
	Code   int
	Reason string
}

func (ConversationEntryClose) isConversationEntry() {}

type queuedAction struct {
	message []byte
	close   *ConversationEntryClose
}

// Channel implements channel.Channel against a scripted conversation
type Channel struct {
	mutex          sync.Mutex
	conversation   []ConversationEntry
	position       int
	messageHandler func([]byte)
	closeHandler   func(int, string)
	errorHandler   func(error)
	errorChan      chan error
	actionChan     chan queuedAction
	doneChan       chan struct{}
	onceClose      sync.Once
}

// NewChannel returns a mock channel that plays the provided conversation
func NewChannel(conversation []ConversationEntry) *Channel {
	c := &Channel{
		conversation: conversation,
		errorChan:    make(chan error, 10),
		actionChan:   make(chan queuedAction, 64),
		doneChan:     make(chan struct{}),
	}
	go c.deliverLoop()
	return c
}

// ErrorChan returns the channel used to report conversation violations
func (c *Channel) ErrorChan() chan error {
	return c.errorChan
}

// Remaining returns the number of conversation entries not yet consumed
func (c *Channel) Remaining() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.conversation) - c.position
}

func (c *Channel) Send(data []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	select {
	case <-c.doneChan:
		return fmt.Errorf("mock channel closed")
	default:
	}
	if c.position >= len(c.conversation) {
		err := fmt.Errorf(
			"received unexpected request past end of conversation: %s",
			data,
		)
		c.sendError(err)
		return err
	}
	entry, ok := c.conversation[c.position].(ConversationEntryInput)
	if !ok {
		err := fmt.Errorf(
			"received request when conversation entry %d is not an input: %s",
			c.position,
			data,
		)
		c.sendError(err)
		return err
	}
	var req struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		err = fmt.Errorf("could not parse request: %w", err)
		c.sendError(err)
		return err
	}
	if entry.Method != "" && req.Method != entry.Method {
		err := fmt.Errorf(
			"request method mismatch at entry %d: got %q, expected %q",
			c.position,
			req.Method,
			entry.Method,
		)
		c.sendError(err)
		return err
	}
	c.position++
	// Play any outputs that follow the matched input
	for c.position < len(c.conversation) {
		switch next := c.conversation[c.position].(type) {
		case ConversationEntryOutput:
			data := next.RawMessage
			if data == nil {
				var err error
				data, err = json.Marshal(next.Message)
				if err != nil {
					c.sendError(
						fmt.Errorf("could not marshal output message: %w", err),
					)
					return nil
				}
			}
			c.position++
			c.actionChan <- queuedAction{message: data}
		case ConversationEntryClose:
			c.position++
			c.actionChan <- queuedAction{close: &next}
		default:
			return nil
		}
	}
	return nil
}

func (c *Channel) OnMessage(handler func(data []byte)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.messageHandler = handler
}

func (c *Channel) OnClose(handler func(code int, reason string)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.closeHandler = handler
}

func (c *Channel) OnError(handler func(err error)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errorHandler = handler
}

func (c *Channel) Close() error {
	c.onceClose.Do(func() {
		close(c.doneChan)
	})
	return nil
}

// deliverLoop plays queued outputs to the registered handlers in script
// order
func (c *Channel) deliverLoop() {
	for {
		select {
		case action := <-c.actionChan:
			if action.close != nil {
				c.mutex.Lock()
				handler := c.closeHandler
				c.mutex.Unlock()
				if handler != nil {
					handler(action.close.Code, action.close.Reason)
				}
				continue
			}
			c.mutex.Lock()
			handler := c.messageHandler
			c.mutex.Unlock()
			if handler != nil {
				handler(action.message)
			}
		case <-c.doneChan:
			return
		}
	}
}

func (c *Channel) sendError(err error) {
	select {
	case c.errorChan <- err:
	default:
	}
}
