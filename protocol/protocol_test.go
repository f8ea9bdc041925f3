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

package protocol_test

import (
	_json "encoding/json"
	"testing"
	"time"

	"github.com/blinklabs-io/gogmios/channel"
	"github.com/blinklabs-io/gogmios/internal/mock"
	"github.com/blinklabs-io/gogmios/json"
	"github.com/blinklabs-io/gogmios/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testTimeout = 2 * time.Second

func runTest(
	t *testing.T,
	conversation []mock.ConversationEntry,
	innerFunc func(*testing.T, *protocol.Protocol),
) {
	defer goleak.VerifyNone(t)
	mockChannel := mock.NewChannel(conversation)
	proto := protocol.New(mockChannel, nil)
	innerFunc(t, proto)
	select {
	case err := <-mockChannel.ErrorChan():
		t.Fatalf("received unexpected mock channel error: %s", err)
	default:
	}
	assert.Equal(
		t,
		0,
		mockChannel.Remaining(),
		"conversation was not fully consumed",
	)
	if err := mockChannel.Close(); err != nil {
		t.Fatalf("unexpected error when closing mock channel: %s", err)
	}
}

func TestAsk(t *testing.T) {
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "queryNetwork/blockHeight"},
		mock.ConversationEntryOutput{
			Message: map[string]any{
				"jsonrpc": "2.0",
				"method":  "queryNetwork/blockHeight",
				"result":  12345,
			},
		},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, proto *protocol.Protocol) {
			result, err := proto.Ask(
				t.Context(),
				"queryNetwork/blockHeight",
				nil,
			)
			require.NoError(t, err)
			assert.Equal(t, _json.Number("12345"), result)
		},
	)
}

func TestAskRemoteError(t *testing.T) {
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "findIntersection"},
		mock.ConversationEntryOutput{
			Message: map[string]any{
				"jsonrpc": "2.0",
				"error": map[string]any{
					"code":    1000,
					"message": "No intersection found",
				},
			},
		},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, proto *protocol.Protocol) {
			_, err := proto.Ask(
				t.Context(),
				"findIntersection",
				map[string]any{"points": []any{"origin"}},
			)
			require.Error(t, err)
			var remoteErr *protocol.RemoteError
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, int64(1000), remoteErr.Code)
			assert.Equal(t, "No intersection found", remoteErr.Message)
		},
	)
}

func TestQueueResolvesInOrder(t *testing.T) {
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "first"},
		mock.ConversationEntryInput{Method: "second"},
		mock.ConversationEntryOutput{
			Message: map[string]any{
				"jsonrpc": "2.0",
				"result":  "first result",
			},
		},
		mock.ConversationEntryOutput{
			Message: map[string]any{
				"jsonrpc": "2.0",
				"result":  "second result",
			},
		},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, proto *protocol.Protocol) {
			firstChan, err := proto.Queue("first", nil)
			require.NoError(t, err)
			secondChan, err := proto.Queue("second", nil)
			require.NoError(t, err)
			select {
			case res := <-firstChan:
				require.NoError(t, res.Err)
				assert.Equal(t, "first result", res.Value)
			case <-time.After(testTimeout):
				t.Fatalf("did not receive first result within timeout")
			}
			select {
			case res := <-secondChan:
				require.NoError(t, res.Err)
				assert.Equal(t, "second result", res.Value)
			case <-time.After(testTimeout):
				t.Fatalf("did not receive second result within timeout")
			}
		},
	)
}

func TestAbnormalCloseFailsPending(t *testing.T) {
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "nextBlock"},
		mock.ConversationEntryClose{Code: 1006, Reason: "gone"},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, proto *protocol.Protocol) {
			resultChan, err := proto.Queue("nextBlock", nil)
			require.NoError(t, err)
			select {
			case res := <-resultChan:
				require.Error(t, res.Err)
				var closeErr *channel.CloseError
				require.ErrorAs(t, res.Err, &closeErr)
				assert.Equal(t, 1006, closeErr.Code)
				assert.Equal(t, "gone", closeErr.Reason)
			case <-time.After(testTimeout):
				t.Fatalf("did not receive result within timeout")
			}
			// Requests after the failure are rejected immediately
			_, err = proto.Queue("nextBlock", nil)
			require.Error(t, err)
			select {
			case <-proto.DoneChan():
			case <-time.After(testTimeout):
				t.Fatalf("protocol did not shut down within timeout")
			}
		},
	)
}

func TestNormalCloseFailsPending(t *testing.T) {
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "nextBlock"},
		mock.ConversationEntryClose{Code: channel.CloseNormal},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, proto *protocol.Protocol) {
			resultChan, err := proto.Queue("nextBlock", nil)
			require.NoError(t, err)
			select {
			case res := <-resultChan:
				require.ErrorIs(t, res.Err, protocol.ErrChannelClosed)
			case <-time.After(testTimeout):
				t.Fatalf("did not receive result within timeout")
			}
		},
	)
}

func TestMalformedInboundPayload(t *testing.T) {
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "test"},
		mock.ConversationEntryOutput{
			RawMessage: []byte(`{not json`),
		},
		mock.ConversationEntryOutput{
			Message: map[string]any{
				"jsonrpc": "2.0",
				"result":  true,
			},
		},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, proto *protocol.Protocol) {
			resultChan, err := proto.Queue("test", nil)
			require.NoError(t, err)
			select {
			case err := <-proto.ErrorChan():
				require.ErrorIs(t, err, json.ErrMalformedPayload)
			case <-time.After(testTimeout):
				t.Fatalf("did not receive protocol error within timeout")
			}
			// The malformed message is dropped; the following valid message
			// resolves the pending request
			select {
			case res := <-resultChan:
				require.NoError(t, res.Err)
				assert.Equal(t, true, res.Value)
			case <-time.After(testTimeout):
				t.Fatalf("did not receive result within timeout")
			}
		},
	)
}

func TestResponseWithoutPendingRequest(t *testing.T) {
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "test"},
		mock.ConversationEntryOutput{
			Message: map[string]any{
				"jsonrpc": "2.0",
				"result":  1,
			},
		},
		mock.ConversationEntryOutput{
			Message: map[string]any{
				"jsonrpc": "2.0",
				"result":  2,
			},
		},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, proto *protocol.Protocol) {
			result, err := proto.Ask(t.Context(), "test", nil)
			require.NoError(t, err)
			assert.Equal(t, _json.Number("1"), result)
			select {
			case err := <-proto.ErrorChan():
				assert.NotNil(t, err)
			case <-time.After(testTimeout):
				t.Fatalf("did not receive protocol error within timeout")
			}
		},
	)
}

func TestSendRequest(t *testing.T) {
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "acquireLedgerState"},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, proto *protocol.Protocol) {
			err := proto.SendRequest(
				"acquireLedgerState",
				map[string]any{"point": "origin"},
				"request-1",
			)
			require.NoError(t, err)
		},
	)
}

func TestAskAfterFailure(t *testing.T) {
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "first"},
		mock.ConversationEntryClose{Code: 1011, Reason: "server error"},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, proto *protocol.Protocol) {
			_, err := proto.Ask(t.Context(), "first", nil)
			require.Error(t, err)
			var closeErr *channel.CloseError
			require.ErrorAs(t, err, &closeErr)
			_, err = proto.Ask(t.Context(), "second", nil)
			require.ErrorAs(t, err, &closeErr)
		},
	)
}

func TestRemoteErrorMessage(t *testing.T) {
	err := &protocol.RemoteError{
		Code:    2001,
		Message: "mempool is full",
	}
	assert.Equal(t, "remote error: code 2001: mempool is full", err.Error())
	err = &protocol.RemoteError{Code: 2001}
	assert.Equal(t, "remote error: code 2001", err.Error())
}
