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

package gogmios_test

import (
	"math/big"
	"testing"

	"github.com/blinklabs-io/gogmios"
	"github.com/blinklabs-io/gogmios/internal/mock"
	"github.com/blinklabs-io/gogmios/protocol/chainsync"
	"github.com/blinklabs-io/gogmios/protocol/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func runTest(
	t *testing.T,
	conversation []mock.ConversationEntry,
	innerFunc func(*testing.T, *gogmios.Client),
) {
	defer goleak.VerifyNone(t)
	mockChannel := mock.NewChannel(conversation)
	client, err := gogmios.NewClient(
		gogmios.WithChannel(mockChannel),
	)
	require.NoError(t, err)
	innerFunc(t, client)
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

func TestNotConnected(t *testing.T) {
	client, err := gogmios.NewClient()
	require.NoError(t, err)
	_, err = client.Ask(t.Context(), "queryNetwork/tip", nil)
	require.ErrorIs(t, err, gogmios.ErrNotConnected)
	err = client.Send("queryNetwork/tip", nil, nil)
	require.ErrorIs(t, err, gogmios.ErrNotConnected)
	require.NoError(t, client.Close())
}

func TestQueryNamespacePrefix(t *testing.T) {
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "queryLedgerState/epoch"},
		mock.ConversationEntryOutput{
			Message: map[string]any{
				"jsonrpc": "2.0",
				"method":  "queryLedgerState/epoch",
				"result":  425,
			},
		},
		mock.ConversationEntryInput{Method: "queryNetwork/startTime"},
		mock.ConversationEntryOutput{
			Message: map[string]any{
				"jsonrpc": "2.0",
				"method":  "queryNetwork/startTime",
				"result":  "2017-09-23T21:44:51Z",
			},
		},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, client *gogmios.Client) {
			result, err := client.QueryLedgerState().
				Ask(t.Context(), "epoch", nil)
			require.NoError(t, err)
			assert.NotNil(t, result)
			result, err = client.QueryNetwork().
				Ask(t.Context(), "startTime", nil)
			require.NoError(t, err)
			assert.Equal(t, "2017-09-23T21:44:51Z", result)
		},
	)
}

func TestNetworkTip(t *testing.T) {
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "queryNetwork/tip"},
		mock.ConversationEntryOutput{
			Message: map[string]any{
				"jsonrpc": "2.0",
				"method":  "queryNetwork/tip",
				"result": map[string]any{
					"slot": 55555,
					"id":   "8b6e9e83d8245bc481cbef833a4680cc8540d6dbee4c6d53a2b0baa7fab10d4e",
				},
			},
		},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, client *gogmios.Client) {
			tip, err := client.QueryNetwork().Tip(t.Context())
			require.NoError(t, err)
			assert.Equal(
				t,
				common.NewPoint(
					55555,
					"8b6e9e83d8245bc481cbef833a4680cc8540d6dbee4c6d53a2b0baa7fab10d4e",
				),
				tip,
			)
		},
	)
}

func TestAskQuantityFidelity(t *testing.T) {
	// Amount fields survive the decode as exact big integers even above the
	// float64-safe range
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "queryLedgerState/treasuryAndReserves"},
		mock.ConversationEntryOutput{
			RawMessage: []byte(
				`{"jsonrpc":"2.0","result":` +
					`{"treasury":{"ada":{"lovelace":9007199254740993}}}}`,
			),
		},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, client *gogmios.Client) {
			result, err := client.QueryLedgerState().
				Ask(t.Context(), "treasuryAndReserves", nil)
			require.NoError(t, err)
			treasury, ok := result.(map[string]any)["treasury"].(map[string]any)
			require.True(t, ok)
			ada, ok := treasury["ada"].(map[string]any)
			require.True(t, ok)
			expected, ok := new(big.Int).SetString("9007199254740993", 10)
			require.True(t, ok)
			assert.Equal(t, expected, ada["lovelace"])
		},
	)
}

func TestClientChainSync(t *testing.T) {
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "findIntersection"},
		mock.ConversationEntryOutput{
			Message: map[string]any{
				"jsonrpc": "2.0",
				"method":  "findIntersection",
				"result": map[string]any{
					"intersection": "origin",
					"tip": map[string]any{
						"slot":   100,
						"id":     "d7fa5c043b2892be38ecbb3b372f5fb98b1d12a465acfafcd6c4e6bcb6f3b7bb",
						"height": 10,
					},
				},
			},
		},
		mock.ConversationEntryInput{Method: "nextBlock"},
		mock.ConversationEntryOutput{
			Message: map[string]any{
				"jsonrpc": "2.0",
				"method":  "nextBlock",
				"result": map[string]any{
					"direction": "backward",
					"point":     "origin",
				},
			},
		},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, client *gogmios.Client) {
			follower, err := client.ChainSync().Follow(
				t.Context(),
				chainsync.WithIntersectPoints(common.NewPointOrigin()),
				chainsync.WithBlockCount(0),
			)
			require.NoError(t, err)
			assert.True(t, follower.Intersection().Origin())
			_, err = follower.Next(t.Context())
			require.ErrorIs(t, err, chainsync.ErrFollowDone)
		},
	)
}

func TestSendWithID(t *testing.T) {
	conversation := []mock.ConversationEntry{
		mock.ConversationEntryInput{Method: "acquireLedgerState"},
	}
	runTest(
		t,
		conversation,
		func(t *testing.T, client *gogmios.Client) {
			err := client.Send(
				"acquireLedgerState",
				map[string]any{"point": "origin"},
				map[string]any{"step": 1},
			)
			require.NoError(t, err)
		},
	)
}
