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
	"context"

	"github.com/blinklabs-io/gogmios/protocol/common"
)

// Method family prefixes for the query namespaces
const (
	queryLedgerStatePrefix = "queryLedgerState/"
	queryNetworkPrefix     = "queryNetwork/"
)

// QueryClient provides access to a family of query methods sharing a common
// prefix
type QueryClient struct {
	client *Client
	prefix string
}

// Ask issues the named query within the namespace's method family
func (q *QueryClient) Ask(
	ctx context.Context,
	name string,
	params any,
) (any, error) {
	return q.client.Ask(ctx, q.prefix+name, params)
}

// QueryLedgerState returns a query client for the ledger state method family
func (c *Client) QueryLedgerState() *QueryClient {
	return &QueryClient{
		client: c,
		prefix: queryLedgerStatePrefix,
	}
}

// NetworkQueryClient provides access to the network query method family
type NetworkQueryClient struct {
	QueryClient
}

// QueryNetwork returns a query client for the network method family
func (c *Client) QueryNetwork() *NetworkQueryClient {
	return &NetworkQueryClient{
		QueryClient: QueryClient{
			client: c,
			prefix: queryNetworkPrefix,
		},
	}
}

// Tip returns the current chain tip
func (n *NetworkQueryClient) Tip(ctx context.Context) (common.Point, error) {
	result, err := n.Ask(ctx, "tip", nil)
	if err != nil {
		return common.Point{}, err
	}
	return common.PointFromValue(result)
}
