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

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

const jsonRpcVersion = "2.0"

// Request represents an outbound JSON-RPC request. The ID is optional: the
// peer echoes it back when present, but correlation relies on arrival order
// rather than IDs
type Request struct {
	JsonRpc string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// NewRequest returns a Request object for the specified method
func NewRequest(method string, params any, id any) *Request {
	return &Request{
		JsonRpc: jsonRpcVersion,
		Method:  method,
		Params:  params,
		ID:      id,
	}
}

// Response represents an inbound JSON-RPC response. Exactly one of Result
// and Error is set
type Response struct {
	ID     any
	Result any
	Error  *RemoteError
}

// RemoteError represents an error object returned by the peer. The peer's
// error value is carried verbatim in Data and is not interpreted beyond
// extracting the code and message
type RemoteError struct {
	Code    int64
	Message string
	Data    any
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote error: code %d", e.Code)
	}
	return fmt.Sprintf("remote error: code %d: %s", e.Code, e.Message)
}

// responseFromValue interprets a decoded inbound message as a Response
func responseFromValue(v any) (*Response, error) {
	msg, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("received non-object message of type %T", v)
	}
	ret := &Response{
		ID: msg["id"],
	}
	if errVal, ok := msg["error"]; ok {
		ret.Error = remoteErrorFromValue(errVal)
		return ret, nil
	}
	if result, ok := msg["result"]; ok {
		ret.Result = result
		return ret, nil
	}
	return nil, errors.New("received response with neither result nor error")
}

func remoteErrorFromValue(v any) *RemoteError {
	ret := &RemoteError{
		Data: v,
	}
	msg, ok := v.(map[string]any)
	if !ok {
		ret.Message = fmt.Sprintf("%v", v)
		return ret
	}
	switch code := msg["code"].(type) {
	case json.Number:
		if c, err := code.Int64(); err == nil {
			ret.Code = c
		}
	case *big.Int:
		if code.IsInt64() {
			ret.Code = code.Int64()
		}
	}
	if message, ok := msg["message"].(string); ok {
		ret.Message = message
	}
	return ret
}
