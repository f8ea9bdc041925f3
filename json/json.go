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

// Package json provides JSON encoding/decoding that preserves the full
// precision of on-chain quantities.
//
// The wire format carries monetary and asset quantity fields whose magnitude
// can exceed the largest integer safely representable as a float. Decode
// therefore parses all numbers losslessly and then reclassifies the known
// quantity fields as *big.Int based on their structural position in the
// document. All other numeric leaves are left as json.Number.
package json

import (
	"bytes"
	_json "encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload is returned (wrapped) when a payload cannot be parsed
// as JSON
var ErrMalformedPayload = errors.New("malformed payload")

// Some host runtimes cannot parse objects containing a field named
// "constructor" due to a name collision with a language intrinsic. The
// substitution below is retried on parse failure to stay wire-compatible
// with peers that apply the same workaround. Go's parser has no such
// limitation, so the retry path is not expected to trigger.
var (
	constructorToken       = []byte(`"constructor"`)
	constructorReplacement = []byte(`"constr"`)
)

// Decode parses the provided JSON text into a generic value tree. Object
// values decode as map[string]any, arrays as []any, and numbers as
// json.Number, except for known quantity fields, which decode as *big.Int
func Decode(data []byte) (any, error) {
	v, err := decodeRaw(data)
	if err != nil {
		if bytes.Contains(data, constructorToken) {
			retry := bytes.ReplaceAll(
				data,
				constructorToken,
				constructorReplacement,
			)
			if v2, err2 := decodeRaw(retry); err2 == nil {
				return sanitize(v2), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}
	return sanitize(v), nil
}

// Encode serializes a value tree produced by Decode (or built by the caller)
// back into JSON text. Both *big.Int and json.Number values are written as
// bare numeric literals, making Encode the exact inverse of Decode
func Encode(v any) ([]byte, error) {
	return _json.Marshal(v)
}

func decodeRaw(data []byte) (any, error) {
	dec := _json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}
