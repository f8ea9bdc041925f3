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

package json

import (
	_json "encoding/json"
	"math/big"
	"strings"
)

// Quantity maps nest policy -> asset -> amount, so numeric leaves live at
// most two structural levels below the trigger field
const assetNestingDepth = 2

type ruleScope uint8

const (
	// The trigger field's own numeric value
	scopeField ruleScope = iota
	// Numeric leaves of the object containing the trigger field, bounded
	// by the rule depth
	scopeObject
	// Numeric leaves of the sub-tree under the trigger field, bounded by
	// the rule depth
	scopeSubtree
	// Numeric leaves of the sub-tree under the trigger field, at any depth
	scopeDeep
)

type fieldRule struct {
	field string
	scope ruleScope
	depth int
}

// Reclassification triggers, keyed on field name and evaluated top-down by
// sanitize(). The multi-signature "some" clause is shape-based rather than
// field-based and is handled directly in sanitize()
var fieldRules = []fieldRule{
	{field: "lovelace", scope: scopeField},
	{field: "ada", scope: scopeObject, depth: assetNestingDepth},
	{field: "mint", scope: scopeSubtree, depth: assetNestingDepth},
	{field: "value", scope: scopeSubtree, depth: assetNestingDepth},
	// Transaction metadata labels can nest arbitrarily
	{field: "labels", scope: scopeDeep},
}

// sanitize walks a freshly-decoded value tree top-down and converts numeric
// leaves matched by the reclassification rules to *big.Int. The tree is
// modified in place and returned for convenience
func sanitize(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		if sanitizeSomeClause(tv) {
			return tv
		}
		for _, rule := range fieldRules {
			val, ok := tv[rule.field]
			if !ok {
				continue
			}
			switch rule.scope {
			case scopeField:
				tv[rule.field] = toBigInt(val)
			case scopeObject:
				// Members of the containing object sit one level down
				// already
				for k, member := range tv {
					tv[k] = convertTree(member, rule.depth-1)
				}
			case scopeSubtree:
				tv[rule.field] = convertTree(val, rule.depth)
			case scopeDeep:
				tv[rule.field] = convertTree(val, -1)
			}
		}
		for k, val := range tv {
			tv[k] = sanitize(val)
		}
	case []any:
		for i, val := range tv {
			tv[i] = sanitize(val)
		}
	}
	return v
}

// sanitizeSomeClause handles objects shaped as a multi-signature "some"
// clause: the atLeast count is a quantity, and the from sub-tree is itself
// a script
func sanitizeSomeClause(obj map[string]any) bool {
	clause, ok := obj["clause"].(string)
	if !ok || clause != "some" {
		return false
	}
	atLeast, ok := obj["atLeast"]
	if !ok {
		return false
	}
	obj["atLeast"] = toBigInt(atLeast)
	if from, ok := obj["from"]; ok {
		obj["from"] = sanitize(from)
	}
	return true
}

// convertTree converts every numeric leaf reached while descending at most
// depth container levels below v. A numeric v itself is always converted;
// a negative depth means unbounded descent
func convertTree(v any, depth int) any {
	switch tv := v.(type) {
	case _json.Number:
		return toBigInt(tv)
	case map[string]any:
		if depth == 0 {
			return v
		}
		for k, val := range tv {
			tv[k] = convertTree(val, depth-1)
		}
		return tv
	case []any:
		if depth == 0 {
			return v
		}
		for i, val := range tv {
			tv[i] = convertTree(val, depth-1)
		}
		return tv
	default:
		return v
	}
}

// toBigInt converts an integer-valued json.Number to *big.Int. Values that
// are not plain integer literals are returned unchanged
func toBigInt(v any) any {
	num, ok := v.(_json.Number)
	if !ok {
		return v
	}
	s := num.String()
	if strings.ContainsAny(s, ".eE") {
		return v
	}
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return v
	}
	return i
}
