/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"fmt"
)

// Kind selects which samples a Filter matches
type Kind int

// Sample kinds which carry a duration
const (
	KindResponse Kind = iota
	KindCycle
)

func (k Kind) String() string {
	switch k {
	case KindResponse:
		return "response"
	case KindCycle:
		return "cycle"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// NodeRange is an inclusive range of node ids
type NodeRange struct {
	From uint8
	To   uint8
}

// AllNodes matches every node id
var AllNodes = NodeRange{From: 0, To: 255}

// Contains checks if node is within range
func (r NodeRange) Contains(node uint8) bool {
	return node >= r.From && node <= r.To
}

// Filter is a typed predicate over duration samples. The zero value matches all responses.
// Empty Category matches all categories and nil Nodes matches all nodes. Cycle samples
// have no category or node, so Category and Nodes are ignored for KindCycle.
type Filter struct {
	Kind     Kind
	Category Category
	Nodes    *NodeRange
}

// CycleFilter matches all cycle samples
func CycleFilter() Filter {
	return Filter{Kind: KindCycle}
}

// ResponseFilter matches response samples of given category, or all of them if category is empty
func ResponseFilter(c Category) Filter {
	return Filter{Kind: KindResponse, Category: c}
}

// ForNode returns copy of the filter limited to a single node
func (f Filter) ForNode(node uint8) Filter {
	f.Nodes = &NodeRange{From: node, To: node}
	return f
}

func (f Filter) nodes() NodeRange {
	if f.Nodes == nil {
		return AllNodes
	}
	return *f.Nodes
}

func (f Filter) matchResponse(s *ResponseSample) bool {
	if f.Category != "" && f.Category != s.Category {
		return false
	}
	return f.nodes().Contains(s.Node)
}

func (f Filter) String() string {
	if f.Kind == KindCycle {
		return f.Kind.String()
	}
	category := string(f.Category)
	if category == "" {
		category = "*"
	}
	nodes := f.nodes()
	return fmt.Sprintf("%s/%s/%d-%d", f.Kind, category, nodes.From, nodes.To)
}
