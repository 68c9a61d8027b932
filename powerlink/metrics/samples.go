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
	"time"

	"github.com/facebook/plkan/powerlink/protocol"
)

// Category of a response sample
type Category string

// Response categories
const (
	CategoryPRes       Category = "pres"
	CategoryIdent      Category = "ident"
	CategoryStatus     Category = "status"
	CategorySdo        Category = "sdo"
	CategoryNmtCommand Category = "nmt_command"
	CategoryVeth       Category = "veth"
)

// Categories lists all response categories in report order
var Categories = []Category{
	CategoryPRes,
	CategoryIdent,
	CategoryStatus,
	CategorySdo,
	CategoryNmtCommand,
	CategoryVeth,
}

// CategoryToLabel is a map from Category to human readable label
var CategoryToLabel = map[Category]string{
	CategoryPRes:       "PRes",
	CategoryIdent:      "Ident",
	CategoryStatus:     "Status",
	CategorySdo:        "SDO",
	CategoryNmtCommand: "NMT",
	CategoryVeth:       "Veth",
}

// Label returns human readable category name
func (c Category) Label() string {
	if l, ok := CategoryToLabel[c]; ok {
		return l
	}
	return string(c)
}

// ErrorKind is a protocol violation or a diagnostic
type ErrorKind string

// Protocol violations
const (
	ErrorPResMissing              ErrorKind = "pres_missing"
	ErrorSdoFromWrongNode         ErrorKind = "sdo_from_wrong_node"
	ErrorNmtFromWrongNode         ErrorKind = "nmt_from_wrong_node"
	ErrorIdentResponseMissing     ErrorKind = "ident_response_missing"
	ErrorStatusResponseMissing    ErrorKind = "status_response_missing"
	ErrorSdoResponseMissing       ErrorKind = "sdo_response_missing"
	ErrorUnexpectedPacketAfterSoA ErrorKind = "unexpected_packet_after_soa"
	ErrorUnexpectedVeth           ErrorKind = "unexpected_veth"
)

// Diagnostics about the capture itself
const (
	ErrorMalformedFrame      ErrorKind = "malformed_frame"
	ErrorUnknownService      ErrorKind = "unknown_service"
	ErrorTimestampRegression ErrorKind = "timestamp_regression"
)

// CycleSample is an interval between two consecutive SoC frames
type CycleSample struct {
	Interval    time.Duration
	MasterState protocol.NMTState
}

// ResponseSample is time it took a node to answer a request
type ResponseSample struct {
	Category    Category
	Node        uint8
	Elapsed     time.Duration
	MasterState protocol.NMTState
	NodeState   protocol.NMTState
}

// ErrorSample is a single protocol violation
type ErrorSample struct {
	Kind        ErrorKind
	Node        uint8
	MasterState protocol.NMTState
	NodeState   protocol.NMTState
}

// StateChangeSample records node (or master, as protocol.MasterNodeID) switching NMT state
type StateChangeSample struct {
	Node     uint8
	State    protocol.NMTState
	Elapsed  time.Duration
	Sequence int
}
