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

package protocol

import (
	"fmt"
)

// MasterNodeID is the node id reserved for the managing node (MN)
const MasterNodeID uint8 = 240

// MessageType is type for POWERLINK message types
type MessageType uint8

// Message types as they appear in the frame
const (
	MessageSoC  MessageType = 0x01
	MessagePReq MessageType = 0x03
	MessagePRes MessageType = 0x04
	MessageSoA  MessageType = 0x05
	MessageASnd MessageType = 0x06
)

// MessageTypeToString is a map from MessageType to string
var MessageTypeToString = map[MessageType]string{
	MessageSoC:  "SoC",
	MessagePReq: "PReq",
	MessagePRes: "PRes",
	MessageSoA:  "SoA",
	MessageASnd: "ASnd",
}

// Known reports whether message type is one of the fixed message set
func (m MessageType) Known() bool {
	_, ok := MessageTypeToString[m]
	return ok
}

func (m MessageType) String() string {
	if s, ok := MessageTypeToString[m]; ok {
		return s
	}
	return fmt.Sprintf("Unknown(0x%02x)", uint8(m))
}

// ServiceID is the service carried by ASnd or requested by SoA
type ServiceID uint8

// Service ids. NmtRequestInvite is only meaningful as SoA requested service.
const (
	ServiceNoService        ServiceID = 0x00
	ServiceIdent            ServiceID = 0x01
	ServiceStatus           ServiceID = 0x02
	ServiceNmtRequestInvite ServiceID = 0x03
	ServiceNmtCommand       ServiceID = 0x04
	ServiceSdo              ServiceID = 0x05
	ServiceUnspecified      ServiceID = 0xFF
)

// ServiceIDToString is a map from ServiceID to string
var ServiceIDToString = map[ServiceID]string{
	ServiceNoService:        "NoService",
	ServiceIdent:            "Ident",
	ServiceStatus:           "Status",
	ServiceNmtRequestInvite: "NmtRequestInvite",
	ServiceNmtCommand:       "NmtCommand",
	ServiceSdo:              "Sdo",
	ServiceUnspecified:      "Unspecified",
}

// Known reports whether service id is recognized
func (s ServiceID) Known() bool {
	_, ok := ServiceIDToString[s]
	return ok
}

func (s ServiceID) String() string {
	if str, ok := ServiceIDToString[s]; ok {
		return str
	}
	return fmt.Sprintf("Unknown(0x%02x)", uint8(s))
}

/*
NMTState is the network management state of a node.
Real states use their on-wire byte value. Two sentinels live outside of the byte range:
NMTStateAbsent means we never saw the node announce a state,
NMTStateUnknown means the node announced a byte that matches none of the states.
*/
type NMTState int16

// NMT states
const (
	NMTStateAbsent             NMTState = -1
	NMTStateUnknown            NMTState = -2
	NMTStateOff                NMTState = 0x00
	NMTStateInitialising       NMTState = 0x19
	NMTStateResetApplication   NMTState = 0x29
	NMTStateResetCommunication NMTState = 0x39
	NMTStateResetConfiguration NMTState = 0x79
	NMTStateNotActive          NMTState = 0x1C
	NMTStatePreOperational1    NMTState = 0x1D
	NMTStatePreOperational2    NMTState = 0x5D
	NMTStateReadyToOperate     NMTState = 0x6D
	NMTStateOperational        NMTState = 0xFD
	NMTStateStopped            NMTState = 0x4D
	NMTStateBasicEthernet      NMTState = 0x1E
)

// NMTStateToString is a map from NMTState to string
var NMTStateToString = map[NMTState]string{
	NMTStateAbsent:             "None",
	NMTStateUnknown:            "Unknown",
	NMTStateOff:                "Off",
	NMTStateInitialising:       "Initialising",
	NMTStateResetApplication:   "ResetApplication",
	NMTStateResetCommunication: "ResetCommunication",
	NMTStateResetConfiguration: "ResetConfiguration",
	NMTStateNotActive:          "NotActive",
	NMTStatePreOperational1:    "PreOperational1",
	NMTStatePreOperational2:    "PreOperational2",
	NMTStateReadyToOperate:     "ReadyToOperate",
	NMTStateOperational:        "Operational",
	NMTStateStopped:            "Stopped",
	NMTStateBasicEthernet:      "BasicEthernet",
}

func (s NMTState) String() string {
	if str, ok := NMTStateToString[s]; ok {
		return str
	}
	return fmt.Sprintf("NMTState(%d)", int16(s))
}

// Observed reports whether the state came from the wire, valid or not
func (s NMTState) Observed() bool {
	return s != NMTStateAbsent
}

// DecodeNMTState maps a raw byte to NMTState. Bytes outside of the fixed set decode to NMTStateUnknown.
func DecodeNMTState(b uint8) NMTState {
	s := NMTState(b)
	if _, ok := NMTStateToString[s]; !ok {
		return NMTStateUnknown
	}
	return s
}
