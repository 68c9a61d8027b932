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
	"encoding/binary"
	"net"
)

// MinEthernetFrameLength is the length frames are padded to on the wire (without FCS)
const MinEthernetFrameLength = 60

// Multicast MAC addresses POWERLINK uses for the frames sent to everybody
var (
	MACSoC  = net.HardwareAddr{0x01, 0x11, 0x1e, 0x00, 0x00, 0x01}
	MACPRes = net.HardwareAddr{0x01, 0x11, 0x1e, 0x00, 0x00, 0x02}
	MACSoA  = net.HardwareAddr{0x01, 0x11, 0x1e, 0x00, 0x00, 0x03}
	MACASnd = net.HardwareAddr{0x01, 0x11, 0x1e, 0x00, 0x00, 0x04}
)

func destinationMAC(t MessageType) net.HardwareAddr {
	switch t {
	case MessageSoC:
		return MACSoC
	case MessagePRes:
		return MACPRes
	case MessageSoA:
		return MACSoA
	case MessageASnd:
		return MACASnd
	}
	// PReq is unicast, we don't track real MACs so use a locally administered one
	return net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x00}
}

// Bytes encodes Packet into a minimal ethernet frame, padded to MinEthernetFrameLength.
// Fields which are not meaningful for the message type are left zero.
func Bytes(p *Packet, srcMAC net.HardwareAddr) []byte {
	b := make([]byte, MinEthernetFrameLength)
	copy(b[0:6], destinationMAC(p.MessageType))
	copy(b[6:12], srcMAC)
	binary.BigEndian.PutUint16(b[OffsetEtherType:], EtherTypePowerlink)
	b[OffsetMessageType] = uint8(p.MessageType)
	b[OffsetDestination] = p.Destination
	b[OffsetSource] = p.Source
	state := uint8(0)
	if p.State >= 0 {
		state = uint8(p.State)
	}
	switch p.MessageType {
	case MessageSoA:
		b[OffsetSoAMasterState] = state
		b[OffsetSoARequestedSvc] = uint8(p.Service)
		b[OffsetSoATarget] = p.Target
	case MessagePRes:
		b[OffsetPResState] = state
	case MessageASnd:
		b[OffsetASndService] = uint8(p.Service)
		b[OffsetASndState] = state
	}
	return b
}
