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
	"errors"
	"fmt"
)

// EtherTypePowerlink is the EtherType POWERLINK frames are sent with
const EtherTypePowerlink uint16 = 0x88AB

// Frame offsets, counted from the beginning of the link layer frame
const (
	OffsetEtherType       = 12
	OffsetMessageType     = 14
	OffsetDestination     = 15
	OffsetSource          = 16
	OffsetSoAMasterState  = 17
	OffsetPResState       = 17
	OffsetASndService     = 17
	OffsetASndState       = 20
	OffsetSoARequestedSvc = 20
	OffsetSoATarget       = 21
	EthernetHeaderLength  = OffsetMessageType
	MinNativeFrameLength  = OffsetSource + 1
)

// ErrForeign is returned for frames which are not POWERLINK frames, like tunneled ethernet traffic
var ErrForeign = errors.New("not a POWERLINK frame")

// ErrShortFrame is returned when POWERLINK frame is too short for its message type
var ErrShortFrame = errors.New("POWERLINK frame too short")

// ShortFrameError describes which message type could not be decoded and why
type ShortFrameError struct {
	MessageType MessageType
	Source      uint8
	Need        int
	Got         int
}

func (e *ShortFrameError) Error() string {
	return fmt.Sprintf("%s frame is %d bytes, need at least %d", e.MessageType, e.Got, e.Need)
}

// Unwrap allows errors.Is(err, ErrShortFrame)
func (e *ShortFrameError) Unwrap() error {
	return ErrShortFrame
}

// Packet is a decoded POWERLINK frame.
// State is the NMT state announced in the frame: MN state for SoA, sender state for PRes and ASnd,
// NMTStateAbsent for everything else.
// Service is the ASnd service id or the SoA requested service. Target is set for SoA only.
type Packet struct {
	MessageType MessageType
	Destination uint8
	Source      uint8
	State       NMTState
	Service     ServiceID
	Target      uint8
}

// MinFrameLength returns minimal frame length needed to decode given message type
func MinFrameLength(t MessageType) int {
	switch t {
	case MessagePRes:
		return OffsetPResState + 1
	case MessageASnd:
		return OffsetASndState + 1
	case MessageSoA:
		return OffsetSoATarget + 1
	}
	return MinNativeFrameLength
}

// IsNative checks that frame carries POWERLINK EtherType and is long enough to hold the POWERLINK header
func IsNative(data []byte) bool {
	if len(data) < MinNativeFrameLength {
		return false
	}
	return binary.BigEndian.Uint16(data[OffsetEtherType:]) == EtherTypePowerlink
}

// DecodeFrame decodes link layer frame into Packet.
// It returns ErrForeign for non-POWERLINK frames and *ShortFrameError for truncated ones.
func DecodeFrame(data []byte) (*Packet, error) {
	if !IsNative(data) {
		return nil, ErrForeign
	}
	return decodePayload(data[EthernetHeaderLength:])
}

// decodePayload decodes POWERLINK frame without ethernet header. Offsets are shifted accordingly.
func decodePayload(b []byte) (*Packet, error) {
	got := len(b) + EthernetHeaderLength
	if got < MinNativeFrameLength {
		return nil, &ShortFrameError{Need: MinNativeFrameLength, Got: got}
	}
	p := &Packet{
		MessageType: MessageType(b[OffsetMessageType-EthernetHeaderLength]),
		Destination: b[OffsetDestination-EthernetHeaderLength],
		Source:      b[OffsetSource-EthernetHeaderLength],
		State:       NMTStateAbsent,
	}
	if need := MinFrameLength(p.MessageType); got < need {
		return nil, &ShortFrameError{MessageType: p.MessageType, Source: p.Source, Need: need, Got: got}
	}
	at := func(offset int) uint8 {
		return b[offset-EthernetHeaderLength]
	}
	switch p.MessageType {
	case MessageSoA:
		p.State = DecodeNMTState(at(OffsetSoAMasterState))
		p.Service = ServiceID(at(OffsetSoARequestedSvc))
		p.Target = at(OffsetSoATarget)
	case MessagePRes:
		p.State = DecodeNMTState(at(OffsetPResState))
	case MessageASnd:
		p.Service = ServiceID(at(OffsetASndService))
		p.State = DecodeNMTState(at(OffsetASndState))
	}
	return p, nil
}
