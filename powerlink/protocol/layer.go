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

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// LayerPowerlink wraps around POWERLINK packet so it can be used with gopacket
type LayerPowerlink struct {
	layers.BaseLayer

	Packet Packet
}

// LayerTypePowerlink is registered as a layer with gopacket
var LayerTypePowerlink = gopacket.RegisterLayerType(
	0x88AB,
	gopacket.LayerTypeMetadata{
		Name:    "POWERLINK",
		Decoder: gopacket.DecodeFunc(decodePowerlink),
	},
)

func init() {
	layers.EthernetTypeMetadata[EtherTypePowerlink] = layers.EnumMetadata{
		DecodeWith: gopacket.DecodeFunc(decodePowerlink),
		Name:       "POWERLINK",
		LayerType:  LayerTypePowerlink,
	}
}

// LayerType returns type this layer implements
func (l *LayerPowerlink) LayerType() gopacket.LayerType {
	return LayerTypePowerlink
}

// Payload is empty as it's the final layer
func (l *LayerPowerlink) Payload() []byte {
	return nil
}

// decodePowerlink gets data following the ethernet header
func decodePowerlink(data []byte, p gopacket.PacketBuilder) error {
	pkt, err := decodePayload(data)
	if err != nil {
		return fmt.Errorf("decoding POWERLINK frame: %w", err)
	}
	d := &LayerPowerlink{Packet: *pkt}
	d.BaseLayer = layers.BaseLayer{Contents: data[:]}
	p.AddLayer(d)
	p.SetApplicationLayer(d)
	return nil
}
