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

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/plkan/powerlink/capture"
	"github.com/facebook/plkan/powerlink/protocol"
)

var dumpMsgTypeFlag []string

func init() {
	RootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringSliceVarP(&dumpMsgTypeFlag, "msgtype", "m", nil, "only dump these message types, like SoA,ASnd. All by default")
}

// parseMessageTypes converts message type names into a filter. Empty list means everything.
func parseMessageTypes(names []string) (map[protocol.MessageType]bool, error) {
	filter := map[protocol.MessageType]bool{}
	for _, name := range names {
		found := false
		for v, s := range protocol.MessageTypeToString {
			if strings.EqualFold(s, name) {
				filter[v] = true
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("unsupported msg type %q", name)
		}
	}
	if len(filter) == 0 {
		for v := range protocol.MessageTypeToString {
			filter[v] = true
		}
	}
	return filter, nil
}

func dumpRun(w io.Writer, input string, filter map[protocol.MessageType]bool) error {
	f, err := capture.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	seq := 0
	for {
		frame, err := f.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		seq++
		packet := gopacket.NewPacket(frame.Payload(), layers.LayerTypeEthernet, gopacket.Default)
		if errLayer := packet.ErrorLayer(); errLayer != nil {
			log.Debugf("#%d: %v", seq, errLayer.Error())
			continue
		}
		plkLayer := packet.Layer(protocol.LayerTypePowerlink)
		if plkLayer == nil {
			continue
		}
		plk, _ := plkLayer.(*protocol.LayerPowerlink)
		if !filter[plk.Packet.MessageType] {
			continue
		}
		var srcMAC, dstMAC string
		if ethLayer := packet.Layer(layers.LayerTypeEthernet); ethLayer != nil {
			eth, _ := ethLayer.(*layers.Ethernet)
			srcMAC = eth.SrcMAC.String()
			dstMAC = eth.DstMAC.String()
		}
		spew.Fprintf(w, "#%d %s %s -> %s\n", seq, frame.Timestamp.Format("15:04:05.000000000"), srcMAC, dstMAC)
		spew.Fdump(w, plk.Packet)
		fmt.Fprintln(w)
	}
}

var dumpCmd = &cobra.Command{
	Use:   "dump CAPTURE",
	Short: "Print decoded POWERLINK frames of a capture",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()
		filter, err := parseMessageTypes(dumpMsgTypeFlag)
		if err != nil {
			log.Fatal(err)
		}
		if err := dumpRun(os.Stdout, args[0], filter); err != nil {
			log.Fatal(err)
		}
	},
}
