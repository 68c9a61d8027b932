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

package analyzer

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/facebook/plkan/powerlink/capture"
	"github.com/facebook/plkan/powerlink/metrics"
	"github.com/facebook/plkan/powerlink/protocol"
)

var (
	testMAC = net.HardwareAddr{0x00, 0x60, 0x65, 0x00, 0x00, 0x01}
	start   = time.Unix(1700000000, 0)
)

func at(us int) time.Time {
	return start.Add(time.Duration(us) * time.Microsecond)
}

func frame(ts time.Time, p *protocol.Packet) *capture.Frame {
	data := protocol.Bytes(p, testMAC)
	return &capture.Frame{Timestamp: ts, Data: data, CaptureLength: len(data)}
}

func soc(ts time.Time) *capture.Frame {
	return frame(ts, &protocol.Packet{MessageType: protocol.MessageSoC, Destination: 0xFF, Source: protocol.MasterNodeID})
}

func preq(ts time.Time, dest uint8) *capture.Frame {
	return frame(ts, &protocol.Packet{MessageType: protocol.MessagePReq, Destination: dest, Source: protocol.MasterNodeID})
}

func pres(ts time.Time, src uint8, state protocol.NMTState) *capture.Frame {
	return frame(ts, &protocol.Packet{MessageType: protocol.MessagePRes, Destination: 0xFF, Source: src, State: state})
}

func soa(ts time.Time, service protocol.ServiceID, target uint8) *capture.Frame {
	return frame(ts, &protocol.Packet{
		MessageType: protocol.MessageSoA,
		Destination: 0xFF,
		Source:      protocol.MasterNodeID,
		State:       protocol.NMTStateOperational,
		Service:     service,
		Target:      target,
	})
}

func asnd(ts time.Time, src uint8, service protocol.ServiceID) *capture.Frame {
	return frame(ts, &protocol.Packet{
		MessageType: protocol.MessageASnd,
		Destination: protocol.MasterNodeID,
		Source:      src,
		State:       protocol.NMTStateOperational,
		Service:     service,
	})
}

func ethernet(ts time.Time) *capture.Frame {
	data := make([]byte, protocol.MinEthernetFrameLength)
	binary.BigEndian.PutUint16(data[protocol.OffsetEtherType:], 0x0800)
	return &capture.Frame{Timestamp: ts, Data: data, CaptureLength: len(data)}
}

func analyze(t *testing.T, frames ...*capture.Frame) *metrics.Store {
	s := metrics.NewStore()
	n, err := Run(context.Background(), capture.NewSlice(frames), New(s))
	require.NoError(t, err)
	require.Equal(t, len(frames), n)
	return s
}

func errorKinds(s *metrics.Store) []string {
	var res []string
	for _, e := range s.Errors() {
		res = append(res, fmt.Sprintf("%s/%d", e.Kind, e.Node))
	}
	return res
}

func responseKinds(s *metrics.Store) []string {
	var res []string
	for _, r := range s.Responses() {
		res = append(res, fmt.Sprintf("%s/%d", r.Category, r.Node))
	}
	return res
}

func TestCycleAndPRes(t *testing.T) {
	s := analyze(t,
		soc(at(0)),
		preq(at(10), 5),
		pres(at(25), 5, protocol.NMTStateOperational),
		soc(at(400)),
	)
	require.Equal(t, []metrics.CycleSample{
		{Interval: 400 * time.Microsecond, MasterState: protocol.NMTStateAbsent},
	}, s.Cycles())
	require.Equal(t, []metrics.ResponseSample{
		{
			Category:    metrics.CategoryPRes,
			Node:        5,
			Elapsed:     15 * time.Microsecond,
			MasterState: protocol.NMTStateAbsent,
			NodeState:   protocol.NMTStateOperational,
		},
	}, s.Responses())
	require.Equal(t, []metrics.StateChangeSample{
		{Node: 5, State: protocol.NMTStateOperational, Elapsed: 25 * time.Microsecond, Sequence: 3},
	}, s.StateChanges())
	require.Empty(t, s.Errors())
	require.Equal(t, metrics.Totals{Frames: 4, Span: 400 * time.Microsecond}, s.Totals())
}

func TestCycleIntervalsExact(t *testing.T) {
	s := analyze(t,
		soc(start),
		soc(start.Add(399999*time.Nanosecond)),
		soc(start.Add(800001*time.Nanosecond)),
		soc(start.Add(800001*time.Nanosecond)),
	)
	cycles := s.Cycles()
	require.Len(t, cycles, 3)
	require.Equal(t, 399999*time.Nanosecond, cycles[0].Interval)
	require.Equal(t, 400002*time.Nanosecond, cycles[1].Interval)
	require.Equal(t, time.Duration(0), cycles[2].Interval)
}

func TestCycleTimestampRegression(t *testing.T) {
	s := analyze(t, soc(at(400)), soc(at(0)), soc(at(400)))
	require.Equal(t, []string{"timestamp_regression/240"}, errorKinds(s))
	require.Equal(t, []metrics.CycleSample{{Interval: 400 * time.Microsecond, MasterState: protocol.NMTStateAbsent}}, s.Cycles())
}

func TestPResFromWrongNode(t *testing.T) {
	s := analyze(t, preq(at(0), 5), pres(at(10), 6, protocol.NMTStateOperational))
	require.Equal(t, []metrics.ErrorSample{
		{Kind: metrics.ErrorPResMissing, Node: 5, MasterState: protocol.NMTStateAbsent, NodeState: protocol.NMTStateAbsent},
	}, s.Errors())
	require.Empty(t, s.Responses())
}

func TestIdentResponse(t *testing.T) {
	s := analyze(t, soa(at(100), protocol.ServiceIdent, 7), asnd(at(130), 7, protocol.ServiceIdent))
	require.Equal(t, []metrics.ResponseSample{
		{
			Category:    metrics.CategoryIdent,
			Node:        7,
			Elapsed:     30 * time.Microsecond,
			MasterState: protocol.NMTStateOperational,
			NodeState:   protocol.NMTStateOperational,
		},
	}, s.Responses())
	require.Empty(t, s.Errors())
}

func TestCorrelation(t *testing.T) {
	unknownType := frame(at(20), &protocol.Packet{MessageType: protocol.MessageType(0x0A), Source: 5})
	shortPRes := pres(at(20), 5, protocol.NMTStateOperational)
	shortPRes.CaptureLength = protocol.MinNativeFrameLength

	tests := []struct {
		name          string
		frames        []*capture.Frame
		wantResponses []string
		wantErrors    []string
	}{
		{
			name:          "pres",
			frames:        []*capture.Frame{preq(at(0), 3), pres(at(10), 3, protocol.NMTStateOperational)},
			wantResponses: []string{"pres/3"},
		},
		{
			name:       "pres not followed",
			frames:     []*capture.Frame{preq(at(0), 3), soc(at(10))},
			wantErrors: []string{"pres_missing/3"},
		},
		{
			name:          "unspecified sdo",
			frames:        []*capture.Frame{soa(at(0), protocol.ServiceUnspecified, 4), asnd(at(10), 4, protocol.ServiceSdo)},
			wantResponses: []string{"sdo/4"},
		},
		{
			name:       "unspecified sdo from other node",
			frames:     []*capture.Frame{soa(at(0), protocol.ServiceUnspecified, 4), asnd(at(10), 9, protocol.ServiceSdo)},
			wantErrors: []string{"sdo_from_wrong_node/4"},
		},
		{
			name:          "unspecified other asnd is veth",
			frames:        []*capture.Frame{soa(at(0), protocol.ServiceUnspecified, 4), asnd(at(10), 9, protocol.ServiceIdent)},
			wantResponses: []string{"veth/4"},
		},
		{
			name:          "unspecified ethernet is veth",
			frames:        []*capture.Frame{soa(at(0), protocol.ServiceUnspecified, 4), ethernet(at(10))},
			wantResponses: []string{"veth/4"},
		},
		{
			name:          "nmt request invite",
			frames:        []*capture.Frame{soa(at(0), protocol.ServiceNmtRequestInvite, 2), asnd(at(10), 2, protocol.ServiceNmtCommand)},
			wantResponses: []string{"nmt_command/2"},
		},
		{
			name:       "nmt command from other node",
			frames:     []*capture.Frame{soa(at(0), protocol.ServiceNmtRequestInvite, 2), asnd(at(10), 3, protocol.ServiceNmtCommand)},
			wantErrors: []string{"nmt_from_wrong_node/2"},
		},
		{
			name:       "nmt command not followed",
			frames:     []*capture.Frame{soa(at(0), protocol.ServiceNmtCommand, 2), soc(at(10))},
			wantErrors: []string{"unexpected_packet_after_soa/2"},
		},
		{
			name:          "status",
			frames:        []*capture.Frame{soa(at(0), protocol.ServiceStatus, 8), asnd(at(10), 8, protocol.ServiceStatus)},
			wantResponses: []string{"status/8"},
		},
		{
			name:       "status from other node",
			frames:     []*capture.Frame{soa(at(0), protocol.ServiceStatus, 8), asnd(at(10), 1, protocol.ServiceStatus)},
			wantErrors: []string{"status_response_missing/8"},
		},
		{
			name:       "ident answered with status",
			frames:     []*capture.Frame{soa(at(0), protocol.ServiceIdent, 253), asnd(at(10), 253, protocol.ServiceStatus)},
			wantErrors: []string{"ident_response_missing/253"},
		},
		{
			name:          "sdo",
			frames:        []*capture.Frame{soa(at(0), protocol.ServiceSdo, 6), asnd(at(10), 6, protocol.ServiceSdo)},
			wantResponses: []string{"sdo/6"},
		},
		{
			name:       "sdo missing",
			frames:     []*capture.Frame{soa(at(0), protocol.ServiceSdo, 6), pres(at(10), 6, protocol.NMTStateOperational)},
			wantErrors: []string{"sdo_response_missing/6"},
		},
		{
			name:   "no service",
			frames: []*capture.Frame{soa(at(0), protocol.ServiceNoService, 6), asnd(at(10), 6, protocol.ServiceIdent)},
		},
		{
			name:       "unknown service",
			frames:     []*capture.Frame{soa(at(0), protocol.ServiceID(0x42), 6), asnd(at(10), 6, protocol.ServiceIdent)},
			wantErrors: []string{"unknown_service/6"},
		},
		{
			name:          "soa answers previous soa",
			frames:        []*capture.Frame{soa(at(0), protocol.ServiceIdent, 7), soa(at(10), protocol.ServiceIdent, 8), asnd(at(20), 8, protocol.ServiceIdent)},
			wantResponses: []string{"ident/8"},
			wantErrors:    []string{"ident_response_missing/7"},
		},
		{
			name:          "preq after soa without service",
			frames:        []*capture.Frame{soa(at(0), protocol.ServiceNoService, 7), preq(at(10), 1), pres(at(20), 1, protocol.NMTStateOperational)},
			wantResponses: []string{"pres/1"},
		},
		{
			name:       "ethernet without request",
			frames:     []*capture.Frame{ethernet(at(0))},
			wantErrors: []string{"unexpected_veth/0"},
		},
		{
			name:       "ethernet instead of pres",
			frames:     []*capture.Frame{preq(at(0), 5), ethernet(at(10)), pres(at(20), 5, protocol.NMTStateOperational)},
			wantErrors: []string{"unexpected_veth/5"},
		},
		{
			name:       "ethernet after ident request",
			frames:     []*capture.Frame{soa(at(0), protocol.ServiceIdent, 5), ethernet(at(10))},
			wantErrors: []string{"unexpected_veth/5"},
		},
		{
			name:   "unknown message type",
			frames: []*capture.Frame{preq(at(0), 5), unknownType, pres(at(30), 5, protocol.NMTStateOperational)},
		},
		{
			name:       "short frame",
			frames:     []*capture.Frame{preq(at(0), 5), shortPRes, pres(at(30), 5, protocol.NMTStateOperational)},
			wantErrors: []string{"malformed_frame/5"},
		},
		{
			name:       "response before request",
			frames:     []*capture.Frame{preq(at(100), 5), pres(at(50), 5, protocol.NMTStateOperational)},
			wantErrors: []string{"timestamp_regression/5"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := analyze(t, tt.frames...)
			require.Equal(t, tt.wantResponses, responseKinds(s))
			require.Equal(t, tt.wantErrors, errorKinds(s))
		})
	}
}

func TestResponseElapsed(t *testing.T) {
	s := analyze(t,
		soa(at(0), protocol.ServiceUnspecified, 4), ethernet(at(35)),
		preq(at(100), 1), pres(at(102), 1, protocol.NMTStateOperational),
	)
	r := s.Responses()
	require.Len(t, r, 2)
	require.Equal(t, 35*time.Microsecond, r[0].Elapsed)
	require.Equal(t, 2*time.Microsecond, r[1].Elapsed)
}

func TestStateChanges(t *testing.T) {
	s := analyze(t,
		soa(at(0), protocol.ServiceNoService, 0),
		pres(at(10), 1, protocol.NMTStatePreOperational2),
		pres(at(20), 1, protocol.NMTStatePreOperational2),
		soa(at(30), protocol.ServiceNoService, 0),
		pres(at(40), 1, protocol.NMTStateOperational),
		pres(at(50), protocol.MasterNodeID, protocol.NMTStateStopped),
	)
	require.Equal(t, []metrics.StateChangeSample{
		{Node: protocol.MasterNodeID, State: protocol.NMTStateOperational, Elapsed: 0, Sequence: 1},
		{Node: 1, State: protocol.NMTStatePreOperational2, Elapsed: 10 * time.Microsecond, Sequence: 2},
		{Node: 1, State: protocol.NMTStateOperational, Elapsed: 40 * time.Microsecond, Sequence: 5},
		{Node: protocol.MasterNodeID, State: protocol.NMTStateStopped, Elapsed: 50 * time.Microsecond, Sequence: 6},
	}, s.StateChanges())
}

func TestInvalidStateIsUnknown(t *testing.T) {
	bad := pres(at(10), 3, protocol.NMTStateOperational)
	bad.Data[protocol.OffsetPResState] = 0x42
	bad2 := pres(at(20), 3, protocol.NMTStateOperational)
	bad2.Data[protocol.OffsetPResState] = 0x43

	a := New(metrics.NewStore())
	for _, f := range []*capture.Frame{pres(at(0), 3, protocol.NMTStateOperational), bad, bad2} {
		a.Process(f)
	}
	require.Equal(t, protocol.NMTStateUnknown, a.NodeState(3))
	require.Equal(t, protocol.NMTStateAbsent, a.NodeState(4))
	require.Equal(t, protocol.NMTStateAbsent, a.MasterState())
	require.Equal(t, 3, a.Sequence())

	s := analyze(t, pres(at(0), 3, protocol.NMTStateOperational), bad, bad2)
	changes := s.StateChanges()
	require.Len(t, changes, 2)
	require.Equal(t, protocol.NMTStateUnknown, changes[1].State)
}

func TestSinkCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)
	a := New(sink)

	gomock.InOrder(
		sink.EXPECT().ObserveFrame(at(0)),
		sink.EXPECT().ObserveFrame(at(10)),
		sink.EXPECT().ObserveFrame(at(25)),
		sink.EXPECT().AddStateChange(metrics.StateChangeSample{Node: 5, State: protocol.NMTStateOperational, Elapsed: 25 * time.Microsecond, Sequence: 3}),
		sink.EXPECT().AddResponse(metrics.ResponseSample{
			Category:    metrics.CategoryPRes,
			Node:        5,
			Elapsed:     15 * time.Microsecond,
			MasterState: protocol.NMTStateAbsent,
			NodeState:   protocol.NMTStateOperational,
		}),
		sink.EXPECT().ObserveFrame(at(400)),
		sink.EXPECT().AddCycle(metrics.CycleSample{Interval: 400 * time.Microsecond, MasterState: protocol.NMTStateAbsent}),
	)
	for _, f := range []*capture.Frame{soc(at(0)), preq(at(10), 5), pres(at(25), 5, protocol.NMTStateOperational), soc(at(400))} {
		a.Process(f)
	}
}

func TestIdempotent(t *testing.T) {
	frames := []*capture.Frame{
		soc(at(0)), preq(at(10), 1), pres(at(22), 1, protocol.NMTStateOperational),
		preq(at(40), 2), soc(at(400)),
		soa(at(410), protocol.ServiceIdent, 2), asnd(at(450), 2, protocol.ServiceIdent),
		soc(at(800)), soa(at(820), protocol.ServiceUnspecified, 1), ethernet(at(900)),
	}
	first := analyze(t, frames...)
	second := analyze(t, frames...)
	require.Equal(t, first.Responses(), second.Responses())
	require.Equal(t, first.Errors(), second.Errors())
	require.Equal(t, first.Cycles(), second.Cycles())
	require.Equal(t, first.StateChanges(), second.StateChanges())
	for _, f := range []metrics.Filter{metrics.CycleFilter(), metrics.ResponseFilter("")} {
		s1, err := first.Aggregate(f)
		require.NoError(t, err)
		s2, err := second.Aggregate(f)
		require.NoError(t, err)
		require.Equal(t, s1, s2)
	}
}

type failingSource struct {
	frames int
}

func (f *failingSource) Next() (*capture.Frame, error) {
	if f.frames == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	f.frames--
	return soc(at(f.frames)), nil
}

func TestRunSourceError(t *testing.T) {
	n, err := Run(context.Background(), &failingSource{frames: 2}, New(metrics.NewStore()))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Equal(t, 2, n)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := Run(ctx, capture.NewSlice([]*capture.Frame{soc(at(0))}), New(metrics.NewStore()))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, n)
}
