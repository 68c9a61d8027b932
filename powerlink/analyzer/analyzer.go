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

/*
Package analyzer implements the POWERLINK protocol state machine.

Analyzer consumes captured frames strictly in capture order, tracks NMT state of
the managing node and every controlled node, correlates requests (PReq, SoA) with
the frame that follows them and emits cycle, response, error and state change
samples into a Sink.
*/
package analyzer

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/facebook/plkan/powerlink/capture"
	"github.com/facebook/plkan/powerlink/metrics"
	"github.com/facebook/plkan/powerlink/protocol"
)

// Sink receives samples produced by the Analyzer. metrics.Store implements it.
type Sink interface {
	AddCycle(c metrics.CycleSample)
	AddResponse(r metrics.ResponseSample)
	AddError(e metrics.ErrorSample)
	AddStateChange(c metrics.StateChangeSample)
	ObserveFrame(ts time.Time)
}

var _ Sink = (*metrics.Store)(nil)

// expectation is the request waiting for its response. Only one can be outstanding.
type expectation interface {
	expectedNode() uint8
	requestedAt() time.Time
}

// awaitingPRes is established by PReq
type awaitingPRes struct {
	node      uint8
	requested time.Time
}

func (e *awaitingPRes) expectedNode() uint8    { return e.node }
func (e *awaitingPRes) requestedAt() time.Time { return e.requested }

// awaitingService is established by SoA with a requested service
type awaitingService struct {
	service   protocol.ServiceID
	node      uint8
	requested time.Time
}

func (e *awaitingService) expectedNode() uint8    { return e.node }
func (e *awaitingService) requestedAt() time.Time { return e.requested }

// Analyzer is the protocol state machine. It's not safe for concurrent use.
type Analyzer struct {
	sink Sink

	sequence    int
	firstTS     time.Time
	cycleAnchor time.Time
	hasAnchor   bool
	pending     expectation
	masterState protocol.NMTState
	nodeStates  [256]protocol.NMTState
}

// New returns Analyzer with fresh state writing samples to sink
func New(sink Sink) *Analyzer {
	a := &Analyzer{
		sink:        sink,
		masterState: protocol.NMTStateAbsent,
	}
	for i := range a.nodeStates {
		a.nodeStates[i] = protocol.NMTStateAbsent
	}
	return a
}

// Sequence returns number of frames processed so far
func (a *Analyzer) Sequence() int {
	return a.sequence
}

// MasterState returns last known state of the managing node
func (a *Analyzer) MasterState() protocol.NMTState {
	return a.masterState
}

// NodeState returns last known state of the node
func (a *Analyzer) NodeState(node uint8) protocol.NMTState {
	if node == protocol.MasterNodeID {
		return a.masterState
	}
	return a.nodeStates[node]
}

// Process handles a single frame. Protocol violations and broken frames are reported
// to the sink as error samples, Process never fails.
func (a *Analyzer) Process(f *capture.Frame) {
	a.sequence++
	ts := f.Timestamp
	if a.sequence == 1 {
		a.firstTS = ts
	}
	a.sink.ObserveFrame(ts)

	pkt, err := protocol.DecodeFrame(f.Payload())
	switch {
	case errors.Is(err, protocol.ErrForeign):
		log.Tracef("#%d: foreign frame, %d bytes", a.sequence, len(f.Payload()))
		a.processForeign(ts)
	case err != nil:
		a.processMalformed(err)
	default:
		log.Tracef("#%d: %s %d -> %d", a.sequence, pkt.MessageType, pkt.Source, pkt.Destination)
		a.processState(pkt, ts)
		a.processCyclic(pkt, ts)
		a.processResponse(pkt, ts)
	}

	a.pending = nil
	if pkt != nil {
		a.processRequest(pkt, ts)
	}
}

func (a *Analyzer) processForeign(ts time.Time) {
	if e, ok := a.pending.(*awaitingService); ok && e.service == protocol.ServiceUnspecified {
		a.addResponse(metrics.CategoryVeth, e, ts)
		return
	}
	node := uint8(0)
	if a.pending != nil {
		node = a.pending.expectedNode()
	}
	log.Debugf("#%d: ethernet frame while not in a VETH slot", a.sequence)
	a.addError(metrics.ErrorUnexpectedVeth, node)
}

func (a *Analyzer) processMalformed(err error) {
	var short *protocol.ShortFrameError
	node := uint8(0)
	if errors.As(err, &short) {
		node = short.Source
	}
	log.Debugf("#%d: %v", a.sequence, err)
	a.addError(metrics.ErrorMalformedFrame, node)
}

func (a *Analyzer) processState(p *protocol.Packet, ts time.Time) {
	switch p.MessageType {
	case protocol.MessageSoA:
		a.setState(protocol.MasterNodeID, p.State, ts)
	case protocol.MessagePRes, protocol.MessageASnd:
		a.setState(p.Source, p.State, ts)
	}
}

// setState records the state announced by the node and emits state change if it differs.
// Node 240 is the managing node.
func (a *Analyzer) setState(node uint8, state protocol.NMTState, ts time.Time) {
	current := &a.nodeStates[node]
	if node == protocol.MasterNodeID {
		current = &a.masterState
	}
	if *current == state {
		return
	}
	log.Debugf("#%d: node %d changed state %s -> %s", a.sequence, node, *current, state)
	*current = state
	a.sink.AddStateChange(metrics.StateChangeSample{
		Node:     node,
		State:    state,
		Elapsed:  ts.Sub(a.firstTS),
		Sequence: a.sequence,
	})
}

func (a *Analyzer) processCyclic(p *protocol.Packet, ts time.Time) {
	if p.MessageType != protocol.MessageSoC {
		return
	}
	if a.hasAnchor {
		interval := ts.Sub(a.cycleAnchor)
		if interval < 0 {
			log.Debugf("#%d: SoC timestamp went back by %v", a.sequence, -interval)
			a.addError(metrics.ErrorTimestampRegression, protocol.MasterNodeID)
		} else {
			a.sink.AddCycle(metrics.CycleSample{Interval: interval, MasterState: a.masterState})
		}
	}
	a.cycleAnchor = ts
	a.hasAnchor = true
}

func (a *Analyzer) processResponse(p *protocol.Packet, ts time.Time) {
	if a.pending != nil && !p.MessageType.Known() {
		log.Debugf("#%d: %s frame dropped pending request to %d", a.sequence, p.MessageType, a.pending.expectedNode())
		return
	}
	switch e := a.pending.(type) {
	case nil:
		return
	case *awaitingPRes:
		if p.MessageType == protocol.MessagePRes && p.Source == e.node {
			a.addResponse(metrics.CategoryPRes, e, ts)
			return
		}
		log.Debugf("#%d: expected PRes from %d, got %s from %d", a.sequence, e.node, p.MessageType, p.Source)
		a.addError(metrics.ErrorPResMissing, e.node)
	case *awaitingService:
		a.processServiceResponse(e, p, ts)
	}
}

// serviceResponses maps requested service to response category and the error recorded when it's missing
var serviceResponses = map[protocol.ServiceID]struct {
	category metrics.Category
	missing  metrics.ErrorKind
}{
	protocol.ServiceIdent:  {category: metrics.CategoryIdent, missing: metrics.ErrorIdentResponseMissing},
	protocol.ServiceStatus: {category: metrics.CategoryStatus, missing: metrics.ErrorStatusResponseMissing},
	protocol.ServiceSdo:    {category: metrics.CategorySdo, missing: metrics.ErrorSdoResponseMissing},
}

func (a *Analyzer) processServiceResponse(e *awaitingService, p *protocol.Packet, ts time.Time) {
	asnd := p.MessageType == protocol.MessageASnd
	switch e.service {
	case protocol.ServiceUnspecified:
		switch {
		case asnd && p.Service == protocol.ServiceSdo && p.Source == e.node:
			a.addResponse(metrics.CategorySdo, e, ts)
		case asnd && p.Service == protocol.ServiceSdo:
			a.addError(metrics.ErrorSdoFromWrongNode, e.node)
		default:
			a.addResponse(metrics.CategoryVeth, e, ts)
		}
	case protocol.ServiceNmtCommand:
		switch {
		case asnd && p.Service == protocol.ServiceNmtCommand && p.Source == e.node:
			a.addResponse(metrics.CategoryNmtCommand, e, ts)
		case asnd && p.Service == protocol.ServiceNmtCommand:
			a.addError(metrics.ErrorNmtFromWrongNode, e.node)
		default:
			a.addError(metrics.ErrorUnexpectedPacketAfterSoA, e.node)
		}
	default:
		r, ok := serviceResponses[e.service]
		if !ok {
			return
		}
		if asnd && p.Service == e.service && p.Source == e.node {
			a.addResponse(r.category, e, ts)
			return
		}
		log.Debugf("#%d: expected %s from %d, got %s/%s from %d", a.sequence, e.service, e.node, p.MessageType, p.Service, p.Source)
		a.addError(r.missing, e.node)
	}
}

func (a *Analyzer) processRequest(p *protocol.Packet, ts time.Time) {
	switch p.MessageType {
	case protocol.MessagePReq:
		a.pending = &awaitingPRes{node: p.Destination, requested: ts}
	case protocol.MessageSoA:
		service := p.Service
		switch {
		case !service.Known():
			log.Warningf("#%d: SoA requests unknown service %s from %d", a.sequence, service, p.Target)
			a.addError(metrics.ErrorUnknownService, p.Target)
			return
		case service == protocol.ServiceNoService:
			return
		case service == protocol.ServiceNmtRequestInvite:
			// invite solicits a command, not an echo of itself
			service = protocol.ServiceNmtCommand
		}
		a.pending = &awaitingService{service: service, node: p.Target, requested: ts}
	}
}

func (a *Analyzer) addResponse(c metrics.Category, e expectation, ts time.Time) {
	node := e.expectedNode()
	elapsed := ts.Sub(e.requestedAt())
	if elapsed < 0 {
		log.Debugf("#%d: response to node %d is %v before its request", a.sequence, node, -elapsed)
		a.addError(metrics.ErrorTimestampRegression, node)
		return
	}
	a.sink.AddResponse(metrics.ResponseSample{
		Category:    c,
		Node:        node,
		Elapsed:     elapsed,
		MasterState: a.masterState,
		NodeState:   a.NodeState(node),
	})
}

func (a *Analyzer) addError(kind metrics.ErrorKind, node uint8) {
	a.sink.AddError(metrics.ErrorSample{
		Kind:        kind,
		Node:        node,
		MasterState: a.masterState,
		NodeState:   a.NodeState(node),
	})
}
