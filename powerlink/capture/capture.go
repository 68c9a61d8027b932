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
Package capture implements frame sources for the analyzer.
Frames are produced in file order, io.EOF signals the end of the capture.
*/
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	log "github.com/sirupsen/logrus"
)

// Frame is a single captured link layer frame
type Frame struct {
	Timestamp     time.Time
	Data          []byte
	CaptureLength int
}

// Payload returns frame bytes which are guaranteed to be valid
func (f *Frame) Payload() []byte {
	if f.CaptureLength >= 0 && f.CaptureLength < len(f.Data) {
		return f.Data[:f.CaptureLength]
	}
	return f.Data
}

// Source provides frames in capture order. Next returns io.EOF when there are no more frames.
type Source interface {
	Next() (*Frame, error)
}

// packetHandle abstracts packet handles provided by pcapgo.Reader and pcapgo.NGReader
type packetHandle interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// File is a Source reading pcap or pcapng capture file
type File struct {
	path   string
	f      *os.File
	handle packetHandle
}

// Open opens capture file. Both pcapng and pcap formats are supported.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	handle, err := newHandle(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if handle.LinkType() != layers.LinkTypeEthernet {
		log.Warningf("%s: link type is %s, POWERLINK frames are expected on ethernet", path, handle.LinkType())
	}
	return &File{path: path, f: f, handle: handle}, nil
}

// try NGReader, if it fails - fall back to Reader
func newHandle(f io.ReadSeeker) (packetHandle, error) {
	handle, err := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	if err == nil {
		return handle, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking: %w", err)
	}
	return pcapgo.NewReader(f)
}

// Next returns next frame from the file
func (c *File) Next() (*Frame, error) {
	data, ci, err := c.handle.ReadPacketData()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading %s: %w", c.path, err)
	}
	return &Frame{
		Timestamp:     ci.Timestamp,
		Data:          data,
		CaptureLength: ci.CaptureLength,
	}, nil
}

// Path returns path of the capture file
func (c *File) Path() string {
	return c.path
}

// Close closes underlying file
func (c *File) Close() error {
	return c.f.Close()
}

// Slice is a Source over frames already in memory
type Slice struct {
	frames []*Frame
	pos    int
}

// NewSlice returns Source yielding given frames in order
func NewSlice(frames []*Frame) *Slice {
	return &Slice{frames: frames}
}

// Next returns next frame
func (s *Slice) Next() (*Frame, error) {
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}
