// Package payload builds the body of a sensor report.
package payload

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/golang/snappy"
)

const headerBytes = 2 + 4 + 8

var errShortFrame = errors.New("frame shorter than header")

// Frame is one encoded sensor report. Wire is what would be put on air when
// compression is enabled; the energy model always charges the fixed packet size.
type Frame struct {
	Raw  []byte
	Wire []byte
}

func (f Frame) Ratio() float64 {
	if len(f.Raw) == 0 {
		return 1
	}
	return float64(len(f.Wire)) / float64(len(f.Raw))
}

// Framer lays out fixed-length reports: node id, sequence number, timestamp,
// then zero padding up to Size.
type Framer struct {
	Size     int
	Compress bool
}

func NewFramer(size int, compress bool) *Framer {
	if size < headerBytes {
		size = headerBytes
	}
	return &Framer{Size: size, Compress: compress}
}

func (f *Framer) Build(nodeID, seq int, now float64) Frame {
	raw := make([]byte, f.Size)
	binary.BigEndian.PutUint16(raw[0:2], uint16(nodeID))
	binary.BigEndian.PutUint32(raw[2:6], uint32(seq))
	binary.BigEndian.PutUint64(raw[6:14], math.Float64bits(now))

	frame := Frame{Raw: raw, Wire: raw}
	if f.Compress {
		frame.Wire = snappy.Encode(nil, raw)
	}
	return frame
}

// Decode recovers the header fields from a frame's wire bytes.
func Decode(wire []byte, compressed bool) (nodeID, seq int, now float64, err error) {
	raw := wire
	if compressed {
		raw, err = snappy.Decode(nil, wire)
		if err != nil {
			return 0, 0, 0, err
		}
	}
	if len(raw) < headerBytes {
		return 0, 0, 0, errShortFrame
	}
	nodeID = int(binary.BigEndian.Uint16(raw[0:2]))
	seq = int(binary.BigEndian.Uint32(raw[2:6]))
	now = math.Float64frombits(binary.BigEndian.Uint64(raw[6:14]))
	return nodeID, seq, now, nil
}
