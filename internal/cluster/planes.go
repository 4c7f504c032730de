package cluster

import "fmt"

// PlaneID is the bit-flag identifier of a readout plane.
type PlaneID int

const (
	PlaneU PlaneID = 1
	PlaneV PlaneID = 2
	PlaneW PlaneID = 4
)

// Planes lists the readout planes in ascending order.
var Planes = []PlaneID{PlaneU, PlaneV, PlaneW}

// Name returns the conventional single-letter plane name.
func (p PlaneID) Name() string {
	switch p {
	case PlaneU:
		return "u"
	case PlaneV:
		return "v"
	case PlaneW:
		return "w"
	default:
		return fmt.Sprintf("plane%d", int(p))
	}
}

// Valid reports whether p is one of Planes.
func (p PlaneID) Valid() bool {
	return p == PlaneU || p == PlaneV || p == PlaneW
}

// ChannelOffsets maps a plane to the global channel of its wire index 0.
type ChannelOffsets map[PlaneID]int

// DefaultChannelOffsets is the layout of the 8256-channel detector.
func DefaultChannelOffsets() ChannelOffsets {
	return ChannelOffsets{PlaneU: 0, PlaneV: 2400, PlaneW: 4800}
}

// Global returns the global channel of a plane-local wire index.
func (o ChannelOffsets) Global(p PlaneID, index int) int {
	return o[p] + index
}

// Canonical detector channel counts.
const (
	ProtoDUNEChannels  = 2560
	MicroBooNEChannels = 8256
)

// DivinePlanes returns the per-plane channel group sizes for a detector
// with nch channels in total. Unrecognized totals fall back to a single
// group of nch and known is false so the caller can report it.
func DivinePlanes(nch int) (groups []int, known bool) {
	switch nch {
	case ProtoDUNEChannels:
		return []int{400, 400, 400, 400, 480, 480}, true
	case MicroBooNEChannels:
		return []int{2400, 2400, 3456}, true
	default:
		return []int{nch}, false
	}
}
