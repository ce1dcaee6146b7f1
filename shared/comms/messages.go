// Package comms provides the remote contract between the master and its workers.
package comms

import (
	"github.com/mwindels/remote-raytracer/shared/colour"
	"github.com/mwindels/remote-raytracer/shared/state"
)

// Status is the readiness a worker reports in reply to a ping.
type Status int32

// These constants are the statuses a worker can report.
const (
	StatusUnknown Status = iota
	StatusReady
	StatusDraining
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "READY"
	case StatusDraining:
		return "DRAINING"
	}
	return "UNKNOWN"
}

// PixelRequest asks a worker for the colour of one pixel.
// Scene may be nil if SceneKey names a scene the worker has already received.
type PixelRequest struct {
	SceneKey   string
	Scene      *state.SceneNode
	Lights     []state.Light
	Projection state.Projection
	Coord      []int32
}

// PixelReply carries the colour of the requested pixel.
type PixelReply struct {
	Colour colour.RGB
}
