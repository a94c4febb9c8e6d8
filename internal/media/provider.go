package media

import (
	"github.com/pion/webrtc/v4"
)

// Track is a local media track attachable to a peer connection. Both real
// capture tracks and placeholder tracks satisfy it.
type Track interface {
	webrtc.TrackLocal
	Close() error
}

// DeviceKind distinguishes capture device classes.
type DeviceKind int

const (
	AudioInput DeviceKind = iota
	VideoInput
)

// DeviceInfo describes one enumerated capture device.
type DeviceInfo struct {
	ID    string
	Label string
	Kind  DeviceKind
}

// StreamRequest selects the devices to open. Empty device ids mean the
// corresponding kind is not requested. Zero width/height leaves the video
// resolution unconstrained.
type StreamRequest struct {
	AudioDevice string
	VideoDevice string
	Width       int
	Height      int
}

func (r StreamRequest) empty() bool {
	return r.AudioDevice == "" && r.VideoDevice == ""
}

// CapturedTrack pairs a live track with the dimensions the device settled on
// (zero for audio).
type CapturedTrack struct {
	Track  Track
	Width  int
	Height int
}

// Capture is the result of one successful hardware request.
type Capture struct {
	Audio *CapturedTrack
	Video *CapturedTrack
}

// Provider abstracts the capture hardware so the adapter can be exercised
// without devices. The production implementation sits in hardware.go.
type Provider interface {
	Enumerate() ([]DeviceInfo, error)
	GetUserMedia(req StreamRequest) (*Capture, error)
}
