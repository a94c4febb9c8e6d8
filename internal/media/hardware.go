package media

import (
	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pion/webrtc/v4"

	"github.com/upf-gti/admire-sub000/internal/util"
)

const (
	fallbackWidth  = 640
	fallbackHeight = 480
)

// Hardware is the production Provider backed by pion/mediadevices. Captured
// tracks are VP8/Opus encoded so they can be attached to a peer connection
// directly.
type Hardware struct {
	codecSelector *mediadevices.CodecSelector
}

// NewHardware builds the provider with its VP8+Opus codec selector.
func NewHardware() (*Hardware, error) {
	vpxParams, err := vpx.NewVP8Params()
	if err != nil {
		return nil, err
	}
	vpxParams.BitRate = 1_500_000 // 1.5 Mbps

	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, err
	}

	return &Hardware{
		codecSelector: mediadevices.NewCodecSelector(
			mediadevices.WithVideoEncoders(&vpxParams),
			mediadevices.WithAudioEncoders(&opusParams),
		),
	}, nil
}

// Populate registers the selector's codecs on a media engine so negotiated
// SDP matches the encoders producing the tracks.
func (h *Hardware) Populate(engine *webrtc.MediaEngine) {
	h.codecSelector.Populate(engine)
}

// Enumerate lists the capture devices currently visible to the drivers.
func (h *Hardware) Enumerate() ([]DeviceInfo, error) {
	var out []DeviceInfo
	for _, d := range mediadevices.EnumerateDevices() {
		switch d.Kind {
		case mediadevices.AudioInput:
			out = append(out, DeviceInfo{ID: d.DeviceID, Label: d.Label, Kind: AudioInput})
		case mediadevices.VideoInput:
			out = append(out, DeviceInfo{ID: d.DeviceID, Label: d.Label, Kind: VideoInput})
		}
	}
	return out, nil
}

// GetUserMedia opens the requested devices and returns their encoded tracks.
func (h *Hardware) GetUserMedia(req StreamRequest) (*Capture, error) {
	if req.empty() {
		return nil, &DeviceError{Kind: ErrEmptyConstraints}
	}

	constraints := mediadevices.MediaStreamConstraints{Codec: h.codecSelector}
	if req.AudioDevice != "" {
		constraints.Audio = func(c *mediadevices.MediaTrackConstraints) {
			c.DeviceID = prop.StringExact(req.AudioDevice)
		}
	}
	if req.VideoDevice != "" {
		constraints.Video = func(c *mediadevices.MediaTrackConstraints) {
			c.DeviceID = prop.StringExact(req.VideoDevice)
			// Raw formats only — MJPEG nodes can poison the VP8 encoder.
			c.FrameFormat = prop.FrameFormatOneOf{
				frame.FormatYUYV,
				frame.FormatI420,
				frame.FormatI444,
				frame.FormatRGBA,
			}
			if req.Width > 0 {
				c.Width = prop.IntExact(req.Width)
				c.Height = prop.IntExact(req.Height)
			} else {
				c.Width = prop.IntRanged{Max: fallbackWidth}
				c.Height = prop.IntRanged{Max: fallbackHeight}
			}
		}
	}

	stream, err := mediadevices.GetUserMedia(constraints)
	if err != nil {
		return nil, classify(err)
	}

	out := &Capture{}
	for _, track := range stream.GetTracks() {
		track.OnEnded(func(err error) {
			if err != nil {
				util.LogWarning("local track ended: %v", err)
			}
		})
		switch track.Kind() {
		case webrtc.RTPCodecTypeAudio:
			out.Audio = &CapturedTrack{Track: track}
		case webrtc.RTPCodecTypeVideo:
			width, height := req.Width, req.Height
			if width == 0 {
				width, height = fallbackWidth, fallbackHeight
			}
			out.Video = &CapturedTrack{Track: track, Width: width, Height: height}
		}
	}
	return out, nil
}
