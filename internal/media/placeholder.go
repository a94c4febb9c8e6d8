package media

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

// opusSilence is a single Opus frame encoding 20 ms of silence.
var opusSilence = []byte{0xF8, 0xFF, 0xFE}

// placeholderTrack is a locally generated stand-in track used whenever no
// real device is granted: a muted silent audio track or a disabled black
// video track. It keeps the mixed stream at exactly one track per kind.
type placeholderTrack struct {
	*webrtc.TrackLocalStaticSample
	stop chan struct{}
	once sync.Once
}

func (t *placeholderTrack) Close() error {
	t.once.Do(func() { close(t.stop) })
	return nil
}

// newSilentAudioTrack returns an Opus track fed 20 ms silence frames by a
// background generator until Close.
func newSilentAudioTrack() (Track, error) {
	sample, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"placeholder-audio", uuid.NewString(),
	)
	if err != nil {
		return nil, err
	}
	t := &placeholderTrack{TrackLocalStaticSample: sample, stop: make(chan struct{})}

	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				// WriteSample is a no-op while the track is unbound.
				_ = sample.WriteSample(media.Sample{Data: opusSilence, Duration: 20 * time.Millisecond})
			case <-t.stop:
				return
			}
		}
	}()

	return t, nil
}

// newBlackVideoTrack returns a VP8 track that never produces samples. A bound
// track without frames renders black on the remote side, which is exactly the
// disabled-camera presentation.
func newBlackVideoTrack() (Track, error) {
	sample, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
		"placeholder-video", uuid.NewString(),
	)
	if err != nil {
		return nil, err
	}
	return &placeholderTrack{TrackLocalStaticSample: sample, stop: make(chan struct{})}, nil
}
