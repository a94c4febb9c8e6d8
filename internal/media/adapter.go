package media

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/upf-gti/admire-sub000/internal/event"
	"github.com/upf-gti/admire-sub000/internal/store"
	"github.com/upf-gti/admire-sub000/internal/util"
)

// Events emitted on the adapter's bus.
const (
	EventGotDevices     = "got_devices"
	EventGotResolutions = "got_resolutions"
	EventGotStream      = "got_stream"
	EventErrorDevices   = "error_devices"
	EventErrorStream    = "error_stream"
)

// Validation errors, reported synchronously before any hardware request.
var (
	ErrUnknownDevice      = errors.New("device not present in catalog")
	ErrUnknownResolution  = errors.New("resolution not present in catalog")
	ErrRedundantSelection = errors.New("device and resolution already selected")
)

// MixedStream is the derived outbound stream: exactly one audio and one video
// track, each either a granted device or a placeholder. It is recomputed
// whenever an underlying track changes, never stored across changes.
type MixedStream struct {
	Audio Track
	Video Track
}

// Tracks returns the stream's tracks for attachment to a peer connection.
func (s MixedStream) Tracks() []webrtc.TrackLocal {
	return []webrtc.TrackLocal{s.Audio, s.Video}
}

// Adapter keeps the device catalog consistent with the live tracks and
// exposes the current MixedStream. All mutation goes through its mutex; the
// bus listeners run on the mutating goroutine.
type Adapter struct {
	bus      *event.Bus
	provider Provider
	prefs    store.Store

	mu           sync.Mutex
	catalog      Catalog
	audio        Track
	video        Track
	lastAudioReq StreamRequest
	lastVideoReq StreamRequest
}

// NewAdapter builds an adapter whose stream starts as pure placeholders, so a
// valid MixedStream exists even with zero permitted devices.
func NewAdapter(bus *event.Bus, provider Provider, prefs store.Store) (*Adapter, error) {
	audio, err := newSilentAudioTrack()
	if err != nil {
		return nil, err
	}
	video, err := newBlackVideoTrack()
	if err != nil {
		audio.Close()
		return nil, err
	}
	return &Adapter{
		bus:      bus,
		provider: provider,
		prefs:    prefs,
		catalog:  newCatalog(),
		audio:    audio,
		video:    video,
	}, nil
}

// Bus returns the adapter's event bus.
func (a *Adapter) Bus() *event.Bus { return a.bus }

// Stream returns the current mixed stream.
func (a *Adapter) Stream() MixedStream {
	a.mu.Lock()
	defer a.mu.Unlock()
	return MixedStream{Audio: a.audio, Video: a.video}
}

// Catalog returns a snapshot of the current device catalog.
func (a *Adapter) Catalog() Catalog {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot()
}

// snapshot copies the catalog maps so listeners cannot alias internal state.
// Callers must hold a.mu.
func (a *Adapter) snapshot() Catalog {
	c := Catalog{
		Audio:       make(map[string]string, len(a.catalog.Audio)),
		Video:       make(map[string]string, len(a.catalog.Video)),
		Resolutions: append([]Resolution(nil), a.catalog.Resolutions...),
		Settings:    a.catalog.Settings,
	}
	for k, v := range a.catalog.Audio {
		c.Audio[k] = v
	}
	for k, v := range a.catalog.Video {
		c.Video[k] = v
	}
	return c
}

// FindDevices re-enumerates the hardware, rebuilds the catalog (seeding the
// "None" entries), resets selections whose label disappeared, and emits the
// new catalog and resolution table.
func (a *Adapter) FindDevices() error {
	devices, err := a.provider.Enumerate()
	if err != nil {
		de := classify(err)
		a.bus.Emit(EventErrorDevices, de.Message())
		return de
	}

	a.mu.Lock()
	resolutions := a.catalog.Resolutions // learned entries survive a rebuild
	settings := a.catalog.Settings
	a.catalog = newCatalog()
	a.catalog.Resolutions = resolutions
	for _, d := range devices {
		switch d.Kind {
		case AudioInput:
			a.catalog.Audio[d.Label] = d.ID
		case VideoInput:
			a.catalog.Video[d.Label] = d.ID
		}
	}
	// Stale selections reset to "None" so Settings always index the catalog.
	if _, ok := a.catalog.Audio[settings.Audio]; ok {
		a.catalog.Settings.Audio = settings.Audio
	}
	if _, ok := a.catalog.Video[settings.Video]; ok {
		a.catalog.Settings.Video = settings.Video
	}
	if _, ok := a.catalog.resolution(settings.Resolution); ok {
		a.catalog.Settings.Resolution = settings.Resolution
	}
	snap := a.snapshot()
	a.mu.Unlock()

	a.bus.Emit(EventGotDevices, snap)
	a.bus.Emit(EventGotResolutions, snap.Resolutions)
	return nil
}

// SetAudio selects an audio device by catalog label. "None" swaps in the
// silent placeholder synchronously; a real label issues a hardware request.
func (a *Adapter) SetAudio(label string) error {
	a.mu.Lock()
	id, ok := a.catalog.Audio[label]
	if !ok {
		a.mu.Unlock()
		return ErrUnknownDevice
	}

	if label == DeviceNone {
		if err := a.swapAudioLocked(nil); err != nil {
			a.mu.Unlock()
			return err
		}
		a.catalog.Settings.Audio = DeviceNone
		a.lastAudioReq = StreamRequest{}
		stream := MixedStream{Audio: a.audio, Video: a.video}
		a.mu.Unlock()

		a.persist(store.KeyAudioDevice, DeviceNone)
		a.bus.Emit(EventGotStream, stream)
		return nil
	}
	prev := a.lastAudioReq
	a.mu.Unlock()

	req := StreamRequest{AudioDevice: id}
	grant, err := a.provider.GetUserMedia(req)
	if err != nil {
		de := classify(err)
		a.bus.Emit(EventErrorStream, de.Message())
		a.recoverAudio(prev)
		return de
	}

	a.mu.Lock()
	if err := a.swapAudioLocked(grant.Audio.Track); err != nil {
		a.mu.Unlock()
		return err
	}
	a.catalog.Settings.Audio = label
	a.lastAudioReq = req
	stream := MixedStream{Audio: a.audio, Video: a.video}
	a.mu.Unlock()

	a.persist(store.KeyAudioDevice, label)
	a.bus.Emit(EventGotStream, stream)
	return nil
}

// SetVideo selects a video device and resolution by catalog keys. Requests
// identical to the current selection are rejected locally so no redundant
// hardware negotiation happens.
func (a *Adapter) SetVideo(label, resolution string) error {
	a.mu.Lock()
	id, ok := a.catalog.Video[label]
	if !ok {
		a.mu.Unlock()
		return ErrUnknownDevice
	}
	res, ok := a.catalog.resolution(resolution)
	if !ok {
		a.mu.Unlock()
		return ErrUnknownResolution
	}
	if label == a.catalog.Settings.Video && resolution == a.catalog.Settings.Resolution {
		a.mu.Unlock()
		return ErrRedundantSelection
	}

	if label == DeviceNone {
		if err := a.swapVideoLocked(nil); err != nil {
			a.mu.Unlock()
			return err
		}
		a.catalog.Settings.Video = DeviceNone
		a.catalog.Settings.Resolution = resolution
		a.lastVideoReq = StreamRequest{}
		stream := MixedStream{Audio: a.audio, Video: a.video}
		a.mu.Unlock()

		a.persist(store.KeyVideoDevice, DeviceNone)
		a.bus.Emit(EventGotStream, stream)
		return nil
	}
	prev := a.lastVideoReq
	a.mu.Unlock()

	req := StreamRequest{VideoDevice: id, Width: res.Width, Height: res.Height}
	grant, err := a.provider.GetUserMedia(req)
	if err != nil {
		de := classify(err)
		a.bus.Emit(EventErrorStream, de.Message())
		a.recoverVideo(prev)
		return de
	}

	a.mu.Lock()
	if err := a.swapVideoLocked(grant.Video.Track); err != nil {
		a.mu.Unlock()
		return err
	}
	a.catalog.Settings.Video = label
	a.catalog.Settings.Resolution = resolution
	a.lastVideoReq = req

	var newRes []Resolution
	if w, h := grant.Video.Width, grant.Video.Height; w > 0 && !a.catalog.hasResolution(w, h) {
		a.catalog.insertResolution(w, h)
		newRes = append([]Resolution(nil), a.catalog.Resolutions...)
	}
	stream := MixedStream{Audio: a.audio, Video: a.video}
	a.mu.Unlock()

	a.persist(store.KeyVideoDevice, label)
	if newRes != nil {
		a.bus.Emit(EventGotResolutions, newRes)
	}
	a.bus.Emit(EventGotStream, stream)
	return nil
}

// SetDefaultDevices applies the persisted device preferences on startup,
// audio before video. Labels that no longer exist fall back to "None" and
// have their persisted value cleared; if either selection fails, video is
// forced to "None" so the session always ends with a valid stream.
func (a *Adapter) SetDefaultDevices() {
	audioLabel := a.persistedLabel(store.KeyAudioDevice, true)
	videoLabel := a.persistedLabel(store.KeyVideoDevice, false)

	audioErr := a.SetAudio(audioLabel)
	if audioErr != nil {
		util.LogWarning("default audio device %q failed: %v", audioLabel, audioErr)
		_ = a.SetAudio(DeviceNone)
		videoLabel = DeviceNone
	}

	if err := a.setVideoDefault(videoLabel); err != nil {
		util.LogWarning("default video device %q failed: %v", videoLabel, err)
		_ = a.setVideoDefault(DeviceNone)
	}
}

func (a *Adapter) setVideoDefault(label string) error {
	err := a.SetVideo(label, ResolutionUndefined)
	if errors.Is(err, ErrRedundantSelection) {
		return nil
	}
	return err
}

// persistedLabel resolves a stored device label against the catalog, clearing
// entries that no longer name a present device.
func (a *Adapter) persistedLabel(key string, audio bool) string {
	label, ok := a.prefs.Get(key)
	if !ok {
		return DeviceNone
	}
	a.mu.Lock()
	var present bool
	if audio {
		_, present = a.catalog.Audio[label]
	} else {
		_, present = a.catalog.Video[label]
	}
	a.mu.Unlock()
	if !present {
		if err := a.prefs.Delete(key); err != nil {
			util.LogWarning("failed to clear stale preference %s: %v", key, err)
		}
		return DeviceNone
	}
	return label
}

// recoverAudio retries once with the previous constraint set after a failed
// request, so the stream keeps its last working source.
func (a *Adapter) recoverAudio(prev StreamRequest) {
	if prev.empty() {
		return
	}
	grant, err := a.provider.GetUserMedia(prev)
	if err != nil {
		util.LogWarning("audio recovery failed: %v", err)
		return
	}
	a.mu.Lock()
	_ = a.swapAudioLocked(grant.Audio.Track)
	stream := MixedStream{Audio: a.audio, Video: a.video}
	a.mu.Unlock()
	a.bus.Emit(EventGotStream, stream)
}

func (a *Adapter) recoverVideo(prev StreamRequest) {
	if prev.empty() {
		return
	}
	grant, err := a.provider.GetUserMedia(prev)
	if err != nil {
		util.LogWarning("video recovery failed: %v", err)
		return
	}
	a.mu.Lock()
	_ = a.swapVideoLocked(grant.Video.Track)
	stream := MixedStream{Audio: a.audio, Video: a.video}
	a.mu.Unlock()
	a.bus.Emit(EventGotStream, stream)
}

// swapAudioLocked replaces the audio track, closing the old one. A nil next
// track swaps in a fresh silent placeholder. Callers must hold a.mu.
func (a *Adapter) swapAudioLocked(next Track) error {
	if next == nil {
		placeholder, err := newSilentAudioTrack()
		if err != nil {
			return err
		}
		next = placeholder
	}
	if a.audio != nil {
		_ = a.audio.Close()
	}
	a.audio = next
	return nil
}

func (a *Adapter) swapVideoLocked(next Track) error {
	if next == nil {
		placeholder, err := newBlackVideoTrack()
		if err != nil {
			return err
		}
		next = placeholder
	}
	if a.video != nil {
		_ = a.video.Close()
	}
	a.video = next
	return nil
}

func (a *Adapter) persist(key, label string) {
	if err := a.prefs.Set(key, label); err != nil {
		util.LogWarning("failed to persist %s: %v", key, err)
	}
}

// Close releases both current tracks.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.audio != nil {
		_ = a.audio.Close()
	}
	if a.video != nil {
		_ = a.video.Close()
	}
}
