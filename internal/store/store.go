// Package store persists small client preferences (auth token, last selected
// device labels) in two redundant locations: an ephemeral in-memory store and
// a durable SQLite-backed one. A restart in the same process recovers from
// memory; a fresh process recovers from disk.
package store

// Well-known keys.
const (
	KeyToken       = "token"
	KeyAudioDevice = "audio_device"
	KeyVideoDevice = "video_device"
)

// Store is a flat string key/value store. Get returns ok=false for absent keys.
type Store interface {
	Get(key string) (value string, ok bool)
	Set(key, value string) error
	Delete(key string) error
}

// Dual writes through to both stores, reads the ephemeral one first, and
// deletes from both. Either side may be nil-free but both are required —
// redundancy is the point.
type Dual struct {
	Ephemeral Store
	Durable   Store
}

func NewDual(ephemeral, durable Store) *Dual {
	return &Dual{Ephemeral: ephemeral, Durable: durable}
}

func (d *Dual) Get(key string) (string, bool) {
	if v, ok := d.Ephemeral.Get(key); ok {
		return v, true
	}
	return d.Durable.Get(key)
}

func (d *Dual) Set(key, value string) error {
	if err := d.Ephemeral.Set(key, value); err != nil {
		return err
	}
	return d.Durable.Set(key, value)
}

func (d *Dual) Delete(key string) error {
	if err := d.Ephemeral.Delete(key); err != nil {
		return err
	}
	return d.Durable.Delete(key)
}
