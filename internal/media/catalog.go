// Package media reconciles local capture hardware with the outbound stream.
// It owns device enumeration, constraint negotiation, and the construction of
// the mixed stream (one audio + one video track), substituting placeholder
// tracks whenever a real device is unavailable or deselected.
package media

import (
	"fmt"
	"sort"
)

// DeviceNone is the synthetic catalog entry mapping to the placeholder track.
const DeviceNone = "None"

// ResolutionUndefined is the synthetic entry carrying no width/height
// constraint. It sorts before every real resolution.
const ResolutionUndefined = "Undefined"

// Resolution names a width/height pair. The Undefined entry has zero dims.
type Resolution struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Settings records the currently selected device labels and resolution name.
type Settings struct {
	Audio      string
	Video      string
	Resolution string
}

// Catalog is the enumerated device inventory: label → device id per kind,
// plus the resolution table. It is rebuilt from scratch on every enumeration
// and always includes the "None" entries.
type Catalog struct {
	Audio       map[string]string
	Video       map[string]string
	Resolutions []Resolution
	Settings    Settings
}

// defaultResolutions is the seed table offered before any device reports
// its own dimensions.
func defaultResolutions() []Resolution {
	return []Resolution{
		{Name: ResolutionUndefined},
		{Name: "QVGA", Width: 320, Height: 240},
		{Name: "VGA", Width: 640, Height: 480},
		{Name: "HD", Width: 1280, Height: 720},
		{Name: "FullHD", Width: 1920, Height: 1080},
	}
}

func newCatalog() Catalog {
	return Catalog{
		Audio:       map[string]string{DeviceNone: ""},
		Video:       map[string]string{DeviceNone: ""},
		Resolutions: defaultResolutions(),
		Settings: Settings{
			Audio:      DeviceNone,
			Video:      DeviceNone,
			Resolution: ResolutionUndefined,
		},
	}
}

// resolution looks a table entry up by name.
func (c *Catalog) resolution(name string) (Resolution, bool) {
	for _, r := range c.Resolutions {
		if r.Name == name {
			return r, true
		}
	}
	return Resolution{}, false
}

// hasResolution reports whether a width/height pair is already in the table.
func (c *Catalog) hasResolution(width, height int) bool {
	for _, r := range c.Resolutions {
		if r.Width == width && r.Height == height {
			return true
		}
	}
	return false
}

// insertResolution adds a new pair and re-sorts the table ascending by
// width, keeping the Undefined entry (no width) first.
func (c *Catalog) insertResolution(width, height int) Resolution {
	r := Resolution{Name: fmt.Sprintf("%dx%d", width, height), Width: width, Height: height}
	c.Resolutions = append(c.Resolutions, r)
	sort.SliceStable(c.Resolutions, func(i, j int) bool {
		return sortKey(c.Resolutions[i]) < sortKey(c.Resolutions[j])
	})
	return r
}

// sortKey orders resolutions by width with Undefined treated as -inf.
func sortKey(r Resolution) int {
	if r.Name == ResolutionUndefined {
		return -1 << 30
	}
	return r.Width
}
