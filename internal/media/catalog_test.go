package media

import (
	"testing"
)

// TestInsertResolutionKeepsOrder verifies learned resolutions land in the
// table sorted ascending by width with the Undefined entry first.
func TestInsertResolutionKeepsOrder(t *testing.T) {
	c := newCatalog()

	c.insertResolution(800, 600)
	c.insertResolution(160, 120)

	want := []string{ResolutionUndefined, "160x120", "QVGA", "VGA", "800x600", "HD", "FullHD"}
	if len(c.Resolutions) != len(want) {
		t.Fatalf("table has %d entries, want %d: %v", len(c.Resolutions), len(want), c.Resolutions)
	}
	for i, name := range want {
		if c.Resolutions[i].Name != name {
			t.Errorf("entry %d: got %q, want %q", i, c.Resolutions[i].Name, name)
		}
	}
}

// TestResolutionLookup verifies name lookup and presence checks.
func TestResolutionLookup(t *testing.T) {
	c := newCatalog()

	r, ok := c.resolution("VGA")
	if !ok || r.Width != 640 || r.Height != 480 {
		t.Errorf("VGA lookup: got (%+v, %v)", r, ok)
	}
	if _, ok := c.resolution("8K"); ok {
		t.Error("unknown resolution lookup reported ok")
	}

	if !c.hasResolution(1280, 720) {
		t.Error("hasResolution missed a seed entry")
	}
	if c.hasResolution(123, 456) {
		t.Error("hasResolution matched an absent pair")
	}
}

// TestNewCatalogSeedsNone verifies the synthetic entries every catalog must
// carry.
func TestNewCatalogSeedsNone(t *testing.T) {
	c := newCatalog()

	if _, ok := c.Audio[DeviceNone]; !ok {
		t.Error("audio catalog missing None entry")
	}
	if _, ok := c.Video[DeviceNone]; !ok {
		t.Error("video catalog missing None entry")
	}
	if c.Settings.Audio != DeviceNone || c.Settings.Video != DeviceNone {
		t.Errorf("default settings not None: %+v", c.Settings)
	}
	if c.Settings.Resolution != ResolutionUndefined {
		t.Errorf("default resolution: got %q, want %q", c.Settings.Resolution, ResolutionUndefined)
	}
	if c.Resolutions[0].Name != ResolutionUndefined {
		t.Errorf("first resolution: got %q, want %q", c.Resolutions[0].Name, ResolutionUndefined)
	}
}
