package rtc

import (
	"testing"

	"github.com/pion/webrtc/v4"
)

// TestCandidateInfo verifies the stats report carries readable candidate
// fields, in particular the textual candidate type rather than its numeric
// code.
func TestCandidateInfo(t *testing.T) {
	testCases := []struct {
		name     string
		stats    webrtc.ICECandidateStats
		wantType string
	}{
		{
			name: "host candidate",
			stats: webrtc.ICECandidateStats{
				CandidateType: webrtc.ICECandidateTypeHost,
				IP:            "192.0.2.1",
				Port:          54321,
				Protocol:      "udp",
			},
			wantType: "host",
		},
		{
			name: "server reflexive candidate",
			stats: webrtc.ICECandidateStats{
				CandidateType: webrtc.ICECandidateTypeSrflx,
				IP:            "198.51.100.7",
				Port:          3478,
				Protocol:      "udp",
			},
			wantType: "srflx",
		},
		{
			name: "relay candidate",
			stats: webrtc.ICECandidateStats{
				CandidateType: webrtc.ICECandidateTypeRelay,
				IP:            "203.0.113.9",
				Port:          3478,
				Protocol:      "tcp",
			},
			wantType: "relay",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := candidateInfo(tc.stats)
			if got.Type != tc.wantType {
				t.Errorf("candidate type: got %q, want %q", got.Type, tc.wantType)
			}
			if got.Address != tc.stats.IP || got.Port != tc.stats.Port || got.Protocol != tc.stats.Protocol {
				t.Errorf("candidate fields: got %+v, want %s:%d/%s",
					got, tc.stats.IP, tc.stats.Port, tc.stats.Protocol)
			}
		})
	}
}
