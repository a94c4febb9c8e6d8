package rtc

import (
	"github.com/pion/webrtc/v4"
)

// CandidateInfo describes one end of the selected ICE candidate pair.
type CandidateInfo struct {
	Type     string
	Address  string
	Port     int32
	Protocol string
}

// CallStats is the one-shot report collected when a call reaches the
// connected state.
type CallStats struct {
	CallID string
	Local  CandidateInfo
	Remote CandidateInfo
}

// collectStats extracts the nominated, succeeded candidate pair from the peer
// connection's stats report. ok is false when no pair has been selected yet.
func collectStats(callID string, pc *webrtc.PeerConnection) (CallStats, bool) {
	report := pc.GetStats()

	for _, s := range report {
		pair, isPair := s.(webrtc.ICECandidatePairStats)
		if !isPair || !pair.Nominated || pair.State != webrtc.StatsICECandidatePairStateSucceeded {
			continue
		}
		local, okL := report[pair.LocalCandidateID].(webrtc.ICECandidateStats)
		remote, okR := report[pair.RemoteCandidateID].(webrtc.ICECandidateStats)
		if !okL || !okR {
			continue
		}
		return CallStats{
			CallID: callID,
			Local:  candidateInfo(local),
			Remote: candidateInfo(remote),
		}, true
	}
	return CallStats{}, false
}

func candidateInfo(s webrtc.ICECandidateStats) CandidateInfo {
	return CandidateInfo{
		Type:     s.CandidateType.String(),
		Address:  s.IP,
		Port:     s.Port,
		Protocol: s.Protocol,
	}
}
