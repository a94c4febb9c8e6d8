package rtc

import (
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"

	"github.com/upf-gti/admire-sub000/internal/protocol"
)

// CodecProvider registers the codecs produced by the local capture pipeline
// on a media engine, so negotiated SDP matches the encoders feeding the
// tracks. media.Hardware satisfies it; tests leave it nil and get the
// defaults.
type CodecProvider interface {
	Populate(*webrtc.MediaEngine)
}

// newPeerConnection assembles a peer connection with the client's media
// engine and the ICE servers delivered at registration time.
func (c *Client) newPeerConnection() (*webrtc.PeerConnection, error) {
	engine := &webrtc.MediaEngine{}
	if c.codecs != nil {
		c.codecs.Populate(engine)
	} else if err := engine.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(engine, registry); err != nil {
		return nil, err
	}

	// Generous ICE timeouts so a brief NAT/relay hiccup does not immediately
	// terminate the call.
	se := webrtc.SettingEngine{}
	se.SetICETimeouts(30*time.Second, 120*time.Second, 2*time.Second)

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(engine),
		webrtc.WithInterceptorRegistry(registry),
		webrtc.WithSettingEngine(se),
	)

	return api.NewPeerConnection(webrtc.Configuration{
		ICEServers: c.currentICEServers(),
	})
}

// currentICEServers converts the servers from register_response, falling back
// to the configured STUN set when registration carried none.
func (c *Client) currentICEServers() []webrtc.ICEServer {
	c.mu.Lock()
	servers := append([]protocol.ICEServer(nil), c.iceServers...)
	c.mu.Unlock()

	if len(servers) == 0 {
		if len(c.stunServers) == 0 {
			return nil
		}
		return []webrtc.ICEServer{{URLs: c.stunServers}}
	}
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		out = append(out, webrtc.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	return out
}
