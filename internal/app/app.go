// Package app assembles the client core: configuration, preference stores,
// the media adapter, and the lobby and RTC clients, each on its own event bus.
package app

import (
	"context"
	"fmt"

	"github.com/upf-gti/admire-sub000/internal/config"
	"github.com/upf-gti/admire-sub000/internal/event"
	"github.com/upf-gti/admire-sub000/internal/lobby"
	"github.com/upf-gti/admire-sub000/internal/media"
	"github.com/upf-gti/admire-sub000/internal/protocol"
	"github.com/upf-gti/admire-sub000/internal/rtc"
	"github.com/upf-gti/admire-sub000/internal/store"
	"github.com/upf-gti/admire-sub000/internal/util"
)

// App owns every long-lived component of the client core and the order they
// are built and torn down in.
type App struct {
	Config *config.Config
	Prefs  *store.Dual
	Media  *media.Adapter
	Lobby  *lobby.Client
	RTC    *rtc.Client

	durable *store.SQLite
}

// New builds the full component graph from configuration. Nothing connects
// yet; Run drives the lifecycle.
func New(cfg *config.Config) (*App, error) {
	durable, err := store.OpenSQLite(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("open preference store: %w", err)
	}
	prefs := store.NewDual(store.NewMemory(), durable)

	hardware, err := media.NewHardware()
	if err != nil {
		durable.Close()
		return nil, fmt.Errorf("init media hardware: %w", err)
	}
	adapter, err := media.NewAdapter(event.NewBus(), hardware, prefs)
	if err != nil {
		durable.Close()
		return nil, fmt.Errorf("init media adapter: %w", err)
	}

	return &App{
		Config:  cfg,
		Prefs:   prefs,
		Media:   adapter,
		Lobby:   lobby.NewClient(event.NewBus(), prefs),
		RTC:     rtc.NewClient(event.NewBus(), hardware, cfg.STUNServers, cfg.HeartbeatInterval),
		durable: durable,
	}, nil
}

// Run connects both clients, primes the media devices, and bridges the lobby
// session into RTC registration. It blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.Media.FindDevices(); err != nil {
		util.LogWarning("device enumeration failed: %v", err)
	}
	a.Media.SetDefaultDevices()

	if err := a.Lobby.Connect(ctx, a.Config.LobbyURL); err != nil {
		return err
	}
	if err := a.RTC.Connect(ctx, a.Config.RTCURL); err != nil {
		a.Lobby.Close()
		return err
	}

	a.bridgeSession()
	util.StartStatsReporter(ctx)

	if err := a.Lobby.Autologin(); err != nil {
		util.LogInfo("no stored session, waiting for login")
	}

	<-ctx.Done()
	a.Close()
	return nil
}

// bridgeSession registers with the RTC server whenever the lobby confirms an
// authenticated session, and answers incoming calls with the current stream.
func (a *App) bridgeSession() {
	onAuth := func(args ...any) {
		m, ok := firstMessage(args)
		if !ok || !m.OK() {
			return
		}
		s := a.Lobby.Session()
		a.RTC.Register(s.UserID, s.Token)
	}
	a.Lobby.Bus().On(protocol.MsgLoginResponse, onAuth)
	a.Lobby.Bus().On(protocol.MsgAutologinResponse, onAuth)

	a.RTC.Bus().On(protocol.MsgIncomingCall, func(args ...any) {
		m, ok := firstMessage(args)
		if !ok {
			return
		}
		util.LogInfo("incoming call %s from %s", m.CallID, m.CallerID)
		a.RTC.AcceptCall(m.CallID, m.CallerID, a.Media.Stream())
	})
}

func firstMessage(args []any) (*protocol.Message, bool) {
	if len(args) == 0 {
		return nil, false
	}
	m, ok := args[0].(*protocol.Message)
	return m, ok
}

// Close tears components down in reverse dependency order. Safe to call more
// than once.
func (a *App) Close() {
	a.RTC.Close()
	a.Lobby.Close()
	a.Media.Close()
	if a.durable != nil {
		_ = a.durable.Close()
		a.durable = nil
	}
}
