// Admire — CLI entry point.
//
// This tool runs the conferencing client core: it connects to the lobby and
// signaling servers over WebSocket, manages the local capture devices, and
// negotiates WebRTC calls with other participants.
//
// It can be launched interactively (no flags) or non-interactively via CLI
// flags (-user, -password, -room, -call).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"

	"github.com/upf-gti/admire-sub000/internal/app"
	"github.com/upf-gti/admire-sub000/internal/config"
	"github.com/upf-gti/admire-sub000/internal/lobby"
	"github.com/upf-gti/admire-sub000/internal/media"
	"github.com/upf-gti/admire-sub000/internal/protocol"
	"github.com/upf-gti/admire-sub000/internal/rtc"
	"github.com/upf-gti/admire-sub000/internal/util"
)

var version = "dev"

func main() {
	// Root context — cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// CLI flags.
	user := flag.String("user", "", "User id to log in with (empty → interactive prompt or autologin)")
	password := flag.String("password", "", "Password for -user")
	room := flag.String("room", "", "Room to join after login")
	callee := flag.String("call", "", "User id to call once in the room")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Admire — v%s", version))
	pterm.Println()

	cfg, err := config.Load()
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
	if cfg.Debug {
		util.EnableDebug()
	}

	a, err := app.New(cfg)
	if err != nil {
		util.LogError("failed to build client: %v", err)
		os.Exit(1)
	}

	if *user == "" && flag.NFlag() == 0 {
		*user, *password, *room = askSession()
	}

	wireConsole(a, *user, *password, *room, *callee)

	if err := a.Run(ctx); err != nil {
		util.LogError("client stopped: %v", err)
		os.Exit(1)
	}

	util.LogInfo("session closed")
}

// ---------------------------------------------------------------------------
// Console wiring
// ---------------------------------------------------------------------------

// wireConsole subscribes the user-facing log output and drives the scripted
// flow: login → join room → place call, each step gated on the previous
// response.
func wireConsole(a *app.App, user, password, room, callee string) {
	lb := a.Lobby.Bus()

	lb.On(lobby.EventClientConnected, func(...any) {
		if user != "" {
			a.Lobby.Login(user, password)
		}
	})

	lb.On(protocol.MsgLoginResponse, func(args ...any) {
		m, ok := message(args)
		if !ok {
			return
		}
		if !m.OK() {
			util.LogError("login failed: %s", m.Description)
			return
		}
		util.LogSuccess("logged in as %s", a.Lobby.Session().UserID)
		if room != "" {
			a.Lobby.JoinRoom(room)
		}
	})

	lb.On(protocol.MsgAutologinResponse, func(args ...any) {
		m, ok := message(args)
		if !ok || !m.OK() {
			return
		}
		util.LogSuccess("session restored for %s", a.Lobby.Session().UserID)
		if room != "" {
			a.Lobby.JoinRoom(room)
		}
	})

	lb.On(protocol.MsgJoinRoomResponse, func(args ...any) {
		m, ok := message(args)
		if !ok {
			return
		}
		if !m.OK() {
			util.LogError("failed to join room: %s", m.Description)
			return
		}
		util.LogSuccess("joined room %s", a.Lobby.Session().RoomID)
		if callee != "" {
			a.RTC.Call(callee, a.Media.Stream())
		}
	})

	lb.On(protocol.MsgGuestJoinedRoom, func(args ...any) {
		if m, ok := message(args); ok {
			util.LogInfo("%s joined the room", m.UserID)
		}
	})
	lb.On(protocol.MsgGuestLeftRoom, func(args ...any) {
		if m, ok := message(args); ok {
			util.LogInfo("%s left the room", m.UserID)
		}
	})

	rb := a.RTC.Bus()

	rb.On(rtc.EventCallState, func(args ...any) {
		if len(args) < 2 {
			return
		}
		id, _ := args[0].(string)
		state, _ := args[1].(rtc.CallState)
		util.LogInfo("call %s: %s", id, state)
	})

	rb.On(rtc.EventCallStarted, func(args ...any) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				util.LogSuccess("call %s established, media flowing", id)
			}
		}
	})

	rb.On(rtc.EventCallStats, func(args ...any) {
		if len(args) == 0 {
			return
		}
		if s, ok := args[0].(rtc.CallStats); ok {
			util.LogInfo("call %s: local %s %s:%d, remote %s %s:%d",
				s.CallID,
				s.Local.Type, s.Local.Address, s.Local.Port,
				s.Remote.Type, s.Remote.Address, s.Remote.Port)
		}
	})

	mb := a.Media.Bus()

	mb.On(media.EventGotDevices, func(args ...any) {
		if len(args) == 0 {
			return
		}
		if c, ok := args[0].(media.Catalog); ok {
			util.LogInfo("devices: %d audio, %d video", len(c.Audio), len(c.Video))
		}
	})
	mb.On(media.EventErrorStream, func(args ...any) {
		if len(args) > 0 {
			util.LogWarning("media: %v", args[0])
		}
	})
}

func message(args []any) (*protocol.Message, bool) {
	if len(args) == 0 {
		return nil, false
	}
	m, ok := args[0].(*protocol.Message)
	return m, ok
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

// askSession prompts for credentials and an optional room when no flags are
// given. An empty user id means rely on autologin.
func askSession() (user, password, room string) {
	user, _ = pterm.DefaultInteractiveTextInput.
		WithDefaultText("User id (empty → stored session)").
		Show()
	user = strings.TrimSpace(user)

	if user != "" {
		password, _ = pterm.DefaultInteractiveTextInput.
			WithMask("*").
			WithDefaultText("Password").
			Show()
	}

	room, _ = pterm.DefaultInteractiveTextInput.
		WithDefaultText("Room to join (optional)").
		Show()
	room = strings.TrimSpace(room)

	pterm.Println()
	return user, password, room
}
