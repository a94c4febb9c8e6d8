package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide signaling/call counter.
var Stats = &stats{}

type stats struct {
	MsgsSent    atomic.Int64 // cumulative signaling messages written to the channel
	MsgsRecv    atomic.Int64 // cumulative signaling messages read from the channel
	CallsOpened atomic.Int64 // cumulative count of calls negotiated since process start
	CallsClosed atomic.Int64 // cumulative count of calls torn down since process start
}

func (s *stats) AddSent()   { s.MsgsSent.Add(1) }
func (s *stats) AddRecv()   { s.MsgsRecv.Add(1) }
func (s *stats) AddCall()   { s.CallsOpened.Add(1) }
func (s *stats) CloseCall() { s.CallsClosed.Add(1) }

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that logs signaling statistics
// every 10 seconds. It stays quiet while nothing changes and stops when ctx
// is cancelled.
func StartStatsReporter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		var prevSent, prevRecv, prevOpened, prevClosed int64
		for {
			select {
			case <-ticker.C:
				sent := Stats.MsgsSent.Load()
				recv := Stats.MsgsRecv.Load()
				opened := Stats.CallsOpened.Load()
				closed := Stats.CallsClosed.Load()

				dSent := sent - prevSent
				dRecv := recv - prevRecv
				dOpened := opened - prevOpened
				dClosed := closed - prevClosed

				if dSent > 0 || dRecv > 0 || dOpened > 0 || dClosed > 0 {
					pterm.DefaultLogger.Info(formatStats(dSent, dRecv, opened-closed))
				}

				prevSent = sent
				prevRecv = recv
				prevOpened = opened
				prevClosed = closed

			case <-ctx.Done():
				return
			}
		}
	}()
}

// formatStats returns a formatted string of the current stats for display in the logger.
func formatStats(sent, recv, active int64) string {
	return fmt.Sprintf("Out: %4d msg/10s | In: %4d msg/10s | Calls: %2d active", sent, recv, active)
}
