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

// Stats is the process-wide signaling counter.
var Stats = &stats{}

type stats struct {
	Joins     atomic.Int64 // participants registered since process start
	Leaves    atomic.Int64 // participants removed since process start
	MsgsSent  atomic.Int64 // signaling messages written
	MsgsRecv  atomic.Int64 // signaling messages read
	BytesSent atomic.Int64 // signaling bytes written
	BytesRecv atomic.Int64 // signaling bytes read
}

func (s *stats) AddJoin()  { s.Joins.Add(1) }
func (s *stats) AddLeave() { s.Leaves.Add(1) }

func (s *stats) AddSent(n int) {
	s.MsgsSent.Add(1)
	s.BytesSent.Add(int64(n))
}

func (s *stats) AddRecv(n int) {
	s.MsgsRecv.Add(1)
	s.BytesRecv.Add(int64(n))
}

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

const reportInterval = 10 * time.Second

// StartStatsReporter launches a goroutine that logs signaling statistics
// every 10 seconds while there is activity. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(reportInterval)
		defer ticker.Stop()

		var prev snapshot
		for {
			select {
			case <-ticker.C:
				cur := Stats.snapshot()
				if d := cur.sub(prev); d.active() {
					pterm.DefaultLogger.Info(d.String())
				}
				prev = cur
			case <-ctx.Done():
				return
			}
		}
	}()
}

type snapshot struct {
	joins, leaves     int64
	msgsOut, msgsIn   int64
	bytesOut, bytesIn int64
}

func (s *stats) snapshot() snapshot {
	return snapshot{
		joins:    s.Joins.Load(),
		leaves:   s.Leaves.Load(),
		msgsOut:  s.MsgsSent.Load(),
		msgsIn:   s.MsgsRecv.Load(),
		bytesOut: s.BytesSent.Load(),
		bytesIn:  s.BytesRecv.Load(),
	}
}

func (s snapshot) sub(o snapshot) snapshot {
	return snapshot{
		joins:    s.joins - o.joins,
		leaves:   s.leaves - o.leaves,
		msgsOut:  s.msgsOut - o.msgsOut,
		msgsIn:   s.msgsIn - o.msgsIn,
		bytesOut: s.bytesOut - o.bytesOut,
		bytesIn:  s.bytesIn - o.bytesIn,
	}
}

func (s snapshot) active() bool {
	return s.joins > 0 || s.leaves > 0 || s.msgsOut > 0 || s.msgsIn > 0
}

// String renders one report line, e.g.
// "Msgs: 12↑ 9↓ | Bytes:  3.1 KiB↑  2.0 KiB↓ | Peers:  1+  0-".
func (s snapshot) String() string {
	return fmt.Sprintf("Msgs: %d↑ %d↓ | Bytes: %s↑ %s↓ | Peers: %2d+ %2d-",
		s.msgsOut, s.msgsIn,
		formatBytes(float64(s.bytesOut)), formatBytes(float64(s.bytesIn)),
		s.joins, s.leaves,
	)
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count with a fixed width of 8 characters,
// for example "99.0   B", " 1.5 KiB" or "98.9 GiB".
func formatBytes(b float64) string {
	unitIdx := 0
	for b > 99 && unitIdx < len(byteUnits)-1 {
		b /= 1024
		unitIdx++
	}
	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}
