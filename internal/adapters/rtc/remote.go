package rtc

import (
	"context"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/Voice/internal/client"
)

// A peer that sends nothing for this long counts as silent. Muted tracks and
// Opus DTX both stop the packet flow instead of sending quiet frames.
const remoteStaleAfter = 2 * client.DefaultActivityInterval

// remoteMeter keeps the level of the newest packet and when it arrived.
type remoteMeter struct {
	mu    sync.Mutex
	level float64
	at    time.Time
}

func (m *remoteMeter) packet(payload int) {
	m.mu.Lock()
	m.level = levelFromSize(payload)
	m.at = time.Now()
	m.mu.Unlock()
}

func (m *remoteMeter) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.at.IsZero() || time.Since(m.at) > remoteStaleAfter {
		return 0
	}
	return m.level
}

// drainRemote reads the remote audio track until it ends and reports
// whether the peer is currently sending speech. The detector is sampled on
// a ticker so silence is noticed even when no packets arrive.
func drainRemote(ctx context.Context, read func([]byte) (int, error), onActive func(bool)) {
	report := func(active bool) {
		if onActive != nil {
			onActive(active)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	var meter remoteMeter
	var wg conc.WaitGroup
	wg.Go(func() {
		det := client.NewActivityDetector(client.DefaultActivityThreshold, client.DefaultActivityHold)
		det.Run(ctx, client.DefaultActivityInterval, meter.Level, report)
	})
	defer func() {
		cancel()
		wg.Wait()
	}()

	buf := make([]byte, 1500)
	var pkt rtp.Packet
	for {
		n, err := read(buf)
		if err != nil || ctx.Err() != nil {
			return
		}
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			continue
		}
		meter.packet(len(pkt.Payload))
	}
}
