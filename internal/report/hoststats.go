package report

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/net"
)

// HostSnapshot is a point-in-time host network counter reading, plus the
// send/receive rate computed against a prior snapshot when one is given.
type HostSnapshot struct {
	BytesSent     uint64    `json:"bytes_sent"`
	BytesRecv     uint64    `json:"bytes_recv"`
	SendRateBps   float64   `json:"send_rate_bps"`
	RecvRateBps   float64   `json:"recv_rate_bps"`
	CapturedAt    time.Time `json:"captured_at"`
}

// CollectHostSnapshot reads aggregate host network IO counters via
// gopsutil. If prev is non-nil, the rate fields are computed against it;
// otherwise they are left zero.
func CollectHostSnapshot(ctx context.Context, prev *HostSnapshot) (*HostSnapshot, error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	snap := &HostSnapshot{CapturedAt: time.Now()}
	if len(counters) > 0 {
		snap.BytesSent = counters[0].BytesSent
		snap.BytesRecv = counters[0].BytesRecv
	}

	if prev != nil {
		elapsed := snap.CapturedAt.Sub(prev.CapturedAt).Seconds()
		if elapsed > 0 {
			snap.SendRateBps = float64(snap.BytesSent-prev.BytesSent) / elapsed
			snap.RecvRateBps = float64(snap.BytesRecv-prev.BytesRecv) / elapsed
		}
	}

	return snap, nil
}
