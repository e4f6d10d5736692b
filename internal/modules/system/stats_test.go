//go:build !windows

package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedTasks int

func (f fixedTasks) Len() int { return int(f) }

type fixedRelays int

func (f fixedRelays) Count() (int, error) { return int(f), nil }

type fixedUsers [2]int

func (f fixedUsers) Activity(time.Duration) (int, int, error) { return f[0], f[1], nil }

func TestSnapshot(t *testing.T) {
	s := New(time.Now().Add(-time.Minute), t.TempDir(), fixedTasks(2), fixedRelays(9), fixedUsers{5, 3})

	snap, err := s.Snapshot()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, snap.Uptime, time.Minute)
	assert.Positive(t, snap.DiskTotal)
	assert.Equal(t, snap.DiskTotal, snap.DiskUsed+snap.DiskFree)
	assert.Equal(t, 2, snap.Tasks)
	assert.Equal(t, 9, snap.Relayed)
	assert.Positive(t, snap.Goroutines)
	assert.Equal(t, 5, snap.Users)
	assert.Equal(t, 3, snap.Active)
	assert.Contains(t, Render(snap), "➜ Relayed posts: 9")
	assert.Contains(t, Render(snap), "➜ Users: 5 (3 active today)")
}

func TestDiskUsageMissingDir(t *testing.T) {
	_, _, err := DiskUsage("/definitely/not/here")
	assert.Error(t, err)
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0:00:05", FormatUptime(5*time.Second))
	assert.Equal(t, "1:02:03", FormatUptime(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "2 day(s), 0:00:01", FormatUptime(48*time.Hour+time.Second))
}

func TestPingColor(t *testing.T) {
	assert.Equal(t, "🟢", PingColor(99*time.Millisecond))
	assert.Equal(t, "🟡", PingColor(100*time.Millisecond))
	assert.Equal(t, "🟡", PingColor(249*time.Millisecond))
	assert.Equal(t, "🔴", PingColor(250*time.Millisecond))
	assert.Contains(t, RenderPing(42*time.Millisecond, time.Minute), "Ping: 42.00 ms")
}
