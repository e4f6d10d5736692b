//go:build !windows

package system

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/oops"
	"golang.org/x/sys/unix"
)

// TaskCounter reports in-flight jobs.
type TaskCounter interface {
	Len() int
}

// RelayCounter reports how many posts were relayed.
type RelayCounter interface {
	Count() (int, error)
}

// UserCounter reports known and recently active users.
type UserCounter interface {
	Activity(window time.Duration) (total, active int, err error)
}

// ActiveWindow is the span a user counts as active in /stats.
const ActiveWindow = 24 * time.Hour

// Snapshot is the process state shown by /stats.
type Snapshot struct {
	Uptime     time.Duration
	DiskTotal  uint64
	DiskUsed   uint64
	DiskFree   uint64
	HeapInUse  uint64
	Goroutines int
	Tasks      int
	Relayed    int
	Users      int
	Active     int
}

// Stats collects snapshots for the working directory.
type Stats struct {
	started time.Time
	dir     string
	tasks   TaskCounter
	relays  RelayCounter
	users   UserCounter
}

func New(started time.Time, dir string, tasks TaskCounter, relays RelayCounter, users UserCounter) *Stats {
	return &Stats{started: started, dir: dir, tasks: tasks, relays: relays, users: users}
}

// Uptime since the process started.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.started)
}

// Snapshot reads disk, memory and job counters. Disk errors are returned with
// the rest of the snapshot filled in.
func (s *Stats) Snapshot() (Snapshot, error) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	snap := Snapshot{
		Uptime:     s.Uptime(),
		HeapInUse:  mem.HeapInuse,
		Goroutines: runtime.NumGoroutine(),
	}
	if s.tasks != nil {
		snap.Tasks = s.tasks.Len()
	}
	if s.relays != nil {
		if n, err := s.relays.Count(); err == nil {
			snap.Relayed = n
		}
	}
	if s.users != nil {
		if total, active, err := s.users.Activity(ActiveWindow); err == nil {
			snap.Users, snap.Active = total, active
		}
	}

	total, free, err := DiskUsage(s.dir)
	if err != nil {
		return snap, err
	}
	snap.DiskTotal, snap.DiskFree, snap.DiskUsed = total, free, total-free
	return snap, nil
}

// DiskUsage returns total and available bytes of the filesystem holding dir.
func DiskUsage(dir string) (total, free uint64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, 0, oops.With("dir", dir, "context", "failed to stat filesystem").Wrap(err)
	}
	bsize := uint64(st.Bsize)
	return st.Blocks * bsize, st.Bavail * bsize, nil
}

// Render formats a snapshot for a chat reply.
func Render(s Snapshot) string {
	var b strings.Builder
	b.WriteString("≧◉◡◉≦ Bot is Up and Running successfully.\n\n")
	fmt.Fprintf(&b, "➜ Bot Uptime: %s\n", FormatUptime(s.Uptime))
	fmt.Fprintf(&b, "➜ Total Disk Space: %s\n", size(s.DiskTotal))
	fmt.Fprintf(&b, "➜ Used: %s\n", size(s.DiskUsed))
	fmt.Fprintf(&b, "➜ Free: %s\n", size(s.DiskFree))
	fmt.Fprintf(&b, "➜ Memory Usage: %d MiB\n\n", s.HeapInUse/(1024*1024))
	fmt.Fprintf(&b, "➜ Goroutines: %d\n", s.Goroutines)
	fmt.Fprintf(&b, "➜ Running tasks: %d\n", s.Tasks)
	fmt.Fprintf(&b, "➜ Relayed posts: %d\n", s.Relayed)
	fmt.Fprintf(&b, "➜ Users: %d (%d active today)", s.Users, s.Active)
	return b.String()
}

func size(n uint64) string {
	return humanize.IBytes(n)
}

// FormatUptime renders d as H:MM:SS, with a day prefix past 24h.
func FormatUptime(d time.Duration) string {
	d = d.Truncate(time.Second)
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	h, m, sec := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if days > 0 {
		return fmt.Sprintf("%d day(s), %d:%02d:%02d", days, h, m, sec)
	}
	return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
}

// PingColor grades a round trip.
func PingColor(rtt time.Duration) string {
	switch {
	case rtt < 100*time.Millisecond:
		return "🟢"
	case rtt < 250*time.Millisecond:
		return "🟡"
	default:
		return "🔴"
	}
}

// RenderPing formats the /ping reply.
func RenderPing(rtt, uptime time.Duration) string {
	ms := float64(rtt.Microseconds()) / 1000
	return fmt.Sprintf("🏓 PONG!\n\n%s Ping: %.2f ms\n⏱️ Uptime: %s\n\n⚙️ Bot Status: Online & Stable",
		PingColor(rtt), ms, FormatUptime(uptime))
}
