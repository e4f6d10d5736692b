package domain

// DefaultText is the built-in progress template.
const DefaultText = `{status_emoji} {status_message}
[{bar}] {percentage}%
➜ Progress: {current} of {total}
➜ Speed: {speed}/s
➜ Elapsed: {elapsed} | ETA: {eta}`

// MaxLength bounds a template so a rendered progress message fits in one Telegram message.
const MaxLength = 3000

// Placeholders understood by the progress renderer.
var Placeholders = []string{
	"bar",
	"percentage",
	"current",
	"total",
	"speed",
	"elapsed",
	"eta",
	"status_emoji",
	"status_message",
}

// Config is the progress rendering configuration handed to every progress callback.
type Config struct {
	Text string
}

// DefaultConfig returns the built-in template.
func DefaultConfig() Config {
	return Config{Text: DefaultText}
}

// Origin tells which tier the active template came from.
type Origin string

const (
	OriginMemory  Origin = "memory"
	OriginFile    Origin = "file"
	OriginDefault Origin = "default"
)
