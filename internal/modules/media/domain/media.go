package domain

const (
	DefaultThumbWidth  = 480
	DefaultThumbHeight = 320
)

// MediaInfo is the container metadata reported by the probe tool.
// Empty Artist or Title means the tag was absent.
type MediaInfo struct {
	Duration int
	Artist   string
	Title    string
}

// ThumbnailHandle describes the thumbnail attached to a video upload.
type ThumbnailHandle struct {
	Path   string
	Width  int
	Height int
	Origin ThumbnailOrigin
}

// NoThumbnail is the degraded outcome of thumbnail resolution.
func NoThumbnail() ThumbnailHandle {
	return ThumbnailHandle{
		Width:  DefaultThumbWidth,
		Height: DefaultThumbHeight,
		Origin: ThumbnailOriginNone,
	}
}

// Present reports whether a thumbnail file is available.
func (h ThumbnailHandle) Present() bool {
	return h.Path != "" && h.Origin != ThumbnailOriginNone
}

// BatchResult is the tally of one range job.
type BatchResult struct {
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Total is the number of IDs visited.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}
