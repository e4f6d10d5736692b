//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// MediaKind is the payload discriminant of a fetched post.
// ENUM(photo,video,audio,document,animation,none)
type MediaKind string

// ThumbnailOrigin tells where a video thumbnail came from.
// ENUM(reused,generated,none)
type ThumbnailOrigin string
