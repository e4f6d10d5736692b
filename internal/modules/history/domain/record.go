package domain

import (
	"time"

	mediaDomain "github.com/reshetovitsme/tg-media-relay/internal/modules/media/domain"
)

// Record is one successful republish
type Record struct {
	ID          string                `json:"id"`
	JobID       string                `json:"job_id"`
	Chat        string                `json:"chat"`
	MessageID   int                   `json:"message_id"`
	Kind        mediaDomain.MediaKind `json:"kind"`
	Caption     string                `json:"caption,omitempty"`
	Link        string                `json:"link"`
	RequestedBy int64                 `json:"requested_by"`
	RelayedAt   time.Time             `json:"relayed_at"`
	Items       int                   `json:"items"`
}
