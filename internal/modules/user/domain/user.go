package domain

import "time"

// User is someone who has talked to the bot
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name,omitempty"`
	AddedAt   time.Time `json:"added_at"`
	LastSeen  time.Time `json:"last_seen"`
	IsOwner   bool      `json:"is_owner"`
}
