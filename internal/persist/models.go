// Package persist implements the optional snapshot/restore adapter
// (§4.15): gorm models mirroring §6's persisted object shapes, and a
// Snapshotter that walks the in-memory store under its own read paths
// to upsert rows, or reads them back into plain structs whose channels
// cmd/relayd replays through the dispatcher at startup. Never imported by internal/channel
// or internal/connection — persistence sits outside the message hot
// path entirely.
package persist

import "time"

// PersistedUser mirrors §6's user object shape.
type PersistedUser struct {
	ID           uint `gorm:"primaryKey"`
	Nickname     string `gorm:"uniqueIndex"`
	PasswordHash string
	AccountName  string
	Flags        string
	Metadata     string
}

// PersistedChannel mirrors §6's channel object shape.
type PersistedChannel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex"`
	Topic       string
	TopicSetter string
	TopicTime   time.Time
	Modes       string
	Key         string
	Limit       int
	CreatedAt   time.Time

	Members []PersistedMember `gorm:"foreignKey:ChannelID"`
	Bans    []PersistedBan    `gorm:"foreignKey:ChannelID"`
}

// PersistedMember mirrors §6's channel-member object shape.
type PersistedMember struct {
	ID        uint `gorm:"primaryKey"`
	ChannelID uint `gorm:"index"`
	Nickname  string
	Modes     string
	JoinTime  time.Time
}

// PersistedBan mirrors §6's ban object shape.
type PersistedBan struct {
	ID        uint `gorm:"primaryKey"`
	ChannelID uint `gorm:"index"`
	Mask      string
	Setter    string
	SetTime   time.Time
	ExpiresAt *time.Time
}
