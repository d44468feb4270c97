package persist

import (
	"context"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/channel"
	"github.com/relayd/relayd/internal/store"
)

// Snapshotter saves and restores relayd's persistable state through a
// gorm.DB. It is entirely optional: a nil *Snapshotter is never
// constructed by internal/channel or internal/connection, only by
// cmd/relayd when a database path is configured.
type Snapshotter struct {
	db *gorm.DB
}

// New opens db (already connected by the caller, e.g. via
// gorm.Open(sqlite.Open(path), ...)) and migrates the persisted schema.
func New(db *gorm.DB) (*Snapshotter, error) {
	if err := db.AutoMigrate(&PersistedUser{}, &PersistedChannel{}, &PersistedMember{}, &PersistedBan{}); err != nil {
		return nil, err
	}
	return &Snapshotter{db: db}, nil
}

// Save walks the in-memory store and upserts a row per connection and
// per channel (with its current members and ban list), matching §4.15's
// "walks the in-memory state store ... and upserts rows." Read access to
// the store and each channel's state goes through their normal
// synchronized accessors (AllConnections, AllChannels, a Snapshot op) so
// Save never bypasses the single-writer channel invariant.
func (s *Snapshotter) Save(ctx context.Context, st *store.Store) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, conn := range st.AllConnections() {
			user := PersistedUser{
				Nickname:    conn.Nick(),
				AccountName: conn.Account(),
			}
			if err := tx.Where(PersistedUser{Nickname: user.Nickname}).
				Assign(user).FirstOrCreate(&PersistedUser{}).Error; err != nil {
				return err
			}
		}

		for _, ch := range st.AllChannels() {
			coord, ok := ch.(*channel.Coordinator)
			if !ok {
				continue
			}
			replyCh := make(chan chanop.Snapshot, 1)
			if !coord.Post(chanop.Op{Kind: chanop.Snapshot, Reply: replyCh}) {
				continue
			}
			snap := <-replyCh
			if err := s.saveChannel(tx, snap); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Snapshotter) saveChannel(tx *gorm.DB, snap chanop.Snapshot) error {
	letters, _ := snap.ModesString()
	letters = strings.NewReplacer("k", "", "l", "").Replace(letters)
	row := PersistedChannel{
		Name:        snap.Name,
		Topic:       snap.Topic,
		TopicSetter: snap.TopicSetter,
		TopicTime:   snap.TopicTime,
		Modes:       letters,
		CreatedAt:   snap.Created,
	}
	if snap.HasKey {
		row.Key = snap.Key
	}
	if snap.HasLimit {
		row.Limit = snap.Limit
	}

	var existing PersistedChannel
	err := tx.Where("name = ?", snap.Name).FirstOrInit(&existing).Error
	if err != nil {
		return err
	}
	row.ID = existing.ID
	if err := tx.Save(&row).Error; err != nil {
		return err
	}

	if err := tx.Where("channel_id = ?", row.ID).Delete(&PersistedMember{}).Error; err != nil {
		return err
	}
	for _, m := range snap.Members {
		member := PersistedMember{ChannelID: row.ID, Nickname: m.Nick, JoinTime: time.Now()}
		if m.Operator {
			member.Modes += "o"
		}
		if m.Voice {
			member.Modes += "v"
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
	}

	if err := tx.Where("channel_id = ?", row.ID).Delete(&PersistedBan{}).Error; err != nil {
		return err
	}
	for _, mask := range snap.Bans {
		if err := tx.Create(&PersistedBan{ChannelID: row.ID, Mask: mask, SetTime: time.Now()}).Error; err != nil {
			return err
		}
	}

	return nil
}

// RestoreChannel is a plain-struct view of one persisted channel, ready
// for cmd/relayd to replay into a fresh channel.Coordinator before the
// listener starts accepting connections.
type RestoreChannel struct {
	Name        string
	Topic       string
	TopicSetter string
	TopicTime   time.Time
	Modes       string
	Key         string
	Limit       int
	Bans        []string
}

// RestoreData is everything Restore reads back.
type RestoreData struct {
	Users    []PersistedUser
	Channels []RestoreChannel
}

// Restore reads the persisted user, channel and ban rows back into plain
// structs; member rows are not read back. It never
// touches internal/store directly; cmd/relayd replays the returned
// channels through the dispatcher and does not use the returned users.
func (s *Snapshotter) Restore(ctx context.Context) (*RestoreData, error) {
	var users []PersistedUser
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, err
	}

	var rows []PersistedChannel
	if err := s.db.WithContext(ctx).Preload("Bans").Find(&rows).Error; err != nil {
		return nil, err
	}

	data := &RestoreData{Users: users}
	for _, row := range rows {
		bans := make([]string, 0, len(row.Bans))
		for _, b := range row.Bans {
			bans = append(bans, b.Mask)
		}
		data.Channels = append(data.Channels, RestoreChannel{
			Name:        row.Name,
			Topic:       row.Topic,
			TopicSetter: row.TopicSetter,
			TopicTime:   row.TopicTime,
			Modes:       row.Modes,
			Key:         row.Key,
			Limit:       row.Limit,
			Bans:        bans,
		})
	}
	return data, nil
}

// ModeLettersToChanges turns a stored mode-letter string ("ntm") plus an
// optional key/limit back into ModeChange items a restored channel can
// replay through a normal Mode op, keeping restoration on the same code
// path as a live MODE command.
func ModeLettersToChanges(letters, key string, limit int, hasLimit bool) []chanop.ModeChange {
	var changes []chanop.ModeChange
	for i := 0; i < len(letters); i++ {
		changes = append(changes, chanop.ModeChange{Add: true, Letter: letters[i]})
	}
	if key != "" {
		changes = append(changes, chanop.ModeChange{Add: true, Letter: 'k', Param: key})
	}
	if hasLimit {
		changes = append(changes, chanop.ModeChange{Add: true, Letter: 'l', Param: strconv.Itoa(limit)})
	}
	return changes
}
