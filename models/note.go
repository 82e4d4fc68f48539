package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxNoteLength bounds note text, counted in runes.
const MaxNoteLength = 5000

// Note stores one day's freeform journal entry for a user. CreateTime is
// the event timestamp used for day bucketing: at most one note may exist
// per user per local calendar day, enforced by store.UpsertForDay rather
// than a schema constraint.
type Note struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"column:user_id;index;not null" json:"userId"`
	Note       string    `gorm:"type:text" json:"note"`
	CreateTime time.Time `gorm:"column:create_time;index" json:"createTime"`
	UpdateTime time.Time `gorm:"column:update_time" json:"updateTime"`
}

// TableName keeps the table name used by the mobile app's schema.
func (Note) TableName() string { return "user_notes" }

// BeforeCreate stamps both timestamps; CreateTime may be preset by the
// store to the caller's reference instant.
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if n.CreateTime.IsZero() {
		n.CreateTime = now
	}
	n.UpdateTime = now
	return nil
}

// BeforeUpdate refreshes the last-write timestamp.
func (n *Note) BeforeUpdate(tx *gorm.DB) error {
	n.UpdateTime = time.Now()
	return nil
}
