package models

import (
	"time"

	"gorm.io/gorm"
)

// PunchRecord stores one daily check-in. PunchTime is the moment of the
// first (and only) punch of the day and never changes afterwards; a punch
// is an action, not an editable document.
type PunchRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"column:user_id;index;not null" json:"userId"`
	PunchTime  time.Time `gorm:"column:punch_time;index;not null" json:"punchTime"`
	CreateTime time.Time `gorm:"column:create_time" json:"createTime"`
	UpdateTime time.Time `gorm:"column:update_time" json:"updateTime"`
}

// TableName keeps the table name used by the mobile app's schema.
func (PunchRecord) TableName() string { return "user_punch_records" }

// BeforeCreate stamps bookkeeping timestamps.
func (p *PunchRecord) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if p.PunchTime.IsZero() {
		p.PunchTime = now
	}
	if p.CreateTime.IsZero() {
		p.CreateTime = now
	}
	p.UpdateTime = now
	return nil
}

// BeforeUpdate refreshes the bookkeeping timestamp only; PunchTime is
// immutable once written.
func (p *PunchRecord) BeforeUpdate(tx *gorm.DB) error {
	p.UpdateTime = time.Now()
	return nil
}
