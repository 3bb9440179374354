package models

import "time"

// UserRecord is one serialized per-user record (profile, financial, history
// or analytics) in the SQL backend.
type UserRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	Namespace string    `gorm:"size:50;not null;uniqueIndex:idx_user_records_namespace_kind,priority:1" json:"namespace"`
	Kind      string    `gorm:"size:20;not null;uniqueIndex:idx_user_records_namespace_kind,priority:2" json:"kind"`
	Payload   string    `gorm:"not null" json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName implements the GORM tabler interface.
func (UserRecord) TableName() string { return "user_records" }
