package models

import "time"

// Base contains common columns for all resource tables. Deletes are hard
// deletes: a resource's delete snapshot in the audit trail is its recovery
// path, so no soft-delete column is kept.
type Base struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
