package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemActor is the actor name recorded for actions not tied to a user
// session, such as bulk purges run by operators through tooling.
const SystemActor = "System"

// AuditRecord is one immutable entry in the append-only audit trail.
// Nothing on a record is ever updated after insert except ConsumedAt,
// which is set once when the record's undo capability is exercised.
type AuditRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	ActorID   *uint  `gorm:"index" json:"actor_id,omitempty"`
	ActorName string `gorm:"size:128;not null" json:"actor_name"`

	Action       string `gorm:"size:64;not null;index" json:"action"`
	ResourceType string `gorm:"size:32;index:idx_audit_resource,priority:1" json:"resource_type,omitempty"`
	ResourceID   uint   `gorm:"index:idx_audit_resource,priority:2" json:"resource_id,omitempty"`

	// Payload is the type-tagged snapshot or diff captured for the action.
	// Sensitive fields are masked before the payload is stored, never after.
	Payload  datatypes.JSON `json:"payload,omitempty"`
	Metadata datatypes.JSON `json:"metadata,omitempty"`

	IPAddress string `gorm:"size:45" json:"ip_address,omitempty"`

	// ConsumedAt marks a delete record as restored or an update record as
	// reverted. A consumed record can never be consumed again.
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
}

// TableName pins the table name for the append-only trail.
func (AuditRecord) TableName() string {
	return "audit_records"
}

// Consumed reports whether the record's undo capability has been used.
func (r *AuditRecord) Consumed() bool {
	return r.ConsumedAt != nil
}
