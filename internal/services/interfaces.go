package services

import (
	"time"

	"quarterdeck/internal/audit"
	"quarterdeck/internal/models"
	"quarterdeck/internal/pagination"
	"quarterdeck/internal/resources"
)

// Actor identifies who performed an action. A nil ID with the System name is
// used for actions not tied to a user session.
type Actor struct {
	ID   *uint
	Name string
}

// SystemActor is the actor recorded for internally-triggered actions.
func SystemActor() Actor {
	return Actor{Name: models.SystemActor}
}

// RecordEntry is the input to the audit recorder.
type RecordEntry struct {
	Actor        Actor
	Action       audit.Action
	ResourceType resources.Type
	ResourceID   uint
	Payload      audit.Payload
	Metadata     map[string]any
	IPAddress    string
}

// AuditFilter selects records from the trail. Zero values mean "no
// constraint".
type AuditFilter struct {
	Actor        string
	Action       string
	ResourceType string
	From         *time.Time
	To           *time.Time
	FreeText     string
	CriticalOnly bool
}

// AuditServicer is the append-only recorder and read-side of the trail.
type AuditServicer interface {
	// Record appends a new record. Append failures are logged and swallowed:
	// auditing must never block business functionality. Returns the stored
	// record, or nil when the append failed.
	Record(entry RecordEntry) *models.AuditRecord

	GetRecord(id uint) (*models.AuditRecord, error)
	Query(filter AuditFilter, page pagination.PageRequest) (*pagination.PageResponse[models.AuditRecord], error)

	// MarkConsumed atomically claims a record's undo capability. Returns
	// ErrAlreadyConsumed when another caller got there first.
	MarkConsumed(id uint) error
	// ReleaseConsumed undoes a claim after a failed restore/revert so the
	// operator can retry.
	ReleaseConsumed(id uint)

	// Purge hard-deletes the given records and appends a single summary
	// record for the purge itself. Returns the number of records removed.
	Purge(ids []uint, actor Actor, ip string) (int64, error)
}

// UndoServicer hosts the restore and revert engines.
type UndoServicer interface {
	// Restore recreates a deleted resource from the delete record's
	// snapshot. newName, when non-empty, replaces the snapshot's natural key
	// (the NameConflict retry path). Returns the new resource id.
	Restore(recordID uint, newName string, actor Actor, ip string) (uint, error)

	// Revert re-applies the prior values of an update record onto the live
	// resource. Returns the resource id.
	Revert(recordID uint, actor Actor, ip string) (uint, error)
}

// ServiceServicer defines the contract for dashboard service tiles.
type ServiceServicer interface {
	resources.Adapter
	CreateService(name, url, icon, description string, categoryID *uint) (*models.Service, error)
	GetServices(page pagination.PageRequest) (*pagination.PageResponse[models.Service], error)
	GetServiceByID(id uint) (*models.Service, error)
	UpdateService(id uint, name, url, icon, description string, categoryID *uint) (*models.Service, error)
	DeleteService(id uint) error
}

// HostServicer defines the contract for LAN hosts.
type HostServicer interface {
	resources.Adapter
	CreateHost(name, mac, ip, description string) (*models.Host, error)
	GetHosts(page pagination.PageRequest) (*pagination.PageResponse[models.Host], error)
	GetHostByID(id uint) (*models.Host, error)
	UpdateHost(id uint, name, mac, ip, description string) (*models.Host, error)
	DeleteHost(id uint) error
	// Wake sends a wake-on-LAN magic packet to the host's MAC address.
	Wake(id uint) (*models.Host, error)
}

// SSHHostServicer defines the contract for SSH connection entries.
type SSHHostServicer interface {
	resources.Adapter
	CreateSSHHost(name, hostname string, port int, username, password, privateKey string) (*models.SSHHost, error)
	GetSSHHosts(page pagination.PageRequest) (*pagination.PageResponse[models.SSHHost], error)
	GetSSHHostByID(id uint) (*models.SSHHost, error)
	UpdateSSHHost(id uint, name, hostname string, port int, username, password, privateKey string) (*models.SSHHost, error)
	DeleteSSHHost(id uint) error
}

// CategoryServicer defines the contract for dashboard categories.
type CategoryServicer interface {
	resources.Adapter
	CreateCategory(name, icon, color string) (*models.Category, error)
	GetCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(id uint) (*models.Category, error)
	UpdateCategory(id uint, name, icon, color string) (*models.Category, error)
	DeleteCategory(id uint) error
}

// UserServicer defines the contract for operator accounts.
type UserServicer interface {
	resources.Adapter
	CreateUser(username, password string, role models.UserRole) (*models.User, error)
	GetUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	GetUserByID(id uint) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	UpdateUser(id uint, username string, role models.UserRole) (*models.User, error)
	DeleteUser(id uint) error
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(username, password string) (*models.User, error)
}
