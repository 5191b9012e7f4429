package models

// SSHHost holds connection details for a machine reachable over SSH.
// Password and PrivateKey are credentials: they are never serialized to
// JSON and never stored in an audit payload.
type SSHHost struct {
	Base
	Name       string `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Hostname   string `gorm:"size:255;not null" json:"hostname"`
	Port       int    `gorm:"default:22" json:"port"`
	Username   string `gorm:"size:64" json:"username"`
	Password   string `json:"-"`
	PrivateKey string `gorm:"column:private_key" json:"-"`
}
