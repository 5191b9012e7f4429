package models

// Host is a physical or virtual machine on the local network that the
// dashboard can monitor and wake over the LAN.
type Host struct {
	Base
	Name        string `gorm:"uniqueIndex;size:128;not null" json:"name"`
	MACAddress  string `gorm:"column:mac_address;size:17" json:"mac_address"`
	IPAddress   string `gorm:"column:ip_address;size:45" json:"ip_address"`
	Description string `gorm:"size:500" json:"description"`
}
