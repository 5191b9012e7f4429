package models

// Category groups services on the dashboard.
type Category struct {
	Base
	Name  string `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Icon  string `gorm:"size:128" json:"icon"`
	Color string `gorm:"size:7" json:"color"`
}
