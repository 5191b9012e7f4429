package models

// Service is a dashboard tile pointing at a self-hosted web application
// (Plex, Grafana, a NAS UI). Name is the natural key shown to operators.
type Service struct {
	Base
	Name        string `gorm:"uniqueIndex;size:128;not null" json:"name"`
	URL         string `gorm:"size:512" json:"url"`
	Icon        string `gorm:"size:128" json:"icon"`
	Description string `gorm:"size:500" json:"description"`
	CategoryID  *uint  `gorm:"index" json:"category_id,omitempty"`
}
