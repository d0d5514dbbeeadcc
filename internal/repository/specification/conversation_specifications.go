package specification

import (
	"time"

	"gorm.io/gorm"
)

// ByStatuses filters conversations by any of the given statuses
type ByStatuses struct {
	Statuses []string
}

func (s ByStatuses) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", s.Statuses)
}

// StaleSince matches conversations not touched since the given time
type StaleSince struct {
	Before time.Time
}

func (s StaleSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("updated_at < ?", s.Before)
}

// ByPlatform filters by conversation platform
type ByPlatform struct {
	Platform string
}

func (s ByPlatform) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("platform = ?", s.Platform)
}

// IsCurrent filters ready prompts to the current row
type IsCurrent struct{}

func (s IsCurrent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_current = true")
}
