package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document is one persisted JSON document addressed by a well-known key
type Document struct {
	Key       string         `gorm:"primaryKey;column:key" json:"key"`
	Value     datatypes.JSON `gorm:"not null" json:"value"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName overrides the gorm table name
func (Document) TableName() string {
	return "documents"
}

// Headline is a news item used as optional prompt context
type Headline struct {
	Title       string
	URL         string
	FeedName    string
	PublishedAt time.Time
}
