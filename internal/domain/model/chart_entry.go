package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enumerated platform tags. Only the iTunes feed is wired today.
const (
	SourceAppleMusic = "Apple Music"
)

const DefaultCountry = "Global"

// ChartEntry is one ranked song observation for a date/source/country.
//
// Dates are stored as ISO "YYYY-MM-DD" strings so range filters compare
// lexicographically. Duplicate identity for import-time de-duplication is
// the tuple (date, rank, source, country); the store itself never enforces
// rank uniqueness within a partition, so two different songs re-ranked onto
// the same tuple will collide only when the caller opts into the check.
type ChartEntry struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Date         string                 `bson:"date" json:"date"`
	Rank         int                    `bson:"rank" json:"rank"`
	Song         string                 `bson:"song" json:"song"`
	Artist       string                 `bson:"artist" json:"artist"`
	Album        string                 `bson:"album,omitempty" json:"album,omitempty"`
	Streams      *int64                 `bson:"streams,omitempty" json:"streams,omitempty"`
	DurationMs   *int                   `bson:"duration_ms,omitempty" json:"duration_ms,omitempty"`
	Source       string                 `bson:"source" json:"source"`
	Country      string                 `bson:"country" json:"country"`
	PlatformData map[string]interface{} `bson:"platform_data,omitempty" json:"platform_data,omitempty"`
	CreatedAt    time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time              `bson:"updated_at" json:"updated_at"`
}
