package models

import (
	"boxoffice/src/types"
	"time"

	"github.com/google/uuid"
)

// Show carries the per-category prices that the Pricing Resolver treats as
// the only source of truth. Price changes never rewrite existing bookings:
// items snapshot the price charged at booking time.
type Show struct {
	ID              uuid.UUID        `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Title           string           `json:"title,omitempty"`
	Slug            string           `gorm:"uniqueIndex" json:"slug,omitempty"`
	Description     string           `json:"description,omitempty"`
	ImageURL        string           `json:"image_url,omitempty"`
	Genre           string           `json:"genre,omitempty"`
	Duration        uint             `json:"duration,omitempty"`
	AgeRating       string           `json:"age_rating,omitempty"`
	AdultPrice      float64          `json:"adult_price"`
	ChildPrice      float64          `json:"child_price"`
	ConcessionPrice float64          `json:"concession_price"`
	Status          types.ShowStatus `gorm:"default:'DRAFT'" json:"status,omitempty"`
	VenueID         uuid.UUID        `gorm:"type:uuid" json:"venue_id,omitempty"`
	SeatingLayoutID uuid.UUID        `gorm:"type:uuid" json:"seating_layout_id,omitempty"`

	Venue        *Venue        `gorm:"foreignKey:venue_id" json:"venue,omitempty"`
	Performances []Performance `gorm:"foreignKey:show_id" json:"performances,omitempty"`

	types.Timestamps
}

// Performance identifies the bucket seat conflicts are scoped to: the same
// seat may be sold for two different performances of one show.
type Performance struct {
	ID        uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	DateTime  time.Time `json:"date_time,omitempty"`
	IsMatinee bool      `json:"is_matinee,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Capacity  uint      `json:"capacity,omitempty"`
	ShowID    uuid.UUID `gorm:"type:uuid" json:"show_id,omitempty"`

	Show *Show `gorm:"foreignKey:show_id" json:"show,omitempty"`

	types.Timestamps
}
