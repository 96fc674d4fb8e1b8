package models

import (
	"boxoffice/src/types"

	"github.com/google/uuid"
)

type Venue struct {
	ID       uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name     string    `json:"name,omitempty"`
	Slug     string    `gorm:"uniqueIndex" json:"slug,omitempty"`
	Address  string    `json:"address,omitempty"`
	Capacity uint      `json:"capacity,omitempty"`

	SeatingLayouts []SeatingLayout `gorm:"foreignKey:venue_id" json:"seating_layouts,omitempty"`

	types.Timestamps
}
