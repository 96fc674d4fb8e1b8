package models

import (
	"boxoffice/src/types"
	"fmt"

	"github.com/google/uuid"
)

type SeatingLayout struct {
	ID          uuid.UUID    `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Rows        uint         `json:"rows,omitempty"`
	Columns     uint         `json:"columns,omitempty"`
	LayoutData  *types.JSONB `gorm:"type:jsonb" json:"layout_data,omitempty"`
	VenueID     uuid.UUID    `gorm:"type:uuid" json:"venue_id,omitempty"`

	Seats []Seat `gorm:"foreignKey:seating_layout_id" json:"seats,omitempty"`

	types.Timestamps
}

// Seats are looked up by id only; this core never creates or deletes them.
type Seat struct {
	ID                uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Row               string    `json:"row,omitempty"`
	Number            string    `json:"number,omitempty"`
	Section           string    `json:"section,omitempty"`
	IsAccessible      bool      `json:"is_accessible,omitempty"`
	IsWheelchairSpace bool      `json:"is_wheelchair_space,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	SeatingLayoutID   uuid.UUID `gorm:"type:uuid" json:"seating_layout_id,omitempty"`

	types.Timestamps
}

// Display is the human-readable seat label used in conflict messages.
func (s Seat) Display() string {
	return fmt.Sprintf("%s%s", s.Row, s.Number)
}
