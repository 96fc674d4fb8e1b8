package models

import (
	"boxoffice/src/types"

	"github.com/google/uuid"
)

// Customer is created lazily on first booking attempt and found by email
// afterwards; the unique index keeps the find-or-create path from ever
// duplicating one.
type Customer struct {
	ID         uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	Email      string    `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	EmailOptIn bool      `json:"email_opt_in,omitempty"`
	SmsOptIn   bool      `json:"sms_opt_in,omitempty"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	Postcode   string    `json:"postcode,omitempty"`
	Country    string    `gorm:"default:'GB'" json:"country,omitempty"`

	Bookings []Booking `gorm:"foreignKey:customer_id" json:"bookings,omitempty"`

	types.Timestamps
}
