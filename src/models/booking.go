package models

import (
	"boxoffice/src/types"
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	ID            uuid.UUID           `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	BookingNumber string              `json:"booking_number,omitempty"`
	Status        types.BookingStatus `gorm:"default:'PENDING'" json:"status,omitempty"`
	TotalAmount   float64             `json:"total_amount"`
	BookingFee    float64             `json:"booking_fee"`

	// Set by the Webhook Reconciler only; the unique index makes replayed
	// provider events idempotent.
	StripePaymentIntentId *string    `gorm:"uniqueIndex" json:"stripe_payment_intent_id,omitempty"`
	CheckoutSessionId     *string    `json:"checkout_session_id,omitempty"`
	PaidAt                *time.Time `json:"paid_at,omitempty"`

	// HoldExpiresAt is set while the booking is a PENDING reservation hold.
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`

	CheckedInAt               *time.Time `json:"checked_in_at,omitempty"`
	QRCodeData                *string    `json:"qr_code_data,omitempty"`
	AccessibilityRequirements string     `json:"accessibility_requirements,omitempty"`
	SpecialRequests           string     `json:"special_requests,omitempty"`

	CustomerID    uuid.UUID `gorm:"type:uuid" json:"customer_id,omitempty"`
	PerformanceID uuid.UUID `gorm:"type:uuid" json:"performance_id,omitempty"`
	ShowID        uuid.UUID `gorm:"type:uuid" json:"show_id,omitempty"`

	Customer    *Customer     `gorm:"foreignKey:customer_id" json:"customer,omitempty"`
	Performance *Performance  `gorm:"foreignKey:performance_id" json:"performance,omitempty"`
	Show        *Show         `gorm:"foreignKey:show_id" json:"show,omitempty"`
	Items       []BookingItem `gorm:"foreignKey:booking_id;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	types.Timestamps
}

// BookingItem snapshots one seat's ticket type and charged price. The
// performance id is denormalized from the parent booking so the partial
// unique index on (performance_id, seat_id) WHERE active can guard seat
// occupancy without a join.
type BookingItem struct {
	ID            uuid.UUID        `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	BookingID     uuid.UUID        `gorm:"type:uuid" json:"booking_id,omitempty"`
	SeatID        uuid.UUID        `gorm:"type:uuid" json:"seat_id,omitempty"`
	PerformanceID uuid.UUID        `gorm:"type:uuid" json:"performance_id,omitempty"`
	TicketType    types.TicketType `json:"ticket_type,omitempty"`
	Price         float64          `json:"price"`

	// Active mirrors whether the parent booking occupies the seat. It is
	// flipped in the same transaction as every booking status change.
	Active bool `gorm:"default:true" json:"-"`

	Seat    *Seat    `gorm:"foreignKey:seat_id" json:"seat,omitempty"`
	Booking *Booking `gorm:"foreignKey:booking_id" json:"-"`

	types.Timestamps
}
