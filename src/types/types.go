package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type ShowStatus string

const (
	SHOW_DRAFT     ShowStatus = "DRAFT"
	SHOW_PUBLISHED ShowStatus = "PUBLISHED"
	SHOW_CANCELLED ShowStatus = "CANCELLED"
	SHOW_COMPLETED ShowStatus = "COMPLETED"
)

type BookingStatus string

const (
	BOOKING_PENDING    BookingStatus = "PENDING"
	BOOKING_CONFIRMED  BookingStatus = "CONFIRMED"
	BOOKING_PAID       BookingStatus = "PAID"
	BOOKING_CANCELLED  BookingStatus = "CANCELLED"
	BOOKING_REFUNDED   BookingStatus = "REFUNDED"
	BOOKING_CHECKED_IN BookingStatus = "CHECKED_IN"
)

// ActiveBookingStatuses are the statuses that count toward seat occupancy.
// PENDING holds occupy seats through the items' active flag instead, so a
// hold can be released by the sweep without a status transition here.
var ActiveBookingStatuses = []BookingStatus{
	BOOKING_CONFIRMED,
	BOOKING_PAID,
	BOOKING_CHECKED_IN,
}

type TicketType string

const (
	TICKET_ADULT      TicketType = "ADULT"
	TICKET_CHILD      TicketType = "CHILD"
	TICKET_CONCESSION TicketType = "CONCESSION"
)

type UserRole string

const (
	ROLE_ADMIN     UserRole = "ADMIN"
	ROLE_STAFF     UserRole = "STAFF"
	ROLE_VOLUNTEER UserRole = "VOLUNTEER"
)

type SeatSelection struct {
	SeatID     uuid.UUID  `json:"seatId" binding:"required"`
	TicketType TicketType `json:"ticketType" binding:"required,oneof=ADULT CHILD CONCESSION"`
}

type CustomerContact struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone,omitempty"`
	EmailOptIn bool   `json:"emailOptIn,omitempty"`
	SmsOptIn   bool   `json:"smsOptIn,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	Postcode   string `json:"postcode,omitempty"`
	Country    string `json:"country,omitempty"`
}

type CreateBookingRequestBody struct {
	PerformanceID             uuid.UUID       `json:"performanceId" binding:"required"`
	Customer                  CustomerContact `json:"customer" binding:"required"`
	Seats                     []SeatSelection `json:"seats" binding:"required,min=1,dive"`
	AccessibilityRequirements string          `json:"accessibilityRequirements,omitempty"`
	SpecialRequests           string          `json:"specialRequests,omitempty"`
	BookingFee                float64         `json:"bookingFee,omitempty"`
}

type CreateCheckoutRequestBody struct {
	PerformanceID uuid.UUID       `json:"performanceId" binding:"required"`
	Customer      CustomerContact `json:"customer" binding:"required"`
	Seats         []SeatSelection `json:"seats" binding:"required,min=1,dive"`
}

type CreateRefundRequestBody struct {
	BookingID uuid.UUID `json:"bookingId" binding:"required"`
	// Amount is in currency units; omitted means a full refund.
	Amount *float64 `json:"amount,omitempty"`
}

type CreateShowRequestBody struct {
	Title           string  `json:"title" binding:"required"`
	Description     string  `json:"description,omitempty"`
	Genre           string  `json:"genre,omitempty"`
	AdultPrice      float64 `json:"adultPrice" binding:"required,gt=0"`
	ChildPrice      float64 `json:"childPrice" binding:"gte=0"`
	ConcessionPrice float64 `json:"concessionPrice" binding:"gte=0"`
	VenueID         string  `json:"venueId" binding:"required"`
	SeatingLayoutID string  `json:"seatingLayoutId" binding:"required"`
	Publish         bool    `json:"publish,omitempty"`
}

type CreatePerformanceRequestBody struct {
	ShowID    uuid.UUID `json:"showId" binding:"required"`
	DateTime  string    `json:"dateTime" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	IsMatinee bool      `json:"isMatinee,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

type SimpleRequestParams struct {
	ID uuid.UUID `uri:"id" binding:"required"`
}

type BookingQueryFilters struct {
	CustomerID    string `form:"customerId,omitempty"`
	PerformanceID string `form:"performanceId,omitempty"`
	Status        string `form:"status,omitempty"`
}

// SeatPrice is the Pricing Resolver's output for one requested seat:
// the authoritative minor-unit price for its ticket type.
type SeatPrice struct {
	SeatID          uuid.UUID  `json:"seatId"`
	TicketType      TicketType `json:"ticketType"`
	UnitAmountMinor int64      `json:"unitAmountMinor"`
}

// BookedSeat reports one occupied seat with its display label (row+number).
type BookedSeat struct {
	SeatID      uuid.UUID `json:"seatId"`
	SeatDisplay string    `json:"seatDisplay"`
	Row         string    `json:"row"`
	Number      string    `json:"number"`
	Section     string    `json:"section,omitempty"`
}

// CheckoutMetadata is the payload carried in the Stripe checkout session
// and payment-intent metadata for webhook reconciliation. Prices are never
// part of it; the reconciler re-resolves them from the show record.
type CheckoutMetadata struct {
	BookingID         string
	ShowID            string
	PerformanceID     string
	SeatsJSON         string
	CustomerEmail     string
	CustomerFirstName string
	CustomerLastName  string
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
