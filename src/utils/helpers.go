package utils

import (
	"boxoffice/src/config"
	"boxoffice/src/db"
	"boxoffice/src/lib"
	"boxoffice/src/models"
	"boxoffice/src/types"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

// PriceForTicketType resolves a ticket type to its minor-unit price from
// the show record. Unknown types price at 0; callers reject a zero total
// upstream. Client-submitted prices are never consulted.
func PriceForTicketType(show *models.Show, ticketType types.TicketType) int64 {
	var price float64
	switch ticketType {
	case types.TICKET_ADULT:
		price = show.AdultPrice
	case types.TICKET_CHILD:
		price = show.ChildPrice
	case types.TICKET_CONCESSION:
		price = show.ConcessionPrice
	default:
		price = 0
	}
	return int64(math.Round(price * 100))
}

func ResolveSeatPrices(show *models.Show, seats []types.SeatSelection) ([]types.SeatPrice, int64) {
	prices := make([]types.SeatPrice, 0, len(seats))
	var totalMinor int64
	for _, s := range seats {
		unit := PriceForTicketType(show, s.TicketType)
		prices = append(prices, types.SeatPrice{
			SeatID:          s.SeatID,
			TicketType:      s.TicketType,
			UnitAmountMinor: unit,
		})
		totalMinor += unit
	}
	return prices, totalMinor
}

func MinorToAmount(minor int64) float64 {
	return float64(minor) / 100
}

func AmountToMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// GenerateBookingNumber builds the human-readable reference: prefix, the
// tail of the current unix-millisecond clock, and a short random suffix.
// Not globally unique by construction; collisions are treated as negligible.
func GenerateBookingNumber() string {
	ms := strconv.FormatInt(time.Now().UnixMilli(), 10)
	tail := ms
	if len(ms) > 6 {
		tail = ms[len(ms)-6:]
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:3])
	return fmt.Sprintf("%s%s%s", config.BOOKING_NUMBER_PREFIX, tail, suffix)
}

func GenerateBookingQR(booking *models.Booking) (*string, error) {
	payload, err := json.Marshal(map[string]string{
		"bookingId":     booking.ID.String(),
		"bookingNumber": booking.BookingNumber,
	})
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		log.Printf("Could not generate QR code for Booking [%s]: %s\n", booking.BookingNumber, err.Error())
		return nil, err
	}
	dataURI := fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(png))
	return &dataURI, nil
}

func GetPerformanceWithShow(performanceId uuid.UUID) (*models.Performance, error) {
	var perf models.Performance
	database := db.GetDb()
	err := database.
		Model(&models.Performance{}).
		Where(&models.Performance{ID: performanceId}).
		Preload("Show").
		First(&perf).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("performance %s: %w", performanceId, types.ErrNotFound)
		}
		return nil, err
	}
	if perf.Show == nil {
		return nil, fmt.Errorf("show for performance %s: %w", performanceId, types.ErrNotFound)
	}
	return &perf, nil
}

func bookedSeatsFromItems(items []models.BookingItem) []types.BookedSeat {
	seats := make([]types.BookedSeat, 0, len(items))
	for _, item := range items {
		booked := types.BookedSeat{SeatID: item.SeatID}
		if item.Seat != nil {
			booked.SeatDisplay = item.Seat.Display()
			booked.Row = item.Seat.Row
			booked.Number = item.Seat.Number
			booked.Section = item.Seat.Section
		}
		seats = append(seats, booked)
	}
	return seats
}

// CheckSeatConflicts returns the subset of the requested seats already held
// by an active line item for the performance. A non-empty result obliges
// the caller to abort without writing anything.
func CheckSeatConflicts(performanceId uuid.UUID, seatIds []uuid.UUID) ([]types.BookedSeat, error) {
	if len(seatIds) == 0 {
		return nil, nil
	}
	var items []models.BookingItem
	database := db.GetDb()
	err := database.
		Model(&models.BookingItem{}).
		Joins("Seat").
		Where("booking_items.performance_id = ?", performanceId).
		Where("booking_items.active = ?", true).
		Where("booking_items.seat_id IN ?", seatIds).
		Find(&items).
		Error
	if err != nil {
		log.Printf("Error checking seat conflicts for performance %s: %s\n", performanceId, err.Error())
		return nil, err
	}
	return bookedSeatsFromItems(items), nil
}

// ListBookedSeats reports every occupied seat for a performance, for the
// storefront seat map.
func ListBookedSeats(performanceId uuid.UUID) ([]types.BookedSeat, error) {
	var items []models.BookingItem
	database := db.GetDb()
	err := database.
		Model(&models.BookingItem{}).
		Joins("Seat").
		Where("booking_items.performance_id = ?", performanceId).
		Where("booking_items.active = ?", true).
		Find(&items).
		Error
	if err != nil {
		return nil, err
	}
	return bookedSeatsFromItems(items), nil
}

func conflictError(conflicts []types.BookedSeat) *types.SeatConflictError {
	conflict := &types.SeatConflictError{}
	for _, c := range conflicts {
		conflict.SeatIDs = append(conflict.SeatIDs, c.SeatID)
		if c.SeatDisplay != "" {
			conflict.SeatDisplays = append(conflict.SeatDisplays, c.SeatDisplay)
		}
	}
	return conflict
}

func findOrCreateCustomer(tx *gorm.DB, contact types.CustomerContact) (uuid.UUID, error) {
	var customer models.Customer
	err := tx.
		Where(&models.Customer{Email: contact.Email}).
		First(&customer).
		Error
	if err == nil {
		return customer.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}
	firstName := contact.FirstName
	if firstName == "" {
		firstName = "Customer"
	}
	customer = models.Customer{
		FirstName:  firstName,
		LastName:   contact.LastName,
		Email:      contact.Email,
		Phone:      contact.Phone,
		EmailOptIn: contact.EmailOptIn,
		SmsOptIn:   contact.SmsOptIn,
		Address:    contact.Address,
		City:       contact.City,
		Postcode:   contact.Postcode,
		Country:    contact.Country,
	}
	if err := tx.Create(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Concurrent first booking for the same email; the winner's row
			// serves both.
			var existing models.Customer
			if ferr := tx.Where(&models.Customer{Email: contact.Email}).First(&existing).Error; ferr == nil {
				return existing.ID, nil
			}
		}
		log.Printf("Error creating customer %s: %s\n", contact.Email, err.Error())
		return uuid.Nil, err
	}
	return customer.ID, nil
}

// CreateReservation writes the PENDING reservation hold: find-or-create the
// customer, then the booking and one line item per seat, all in one
// transaction. Prices come from the Pricing Resolver, never the request.
// The partial unique seat index backstops the pre-check: a duplicate-key
// failure here is surfaced as the same conflict error.
func CreateReservation(params *types.CreateBookingRequestBody, prices []types.SeatPrice, totalMinor int64) (*models.Booking, error) {
	perf, err := GetPerformanceWithShow(params.PerformanceID)
	if err != nil {
		return nil, err
	}

	seatIds := make([]uuid.UUID, 0, len(params.Seats))
	for _, s := range params.Seats {
		seatIds = append(seatIds, s.SeatID)
	}
	conflicts, err := CheckSeatConflicts(params.PerformanceID, seatIds)
	if err != nil {
		return nil, fmt.Errorf("failed to verify seat availability: %w", err)
	}
	if len(conflicts) > 0 {
		return nil, conflictError(conflicts)
	}

	priceBySeat := make(map[uuid.UUID]types.SeatPrice, len(prices))
	for _, p := range prices {
		priceBySeat[p.SeatID] = p
	}

	now := time.Now()
	holdExpiresAt := now.Add(config.SEAT_HOLD_TTL)
	booking := models.Booking{
		BookingNumber:             GenerateBookingNumber(),
		Status:                    types.BOOKING_PENDING,
		TotalAmount:               MinorToAmount(totalMinor),
		BookingFee:                params.BookingFee,
		HoldExpiresAt:             &holdExpiresAt,
		AccessibilityRequirements: params.AccessibilityRequirements,
		SpecialRequests:           params.SpecialRequests,
		PerformanceID:             perf.ID,
		ShowID:                    perf.ShowID,
	}

	database := db.GetDb()
	err = database.Transaction(func(tx *gorm.DB) error {
		customerId, err := findOrCreateCustomer(tx, params.Customer)
		if err != nil {
			return err
		}
		booking.CustomerID = customerId
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		for _, s := range params.Seats {
			item := models.BookingItem{
				BookingID:     booking.ID,
				SeatID:        s.SeatID,
				PerformanceID: perf.ID,
				TicketType:    s.TicketType,
				Price:         MinorToAmount(priceBySeat[s.SeatID].UnitAmountMinor),
				Active:        true,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			booking.Items = append(booking.Items, item)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the check-then-write race; the seat index caught it.
			conflicts, cerr := CheckSeatConflicts(params.PerformanceID, seatIds)
			if cerr == nil && len(conflicts) > 0 {
				return nil, conflictError(conflicts)
			}
			return nil, &types.SeatConflictError{SeatIDs: seatIds}
		}
		log.Printf("CreateReservation failed: %s\n", err.Error())
		return nil, fmt.Errorf("%w: %s", types.ErrWrite, err.Error())
	}

	lib.InvalidateBookedSeatsCache(perf.ID)
	booking.Performance = perf
	booking.Show = perf.Show
	return &booking, nil
}

// ConfirmBooking flips a PENDING hold to CONFIRMED for the direct,
// non-Stripe flow. The hold expiry is cleared so the sweep never touches a
// confirmed booking.
func ConfirmBooking(bookingId uuid.UUID) error {
	database := db.GetDb()
	err := database.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.
			Where(&models.Booking{ID: bookingId, Status: types.BOOKING_PENDING}).
			First(&booking).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("pending booking %s: %w", bookingId, types.ErrNotFound)
			}
			return err
		}
		qr, err := GenerateBookingQR(&booking)
		if err != nil {
			qr = nil
		}
		return tx.
			Model(&models.Booking{}).
			Where(&models.Booking{ID: bookingId}).
			Updates(map[string]any{
				"status":          types.BOOKING_CONFIRMED,
				"hold_expires_at": nil,
				"qr_code_data":    qr,
			}).
			Error
	})
	if err != nil {
		log.Printf("ConfirmBooking failed for [%s]: %s\n", bookingId, err.Error())
	}
	return err
}

// CreateStripeCheckout creates the hosted checkout session for a reserved
// booking. The metadata carries everything the webhook needs to reconcile:
// booking, show and performance ids, the seat list, and the customer
// contact. It is mirrored onto the payment intent so both accepted event
// kinds can resolve it.
func CreateStripeCheckout(params *types.CreateCheckoutRequestBody, booking *models.Booking, show *models.Show, perf *models.Performance, totalMinor int64) (*string, *string, error) {
	sc := lib.GetStripeClient()
	seatsJson, err := json.Marshal(params.Seats)
	if err != nil {
		return nil, nil, err
	}
	metadata := map[string]string{
		"performanceId":     perf.ID.String(),
		"showId":            show.ID.String(),
		"bookingId":         booking.ID.String(),
		"seatsJson":         string(seatsJson),
		"customerEmail":     params.Customer.Email,
		"customerFirstName": params.Customer.FirstName,
		"customerLastName":  params.Customer.LastName,
	}

	appHost := os.Getenv("APP_HOST")
	successUrl := fmt.Sprintf("%s/book/success/{CHECKOUT_SESSION_ID}?bookingId=%s", appHost, booking.ID)
	cancelUrl := fmt.Sprintf("%s/book/%s/%s?payment=cancelled&bookingId=%s", appHost, show.ID, perf.ID, booking.ID)

	piParams := &stripe.CheckoutSessionCreatePaymentIntentDataParams{}
	for k, v := range metadata {
		piParams.AddMetadata(k, v)
	}
	createParams := stripe.CheckoutSessionCreateParams{
		Mode:               stripe.String("payment"),
		UIMode:             stripe.String("hosted"),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(params.Customer.Email),
		SuccessURL:         stripe.String(successUrl),
		CancelURL:          stripe.String(cancelUrl),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: stripe.String(config.CURRENCY),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("Tickets for %s", show.Title)),
						Description: stripe.String(perf.DateTime.Format("Mon 2 Jan 2006, 3:04 PM")),
					},
					UnitAmount: stripe.Int64(totalMinor),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: piParams,
		Metadata:          metadata,
	}

	checkoutSession, err := sc.V1CheckoutSessions.Create(context.Background(), &createParams)
	if err != nil {
		log.Printf("CreateStripeCheckout failed: %s\n", err.Error())
		return nil, nil, err
	}
	log.Printf("CheckoutSessionID: %s\n", checkoutSession.ID)

	database := db.GetDb()
	if err := database.
		Model(&models.Booking{}).
		Where(&models.Booking{ID: booking.ID}).
		Updates(&models.Booking{CheckoutSessionId: &checkoutSession.ID}).
		Error; err != nil {
		log.Printf("Error attaching checkout session to Booking [%s]: %s\n", booking.ID, err.Error())
	}

	return &checkoutSession.URL, &checkoutSession.ID, nil
}

// ParseSeatsJSON decodes the seat list embedded in checkout metadata.
func ParseSeatsJSON(seatsJson string) ([]types.SeatSelection, error) {
	if seatsJson == "" {
		return nil, fmt.Errorf("seatsJson metadata is empty: %w", types.ErrInvalidRequest)
	}
	var seats []types.SeatSelection
	if err := json.Unmarshal([]byte(seatsJson), &seats); err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, fmt.Errorf("seatsJson metadata has no seats: %w", types.ErrInvalidRequest)
	}
	return seats, nil
}

// ReconcilePayment is the only path that marks money as collected. Keyed by
// payment-intent id: a replayed event finds the booking that already carries
// the intent and acks without writing. Prices are re-resolved from the show
// record; metadata never carries amounts.
func ReconcilePayment(meta types.CheckoutMetadata, paymentIntentId string) error {
	if paymentIntentId == "" {
		return fmt.Errorf("event has no payment intent id: %w", types.ErrInvalidRequest)
	}
	database := db.GetDb()

	var existing models.Booking
	err := database.
		Where("stripe_payment_intent_id = ?", paymentIntentId).
		First(&existing).
		Error
	if err == nil {
		log.Printf("[Reconcile] PaymentIntent %s already reconciled to Booking [%s], skipping\n", paymentIntentId, existing.BookingNumber)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	showId, err := uuid.Parse(meta.ShowID)
	if err != nil {
		return fmt.Errorf("invalid showId in metadata: %w", types.ErrInvalidRequest)
	}
	performanceId, err := uuid.Parse(meta.PerformanceID)
	if err != nil {
		return fmt.Errorf("invalid performanceId in metadata: %w", types.ErrInvalidRequest)
	}
	seats, err := ParseSeatsJSON(meta.SeatsJSON)
	if err != nil {
		return err
	}

	var show models.Show
	if err := database.
		Where(&models.Show{ID: showId}).
		First(&show).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("show %s for pricing: %w", showId, types.ErrNotFound)
		}
		return err
	}
	prices, totalMinor := ResolveSeatPrices(&show, seats)
	if totalMinor <= 0 {
		return fmt.Errorf("reconciled total is zero for payment intent %s: %w", paymentIntentId, types.ErrInvalidRequest)
	}

	now := time.Now()
	err = database.Transaction(func(tx *gorm.DB) error {
		customerId, err := findOrCreateCustomer(tx, types.CustomerContact{
			Email:     meta.CustomerEmail,
			FirstName: meta.CustomerFirstName,
			LastName:  meta.CustomerLastName,
		})
		if err != nil {
			return err
		}

		var booking models.Booking
		haveHold := false
		if meta.BookingID != "" {
			bookingId, perr := uuid.Parse(meta.BookingID)
			if perr == nil {
				ferr := tx.
					Where(&models.Booking{ID: bookingId}).
					First(&booking).
					Error
				if ferr == nil && booking.Status == types.BOOKING_PENDING {
					haveHold = true
				} else if ferr != nil && !errors.Is(ferr, gorm.ErrRecordNotFound) {
					return ferr
				}
			}
		}

		if haveHold {
			// Flip the reservation hold to PAID and rewrite its items with
			// the authoritative prices; the reservation-time rows may be
			// stale if show pricing changed mid-checkout.
			if err := tx.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: booking.ID}).
				Updates(map[string]any{
					"status":                   types.BOOKING_PAID,
					"stripe_payment_intent_id": paymentIntentId,
					"paid_at":                  now,
					"total_amount":             MinorToAmount(totalMinor),
					"customer_id":              customerId,
					"hold_expires_at":          nil,
				}).
				Error; err != nil {
				return err
			}
			// The seat index only looks at active, not deleted_at, so the
			// old rows must actually leave the table before the re-insert.
			if err := tx.
				Unscoped().
				Where(&models.BookingItem{BookingID: booking.ID}).
				Delete(&models.BookingItem{}).
				Error; err != nil {
				return err
			}
		} else {
			booking = models.Booking{
				BookingNumber: GenerateBookingNumber(),
				Status:        types.BOOKING_PAID,
				TotalAmount:   MinorToAmount(totalMinor),
				BookingFee:    0,
				PaidAt:        &now,
				PerformanceID: performanceId,
				ShowID:        showId,
				CustomerID:    customerId,
			}
			booking.StripePaymentIntentId = &paymentIntentId
			if err := tx.Create(&booking).Error; err != nil {
				return err
			}
		}

		for _, p := range prices {
			item := models.BookingItem{
				BookingID:     booking.ID,
				SeatID:        p.SeatID,
				PerformanceID: performanceId,
				TicketType:    p.TicketType,
				Price:         MinorToAmount(p.UnitAmountMinor),
				Active:        true,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}

		if qr, qerr := GenerateBookingQR(&booking); qerr == nil {
			if err := tx.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: booking.ID}).
				Updates(&models.Booking{QRCodeData: qr}).
				Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Either a concurrent delivery of the same event won the insert,
			// or the seat index rejected a collision with a competing
			// booking. Only the first is reconciled; the second must bubble
			// up so the provider retries.
			var winner models.Booking
			ferr := database.
				Where("stripe_payment_intent_id = ?", paymentIntentId).
				First(&winner).
				Error
			if ferr == nil {
				log.Printf("[Reconcile] PaymentIntent %s already reconciled to Booking [%s], skipping\n", paymentIntentId, winner.BookingNumber)
				return nil
			}
		}
		log.Printf("[Reconcile] Failed for PaymentIntent %s: %s\n", paymentIntentId, err.Error())
		return err
	}

	lib.InvalidateBookedSeatsCache(performanceId)
	return nil
}

type RefundResult struct {
	RefundID   string  `json:"refundId"`
	Status     string  `json:"status"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	FullRefund bool    `json:"fullRefund"`
}

// IssueRefund refunds a booking's stored payment intent. Refunding the full
// amount (total plus fee) flips the booking to REFUNDED and releases its
// seats; a partial refund leaves status and seats untouched. Provider
// failure changes nothing locally.
func IssueRefund(params *types.CreateRefundRequestBody, issuedBy string) (*RefundResult, error) {
	if !lib.StripeConfigured() {
		return nil, types.ErrConfig
	}
	database := db.GetDb()
	var booking models.Booking
	if err := database.
		Where(&models.Booking{ID: params.BookingID}).
		First(&booking).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("booking %s: %w", params.BookingID, types.ErrNotFound)
		}
		return nil, err
	}
	if booking.StripePaymentIntentId == nil {
		return nil, fmt.Errorf("no payment associated with booking %s: %w", booking.BookingNumber, types.ErrInvalidRequest)
	}

	fullAmountMinor := AmountToMinor(booking.TotalAmount + booking.BookingFee)
	refundParams := &stripe.RefundCreateParams{
		PaymentIntent: booking.StripePaymentIntentId,
	}
	if params.Amount != nil {
		refundParams.Amount = stripe.Int64(AmountToMinor(*params.Amount))
	}
	refundParams.AddMetadata("bookingId", booking.ID.String())
	refundParams.AddMetadata("bookingNumber", booking.BookingNumber)
	refundParams.AddMetadata("issuedBy", issuedBy)

	sc := lib.GetStripeClient()
	refund, err := sc.V1Refunds.Create(context.Background(), refundParams)
	if err != nil {
		log.Printf("Refund failed for Booking [%s]: %s\n", booking.BookingNumber, err.Error())
		return nil, fmt.Errorf("%w: %s", types.ErrRefundFailed, err.Error())
	}

	fullRefund := refund.Amount == fullAmountMinor
	if fullRefund {
		err := database.Transaction(func(tx *gorm.DB) error {
			if err := tx.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: booking.ID}).
				Update("status", types.BOOKING_REFUNDED).
				Error; err != nil {
				return err
			}
			return tx.
				Model(&models.BookingItem{}).
				Where(&models.BookingItem{BookingID: booking.ID}).
				Update("active", false).
				Error
		})
		if err != nil {
			// The provider refund went through; surface the inconsistency
			// loudly rather than failing the request.
			log.Printf("Refund [%s] succeeded but Booking [%s] status update failed: %s\n", refund.ID, booking.BookingNumber, err.Error())
		}
		lib.InvalidateBookedSeatsCache(booking.PerformanceID)
	}

	return &RefundResult{
		RefundID:   refund.ID,
		Status:     string(refund.Status),
		Amount:     MinorToAmount(refund.Amount),
		Currency:   config.CURRENCY,
		FullRefund: fullRefund,
	}, nil
}

// ReleaseHold cancels a single PENDING booking and frees its seats. Used
// when the payment provider reports the checkout session expired, so the
// seats come back before the sweep would reach them.
func ReleaseHold(bookingId string) error {
	id, err := uuid.Parse(bookingId)
	if err != nil {
		return fmt.Errorf("bad booking id %q: %w", bookingId, types.ErrInvalidRequest)
	}
	database := db.GetDb()
	var booking models.Booking
	if err := database.
		Where(&models.Booking{ID: id}).
		Select("id", "booking_number", "status", "performance_id").
		First(&booking).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("booking %s: %w", bookingId, types.ErrNotFound)
		}
		return err
	}
	if booking.Status != types.BOOKING_PENDING {
		return nil
	}
	err = database.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Booking{}).
			Where(&models.Booking{ID: id, Status: types.BOOKING_PENDING}).
			Update("status", types.BOOKING_CANCELLED).
			Error; err != nil {
			return err
		}
		return tx.
			Model(&models.BookingItem{}).
			Where(&models.BookingItem{BookingID: id}).
			Update("active", false).
			Error
	})
	if err != nil {
		return err
	}
	log.Printf("[Hold] Released hold [%s]\n", booking.BookingNumber)
	lib.InvalidateBookedSeatsCache(booking.PerformanceID)
	return nil
}

// SweepExpiredHolds cancels PENDING bookings whose hold expiry has passed
// and releases their seats. Runs on the shared scheduler; also makes
// crash-orphaned holds harmless.
func SweepExpiredHolds() {
	database := db.GetDb()
	var expired []models.Booking
	err := database.
		Model(&models.Booking{}).
		Where("status = ?", types.BOOKING_PENDING).
		Where("hold_expires_at < ?", time.Now()).
		Select("id", "booking_number", "performance_id").
		Find(&expired).
		Error
	if err != nil {
		log.Printf("[Sweep] Error listing expired holds: %s\n", err.Error())
		return
	}
	if len(expired) == 0 {
		return
	}
	ids := make([]uuid.UUID, 0, len(expired))
	for _, b := range expired {
		ids = append(ids, b.ID)
	}
	err = database.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Booking{}).
			Where("id IN ?", ids).
			Where("status = ?", types.BOOKING_PENDING).
			Update("status", types.BOOKING_CANCELLED).
			Error; err != nil {
			return err
		}
		return tx.
			Model(&models.BookingItem{}).
			Where("booking_id IN ?", ids).
			Update("active", false).
			Error
	})
	if err != nil {
		log.Printf("[Sweep] Error cancelling expired holds: %s\n", err.Error())
		return
	}
	for _, b := range expired {
		log.Printf("[Sweep] Released expired hold [%s]\n", b.BookingNumber)
		lib.InvalidateBookedSeatsCache(b.PerformanceID)
	}
}
