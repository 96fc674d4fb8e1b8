package utils

import (
	"boxoffice/src/db"
	"boxoffice/src/models"
	"boxoffice/src/types"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqldb,
	}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	db.NewDB(gdb)
	return mock
}

func testShow() *models.Show {
	return &models.Show{
		Title:           "A Midsummer Night's Dream",
		AdultPrice:      20,
		ChildPrice:      10,
		ConcessionPrice: 15,
	}
}

func TestPriceForTicketType(t *testing.T) {
	show := testShow()

	assert.Equal(t, int64(2000), PriceForTicketType(show, types.TICKET_ADULT))
	assert.Equal(t, int64(1000), PriceForTicketType(show, types.TICKET_CHILD))
	assert.Equal(t, int64(1500), PriceForTicketType(show, types.TICKET_CONCESSION))
	assert.Equal(t, int64(0), PriceForTicketType(show, types.TicketType("VIP")))
}

func TestPriceForTicketTypeRounding(t *testing.T) {
	show := &models.Show{AdultPrice: 12.345}
	assert.Equal(t, int64(1235), PriceForTicketType(show, types.TICKET_ADULT))
}

func TestResolveSeatPrices(t *testing.T) {
	show := testShow()
	seatA := uuid.New()
	seatB := uuid.New()
	seats := []types.SeatSelection{
		{SeatID: seatA, TicketType: types.TICKET_ADULT},
		{SeatID: seatB, TicketType: types.TICKET_CHILD},
	}

	prices, total := ResolveSeatPrices(show, seats)

	assert.Len(t, prices, 2)
	assert.Equal(t, int64(3000), total)
	assert.Equal(t, seatA, prices[0].SeatID)
	assert.Equal(t, int64(2000), prices[0].UnitAmountMinor)
	assert.Equal(t, seatB, prices[1].SeatID)
	assert.Equal(t, int64(1000), prices[1].UnitAmountMinor)
}

func TestResolveSeatPricesIgnoresClientAmounts(t *testing.T) {
	// Only ticket type and seat id enter the calculation; a tampered
	// request body cannot move the total.
	show := testShow()
	seats := []types.SeatSelection{
		{SeatID: uuid.New(), TicketType: types.TICKET_ADULT},
	}
	_, total := ResolveSeatPrices(show, seats)
	assert.Equal(t, int64(2000), total)
}

func TestMinorAmountConversions(t *testing.T) {
	assert.Equal(t, 30.0, MinorToAmount(3000))
	assert.Equal(t, int64(3000), AmountToMinor(30.0))
	assert.Equal(t, int64(1999), AmountToMinor(19.99))
	assert.Equal(t, 19.99, MinorToAmount(1999))
}

func TestGenerateBookingNumber(t *testing.T) {
	bn := GenerateBookingNumber()

	assert.True(t, strings.HasPrefix(bn, "BK"))
	assert.Len(t, bn, 11)
	assert.Equal(t, strings.ToUpper(bn), bn)
}

func TestGenerateBookingQR(t *testing.T) {
	booking := &models.Booking{
		ID:            uuid.New(),
		BookingNumber: "BK123456ABC",
	}
	qr, err := GenerateBookingQR(booking)

	assert.Nil(t, err)
	assert.NotNil(t, qr)
	assert.True(t, strings.HasPrefix(*qr, "data:image/png;base64,"))
}

func TestParseSeatsJSON(t *testing.T) {
	seatId := uuid.New()
	seats := []types.SeatSelection{
		{SeatID: seatId, TicketType: types.TICKET_CONCESSION},
	}
	raw, err := json.Marshal(&seats)
	assert.Nil(t, err)

	parsed, err := ParseSeatsJSON(string(raw))
	assert.Nil(t, err)
	assert.Len(t, parsed, 1)
	assert.Equal(t, seatId, parsed[0].SeatID)
	assert.Equal(t, types.TICKET_CONCESSION, parsed[0].TicketType)
}

func TestParseSeatsJSONEmpty(t *testing.T) {
	_, err := ParseSeatsJSON("")
	assert.True(t, errors.Is(err, types.ErrInvalidRequest))

	_, err = ParseSeatsJSON("[]")
	assert.True(t, errors.Is(err, types.ErrInvalidRequest))

	_, err = ParseSeatsJSON("{not json")
	assert.NotNil(t, err)
}

func TestSeatDisplay(t *testing.T) {
	seat := models.Seat{Row: "C", Number: "12"}
	assert.Equal(t, "C12", seat.Display())
}

func TestCreateReservationConflictAbortsWrite(t *testing.T) {
	mock := newMockDB(t)

	performanceId := uuid.New()
	showId := uuid.New()
	takenSeat := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "performances"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "show_id"}).
			AddRow(performanceId.String(), showId.String()))
	mock.ExpectQuery(`SELECT (.+) FROM "shows"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "adult_price", "child_price", "concession_price"}).
			AddRow(showId.String(), 20.0, 10.0, 15.0))
	mock.ExpectQuery(`SELECT (.+) FROM "booking_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seat_id", "performance_id", "active", "Seat__id", "Seat__row", "Seat__number"}).
			AddRow(uuid.NewString(), takenSeat.String(), performanceId.String(), true, takenSeat.String(), "A", "1"))

	params := types.CreateBookingRequestBody{
		PerformanceID: performanceId,
		Customer:      types.CustomerContact{Email: "someone@example.com"},
		Seats: []types.SeatSelection{
			{SeatID: takenSeat, TicketType: types.TICKET_ADULT},
		},
	}
	prices := []types.SeatPrice{
		{SeatID: takenSeat, TicketType: types.TICKET_ADULT, UnitAmountMinor: 2000},
	}

	booking, err := CreateReservation(&params, prices, 2000)

	assert.Nil(t, booking)
	conflict, ok := types.IsSeatConflict(err)
	assert.True(t, ok)
	assert.Equal(t, []uuid.UUID{takenSeat}, conflict.SeatIDs)
	assert.Equal(t, []string{"A1"}, conflict.SeatDisplays)
	// No transaction was expected: any booking or item write would have
	// failed the mock.
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestReconcilePaymentReplayIsIdempotent(t *testing.T) {
	mock := newMockDB(t)

	paymentIntentId := "pi_replay_123"
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_number", "status", "stripe_payment_intent_id"}).
			AddRow(uuid.NewString(), "BK123456ABC", "PAID", paymentIntentId))

	meta := types.CheckoutMetadata{
		BookingID:     uuid.NewString(),
		ShowID:        uuid.NewString(),
		PerformanceID: uuid.NewString(),
		SeatsJSON:     `[{"seatId":"` + uuid.NewString() + `","ticketType":"ADULT"}]`,
		CustomerEmail: "someone@example.com",
	}
	err := ReconcilePayment(meta, paymentIntentId)

	assert.Nil(t, err)
	// The lookup by payment intent short-circuits before any write.
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestReconcilePaymentRewritesHoldItems(t *testing.T) {
	mock := newMockDB(t)

	paymentIntentId := "pi_hold_456"
	bookingId := uuid.New()
	showId := uuid.New()
	performanceId := uuid.New()
	seatId := uuid.New()
	customerId := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "shows"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "adult_price", "child_price", "concession_price"}).
			AddRow(showId.String(), 20.0, 10.0, 15.0))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "customers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(customerId.String(), "someone@example.com"))
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_number", "status", "performance_id", "show_id"}).
			AddRow(bookingId.String(), "BK123456ABC", "PENDING", performanceId.String(), showId.String()))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// The hold's stale items must be removed outright; a soft delete would
	// leave them active inside the partial seat index and abort the
	// re-insert below.
	mock.ExpectExec(`DELETE FROM "booking_items"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "booking_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	meta := types.CheckoutMetadata{
		BookingID:     bookingId.String(),
		ShowID:        showId.String(),
		PerformanceID: performanceId.String(),
		SeatsJSON:     fmt.Sprintf(`[{"seatId":%q,"ticketType":"ADULT"}]`, seatId),
		CustomerEmail: "someone@example.com",
	}
	err := ReconcilePayment(meta, paymentIntentId)

	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestReconcilePaymentSeatRaceSurfacesError(t *testing.T) {
	mock := newMockDB(t)

	paymentIntentId := "pi_race_789"
	showId := uuid.New()
	performanceId := uuid.New()
	seatId := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT (.+) FROM "shows"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "adult_price", "child_price", "concession_price"}).
			AddRow(showId.String(), 20.0, 10.0, 15.0))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "customers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(uuid.NewString(), "someone@example.com"))
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()
	// No booking carries this intent, so the duplicate key came from a
	// competing booking's seats; the event must fail so the provider
	// retries.
	mock.ExpectQuery(`SELECT (.+) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	meta := types.CheckoutMetadata{
		ShowID:        showId.String(),
		PerformanceID: performanceId.String(),
		SeatsJSON:     fmt.Sprintf(`[{"seatId":%q,"ticketType":"ADULT"}]`, seatId),
		CustomerEmail: "someone@example.com",
	}
	err := ReconcilePayment(meta, paymentIntentId)

	assert.NotNil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestSeatConflictError(t *testing.T) {
	conflict := &types.SeatConflictError{
		SeatIDs:      []uuid.UUID{uuid.New()},
		SeatDisplays: []string{"A1"},
	}
	wrapped := errors.Join(errors.New("reservation failed"), conflict)

	got, ok := types.IsSeatConflict(wrapped)
	assert.True(t, ok)
	assert.Equal(t, []string{"A1"}, got.SeatDisplays)
	assert.Contains(t, conflict.Error(), "A1")
}
