package main

import (
	"boxoffice/src/db"
	"boxoffice/src/lib"
	"boxoffice/src/models"
	"boxoffice/src/types"
	"boxoffice/src/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const bookedSeatsCacheTTL = 30 * time.Second

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/booked-seats/:performanceId", func(ctx *gin.Context) {
			performanceId, err := uuid.Parse(ctx.Params.ByName("performanceId"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			cacheKey := lib.BookedSeatsCacheKey(performanceId)
			if rd := lib.GetRedisClient(); rd != nil {
				if cached, err := rd.Get(context.Background(), cacheKey).Result(); err == nil {
					ctx.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
					return
				}
			}

			bookedSeats, err := utils.ListBookedSeats(performanceId)
			if err != nil {
				log.Printf("Error fetching booked seats: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch booked seats"})
				return
			}

			bookedSeatIds := make([]uuid.UUID, 0, len(bookedSeats))
			bookedSeatDisplays := make([]string, 0, len(bookedSeats))
			for _, s := range bookedSeats {
				bookedSeatIds = append(bookedSeatIds, s.SeatID)
				bookedSeatDisplays = append(bookedSeatDisplays, s.SeatDisplay)
			}
			payload := gin.H{"data": gin.H{
				"performanceId":      performanceId,
				"bookedSeats":        bookedSeats,
				"bookedSeatIds":      bookedSeatIds,
				"bookedSeatDisplays": bookedSeatDisplays,
				"totalBooked":        len(bookedSeats),
			}}

			if rd := lib.GetRedisClient(); rd != nil {
				if raw, err := json.Marshal(payload); err == nil {
					if err := rd.SetEx(context.Background(), cacheKey, string(raw), bookedSeatsCacheTTL).Err(); err != nil {
						log.Printf("Error caching booked seats for %s: %s\n", performanceId, err.Error())
					}
				}
			}
			ctx.JSON(http.StatusOK, payload)
		}).
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			perf, err := utils.GetPerformanceWithShow(body.PerformanceID)
			if err != nil {
				respondError(ctx, err)
				return
			}
			prices, totalMinor := utils.ResolveSeatPrices(perf.Show, body.Seats)
			if totalMinor <= 0 {
				respondError(ctx, fmt.Errorf("calculated total is zero: %w", types.ErrInvalidRequest))
				return
			}

			booking, err := utils.CreateReservation(&body, prices, totalMinor)
			if err != nil {
				respondError(ctx, err)
				return
			}
			// Direct flow: no payment step, so the hold confirms at once.
			if err := utils.ConfirmBooking(booking.ID); err != nil {
				respondError(ctx, err)
				return
			}
			booking.Status = types.BOOKING_CONFIRMED
			booking.HoldExpiresAt = nil

			log.Printf("Created booking [%s] with %d seats\n", booking.BookingNumber, len(booking.Items))
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{
				"booking":     booking,
				"items":       booking.Items,
				"performance": booking.Performance,
				"show":        booking.Show,
			}})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			bookingId, err := uuid.Parse(ctx.Params.ByName("id"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var booking models.Booking
			database := db.GetDb()
			err = database.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: bookingId}).
				Preload("Customer").
				Preload("Performance.Show").
				Preload("Items.Seat").
				First(&booking).
				Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
					return
				}
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		})
	return g
}

func adminBookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/bookings", func(ctx *gin.Context) {
			var filters types.BookingQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			database := db.GetDb()
			query := database.
				Model(&models.Booking{}).
				Preload("Customer").
				Preload("Performance.Show").
				Preload("Items.Seat")
			if filters.CustomerID != "" {
				query = query.Where("customer_id = ?", filters.CustomerID)
			}
			if filters.PerformanceID != "" {
				query = query.Where("performance_id = ?", filters.PerformanceID)
			}
			if filters.Status != "" {
				query = query.Where("status = ?", filters.Status)
			}
			var bookings []models.Booking
			if err := query.
				Order("created_at DESC").
				Find(&bookings).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			bookingId, err := uuid.Parse(ctx.Params.ByName("id"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var booking models.Booking
			database := db.GetDb()
			if err := database.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: bookingId}).
				Preload("Customer").
				Preload("Performance.Show").
				Preload("Items.Seat").
				First(&booking).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
					return
				}
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		PUT("/bookings/:id/checkin", func(ctx *gin.Context) {
			bookingId, err := uuid.Parse(ctx.Params.ByName("id"))
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			database := db.GetDb()
			err = database.Transaction(func(tx *gorm.DB) error {
				var booking models.Booking
				if err := tx.
					Where(&models.Booking{ID: bookingId}).
					First(&booking).
					Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return fmt.Errorf("booking %s: %w", bookingId, types.ErrNotFound)
					}
					return err
				}
				if booking.Status != types.BOOKING_PAID && booking.Status != types.BOOKING_CONFIRMED {
					return fmt.Errorf("booking [%s] is %s, not checkable-in: %w", booking.BookingNumber, booking.Status, types.ErrInvalidRequest)
				}
				now := time.Now()
				return tx.
					Model(&models.Booking{}).
					Where(&models.Booking{ID: bookingId}).
					Updates(&models.Booking{
						Status:      types.BOOKING_CHECKED_IN,
						CheckedInAt: &now,
					}).
					Error
			})
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
